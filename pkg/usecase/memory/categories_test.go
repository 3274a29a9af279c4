package memory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/memory"
)

func TestLoadRemapTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remap.yml")
	gt.NoError(t, os.WriteFile(path, []byte("alt_fach: faecher_und_themen\nnotizen: persoenliches\n"), 0o600))

	table, err := memory.LoadRemapTable(path)
	gt.NoError(t, err)
	gt.Equal(t, table["alt_fach"], model.CategorySubjects)
	gt.Equal(t, table["notizen"], model.CategoryPersonal)
}

func TestLoadRemapTableRejectsUnknownTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remap.yml")
	gt.NoError(t, os.WriteFile(path, []byte("alt_fach: kein_kanon\n"), 0o600))

	_, err := memory.LoadRemapTable(path)
	gt.Error(t, err)
}

func TestCooldownWindow(t *testing.T) {
	cooldown, err := memory.NewCooldown(memory.DefaultCooldown)
	gt.NoError(t, err)

	user := model.UserID("teacher-1")
	gt.False(t, cooldown.Active(user))
	cooldown.Touch(user)
	gt.True(t, cooldown.Active(user))
	gt.False(t, cooldown.Active("teacher-2"))
}
