package memory

import (
	_ "embed"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"gopkg.in/yaml.v3"
)

//go:embed categories.yml
var defaultRemapRaw []byte

// defaultRemapTable parses the embedded legacy remap table. The embedded
// file is validated by tests, so a parse failure here is a build defect.
func defaultRemapTable() map[string]model.Category {
	table, err := parseRemapTable(defaultRemapRaw)
	if err != nil {
		panic(err)
	}
	return table
}

// LoadRemapTable reads a legacy category remap table from a YAML file, a
// flat many-to-one mapping of legacy tag -> canonical category
func LoadRemapTable(path string) (map[string]model.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read remap table", goerr.V("path", path))
	}
	return parseRemapTable(data)
}

func parseRemapTable(data []byte) (map[string]model.Category, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "failed to parse remap table")
	}

	table := make(map[string]model.Category, len(raw))
	for legacy, target := range raw {
		category := model.Category(target)
		if err := category.Validate(); err != nil {
			return nil, goerr.Wrap(err, "remap target is not a canonical category",
				goerr.V("legacy", legacy), goerr.V("target", target))
		}
		table[legacy] = category
	}
	return table, nil
}
