package adapter_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/adapter"
)

func setupGemini(t *testing.T) *adapter.GeminiClient {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}
	location := os.Getenv("TEST_GEMINI_LOCATION")
	if location == "" {
		location = "us-central1"
	}

	client, err := adapter.NewGemini(context.Background(), projectID, location)
	gt.NoError(t, err)
	return client
}

func TestGeminiEmbed(t *testing.T) {
	client := setupGemini(t)
	ctx := context.Background()

	embeddings, err := client.Embed(ctx, []string{
		"Bruchrechnung in Klasse 6",
		"Lyrik der Romantik",
	})
	gt.NoError(t, err)
	gt.A(t, embeddings).Length(2)
	for i, e := range embeddings {
		gt.Equal(t, e.Index, i)
		gt.A(t, e.Values).Length(768)
	}
}

func TestGeminiEmbedBatchLimit(t *testing.T) {
	client := setupGemini(t)

	texts := make([]string, adapter.EmbedBatchLimit+1)
	for i := range texts {
		texts[i] = "text"
	}
	_, err := client.Embed(context.Background(), texts)
	gt.Error(t, err)
}

func TestPlainTextExtractor(t *testing.T) {
	x := adapter.NewPlainTextExtractor()

	text, err := x.Extract([]byte("Zeile eins\r\nZeile zwei\n"), "doc.txt")
	gt.NoError(t, err)
	gt.False(t, strings.Contains(text, "\r"))
	gt.Equal(t, text, "Zeile eins\nZeile zwei\n")

	_, err = x.Extract([]byte{0xff, 0xfe, 0x00}, "doc.txt")
	gt.Error(t, err)
}
