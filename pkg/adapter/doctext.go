package adapter

import (
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
)

// DocumentExtractor converts uploaded document bytes into plain text.
// PDF and Word extraction are provided by an external service behind this
// interface; this package only ships the plain-text implementation.
type DocumentExtractor interface {
	Extract(data []byte, filename string) (string, error)
}

// PlainTextExtractor handles .txt and .md uploads
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (x *PlainTextExtractor) Extract(data []byte, filename string) (string, error) {
	if !utf8.Valid(data) {
		return "", goerr.New("document is not valid UTF-8 text", goerr.V("filename", filename))
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return text, nil
}
