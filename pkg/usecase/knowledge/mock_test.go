package knowledge_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/sbrill95/eduhu-assistant-sub000/pkg/adapter"
	"google.golang.org/genai"
)

// geminiMock derives embeddings from marker words so tests control
// similarity without a live model
type geminiMock struct {
	embedErr   error
	reversed   bool
	embedCalls int
}

func vecFor(text string) []float32 {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "bruch"):
		return []float32{1, 0, 0}
	case strings.Contains(t, "geometrie"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (m *geminiMock) Embed(ctx context.Context, texts []string) ([]adapter.Embedding, error) {
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([]adapter.Embedding, len(texts))
	for i, t := range texts {
		out[i] = adapter.Embedding{Index: i, Values: vecFor(t)}
	}
	if m.reversed {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (m *geminiMock) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, errors.New("not used in this package")
}

// storageMock keeps archived objects in memory
type storageMock struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStorageMock() *storageMock {
	return &storageMock{objects: make(map[string][]byte)}
}

type storageWriter struct {
	buf  bytes.Buffer
	done func([]byte)
}

func (w *storageWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *storageWriter) Close() error {
	w.done(w.buf.Bytes())
	return nil
}

func (s *storageMock) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &storageWriter{done: func(data []byte) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.objects[key] = data
	}}, nil
}

func (s *storageMock) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type auditMock struct {
	ingests        []*adapter.IngestRecord
	consolidations []*adapter.ConsolidationRecord
}

func (a *auditMock) IngestRun(ctx context.Context, rec *adapter.IngestRecord) error {
	a.ingests = append(a.ingests, rec)
	return nil
}

func (a *auditMock) ConsolidationRun(ctx context.Context, rec *adapter.ConsolidationRecord) error {
	a.consolidations = append(a.consolidations, rec)
	return nil
}
