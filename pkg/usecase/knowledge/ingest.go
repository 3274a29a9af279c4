package knowledge

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/adapter"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/segment"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/utils/logging"
)

const excerptSize = 500

// IngestInput contains parameters for ingesting one curriculum document
type IngestInput struct {
	UserID    model.UserID
	Subject   string
	GradeBand string
	Region    string
	Data      []byte
	Filename  string
}

// IngestSummary reports the outcome of an ingestion
type IngestSummary struct {
	DocumentID model.DocumentID
	ChunkCount int
	TextBytes  int
	Outline    []string
}

// Ingest extracts text from an uploaded document, segments and embeds it,
// and replaces the document's chunk set. The document stays in processing
// state until the repository confirms the full chunk set was persisted;
// any earlier failure leaves it retryable.
func (uc *UseCase) Ingest(ctx context.Context, input IngestInput) (*IngestSummary, error) {
	started := time.Now()
	logger := logging.From(ctx)

	text, err := uc.extractor.Extract(input.Data, input.Filename)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract document text", goerr.V("filename", input.Filename))
	}
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(model.ErrEmptyDocument, "nothing to ingest", goerr.V("filename", input.Filename))
	}

	chunks := segment.Split(text, uc.cfg.ChunkSize, uc.cfg.ChunkOverlap)
	outline := topicOutline(text)

	doc, err := uc.upsertDocument(ctx, input, text, outline)
	if err != nil {
		return nil, err
	}

	if uc.archive != nil {
		if err := uc.archiveUpload(ctx, doc, input); err != nil {
			// Archival is best-effort; the chunk set is the source of truth
			logger.Warn("failed to archive raw upload", "error", err, "document_id", doc.ID)
		}
	}

	vectors, err := uc.embedChunks(ctx, chunks)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed chunks", goerr.V("document_id", doc.ID))
	}

	records := make([]*model.CurriculumChunk, 0, len(chunks))
	for i, c := range chunks {
		records = append(records, &model.CurriculumChunk{
			ID:         fmt.Sprintf("%s-%04d", doc.ID, c.Seq),
			DocumentID: doc.ID,
			UserID:     input.UserID,
			Seq:        c.Seq,
			Text:       c.Text,
			Start:      c.Start,
			End:        c.End,
			Embedding:  firestore.Vector32(vectors[i]),
			Subject:    input.Subject,
			GradeBand:  input.GradeBand,
			Region:     input.Region,
		})
	}

	persisted, err := uc.repo.ReplaceChunks(ctx, doc.ID, records)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to replace chunks", goerr.V("document_id", doc.ID))
	}
	if persisted != len(records) {
		return nil, goerr.New("chunk set incomplete, document left in processing",
			goerr.V("document_id", doc.ID), goerr.V("persisted", persisted), goerr.V("expected", len(records)))
	}

	if err := uc.repo.UpdateDocumentStatus(ctx, doc.ID, model.DocumentStatusActive); err != nil {
		return nil, goerr.Wrap(err, "failed to activate document", goerr.V("document_id", doc.ID))
	}

	logger.Info("ingested curriculum document",
		"document_id", doc.ID, "subject", input.Subject, "chunks", len(records))

	if uc.audit != nil {
		rec := &adapter.IngestRecord{
			UserID:     string(input.UserID),
			DocumentID: string(doc.ID),
			Subject:    input.Subject,
			ChunkCount: len(records),
			TextBytes:  len(text),
			DurationMS: time.Since(started).Milliseconds(),
			At:         time.Now(),
		}
		if err := uc.audit.IngestRun(ctx, rec); err != nil {
			logger.Warn("failed to record ingest audit row", "error", err)
		}
	}

	return &IngestSummary{
		DocumentID: doc.ID,
		ChunkCount: len(records),
		TextBytes:  len(text),
		Outline:    outline,
	}, nil
}

// upsertDocument creates or reuses the document record keyed by
// (user, subject, grade band) and marks it processing
func (uc *UseCase) upsertDocument(ctx context.Context, input IngestInput, text string, outline []string) (*model.CurriculumDocument, error) {
	now := time.Now()

	doc, err := uc.repo.FindDocument(ctx, input.UserID, input.Subject, input.GradeBand)
	switch {
	case err == nil:
		// Re-ingestion of an existing document
	case errors.Is(err, model.ErrNotFound):
		doc = &model.CurriculumDocument{
			ID:        model.NewDocumentID(),
			UserID:    input.UserID,
			Subject:   input.Subject,
			GradeBand: input.GradeBand,
			CreatedAt: now,
		}
	default:
		return nil, goerr.Wrap(err, "failed to look up document")
	}

	excerpt := text
	if len(excerpt) > excerptSize {
		excerpt = excerpt[:excerptSize]
	}

	doc.Region = input.Region
	doc.Status = model.DocumentStatusProcessing
	doc.Excerpt = excerpt
	doc.TopicOutline = outline
	doc.SourceFilename = input.Filename
	doc.UpdatedAt = now

	if err := uc.repo.PutDocument(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to save document")
	}
	return doc, nil
}

// embedChunks requests embeddings in batches and re-sorts each response
// by its own index field; batch responses must not be assumed to preserve
// submission order.
func (uc *UseCase) embedChunks(ctx context.Context, chunks []segment.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	dim := 0

	for offset := 0; offset < len(chunks); offset += adapter.EmbedBatchLimit {
		end := offset + adapter.EmbedBatchLimit
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-offset)
		for _, c := range chunks[offset:end] {
			texts = append(texts, c.Text)
		}

		embeddings, err := uc.gemini.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(embeddings) != len(texts) {
			return nil, goerr.New("embedding batch size mismatch",
				goerr.V("requested", len(texts)), goerr.V("returned", len(embeddings)))
		}

		sort.Slice(embeddings, func(i, j int) bool { return embeddings[i].Index < embeddings[j].Index })
		for i, e := range embeddings {
			if e.Index != i {
				return nil, goerr.New("embedding batch has gaps", goerr.V("index", e.Index))
			}
			if dim == 0 {
				dim = len(e.Values)
			}
			if len(e.Values) == 0 || len(e.Values) != dim {
				return nil, goerr.New("embedding dimension mismatch",
					goerr.V("index", offset+i), goerr.V("got", len(e.Values)), goerr.V("want", dim))
			}
			vectors[offset+i] = e.Values
		}
	}

	return vectors, nil
}

func (uc *UseCase) archiveUpload(ctx context.Context, doc *model.CurriculumDocument, input IngestInput) error {
	key := path.Join("curriculum", string(input.UserID), string(doc.ID), input.Filename)
	w, err := uc.archive.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open archive object", goerr.V("key", key))
	}
	if _, err := w.Write(input.Data); err != nil {
		w.Close()
		return goerr.Wrap(err, "failed to write archive object", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize archive object", goerr.V("key", key))
	}
	return nil
}
