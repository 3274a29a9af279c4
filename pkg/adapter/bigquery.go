package adapter

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
)

// Audit records engine runs for offline analysis. Implementations must be
// fire-and-forget safe: callers treat a nil Audit as disabled.
type Audit interface {
	// IngestRun records one document ingestion
	IngestRun(ctx context.Context, rec *IngestRecord) error
	// ConsolidationRun records one consolidation pass
	ConsolidationRun(ctx context.Context, rec *ConsolidationRecord) error
}

// IngestRecord is one row in the ingest audit table
type IngestRecord struct {
	UserID     string    `bigquery:"user_id"`
	DocumentID string    `bigquery:"document_id"`
	Subject    string    `bigquery:"subject"`
	ChunkCount int       `bigquery:"chunk_count"`
	TextBytes  int       `bigquery:"text_bytes"`
	DurationMS int64     `bigquery:"duration_ms"`
	At         time.Time `bigquery:"at"`
}

// ConsolidationRecord is one row in the consolidation audit table
type ConsolidationRecord struct {
	UserID            string    `bigquery:"user_id"`
	Migrated          int       `bigquery:"migrated"`
	DuplicatesRemoved int       `bigquery:"duplicates_removed"`
	Merged            int       `bigquery:"merged"`
	Archived          int       `bigquery:"archived"`
	DurationMS        int64     `bigquery:"duration_ms"`
	At                time.Time `bigquery:"at"`
}

const (
	ingestTable        = "ingest_runs"
	consolidationTable = "consolidation_runs"
)

type bigqueryAudit struct {
	client  *bigquery.Client
	dataset string
}

// NewBigQueryAudit creates an audit sink backed by BigQuery streaming
// inserts into the given dataset
func NewBigQueryAudit(ctx context.Context, projectID, dataset string) (Audit, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	return &bigqueryAudit{
		client:  client,
		dataset: dataset,
	}, nil
}

func (a *bigqueryAudit) IngestRun(ctx context.Context, rec *IngestRecord) error {
	ins := a.client.Dataset(a.dataset).Table(ingestTable).Inserter()
	if err := ins.Put(ctx, rec); err != nil {
		return goerr.Wrap(err, "failed to insert ingest audit row")
	}
	return nil
}

func (a *bigqueryAudit) ConsolidationRun(ctx context.Context, rec *ConsolidationRecord) error {
	ins := a.client.Dataset(a.dataset).Table(consolidationTable).Inserter()
	if err := ins.Put(ctx, rec); err != nil {
		return goerr.Wrap(err, "failed to insert consolidation audit row")
	}
	return nil
}
