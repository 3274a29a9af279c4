package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/adapter"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/repository"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/knowledge"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/memory"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Identity
	userID string

	// Repository
	project  string
	database string

	// Adapters
	geminiProject  string
	geminiLocation string
	bucket         string
	bqDataset      string

	// Engine tunables
	chunkSize    int64
	chunkOverlap int64
	topK         int64
	threshold    float64
	categoryMap  string

	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "Teacher account all operations are scoped to",
			Sources:     cli.EnvVars("EDUHU_USER_ID"),
			Destination: &cfg.userID,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("EDUHU_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for model-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// engineFlags returns retrieval and segmentation tunables
func engineFlags(cfg *config) []cli.Flag {
	defaults := knowledge.DefaultConfig()
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Target chunk size in characters",
			Value:       int64(defaults.ChunkSize),
			Sources:     cli.EnvVars("EDUHU_CHUNK_SIZE"),
			Destination: &cfg.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Chunk overlap in characters",
			Value:       int64(defaults.ChunkOverlap),
			Sources:     cli.EnvVars("EDUHU_CHUNK_OVERLAP"),
			Destination: &cfg.chunkOverlap,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Maximum number of retrieval results",
			Value:       int64(defaults.TopK),
			Sources:     cli.EnvVars("EDUHU_TOP_K"),
			Destination: &cfg.topK,
		},
		&cli.FloatFlag{
			Name:        "threshold",
			Usage:       "Minimum cosine similarity for a result",
			Value:       defaults.Threshold,
			Sources:     cli.EnvVars("EDUHU_THRESHOLD"),
			Destination: &cfg.threshold,
		},
	}
}

// sinkFlags returns flags for optional archival and audit sinks
func sinkFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for raw upload archival",
			Sources:     cli.EnvVars("EDUHU_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset",
			Usage:       "BigQuery dataset for run audit records",
			Sources:     cli.EnvVars("EDUHU_BIGQUERY_DATASET"),
			Destination: &cfg.bqDataset,
		},
	}
}

// configureLogging installs the default logger at the configured level
func (cfg *config) configureLogging() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

func (cfg *config) user() (model.UserID, error) {
	if cfg.userID == "" {
		return "", goerr.New("user-id is required")
	}
	return model.UserID(cfg.userID), nil
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation)
}

// newAudit creates the BigQuery audit sink when a dataset is configured
func (cfg *config) newAudit(ctx context.Context) (adapter.Audit, error) {
	if cfg.bqDataset == "" {
		return nil, nil
	}
	return adapter.NewBigQueryAudit(ctx, cfg.project, cfg.bqDataset)
}

// newKnowledge assembles the knowledge usecase from the configured parts
func (cfg *config) newKnowledge(ctx context.Context) (*knowledge.UseCase, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	opts := []knowledge.Option{
		knowledge.WithConfig(knowledge.Config{
			ChunkSize:    int(cfg.chunkSize),
			ChunkOverlap: int(cfg.chunkOverlap),
			TopK:         int(cfg.topK),
			Threshold:    cfg.threshold,
		}),
	}

	if cfg.bucket != "" {
		archive, err := adapter.NewStorage(ctx, cfg.bucket)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage")
		}
		opts = append(opts, knowledge.WithArchive(archive))
	}

	audit, err := cfg.newAudit(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create audit sink")
	}
	if audit != nil {
		opts = append(opts, knowledge.WithAudit(audit))
	}

	return knowledge.New(repo, gemini, adapter.NewPlainTextExtractor(), opts...), nil
}

// newMemory assembles the memory usecase from the configured parts
func (cfg *config) newMemory(ctx context.Context) (*memory.UseCase, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	cooldown, err := memory.NewCooldown(memory.DefaultCooldown)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create cooldown store")
	}
	opts := []memory.Option{memory.WithCooldown(cooldown)}

	if cfg.categoryMap != "" {
		remap, err := memory.LoadRemapTable(cfg.categoryMap)
		if err != nil {
			return nil, err
		}
		opts = append(opts, memory.WithRemapTable(remap))
	}

	audit, err := cfg.newAudit(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create audit sink")
	}
	if audit != nil {
		opts = append(opts, memory.WithAudit(audit))
	}

	return memory.New(repo, gemini, opts...), nil
}
