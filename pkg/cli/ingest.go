package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/knowledge"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg       config
		input     string
		subject   string
		gradeBand string
		region    string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to the curriculum document (.txt or .md)",
			Required:    true,
			Destination: &input,
		},
		&cli.StringFlag{
			Name:        "subject",
			Aliases:     []string{"s"},
			Usage:       "Subject the document covers",
			Required:    true,
			Destination: &subject,
		},
		&cli.StringFlag{
			Name:        "grade-band",
			Aliases:     []string{"g"},
			Usage:       "Grade band, e.g. 5-6",
			Destination: &gradeBand,
		},
		&cli.StringFlag{
			Name:        "region",
			Aliases:     []string{"r"},
			Usage:       "Region or federal state of the curriculum",
			Destination: &region,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, engineFlags(&cfg)...)
	flags = append(flags, sinkFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Ingest a curriculum document into the knowledge store",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			user, err := cfg.user()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return goerr.Wrap(err, "failed to read input file", goerr.V("path", input))
			}

			uc, err := cfg.newKnowledge(ctx)
			if err != nil {
				return err
			}

			summary, err := uc.Ingest(ctx, knowledge.IngestInput{
				UserID:    user,
				Subject:   subject,
				GradeBand: gradeBand,
				Region:    region,
				Data:      data,
				Filename:  filepath.Base(input),
			})
			if err != nil {
				return goerr.Wrap(err, "ingestion failed")
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "Document %s ingested: %d chunks from %d bytes\n",
				summary.DocumentID, summary.ChunkCount, summary.TextBytes)
			if len(summary.Outline) > 0 {
				fmt.Fprintf(w, "Outline:\n")
				for _, line := range summary.Outline {
					fmt.Fprintf(w, "  %s\n", line)
				}
			}
			return nil
		},
	}
}
