package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/knowledge"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg   config
		query string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Query text to retrieve curriculum passages for",
			Required:    true,
			Destination: &query,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, engineFlags(&cfg)...)

	return &cli.Command{
		Name:  "search",
		Usage: "Retrieve the most relevant curriculum passages",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			user, err := cfg.user()
			if err != nil {
				return err
			}

			uc, err := cfg.newKnowledge(ctx)
			if err != nil {
				return err
			}

			result, err := uc.Search(ctx, knowledge.SearchInput{
				UserID:    user,
				Query:     query,
				TopK:      int(cfg.topK),
				Threshold: cfg.threshold,
			})
			if err != nil {
				return goerr.Wrap(err, "search failed")
			}

			printSearchResult(c, result)
			return nil
		},
	}
}

func printSearchResult(c *cli.Command, result *knowledge.SearchResult) {
	w := c.Root().Writer

	if result.Guidance != "" {
		fmt.Fprintf(w, "%s\n", result.Guidance)
		return
	}
	if len(result.Matches) == 0 {
		fmt.Fprintf(w, "Keine passenden Stellen gefunden.\n")
		return
	}

	for i, m := range result.Matches {
		fmt.Fprintf(w, "[%d] %s", i+1, m.Label)
		if m.Similarity > 0 {
			fmt.Fprintf(w, " (%.2f)", m.Similarity)
		}
		fmt.Fprintf(w, "\n%s\n\n", truncate(m.Text, 400))
	}
	if result.Attribution != "" {
		fmt.Fprintf(w, "%s\n", result.Attribution)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
