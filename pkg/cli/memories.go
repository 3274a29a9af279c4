package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/urfave/cli/v3"
)

func memoriesCommand() *cli.Command {
	var (
		cfg      config
		category string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Only list facts with this category tag",
			Destination: &category,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "memories",
		Usage: "List the stored facts of a teacher",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			user, err := cfg.user()
			if err != nil {
				return err
			}

			uc, err := cfg.newMemory(ctx)
			if err != nil {
				return err
			}

			entries, err := uc.List(ctx, user)
			if err != nil {
				return goerr.Wrap(err, "failed to list memories")
			}

			w := c.Root().Writer
			shown := 0
			for _, e := range entries {
				if category != "" && e.Category != model.Category(category) {
					continue
				}
				shown++
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\t%s\n",
					e.Scope,
					e.Category,
					e.Key,
					e.Value,
					e.Importance,
					e.Source,
					e.LastTouch().Format("2006-01-02 15:04:05"),
				)
			}
			if shown == 0 {
				fmt.Fprintf(w, "No stored facts found for %s\n", user)
			}
			return nil
		},
	}
}
