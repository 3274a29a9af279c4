package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/memory"
	"github.com/urfave/cli/v3"
)

func consolidateCommand() *cli.Command {
	var (
		cfg config
		all bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "Consolidate every user holding memories",
			Destination: &all,
		},
		&cli.StringFlag{
			Name:        "category-map",
			Usage:       "YAML file overriding the legacy category remap table",
			Sources:     cli.EnvVars("EDUHU_CATEGORY_MAP"),
			Destination: &cfg.categoryMap,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, sinkFlags(&cfg)...)

	return &cli.Command{
		Name:  "consolidate",
		Usage: "Run the memory maintenance job",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			uc, err := cfg.newMemory(ctx)
			if err != nil {
				return err
			}
			w := c.Root().Writer

			if all {
				results, err := uc.ConsolidateAll(ctx)
				if err != nil {
					return goerr.Wrap(err, "consolidation failed")
				}
				for user, counters := range results {
					fmt.Fprintf(w, "%s: %s\n", user, formatCounters(counters))
				}
				return nil
			}

			user, err := cfg.user()
			if err != nil {
				return err
			}
			counters, err := uc.Consolidate(ctx, user)
			if err != nil {
				return goerr.Wrap(err, "consolidation failed")
			}
			if counters == nil {
				fmt.Fprintf(w, "Skipped, cooldown still active for %s\n", user)
				return nil
			}
			fmt.Fprintf(w, "%s\n", formatCounters(counters))
			return nil
		},
	}
}

func formatCounters(c *memory.Counters) string {
	return fmt.Sprintf("migrated=%d duplicates_removed=%d merged=%d archived=%d",
		c.Migrated, c.DuplicatesRemoved, c.Merged, c.Archived)
}
