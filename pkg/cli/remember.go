package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/memory"
	"github.com/urfave/cli/v3"
)

func rememberCommand() *cli.Command {
	var (
		cfg        config
		scope      string
		category   string
		key        string
		value      string
		importance float64
		refID      string
		decayDays  int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "scope",
			Usage:       "Fact scope: self, school, class, or student",
			Value:       string(model.ScopeSelf),
			Destination: &scope,
		},
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Canonical category tag of the fact",
			Required:    true,
			Destination: &category,
		},
		&cli.StringFlag{
			Name:        "key",
			Aliases:     []string{"k"},
			Usage:       "Short identifying key of the fact",
			Required:    true,
			Destination: &key,
		},
		&cli.StringFlag{
			Name:        "value",
			Aliases:     []string{"v"},
			Usage:       "The fact itself",
			Required:    true,
			Destination: &value,
		},
		&cli.FloatFlag{
			Name:        "importance",
			Usage:       "Importance from 0.0 to 1.0",
			Value:       0.5,
			Destination: &importance,
		},
		&cli.StringFlag{
			Name:        "ref-id",
			Usage:       "Class or student reference the fact belongs to",
			Destination: &refID,
		},
		&cli.IntFlag{
			Name:        "decay-days",
			Usage:       "Days after which an unimportant fact may be archived",
			Destination: &decayDays,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "remember",
		Usage: "Store or correct a fact directly",
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

			entry, err := uc.Remember(ctx, memory.RememberInput{
				UserID:     user,
				Scope:      model.MemoryScope(scope),
				Category:   model.Category(category),
				Key:        key,
				Value:      value,
				Importance: importance,
				RefID:      refID,
				DecayDays:  int(decayDays),
			})
			if err != nil {
				return goerr.Wrap(err, "failed to store fact")
			}

			fmt.Fprintf(c.Root().Writer, "Stored %s/%s/%s as %s\n",
				entry.Scope, entry.Category, entry.Key, entry.ID)
			return nil
		},
	}
}
