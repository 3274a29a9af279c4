package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/memory"
	"github.com/urfave/cli/v3"
)

func extractCommand() *cli.Command {
	var (
		cfg            config
		input          string
		conversationID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to a JSON transcript: [{\"role\": ..., \"content\": ...}]",
			Required:    true,
			Destination: &input,
		},
		&cli.StringFlag{
			Name:        "conversation-id",
			Usage:       "Conversation the transcript belongs to, enables the session summary",
			Destination: &conversationID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "extract",
		Usage: "Extract durable facts from a conversation transcript",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			user, err := cfg.user()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return goerr.Wrap(err, "failed to read transcript", goerr.V("path", input))
			}
			var turns []memory.Turn
			if err := json.Unmarshal(data, &turns); err != nil {
				return goerr.Wrap(err, "failed to parse transcript", goerr.V("path", input))
			}

			uc, err := cfg.newMemory(ctx)
			if err != nil {
				return err
			}

			result, err := uc.Extract(ctx, memory.ExtractInput{
				UserID:         user,
				ConversationID: conversationID,
				Turns:          turns,
			})
			if err != nil {
				return goerr.Wrap(err, "extraction failed")
			}

			w := c.Root().Writer
			for _, e := range result.Saved {
				fmt.Fprintf(w, "Saved %s/%s/%s = %s\n", e.Scope, e.Category, e.Key, e.Value)
			}
			if result.Dropped > 0 {
				fmt.Fprintf(w, "Dropped %d candidate(s)\n", result.Dropped)
			}
			if result.Summary != nil {
				fmt.Fprintf(w, "Summary: %s\n", result.Summary.Summary)
			}
			return nil
		},
	}
}
