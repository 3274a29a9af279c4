package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/knowledge"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/memory"
	"github.com/urfave/cli/v3"
)

func replCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, engineFlags(&cfg)...)

	return &cli.Command{
		Name:  "repl",
		Usage: "Interactive retrieval session over the knowledge store",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			user, err := cfg.user()
			if err != nil {
				return err
			}

			kn, err := cfg.newKnowledge(ctx)
			if err != nil {
				return err
			}
			mem, err := cfg.newMemory(ctx)
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "eduhu> ",
				HistoryFile:     filepath.Join(os.TempDir(), "eduhu_repl_history"),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			w := c.Root().Writer
			fmt.Fprintf(w, "Type a query, /memories to list stored facts, or exit to quit.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				line = strings.TrimSpace(line)
				switch {
				case line == "":
					continue
				case line == "exit" || line == "quit":
					return nil
				case line == "/memories":
					if err := replMemories(ctx, c, mem, user); err != nil {
						fmt.Fprintf(w, "error: %s\n", err)
					}
				default:
					if err := replSearch(ctx, c, kn, cfg, user, line); err != nil {
						fmt.Fprintf(w, "error: %s\n", err)
					}
				}
			}

			return nil
		},
	}
}

func replSearch(ctx context.Context, c *cli.Command, kn *knowledge.UseCase, cfg config, user model.UserID, query string) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " searching..."
	s.Start()
	result, err := kn.Search(ctx, knowledge.SearchInput{
		UserID:    user,
		Query:     query,
		TopK:      int(cfg.topK),
		Threshold: cfg.threshold,
	})
	s.Stop()
	if err != nil {
		return err
	}

	printSearchResult(c, result)
	return nil
}

func replMemories(ctx context.Context, c *cli.Command, mem *memory.UseCase, user model.UserID) error {
	entries, err := mem.List(ctx, user)
	if err != nil {
		return err
	}

	w := c.Root().Writer
	if len(entries) == 0 {
		fmt.Fprintf(w, "No stored facts yet.\n")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s/%s/%s = %s (%.2f)\n", e.Scope, e.Category, e.Key, e.Value, e.Importance)
	}
	return nil
}
