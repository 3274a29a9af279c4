// Package cli wires the knowledge and memory engine into a command-line
// tool for local operation and scheduled jobs.
package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "eduhu",
		Usage: "Curriculum knowledge and teacher memory engine",
		Commands: []*cli.Command{
			ingestCommand(),
			searchCommand(),
			rememberCommand(),
			memoriesCommand(),
			extractCommand(),
			consolidateCommand(),
			replCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
