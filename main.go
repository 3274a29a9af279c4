package main

import (
	"context"
	"os"

	"github.com/sbrill95/eduhu-assistant-sub000/pkg/cli"
)

func main() {
	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		os.Exit(err.Code)
	}
}
