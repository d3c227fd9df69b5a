package main

import (
	"bufio"
	"context"
	"os"

	"github.com/storyshelf/storyshelf/internal/buildinfo"
	"github.com/storyshelf/storyshelf/internal/client/app"
	"github.com/storyshelf/storyshelf/internal/client/cli"
	"github.com/storyshelf/storyshelf/internal/client/config"
	"github.com/storyshelf/storyshelf/internal/client/platform"
	"github.com/storyshelf/storyshelf/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, os.Stderr)

	reader := bufio.NewReader(os.Stdin)
	prompter := &platform.TerminalPrompter{In: reader, Out: os.Stdout, Fd: int(os.Stdin.Fd())}

	rt, err := app.Open(ctx, cfg, app.Options{Prompter: prompter, Log: logger})
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	cli.NewApp(rt, reader, os.Stdout).Run(ctx)
}
