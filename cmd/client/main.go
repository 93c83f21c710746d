package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/lorekeeper/internal/buildinfo"
	"github.com/dmitrijs2005/lorekeeper/internal/client/cli"
	"github.com/dmitrijs2005/lorekeeper/internal/client/config"
	"github.com/dmitrijs2005/lorekeeper/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
