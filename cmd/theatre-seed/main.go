package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/config"
	"github.com/tendant/simple-theatre/pkg/theatre/seed"
)

const usage = `theatre-seed loads a YAML site description into the configured store.

Usage:
  theatre-seed [-config server.yaml] [-user seed] site.yaml

The database, storage and redis settings come from the same environment
variables as theatre-server (see theatre-server -env-help).
`

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("THEATRE_CONFIG"), "optional YAML configuration file")
	user := flag.String("user", "seed", "user id recorded as the author")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen}))
	if err := run(*configPath, *user, flag.Arg(0), logger); err != nil {
		logger.Error("Seeding failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath, user, sitePath string, logger *slog.Logger) error {
	site, err := seed.LoadFile(sitePath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.WithFile(configPath), config.WithEnv())
	if err != nil {
		return err
	}
	if cfg.DatabaseType == config.DatabaseMemory {
		logger.Warn("DATABASE_TYPE is memory, seeded content is discarded on exit")
	}

	ctx := theatre.WithPrincipal(context.Background(), theatre.Principal{
		UserID:       user,
		Capabilities: []theatre.Capability{theatre.CapManageOptions},
	})
	rt, err := cfg.Build(ctx, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := seed.Apply(ctx, rt.Service, rt.Settings, site, logger)
	if err != nil {
		return err
	}

	kinds := make([]theatre.Kind, 0, len(result.Created))
	for kind := range result.Created {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	for _, kind := range kinds {
		fmt.Printf("%-14s %d\n", kind, result.Created[kind])
	}
	fmt.Printf("%-14s %d\n", "settings", result.Settings)
	return nil
}
