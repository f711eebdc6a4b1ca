package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/config"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
)

const usage = `usage: cli <migrate|rollback|status> [--env=.env] [--dir=./migrations]`

func main() {
	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Get()

	command := "migrate"
	for _, arg := range os.Args[1:] {
		if !strings.HasPrefix(arg, "--") {
			command = arg
			break
		}
	}

	// main.go migrate --dir=./migrations
	dir := getMigrationPath(cfg.MigrationsDir)
	switch command {
	case "migrate", "up":
		err = pg.Migrate(cfg.PostgresWrite(), dir)
	case "rollback", "down":
		err = pg.Rollback(cfg.PostgresWrite(), dir)
	case "status":
		err = pg.MigrationStatus(cfg.PostgresWrite(), dir)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("migration: command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func getEnvPath() string {
	if path := config.EnvPathFromArgs(os.Args); path != "" {
		if _, err := os.Stat(path); err != nil {
			logger.Error("failed to open the passed env file", "path", path, "error", err)
			return ""
		}
		return path
	}
	if _, err := os.Stat(".env"); err != nil {
		return ""
	}
	return ".env"
}

func getMigrationPath(fallback string) string {
	for _, v := range os.Args {
		if dir, ok := strings.CutPrefix(v, "--dir="); ok {
			return dir
		}
	}
	return fallback
}
