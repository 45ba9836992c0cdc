package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/app"
	"github.com/mieruca/mieruca-kokkai/internal/config"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
	"github.com/mieruca/mieruca-kokkai/internal/service"
	"github.com/mieruca/mieruca-kokkai/internal/util"
)

func main() {
	chamberFlag := flag.String("chamber", "both", "chamber to scrape: shugiin, sangiin or both")
	fullFlag := flag.Bool("full", false, "also fetch per-member profile pages")
	forceFlag := flag.Bool("force", false, "ignore cached results and scrape fresh")
	outFlag := flag.String("out", "", "optional path for a JSON dump of the scraped members")
	flag.Parse()

	chambers, err := parseChambers(*chamberFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("kokkai scraper starting...",
		zap.String("chamber", *chamberFlag),
		zap.Bool("full", *fullFlag),
		zap.Bool("force", *forceFlag),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mode := domain.ModeBasic
	if *fullFlag {
		mode = domain.ModeFull
	}

	results := make(map[string][]domain.Member, len(chambers))
	for _, chamber := range chambers {
		members, err := container.Run(ctx, chamber, mode, *forceFlag)
		if err != nil {
			if service.IsStructureError(err) {
				logger.Error("Directory layout no longer matches, scrape aborted",
					zap.String("chamber", string(chamber)),
					zap.Error(err))
			} else {
				logger.Error("Scrape failed",
					zap.String("chamber", string(chamber)),
					zap.Error(err))
			}
			os.Exit(1)
		}
		results[string(chamber)] = members
	}

	if *outFlag != "" {
		if err := writeDump(*outFlag, results); err != nil {
			logger.Error("Failed to write dump", zap.String("path", *outFlag), zap.Error(err))
			os.Exit(1)
		}
		logger.Info("Dump written", zap.String("path", *outFlag))
	}

	logger.Info("Scrape complete")
}

func parseChambers(value string) ([]domain.Chamber, error) {
	switch value {
	case "shugiin":
		return []domain.Chamber{domain.ChamberRepresentatives}, nil
	case "sangiin":
		return []domain.Chamber{domain.ChamberCouncillors}, nil
	case "both":
		return []domain.Chamber{domain.ChamberRepresentatives, domain.ChamberCouncillors}, nil
	default:
		return nil, fmt.Errorf("unknown chamber %q (want shugiin, sangiin or both)", value)
	}
}

func writeDump(path string, results map[string][]domain.Member) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
