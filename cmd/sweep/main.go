// Command sweep runs a grid search from the command line and persists the
// results, for backfilling lead data without going through the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mapleads/api/internal/adapters/googlemaps"
	natsadapter "github.com/mapleads/api/internal/adapters/nats"
	"github.com/mapleads/api/internal/adapters/postgres"
	"github.com/mapleads/api/internal/core/domain"
	"github.com/mapleads/api/internal/core/ports"
	"github.com/mapleads/api/internal/core/usecases"
	"github.com/mapleads/api/internal/pkg/config"
	"github.com/mapleads/api/internal/pkg/logging"
)

func main() {
	var (
		query    = flag.String("query", "", "business type to search for (required)")
		location = flag.String("location", "", "location to search around (required)")
		radius   = flag.Float64("radius", 5000, "search radius in meters")
		gridSize = flag.Int("grid-size", 3, "grid density per axis")
		category = flag.String("category", "", "optional category refinement")
		noStore  = flag.Bool("dry-run", false, "run the sweep without persisting results")
	)
	flag.Parse()

	if *query == "" || *location == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("mapleads-sweep")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("info", "text")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var businessRepo ports.BusinessRepository
	var searchRepo ports.SearchRepository
	if !*noStore {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
		businessRepo = postgres.NewBusinessRepo(db)
		searchRepo = postgres.NewSearchRepo(db)
	}

	// Progress events are best-effort here too
	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err == nil {
		events = pub
		defer pub.Close()
	} else {
		slog.Warn("nats unavailable, sweeping without progress events", "error", err)
	}

	maps := googlemaps.NewClient(cfg.Google.APIKey)

	tuning := usecases.Tuning{
		LargeRadiusThreshold: cfg.Search.LargeRadiusThresholdMeters,
		PageTokenDelay:       time.Duration(cfg.Search.PageTokenDelayMS) * time.Millisecond,
		MaxDetailFetches:     cfg.Search.MaxDetailFetches,
		ResultCeiling:        cfg.Search.ResultCeiling,
	}
	svc := usecases.NewSearchService(maps, maps, businessRepo, searchRepo, nil, events, tuning)

	start := time.Now()
	result, err := svc.Search(ctx, domain.SearchSpec{
		BusinessType: *query,
		Location:     *location,
		RadiusMeters: *radius,
		Category:     *category,
		UseGrid:      true,
		GridSize:     *gridSize,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && result != nil {
			slog.Warn("sweep interrupted, keeping partial results", "results", len(result.Businesses))
		} else {
			log.Fatalf("sweep: %v", err)
		}
	}

	fmt.Printf("search %s: %d unique businesses in %s\n",
		result.SearchID, len(result.Businesses), time.Since(start).Round(time.Millisecond))
	for i, b := range result.Businesses {
		if i >= 25 {
			fmt.Printf("  ... and %d more\n", len(result.Businesses)-i)
			break
		}
		fmt.Printf("  %-40s %.1f★ (%d)  %s\n", b.Name, b.Rating, b.ReviewCount, b.FormattedAddress)
	}
}
