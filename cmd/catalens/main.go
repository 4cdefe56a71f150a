// File path: cmd/catalens/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/catalens/catalens/internal/api"
	"github.com/catalens/catalens/internal/catalog"
	"github.com/catalens/catalens/internal/common"
	"github.com/catalens/catalens/internal/llm"
	"github.com/catalens/catalens/internal/looker"
	"github.com/catalens/catalens/internal/resolver"
	"github.com/catalens/catalens/internal/scoring"
	"github.com/catalens/catalens/internal/sqlite"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("catalens: .env file not loaded", "error", err)
	} else {
		logger.Info("catalens: environment loaded from .env")
	}

	addr := flag.String("addr", ":8082", "listen address")
	catalogPath := flag.String("catalog", defaultCatalogPath(), "path to the SQLite catalog cache")
	populate := flag.Bool("populate", false, "refresh the full catalog cache and exit")
	force := flag.Bool("force", false, "with -populate, refresh even when the cache is fresh")
	flag.Parse()

	logger.Info("catalens: startup initiated", "addr", *addr, "catalog", *catalogPath)

	storeCfg, err := sqlite.LoadConfig()
	if err != nil {
		logger.Error("catalens: sqlite config load failed", "error", err)
		fmt.Println("sqlite config error:", err)
		os.Exit(1)
	}
	storeCfg = storeCfg.Merge(sqlite.Config{Path: *catalogPath})
	store, err := sqlite.OpenWithConfig(storeCfg)
	if err != nil {
		logger.Error("catalens: catalog cache open failed", "error", err)
		fmt.Println("catalog cache error:", err)
		os.Exit(1)
	}
	defer store.Close()

	lookerCfg, err := looker.LoadConfig()
	if err != nil {
		logger.Error("catalens: looker config load failed", "error", err)
		fmt.Println("looker config error:", err)
		os.Exit(1)
	}
	client := looker.NewRESTClient(lookerCfg)
	instanceID := looker.InstanceID(lookerCfg.BaseURL)
	refresher := catalog.NewRefresher(client, store, instanceID)

	if *populate {
		if err := populateCache(ctx, refresher, *force); err != nil {
			logger.Error("catalens: cache population failed", "error", err)
			fmt.Println("populate error:", err)
			os.Exit(1)
		}
		return
	}

	provider := llm.NewProvider()
	logger.Info("catalens: llm provider ready", "provider", provider.Name())

	res := resolver.New(refresher, scoring.NewDefault(), llm.NewCompleter(provider))
	server, err := api.NewServer(res, refresher, store, store, provider)
	if err != nil {
		logger.Error("catalens: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("catalens: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("catalens: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("catalens: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

// populateCache runs a one-shot full refresh of models, explores and
// dashboards and prints a summary.
func populateCache(ctx context.Context, refresher *catalog.Refresher, force bool) error {
	logger := common.Logger()
	logger.Info("catalens: cache population started", "force", force)

	models, err := refresher.EnsureModels(ctx, force)
	if err != nil {
		return fmt.Errorf("populate models: %w", err)
	}
	exploreCount, err := refresher.RefreshAllExplores(ctx, force)
	if err != nil {
		return fmt.Errorf("populate explores: %w", err)
	}
	dashboards, links, err := refresher.EnsureDashboards(ctx, force)
	if err != nil {
		return fmt.Errorf("populate dashboards: %w", err)
	}

	fmt.Println("Cache population complete:")
	fmt.Printf("  models:     %d\n", len(models))
	fmt.Printf("  explores:   %d\n", exploreCount)
	fmt.Printf("  dashboards: %d (%d explore links)\n", len(dashboards), len(links))
	logger.Info("catalens: cache population complete",
		"models", len(models), "explores", exploreCount,
		"dashboards", len(dashboards), "links", len(links))
	return nil
}

func defaultCatalogPath() string {
	return filepath.Join("data", "catalog.db")
}
