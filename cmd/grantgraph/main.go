package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/grantlab/awardgraph/internal/analysis"
	"github.com/grantlab/awardgraph/internal/config"
	"github.com/grantlab/awardgraph/internal/entities"
	"github.com/grantlab/awardgraph/internal/graphload"
	"github.com/grantlab/awardgraph/internal/graphstore"
	"github.com/grantlab/awardgraph/internal/ingestion"
	"github.com/grantlab/awardgraph/internal/platform/envutil"
	"github.com/grantlab/awardgraph/internal/platform/logger"
	"github.com/grantlab/awardgraph/internal/platform/neo4jdb"
	"github.com/grantlab/awardgraph/internal/titles"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		sourcePath = flag.String("source", "", "path to the award export (overrides config)")
		reset      = flag.Bool("reset", envutil.Bool("GRANTGRAPH_RESET", false), "wipe the graph before loading")
		dryRun     = flag.Bool("dry-run", false, "stop before store writes, print entity counts")
		person     = flag.String("person", "", "extract the neighborhood of this person after loading")
		hops       = flag.Int("hops", 2, "neighborhood hop bound for -person")
		proximity  = flag.Bool("proximity", envutil.Bool("GRANTGRAPH_PROXIMITY", false), "compute organization proximity after loading")
	)
	flag.Parse()

	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("config load failed", "error", err)
	}
	if *sourcePath != "" {
		cfg.Source.Path = *sourcePath
	}
	if cfg.Source.Path == "" {
		log.Fatal("no source file configured (set -source, config source.path, or GRANTGRAPH_SOURCE)")
	}

	ctx := context.Background()

	records, err := ingestion.ReadRecordsFile(cfg.Source.Path, cfg.DelimiterRune())
	if err != nil {
		log.Fatal("source load failed", "error", err, "path", cfg.Source.Path)
	}
	log.Info("source loaded", "path", cfg.Source.Path, "records", len(records))

	rawTitles := make([]string, 0, len(records))
	for _, r := range records {
		rawTitles = append(rawTitles, r.Title)
	}
	canon := titles.Normalize(rawTitles, cfg.Titles.DistanceThreshold, log)
	titles.Apply(records, canon)

	ents := entities.Extract(records, cfg.AwardSearchBaseURL)
	log.Info("entities extracted",
		"people", len(ents.People),
		"organizations", len(ents.Organizations),
		"awards", len(ents.Awards),
		"sub_awards", len(ents.SubAwards),
	)
	if *dryRun {
		log.Info("dry run, stopping before store writes")
		return
	}

	client, err := neo4jdb.New(cfg.Neo4j, log)
	if err != nil {
		log.Fatal("graph store unavailable", "error", err)
	}
	defer client.Close(ctx)

	store := graphstore.NewNeo4jStore(client, log)
	if *reset {
		if err := store.Reset(ctx); err != nil {
			log.Fatal("graph reset failed", "error", err)
		}
		log.Info("graph reset")
	}
	if err := store.InitSchema(ctx); err != nil {
		log.Warn("schema init failed", "error", err)
	}

	loader := graphload.New(store, log)
	summary, err := loader.Load(ctx, ents, records)
	if err != nil {
		log.Fatal("load aborted", "error", err)
	}
	log.Info("load finished",
		"run_id", summary.RunID.String(),
		"nodes_created", summary.NodesCreated,
		"rels_created", summary.RelsCreated,
	)

	if *person != "" {
		sub, err := analysis.Neighborhood(ctx, store, *person, *hops, log)
		if err != nil {
			log.Fatal("neighborhood query failed", "error", err)
		}
		printJSON(log, sub)
	}
	if *proximity {
		ranked, err := analysis.OrganizationProximity(ctx, store, cfg.Analysis.MaxHops, cfg.Analysis.MinNeighbors, log)
		if err != nil {
			log.Fatal("proximity query failed", "error", err)
		}
		printJSON(log, ranked)
	}
}

func printJSON(log *logger.Logger, v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Error("encode result failed", "error", err)
	}
}
