package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/pokestudy/battle-api/internal/battle"
	"github.com/pokestudy/battle-api/internal/store"
)

func main() {
	var (
		rosterPath  = flag.String("roster", "data/pokemon.csv", "roster CSV")
		combatsPath = flag.String("combats", "data/combats.csv", "combats CSV")
		out         = flag.String("out", "", "write the trained bundle as JSON to this path")
		seed        = flag.Int64("seed", 2345, "training seed")
		testFrac    = flag.Float64("test-fraction", 0.25, "held-out share")
		maxDepth    = flag.Int("max-depth", 0, "tree depth limit (0 = unbounded)")
		minLeaf     = flag.Int("min-samples-leaf", 1, "minimum rows per leaf")
		predict     = flag.String("predict", "", "optional pair to predict, e.g. Pikachu:Onix")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	ctx := context.Background()
	src := store.NewCSVSource(*rosterPath, *combatsPath, logger)
	creatures, err := src.LoadRoster(ctx)
	if err != nil {
		sugar.Fatalw("Failed to load roster", "error", err)
	}
	combats, err := src.LoadCombats(ctx)
	if err != nil {
		sugar.Fatalw("Failed to load combats", "error", err)
	}

	roster, err := battle.NewRoster(creatures)
	if err != nil {
		sugar.Fatalw("Invalid roster", "error", err)
	}

	trainer := battle.NewTrainer(battle.TrainOptions{
		Seed:           *seed,
		TestFraction:   *testFrac,
		MaxDepth:       *maxDepth,
		MinSamplesLeaf: *minLeaf,
	}, nil, logger)
	bundle, err := trainer.Train(roster, combats)
	if err != nil {
		sugar.Fatalw("Training failed", "error", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle.Info(roster.Len())); err != nil {
		sugar.Fatalw("Failed to print report", "error", err)
	}

	if *out != "" {
		data, err := json.Marshal(bundle)
		if err != nil {
			sugar.Fatalw("Failed to encode bundle", "error", err)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			sugar.Fatalw("Failed to write bundle", "error", err, "path", *out)
		}
		sugar.Infow("Bundle written", "path", *out, "bytes", len(data))
	}

	if *predict != "" {
		first, second, ok := strings.Cut(*predict, ":")
		if !ok {
			sugar.Fatalw("-predict wants NAME:NAME", "value", *predict)
		}
		pred, err := battle.Predict(first, second, roster, bundle)
		if err != nil {
			sugar.Fatalw("Prediction failed", "error", err)
		}
		sugar.Infow(pred.Message, "probabilityFirst", pred.ProbabilityFirst)
	}
}
