// Package battle turns two creatures into a win-probability estimate: type
// effectiveness, pairwise features, a reference-category encoding schema, a
// standard scaler and a decision tree trained on historical combats.
package battle

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pokestudy/battle-api/internal/models"
)

var ErrNoTrainingData = errors.New("no usable combat records")

// Training labels: did the first-listed creature win?
const (
	LabelYes = "yes"
	LabelNo  = "no"
)

// TrainOptions configures a training run
type TrainOptions struct {
	Seed           int64
	TestFraction   float64
	MaxDepth       int
	MinSamplesLeaf int
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Seed:           2345,
		TestFraction:   0.25,
		MinSamplesLeaf: 1,
	}
}

// Trainer fits bundles from a roster and a combat history
type Trainer struct {
	opts   TrainOptions
	types  *TypeTable
	logger *zap.SugaredLogger
}

// NewTrainer creates a trainer. A nil type table selects the default chart.
func NewTrainer(opts TrainOptions, types *TypeTable, logger *zap.Logger) *Trainer {
	if types == nil {
		types = DefaultTypeTable()
	}
	if opts.TestFraction < 0 || opts.TestFraction >= 1 {
		opts.TestFraction = DefaultTrainOptions().TestFraction
	}
	if opts.MinSamplesLeaf < 1 {
		opts.MinSamplesLeaf = 1
	}
	return &Trainer{opts: opts, types: types, logger: logger.Sugar()}
}

// Options returns the effective training options
func (t *Trainer) Options() TrainOptions {
	return t.opts
}

// Label reports whether the first-listed participant won
func Label(rec models.CombatRecord) string {
	if rec.Winner == rec.First {
		return LabelYes
	}
	return LabelNo
}

// Train builds one example per combat in recorded order, encodes, scales and
// fits the tree. Records naming an id the roster lacks are dropped and
// counted; an unknown elemental type on a roster creature aborts training.
func (t *Trainer) Train(roster *Roster, combats []models.CombatRecord) (*Bundle, error) {
	start := time.Now()

	vectors := make([]FeatureVector, 0, len(combats))
	labels := make([]bool, 0, len(combats))
	dropped := 0
	for _, rec := range combats {
		a, okA := roster.ByID(rec.First)
		b, okB := roster.ByID(rec.Second)
		if !okA || !okB {
			dropped++
			continue
		}
		fv, err := BuildFeatures(a, b, t.types)
		if err != nil {
			return nil, fmt.Errorf("combat %d vs %d: %w", rec.First, rec.Second, err)
		}
		vectors = append(vectors, fv)
		labels = append(labels, Label(rec) == LabelYes)
	}
	if dropped > 0 {
		t.logger.Warnw("Dropped combat records referencing unknown creatures",
			"dropped", dropped,
			"total", len(combats),
		)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: %d records, %d dropped", ErrNoTrainingData, len(combats), dropped)
	}

	schema := NewSchema(vectors)
	rows := make([][]float64, len(vectors))
	for i, fv := range vectors {
		row, err := schema.Row(fv)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}

	trainIdx, testIdx := t.split(len(rows))

	trainRows := make([][]float64, len(trainIdx))
	trainLabels := make([]bool, len(trainIdx))
	for k, i := range trainIdx {
		trainRows[k] = rows[i]
		trainLabels[k] = labels[i]
	}

	scaler, err := FitScaler(trainRows, schema.Numeric, schema.NumericPositions())
	if err != nil {
		return nil, err
	}
	for k := range trainRows {
		trainRows[k] = scaler.Transform(trainRows[k])
	}

	tree, err := FitTree(trainRows, trainLabels, TreeOptions{
		MaxDepth:       t.opts.MaxDepth,
		MinSamplesLeaf: t.opts.MinSamplesLeaf,
		Seed:           t.opts.Seed,
	})
	if err != nil {
		return nil, err
	}

	accuracy := 0.0
	if len(testIdx) > 0 {
		correct := 0
		for _, i := range testIdx {
			p, err := tree.ProbaPositive(scaler.Transform(rows[i]))
			if err != nil {
				return nil, err
			}
			if (p > 0.5) == labels[i] {
				correct++
			}
		}
		accuracy = float64(correct) / float64(len(testIdx))
	}

	report := models.TrainingReport{
		Examples:        len(vectors),
		Dropped:         dropped,
		TrainSize:       len(trainIdx),
		HeldOutSize:     len(testIdx),
		HeldOutAccuracy: accuracy,
		TreeDepth:       tree.Depth(),
		Leaves:          tree.Leaves(),
		Duration:        time.Since(start),
	}

	t.logger.Infow("Model trained",
		"examples", report.Examples,
		"dropped", report.Dropped,
		"trainSize", report.TrainSize,
		"heldOut", report.HeldOutSize,
		"accuracy", report.HeldOutAccuracy,
		"depth", report.TreeDepth,
		"duration", report.Duration,
	)

	return &Bundle{
		id:        uuid.NewString(),
		trainedAt: time.Now().UTC(),
		seed:      t.opts.Seed,
		model:     tree,
		scaler:    scaler,
		schema:    schema,
		types:     t.types,
		report:    report,
	}, nil
}

// split shuffles row indices with the configured seed and holds out the
// leading share. At least one row is always kept for training.
func (t *Trainer) split(n int) (train, test []int) {
	rng := rand.New(rand.NewPCG(uint64(t.opts.Seed), 0x73706c6974))
	perm := rng.Perm(n)
	nTest := int(float64(n) * t.opts.TestFraction)
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}
