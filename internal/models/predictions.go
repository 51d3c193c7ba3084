package models

import "time"

// BattlePrediction is the outcome of a hypothetical battle between two creatures
type BattlePrediction struct {
	First            string  `json:"first"`
	Second           string  `json:"second"`
	Found            bool    `json:"found"`
	Winner           string  `json:"winner,omitempty"`
	ProbabilityFirst float64 `json:"probability_first"`
	Confidence       float64 `json:"confidence"`
	Message          string  `json:"message"`
	ModelID          string  `json:"model_id,omitempty"`
	Cached           bool    `json:"cached"`
}

// StatDelta is one row of a side-by-side comparison
type StatDelta struct {
	Stat   string `json:"stat"`
	First  int    `json:"first"`
	Second int    `json:"second"`
	Diff   int    `json:"diff"`
}

// StatComparison compares two creatures stat by stat
type StatComparison struct {
	First              Creature    `json:"first"`
	Second             Creature    `json:"second"`
	Stats              []StatDelta `json:"stats"`
	FirstTotal         int         `json:"first_total"`
	SecondTotal        int         `json:"second_total"`
	FirstVsSecondMult  float64     `json:"first_vs_second_multiplier"`
	SecondVsFirstMult  float64     `json:"second_vs_first_multiplier"`
	FirstVsSecondLabel string      `json:"first_vs_second"`
	SecondVsFirstLabel string      `json:"second_vs_first"`
}

// TrainingReport summarizes one training run
type TrainingReport struct {
	Examples        int           `json:"examples"`
	Dropped         int           `json:"dropped"`
	TrainSize       int           `json:"train_size"`
	HeldOutSize     int           `json:"held_out_size"`
	HeldOutAccuracy float64       `json:"held_out_accuracy"`
	TreeDepth       int           `json:"tree_depth"`
	Leaves          int           `json:"leaves"`
	Duration        time.Duration `json:"duration"`
}

// ModelInfo describes the bundle currently serving predictions
type ModelInfo struct {
	ID             string         `json:"id"`
	SchemaVersion  int            `json:"schema_version"`
	TrainedAt      time.Time      `json:"trained_at"`
	Seed           int64          `json:"seed"`
	Columns        []string       `json:"columns"`
	NumericColumns []string       `json:"numeric_columns"`
	RosterSize     int            `json:"roster_size"`
	Report         TrainingReport `json:"report"`
}
