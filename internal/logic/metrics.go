package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics
var (
	trainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "battle_training_runs_total",
		Help: "Training runs by result (trained, restored, failed)",
	}, []string{"result"})

	trainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "battle_training_duration_seconds",
		Help:    "Duration of dataset load plus model training",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	droppedCombats = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "battle_training_dropped_combats",
		Help: "Combat records dropped in the last training run because a participant was not in the roster",
	})

	heldOutAccuracy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "battle_model_held_out_accuracy",
		Help: "Held-out accuracy of the serving model",
	})

	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "battle_predictions_total",
		Help: "Battle predictions by outcome (predicted, not_found, error)",
	}, []string{"outcome"})

	predictionCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battle_prediction_cache_hits_total",
		Help: "Predictions served from Redis",
	})
)
