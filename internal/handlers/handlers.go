package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pokestudy/battle-api/internal/logic"
	"github.com/pokestudy/battle-api/internal/models"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// IngestQueue defines the interface for the combat ingestion worker pool
type IngestQueue interface {
	Enqueue(combat models.IngestedCombat) bool
	QueueDepth() int
}

// ReadyCheck reports whether one dependency is usable
type ReadyCheck func(ctx context.Context) error

type Config struct {
	WorkerPool  IngestQueue // nil disables ingestion
	Prediction  logic.PredictionService
	ReadyChecks map[string]ReadyCheck
	AdminToken  string
	Logger      *zap.Logger
}

type Handler struct {
	pool        IngestQueue
	prediction  logic.PredictionService
	readyChecks map[string]ReadyCheck
	adminHash   string
	logger      *zap.SugaredLogger
	validate    *validator.Validate
}

func New(cfg Config) *Handler {
	h := &Handler{
		pool:        cfg.WorkerPool,
		prediction:  cfg.Prediction,
		readyChecks: cfg.ReadyChecks,
		logger:      cfg.Logger.Sugar(),
		validate:    validator.New(),
	}
	if cfg.AdminToken != "" {
		h.adminHash = hashToken(cfg.AdminToken)
	}
	return h
}
