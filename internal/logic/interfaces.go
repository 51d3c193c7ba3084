package logic

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pokestudy/battle-api/internal/models"
)

// RedisClient defines the subset of the Redis client used for caching
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RosterLoader supplies the creature table
type RosterLoader interface {
	LoadRoster(ctx context.Context) ([]models.Creature, error)
}

// CombatLoader supplies the historical combat table
type CombatLoader interface {
	LoadCombats(ctx context.Context) ([]models.CombatRecord, error)
}

// SnapshotProvider hands out the current roster and trained bundle
type SnapshotProvider interface {
	Get(ctx context.Context) (*Snapshot, error)
	Retrain(ctx context.Context) (*Snapshot, error)
	Invalidate()
}

// PredictionService answers creature and battle queries
type PredictionService interface {
	PredictBattle(ctx context.Context, first, second string) (*models.BattlePrediction, error)
	CompareCreatures(ctx context.Context, first, second string) (*models.StatComparison, error)
	GetCreature(ctx context.Context, name string) (*models.Creature, error)
	ModelInfo(ctx context.Context) (*models.ModelInfo, error)
	Retrain(ctx context.Context) (*models.ModelInfo, error)
}
