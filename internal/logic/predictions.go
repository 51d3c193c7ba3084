package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pokestudy/battle-api/internal/battle"
	"github.com/pokestudy/battle-api/internal/models"
)

var ErrCreatureNotFound = errors.New("creature not found")

const predictionKeyPrefix = "battle:predictions:"

type predictionService struct {
	bundles SnapshotProvider
	redis   RedisClient
	ttl     time.Duration
	logger  *zap.SugaredLogger
}

// NewPredictionService creates the service. redis may be nil to disable result caching.
func NewPredictionService(bundles SnapshotProvider, redis RedisClient, ttl time.Duration, logger *zap.Logger) PredictionService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &predictionService{bundles: bundles, redis: redis, ttl: ttl, logger: logger.Sugar()}
}

func pairField(first, second string) string {
	return strings.ToLower(strings.TrimSpace(first)) + "|" + strings.ToLower(strings.TrimSpace(second))
}

func (s *predictionService) PredictBattle(ctx context.Context, first, second string) (*models.BattlePrediction, error) {
	snap, err := s.bundles.Get(ctx)
	if err != nil {
		predictionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	key := predictionKeyPrefix + snap.Bundle.ID()
	field := pairField(first, second)
	if cached := s.cached(ctx, key, field); cached != nil {
		predictionCacheHits.Inc()
		predictionsTotal.WithLabelValues("predicted").Inc()
		return cached, nil
	}

	pred, err := battle.Predict(first, second, snap.Roster, snap.Bundle)
	if err != nil {
		predictionsTotal.WithLabelValues("error").Inc()
		s.logger.Errorw("Prediction failed", "error", err, "first", first, "second", second, "bundle", snap.Bundle.ID())
		return nil, fmt.Errorf("predict %s vs %s: %w", first, second, err)
	}

	out := &models.BattlePrediction{
		First:   first,
		Second:  second,
		Found:   pred.Found,
		Message: pred.Message,
		ModelID: snap.Bundle.ID(),
	}
	if !pred.Found {
		predictionsTotal.WithLabelValues("not_found").Inc()
		return out, nil
	}

	out.First = pred.First.Name
	out.Second = pred.Second.Name
	out.Winner = pred.Winner
	out.ProbabilityFirst = pred.ProbabilityFirst
	out.Confidence = pred.Confidence
	predictionsTotal.WithLabelValues("predicted").Inc()

	s.remember(ctx, key, field, out)
	return out, nil
}

func (s *predictionService) cached(ctx context.Context, key, field string) *models.BattlePrediction {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.HGet(ctx, key, field).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warnw("Prediction cache read failed", "error", err, "key", key)
		}
		return nil
	}
	var pred models.BattlePrediction
	if err := json.Unmarshal(data, &pred); err != nil {
		return nil
	}
	pred.Cached = true
	return &pred
}

func (s *predictionService) remember(ctx context.Context, key, field string, pred *models.BattlePrediction) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(pred)
	if err != nil {
		return
	}
	if err := s.redis.HSet(ctx, key, field, data).Err(); err != nil {
		s.logger.Warnw("Prediction cache write failed", "error", err, "key", key)
		return
	}
	s.redis.Expire(ctx, key, s.ttl)
}

func (s *predictionService) lookup(roster *battle.Roster, name string) (models.Creature, error) {
	c, ok := roster.Lookup(name)
	if !ok {
		return models.Creature{}, fmt.Errorf("%w: %q", ErrCreatureNotFound, name)
	}
	return c, nil
}

func (s *predictionService) GetCreature(ctx context.Context, name string) (*models.Creature, error) {
	snap, err := s.bundles.Get(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.lookup(snap.Roster, name)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CompareCreatures lines up two creatures stat by stat, with type
// multipliers in both directions
func (s *predictionService) CompareCreatures(ctx context.Context, first, second string) (*models.StatComparison, error) {
	snap, err := s.bundles.Get(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.lookup(snap.Roster, first)
	if err != nil {
		return nil, err
	}
	b, err := s.lookup(snap.Roster, second)
	if err != nil {
		return nil, err
	}

	types := snap.Bundle.Types()
	ab, err := types.Classify(a.PrimaryType, b.PrimaryType)
	if err != nil {
		return nil, err
	}
	ba, err := types.Classify(b.PrimaryType, a.PrimaryType)
	if err != nil {
		return nil, err
	}

	cmp := &models.StatComparison{
		First:              a,
		Second:             b,
		FirstTotal:         a.Stats.Total(),
		SecondTotal:        b.Stats.Total(),
		FirstVsSecondMult:  types.Effectiveness(a.PrimaryType, b.PrimaryType),
		SecondVsFirstMult:  types.Effectiveness(b.PrimaryType, a.PrimaryType),
		FirstVsSecondLabel: string(ab),
		SecondVsFirstLabel: string(ba),
	}
	va, vb := a.Stats.Values(), b.Stats.Values()
	for i, name := range models.StatNames {
		cmp.Stats = append(cmp.Stats, models.StatDelta{
			Stat:   name,
			First:  va[i],
			Second: vb[i],
			Diff:   va[i] - vb[i],
		})
	}
	return cmp, nil
}

func (s *predictionService) ModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	snap, err := s.bundles.Get(ctx)
	if err != nil {
		return nil, err
	}
	info := snap.Bundle.Info(snap.Roster.Len())
	return &info, nil
}

func (s *predictionService) Retrain(ctx context.Context) (*models.ModelInfo, error) {
	snap, err := s.bundles.Retrain(ctx)
	if err != nil {
		return nil, err
	}
	info := snap.Bundle.Info(snap.Roster.Len())
	s.logger.Infow("Model retrained on request", "bundle", info.ID, "accuracy", info.Report.HeldOutAccuracy)
	return &info, nil
}
