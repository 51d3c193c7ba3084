package logic

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pokestudy/battle-api/internal/battle"
)

func newTestService(t *testing.T, rdb RedisClient) PredictionService {
	t.Helper()
	cache := newTestCache(&MockDataset{}, nil)
	return NewPredictionService(cache, rdb, time.Minute, zap.NewNop())
}

func TestPredictBattle(t *testing.T) {
	svc := newTestService(t, NewMockRedis())
	ctx := context.Background()

	pred, err := svc.PredictBattle(ctx, "pikachu", "ONIX")
	if err != nil {
		t.Fatalf("PredictBattle: %v", err)
	}
	if !pred.Found || (pred.Winner != "Pikachu" && pred.Winner != "Onix") {
		t.Errorf("pred = %+v, want a winner from the pair", pred)
	}
	if pred.First != "Pikachu" || pred.Second != "Onix" {
		t.Errorf("names = %s/%s, want canonical roster names", pred.First, pred.Second)
	}
	if pred.Cached {
		t.Error("first prediction should not be cached")
	}
	if pred.Confidence < 0.5 || pred.Confidence > 1 {
		t.Errorf("Confidence = %v", pred.Confidence)
	}

	again, err := svc.PredictBattle(ctx, "Pikachu", "Onix")
	if err != nil {
		t.Fatalf("PredictBattle: %v", err)
	}
	if !again.Cached || again.Winner != pred.Winner || again.ModelID != pred.ModelID {
		t.Errorf("second call = %+v, want cached copy of %+v", again, pred)
	}
}

func TestPredictBattle_NotFound(t *testing.T) {
	svc := newTestService(t, nil)

	pred, err := svc.PredictBattle(context.Background(), "Missingno", "Pikachu")
	if err != nil {
		t.Fatalf("PredictBattle: %v", err)
	}
	if pred.Found || pred.Winner != "" {
		t.Errorf("pred = %+v, want not found", pred)
	}
	if pred.Message != battle.NotFoundMessage {
		t.Errorf("Message = %q", pred.Message)
	}
}

func TestPredictBattle_SnapshotError(t *testing.T) {
	provider := &MockSnapshotProvider{GetFunc: func(ctx context.Context) (*Snapshot, error) {
		return nil, context.DeadlineExceeded
	}}
	svc := NewPredictionService(provider, nil, 0, zap.NewNop())

	if _, err := svc.PredictBattle(context.Background(), "a", "b"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestCompareCreatures(t *testing.T) {
	svc := newTestService(t, nil)

	cmp, err := svc.CompareCreatures(context.Background(), "Squirtle", "Charmander")
	if err != nil {
		t.Fatalf("CompareCreatures: %v", err)
	}
	if len(cmp.Stats) != 6 {
		t.Fatalf("len(Stats) = %d, want 6", len(cmp.Stats))
	}
	if cmp.Stats[2].Stat != "defense" || cmp.Stats[2].Diff != 22 {
		t.Errorf("defense row = %+v, want diff 22", cmp.Stats[2])
	}
	if cmp.FirstVsSecondMult != 2 || cmp.SecondVsFirstMult != 0.5 {
		t.Errorf("multipliers = %v/%v, want 2/0.5", cmp.FirstVsSecondMult, cmp.SecondVsFirstMult)
	}
	if cmp.FirstVsSecondLabel != "effective" || cmp.SecondVsFirstLabel != "not too effective" {
		t.Errorf("labels = %q/%q", cmp.FirstVsSecondLabel, cmp.SecondVsFirstLabel)
	}
	if cmp.FirstTotal != 314 || cmp.SecondTotal != 309 {
		t.Errorf("totals = %d/%d, want 314/309", cmp.FirstTotal, cmp.SecondTotal)
	}

	if _, err := svc.CompareCreatures(context.Background(), "Squirtle", "Agumon"); !errors.Is(err, ErrCreatureNotFound) {
		t.Errorf("err = %v, want ErrCreatureNotFound", err)
	}
}

func TestGetCreature(t *testing.T) {
	svc := newTestService(t, nil)

	c, err := svc.GetCreature(context.Background(), "onix")
	if err != nil {
		t.Fatalf("GetCreature: %v", err)
	}
	if c.ID != 95 || c.SecondaryType != "Ground" {
		t.Errorf("creature = %+v", c)
	}
	if _, err := svc.GetCreature(context.Background(), "Missingno"); !errors.Is(err, ErrCreatureNotFound) {
		t.Errorf("err = %v, want ErrCreatureNotFound", err)
	}
}

func TestModelInfoAndRetrain(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	info, err := svc.ModelInfo(ctx)
	if err != nil {
		t.Fatalf("ModelInfo: %v", err)
	}
	if info.RosterSize != 4 || info.Report.Examples != 12 || len(info.Columns) != 11 {
		t.Errorf("info = %+v", info)
	}

	retrained, err := svc.Retrain(ctx)
	if err != nil {
		t.Fatalf("Retrain: %v", err)
	}
	if retrained.ID == info.ID {
		t.Error("Retrain returned the old bundle")
	}
}
