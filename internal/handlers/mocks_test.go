package handlers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pokestudy/battle-api/internal/logic"
	"github.com/pokestudy/battle-api/internal/models"
)

// Mocks

type MockPredictionService struct {
	PredictBattleFunc    func(ctx context.Context, first, second string) (*models.BattlePrediction, error)
	CompareCreaturesFunc func(ctx context.Context, first, second string) (*models.StatComparison, error)
	GetCreatureFunc      func(ctx context.Context, name string) (*models.Creature, error)
	ModelInfoFunc        func(ctx context.Context) (*models.ModelInfo, error)
	RetrainFunc          func(ctx context.Context) (*models.ModelInfo, error)
}

var _ logic.PredictionService = (*MockPredictionService)(nil)

func (m *MockPredictionService) PredictBattle(ctx context.Context, first, second string) (*models.BattlePrediction, error) {
	return m.PredictBattleFunc(ctx, first, second)
}

func (m *MockPredictionService) CompareCreatures(ctx context.Context, first, second string) (*models.StatComparison, error) {
	return m.CompareCreaturesFunc(ctx, first, second)
}

func (m *MockPredictionService) GetCreature(ctx context.Context, name string) (*models.Creature, error) {
	return m.GetCreatureFunc(ctx, name)
}

func (m *MockPredictionService) ModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	return m.ModelInfoFunc(ctx)
}

func (m *MockPredictionService) Retrain(ctx context.Context) (*models.ModelInfo, error) {
	return m.RetrainFunc(ctx)
}

// MockIngestQueue implements IngestQueue for testing
type MockIngestQueue struct {
	mu          sync.Mutex
	EnqueueFunc func(combat models.IngestedCombat) bool
	Enqueued    []models.IngestedCombat
}

func (m *MockIngestQueue) Enqueue(combat models.IngestedCombat) bool {
	if m.EnqueueFunc != nil && !m.EnqueueFunc(combat) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Enqueued = append(m.Enqueued, combat)
	return true
}

func (m *MockIngestQueue) QueueDepth() int { return 0 }

const testAdminToken = "s3cret"

func newTestHandler(svc logic.PredictionService, pool IngestQueue) *Handler {
	return New(Config{
		WorkerPool: pool,
		Prediction: svc,
		AdminToken: testAdminToken,
		Logger:     zap.NewNop(),
	})
}
