package worker

import (
	"context"
	"sync"

	"github.com/pokestudy/battle-api/internal/models"
)

// MockCombatWriter records every batch it is given
type MockCombatWriter struct {
	mu               sync.Mutex
	Batches          [][]models.IngestedCombat
	WriteCombatsFunc func(ctx context.Context, combats []models.IngestedCombat) error
}

func (m *MockCombatWriter) WriteCombats(ctx context.Context, combats []models.IngestedCombat) error {
	if m.WriteCombatsFunc != nil {
		if err := m.WriteCombatsFunc(ctx, combats); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Batches = append(m.Batches, append([]models.IngestedCombat(nil), combats...))
	return nil
}

func (m *MockCombatWriter) Written() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.Batches {
		n += len(b)
	}
	return n
}

func combat(first, second, winner int) models.IngestedCombat {
	return models.IngestedCombat{CombatRecord: models.CombatRecord{First: first, Second: second, Winner: winner}}
}
