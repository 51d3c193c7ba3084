package logic

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pokestudy/battle-api/internal/models"
)

// MockRedis is an in-memory RedisClient
type MockRedis struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
}

func NewMockRedis() *MockRedis {
	return &MockRedis{strings: map[string]string{}, hashes: map[string]map[string]string{}}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func (m *MockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *MockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = toString(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *MockRedis) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.hashes[key][field]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *MockRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for i := 0; i+1 < len(values); i += 2 {
		h[toString(values[i])] = toString(values[i+1])
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (m *MockRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

// MockDataset implements RosterLoader and CombatLoader
type MockDataset struct {
	LoadRosterFunc  func(ctx context.Context) ([]models.Creature, error)
	LoadCombatsFunc func(ctx context.Context) ([]models.CombatRecord, error)
	rosterLoads     atomic.Int32
}

func (m *MockDataset) LoadRoster(ctx context.Context) ([]models.Creature, error) {
	m.rosterLoads.Add(1)
	if m.LoadRosterFunc != nil {
		return m.LoadRosterFunc(ctx)
	}
	return testCreatures(), nil
}

func (m *MockDataset) LoadCombats(ctx context.Context) ([]models.CombatRecord, error) {
	if m.LoadCombatsFunc != nil {
		return m.LoadCombatsFunc(ctx)
	}
	return testCombats(), nil
}

// MockSnapshotProvider
type MockSnapshotProvider struct {
	GetFunc     func(ctx context.Context) (*Snapshot, error)
	RetrainFunc func(ctx context.Context) (*Snapshot, error)
}

func (m *MockSnapshotProvider) Get(ctx context.Context) (*Snapshot, error) {
	return m.GetFunc(ctx)
}

func (m *MockSnapshotProvider) Retrain(ctx context.Context) (*Snapshot, error) {
	if m.RetrainFunc != nil {
		return m.RetrainFunc(ctx)
	}
	return m.GetFunc(ctx)
}

func (m *MockSnapshotProvider) Invalidate() {}

func testCreatures() []models.Creature {
	return []models.Creature{
		{ID: 4, Name: "Charmander", PrimaryType: "Fire", Stats: models.Stats{HP: 39, Attack: 52, Defense: 43, SpAttack: 60, SpDefense: 50, Speed: 65}},
		{ID: 7, Name: "Squirtle", PrimaryType: "Water", Stats: models.Stats{HP: 44, Attack: 48, Defense: 65, SpAttack: 50, SpDefense: 64, Speed: 43}},
		{ID: 25, Name: "Pikachu", PrimaryType: "Electric", Stats: models.Stats{HP: 35, Attack: 55, Defense: 40, SpAttack: 50, SpDefense: 50, Speed: 90}},
		{ID: 95, Name: "Onix", PrimaryType: "Rock", SecondaryType: "Ground", Stats: models.Stats{HP: 35, Attack: 45, Defense: 160, SpAttack: 30, SpDefense: 45, Speed: 70}},
	}
}

func testCombats() []models.CombatRecord {
	cs := testCreatures()
	var out []models.CombatRecord
	for _, a := range cs {
		for _, b := range cs {
			if a.ID == b.ID {
				continue
			}
			winner := b.ID
			if a.Stats.Speed > b.Stats.Speed {
				winner = a.ID
			}
			out = append(out, models.CombatRecord{First: a.ID, Second: b.ID, Winner: winner})
		}
	}
	return out
}
