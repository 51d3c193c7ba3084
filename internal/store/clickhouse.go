package store

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/pokestudy/battle-api/internal/models"
)

// ClickHouseCombats keeps the combat history in battle_stats.combats
type ClickHouseCombats struct {
	ch driver.Conn
}

func NewClickHouseCombats(ch driver.Conn) *ClickHouseCombats {
	return &ClickHouseCombats{ch: ch}
}

func (s *ClickHouseCombats) LoadCombats(ctx context.Context) ([]models.CombatRecord, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT first_pokemon, second_pokemon, winner
		FROM battle_stats.combats
		ORDER BY received_at, first_pokemon, second_pokemon, winner
	`)
	if err != nil {
		return nil, fmt.Errorf("query combats: %w", err)
	}
	defer rows.Close()

	var out []models.CombatRecord
	for rows.Next() {
		var first, second, winner int32
		if err := rows.Scan(&first, &second, &winner); err != nil {
			return nil, fmt.Errorf("scan combat: %w", err)
		}
		out = append(out, models.CombatRecord{First: int(first), Second: int(second), Winner: int(winner)})
	}
	return out, rows.Err()
}

// WriteCombats inserts one batch
func (s *ClickHouseCombats) WriteCombats(ctx context.Context, combats []models.IngestedCombat) error {
	if len(combats) == 0 {
		return nil
	}
	batch, err := s.ch.PrepareBatch(ctx, `
		INSERT INTO battle_stats.combats (
			first_pokemon, second_pokemon, winner, source, received_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, c := range combats {
		if err := batch.Append(int32(c.First), int32(c.Second), int32(c.Winner), c.Source, c.ReceivedAt); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append combat: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
