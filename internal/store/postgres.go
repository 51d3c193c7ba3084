package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pokestudy/battle-api/internal/models"
)

// PgPool is the subset of *pgxpool.Pool used here
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSource reads the creatures and combats tables
type PostgresSource struct {
	pg PgPool
}

func NewPostgresSource(pg PgPool) *PostgresSource {
	return &PostgresSource{pg: pg}
}

const rosterQuery = `
	SELECT id, name, type1, type2, hp, attack, defense, sp_attack, sp_defense, speed,
	       is_legendary, COALESCE(abilities, '{}')
	FROM creatures
	ORDER BY id`

func (s *PostgresSource) LoadRoster(ctx context.Context) ([]models.Creature, error) {
	rows, err := s.pg.Query(ctx, rosterQuery)
	if err != nil {
		return nil, fmt.Errorf("query creatures: %w", err)
	}
	defer rows.Close()

	var out []models.Creature
	for rows.Next() {
		var (
			c     models.Creature
			type2 *string
		)
		if err := rows.Scan(
			&c.ID, &c.Name, &c.PrimaryType, &type2,
			&c.Stats.HP, &c.Stats.Attack, &c.Stats.Defense,
			&c.Stats.SpAttack, &c.Stats.SpDefense, &c.Stats.Speed,
			&c.Legendary, &c.Abilities,
		); err != nil {
			return nil, fmt.Errorf("scan creature: %w", err)
		}
		if type2 != nil {
			c.SecondaryType = *type2
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LoadCombats returns combats in insertion order so a seeded split is repeatable
func (s *PostgresSource) LoadCombats(ctx context.Context) ([]models.CombatRecord, error) {
	rows, err := s.pg.Query(ctx, `SELECT first_pokemon, second_pokemon, winner FROM combats ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query combats: %w", err)
	}
	defer rows.Close()

	var out []models.CombatRecord
	for rows.Next() {
		var rec models.CombatRecord
		if err := rows.Scan(&rec.First, &rec.Second, &rec.Winner); err != nil {
			return nil, fmt.Errorf("scan combat: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresSource) CreatureCount(ctx context.Context) (int, error) {
	var n int
	if err := s.pg.QueryRow(ctx, `SELECT COUNT(*) FROM creatures`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Ready reports whether the creatures table is reachable and populated
func (s *PostgresSource) Ready(ctx context.Context) error {
	n, err := s.CreatureCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEmptyRoster
	}
	return nil
}
