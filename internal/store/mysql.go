package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/pokestudy/battle-api/internal/models"
)

// OpenMySQL opens and pings a MySQL pool
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// SQLRows is the subset of *sql.Rows the MySQL roster reads
type SQLRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// SQLQuerier runs a read query
type SQLQuerier interface {
	QueryRows(ctx context.Context, query string, args ...any) (SQLRows, error)
}

type sqlDB struct {
	db *sql.DB
}

func (d sqlDB) QueryRows(ctx context.Context, query string, args ...any) (SQLRows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MySQLRoster reads the roster from a legacy fan-site pokemon table, where
// abilities are stored as one comma-separated column.
type MySQLRoster struct {
	q SQLQuerier
}

func NewMySQLRoster(db *sql.DB) *MySQLRoster {
	return &MySQLRoster{q: sqlDB{db: db}}
}

func (s *MySQLRoster) LoadRoster(ctx context.Context) ([]models.Creature, error) {
	rows, err := s.q.QueryRows(ctx, `
		SELECT pokedex_number, name, type1, type2, hp, attack, defense,
		       sp_attack, sp_defense, speed, is_legendary, abilities
		FROM pokemon
		ORDER BY pokedex_number`)
	if err != nil {
		return nil, fmt.Errorf("query pokemon: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Creature
	for rows.Next() {
		var (
			c                models.Creature
			type2, abilities sql.NullString
		)
		if err := rows.Scan(
			&c.ID, &c.Name, &c.PrimaryType, &type2,
			&c.Stats.HP, &c.Stats.Attack, &c.Stats.Defense,
			&c.Stats.SpAttack, &c.Stats.SpDefense, &c.Stats.Speed,
			&c.Legendary, &abilities,
		); err != nil {
			return nil, fmt.Errorf("scan pokemon: %w", err)
		}
		c.SecondaryType = type2.String
		c.Abilities = ParseAbilities(abilities.String)
		out = append(out, c)
	}
	return out, rows.Err()
}
