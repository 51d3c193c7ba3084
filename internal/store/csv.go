// Package store loads the roster and combat history from the supported
// backends and writes ingested combats back.
package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pokestudy/battle-api/internal/models"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrEmptyRoster   = errors.New("roster is empty")
)

// rosterAliases maps a logical roster field to the header names it may appear under
var rosterAliases = map[string][]string{
	"id":           {"pokedex_number", "id", "#"},
	"name":         {"name"},
	"type1":        {"type1", "type 1", "type_1"},
	"type2":        {"type2", "type 2", "type_2"},
	"hp":           {"hp"},
	"attack":       {"attack"},
	"defense":      {"defense"},
	"sp_attack":    {"sp_attack", "sp. atk", "sp_atk"},
	"sp_defense":   {"sp_defense", "sp. def", "sp_def"},
	"speed":        {"speed"},
	"is_legendary": {"is_legendary", "legendary"},
	"abilities":    {"abilities"},
}

var requiredRosterFields = []string{"id", "name", "type1", "hp", "attack", "defense", "sp_attack", "sp_defense", "speed"}

// CSVSource reads the two tables from CSV files on disk
type CSVSource struct {
	RosterPath  string
	CombatsPath string
	logger      *zap.SugaredLogger
}

func NewCSVSource(rosterPath, combatsPath string, logger *zap.Logger) *CSVSource {
	return &CSVSource{RosterPath: rosterPath, CombatsPath: combatsPath, logger: logger.Sugar()}
}

func (s *CSVSource) LoadRoster(ctx context.Context) ([]models.Creature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.RosterPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster CSV: %w", err)
	}
	defer func() { _ = f.Close() }()

	creatures, err := ParseRoster(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.RosterPath, err)
	}
	s.logger.Infow("Loaded roster CSV", "path", s.RosterPath, "creatures", len(creatures))
	return creatures, nil
}

func (s *CSVSource) LoadCombats(ctx context.Context) ([]models.CombatRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.CombatsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open combats CSV: %w", err)
	}
	defer func() { _ = f.Close() }()

	combats, err := ParseCombats(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.CombatsPath, err)
	}
	s.logger.Infow("Loaded combats CSV", "path", s.CombatsPath, "combats", len(combats))
	return combats, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader
}

// headerIndex resolves each logical field to its column, or -1 when absent
func headerIndex(header []string, aliases map[string][]string) map[string]int {
	pos := make(map[string]int, len(header))
	for i, col := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	out := make(map[string]int, len(aliases))
	for field, names := range aliases {
		out[field] = -1
		for _, n := range names {
			if i, ok := pos[n]; ok {
				out[field] = i
				break
			}
		}
	}
	return out
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseRoster reads a creature table. The header row is required; column
// order is free and unknown columns are ignored.
func ParseRoster(r io.Reader) ([]models.Creature, error) {
	reader := newReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster header: %w", err)
	}
	cols := headerIndex(header, rosterAliases)
	for _, f := range requiredRosterFields {
		if cols[f] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, f)
		}
	}

	var out []models.Creature
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c, err := parseCreature(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func parseCreature(row []string, cols map[string]int) (models.Creature, error) {
	var (
		c   models.Creature
		err error
	)
	if c.ID, err = strconv.Atoi(cell(row, cols["id"])); err != nil {
		return c, fmt.Errorf("id: %w", err)
	}
	c.Name = cell(row, cols["name"])
	c.PrimaryType = cell(row, cols["type1"])
	c.SecondaryType = cell(row, cols["type2"])

	stats := []struct {
		field string
		dst   *int
	}{
		{"hp", &c.Stats.HP},
		{"attack", &c.Stats.Attack},
		{"defense", &c.Stats.Defense},
		{"sp_attack", &c.Stats.SpAttack},
		{"sp_defense", &c.Stats.SpDefense},
		{"speed", &c.Stats.Speed},
	}
	for _, s := range stats {
		if *s.dst, err = strconv.Atoi(cell(row, cols[s.field])); err != nil {
			return c, fmt.Errorf("%s: %w", s.field, err)
		}
	}

	if v := cell(row, cols["is_legendary"]); v != "" {
		if c.Legendary, err = strconv.ParseBool(v); err != nil {
			return c, fmt.Errorf("is_legendary: %w", err)
		}
	}
	c.Abilities = ParseAbilities(cell(row, cols["abilities"]))
	return c, nil
}

// ParseAbilities accepts a bracketed list ("['Overgrow', 'Chlorophyll']")
// or a plain comma-separated one.
func ParseAbilities(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseCombats reads a combat history with First_pokemon, Second_pokemon and
// Winner columns.
func ParseCombats(r io.Reader) ([]models.CombatRecord, error) {
	reader := newReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read combats header: %w", err)
	}
	cols := headerIndex(header, map[string][]string{
		"first":  {"first_pokemon", "first"},
		"second": {"second_pokemon", "second"},
		"winner": {"winner"},
	})
	for _, f := range []string{"first", "second", "winner"} {
		if cols[f] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, f)
		}
	}

	var out []models.CombatRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var rec models.CombatRecord
		for _, f := range []struct {
			field string
			dst   *int
		}{{"first", &rec.First}, {"second", &rec.Second}, {"winner", &rec.Winner}} {
			if *f.dst, err = strconv.Atoi(cell(row, cols[f.field])); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, f.field, err)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
