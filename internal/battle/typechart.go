package battle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrMalformedTable = errors.New("malformed type table")
	ErrUnknownType    = errors.New("unknown elemental type")
)

// Advantage buckets an attacking/defending type multiplier
type Advantage string

const (
	NoEffect        Advantage = "no effect"
	NotTooEffective Advantage = "not too effective"
	Normal          Advantage = "normal"
	Effective       Advantage = "effective"
)

// Advantages is the declared label domain
var Advantages = []Advantage{NoEffect, NotTooEffective, Normal, Effective}

func advantageFor(mult float64) (Advantage, bool) {
	switch mult {
	case 0:
		return NoEffect, true
	case 0.5:
		return NotTooEffective, true
	case 1:
		return Normal, true
	case 2:
		return Effective, true
	}
	return "", false
}

var defaultTypes = []string{
	"Normal", "Fire", "Water", "Electric", "Grass", "Ice", "Fighting", "Poison", "Ground",
	"Flying", "Psychic", "Bug", "Rock", "Ghost", "Dragon", "Dark", "Steel", "Fairy",
}

// Rows are attackers, columns are defenders, both in defaultTypes order.
var defaultMultipliers = [][]float64{
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, .5, 0, 1, 1, .5, 1},      // Normal
	{1, .5, .5, 1, 2, 2, 1, 1, 1, 1, 1, 2, .5, 1, .5, 1, 2, 1},    // Fire
	{1, 2, .5, 1, .5, 1, 1, 1, 2, 1, 1, 1, 2, 1, .5, 1, 1, 1},     // Water
	{1, 1, 2, .5, .5, 1, 1, 1, 0, 2, 1, 1, 1, 1, .5, 1, 1, 1},     // Electric
	{1, .5, 2, 1, .5, 1, 1, .5, 2, .5, 1, .5, 2, 1, .5, 1, .5, 1}, // Grass
	{1, .5, .5, 1, 2, .5, 1, 1, 2, 2, 1, 1, 1, 1, 2, 1, .5, 1},    // Ice
	{2, 1, 1, 1, 1, 2, 1, .5, 1, .5, .5, .5, 2, 0, 1, 2, 2, .5},   // Fighting
	{1, 1, 1, 1, 2, 1, 1, .5, .5, 1, 1, 1, .5, .5, 1, 1, 0, 2},    // Poison
	{1, 2, 1, 2, .5, 1, 1, 2, 1, 0, 1, .5, 2, 1, 1, 1, 2, 1},      // Ground
	{1, 1, 1, .5, 2, 1, 2, 1, 1, 1, 1, 2, .5, 1, 1, 1, .5, 1},     // Flying
	{1, 1, 1, 1, 1, 1, 2, 2, 1, 1, .5, 1, 1, 1, 1, 0, .5, 1},      // Psychic
	{1, .5, 1, 1, 2, 1, .5, .5, 1, .5, 2, 1, 1, .5, 1, 2, .5, .5}, // Bug
	{1, 2, 1, 1, 1, 2, .5, 1, .5, 2, 1, 2, 1, 1, 1, 1, .5, 1},     // Rock
	{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 1, 1, 2, 1, .5, 1, 1},       // Ghost
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 1, .5, 0},       // Dragon
	{1, 1, 1, 1, 1, 1, .5, 1, 1, 1, 2, 1, 1, 2, 1, .5, 1, .5},     // Dark
	{1, .5, .5, .5, 1, 2, 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, .5, 2},    // Steel
	{1, .5, 1, 1, 1, 1, 2, .5, 1, 1, 1, 1, 1, 1, 2, 2, .5, 1},     // Fairy
}

var defaultTable = mustTypeTable(defaultTypes, defaultMultipliers)

// DefaultTypeTable returns the standard 18x18 chart
func DefaultTypeTable() *TypeTable {
	return defaultTable
}

// TypeTable maps (attacking type, defending type) to a damage multiplier.
// It is immutable once built and safe for concurrent use.
type TypeTable struct {
	types []string
	index map[string]int
	mult  [][]float64
}

// NewTypeTable validates and builds a table. multipliers[i][j] is the
// multiplier of attacking type i against defending type j. Every value must
// be one of 0, 0.5, 1 or 2.
func NewTypeTable(types []string, multipliers [][]float64) (*TypeTable, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no types", ErrMalformedTable)
	}
	if len(multipliers) != len(types) {
		return nil, fmt.Errorf("%w: %d rows for %d types", ErrMalformedTable, len(multipliers), len(types))
	}

	t := &TypeTable{
		types: make([]string, len(types)),
		index: make(map[string]int, len(types)),
		mult:  make([][]float64, len(types)),
	}
	for i, name := range types {
		key := typeKey(name)
		if key == "" {
			return nil, fmt.Errorf("%w: empty type name at %d", ErrMalformedTable, i)
		}
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("%w: duplicate type %q", ErrMalformedTable, name)
		}
		t.index[key] = i
		t.types[i] = CanonicalType(name)
	}
	for i, row := range multipliers {
		if len(row) != len(types) {
			return nil, fmt.Errorf("%w: row %s has %d columns, want %d", ErrMalformedTable, t.types[i], len(row), len(types))
		}
		for j, v := range row {
			if _, ok := advantageFor(v); !ok {
				return nil, fmt.Errorf("%w: %s vs %s = %v", ErrMalformedTable, t.types[i], t.types[j], v)
			}
		}
		t.mult[i] = append([]float64(nil), row...)
	}
	return t, nil
}

func mustTypeTable(types []string, multipliers [][]float64) *TypeTable {
	t, err := NewTypeTable(types, multipliers)
	if err != nil {
		panic(err)
	}
	return t
}

func typeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CanonicalType normalizes a type name for display ("  grass " -> "Grass").
func CanonicalType(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return cases.Title(language.English).String(name)
}

// Types returns the declared types in table order
func (t *TypeTable) Types() []string {
	return append([]string(nil), t.types...)
}

// Has reports whether the type is declared in the table
func (t *TypeTable) Has(name string) bool {
	_, ok := t.index[typeKey(name)]
	return ok
}

// Effectiveness returns the multiplier of att against def. Missing or
// undeclared types are neutral.
func (t *TypeTable) Effectiveness(att, def string) float64 {
	i, ok := t.index[typeKey(att)]
	if !ok {
		return 1
	}
	j, ok := t.index[typeKey(def)]
	if !ok {
		return 1
	}
	return t.mult[i][j]
}

// Classify buckets the multiplier of att against def. An absent type on
// either side classifies as Normal; a present type the table does not
// declare is reported as ErrUnknownType.
func (t *TypeTable) Classify(att, def string) (Advantage, error) {
	if typeKey(att) == "" || typeKey(def) == "" {
		return Normal, nil
	}
	for _, name := range []string{att, def} {
		if !t.Has(name) {
			return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
		}
	}
	label, _ := advantageFor(t.Effectiveness(att, def))
	return label, nil
}

type typeTableJSON struct {
	Types       []string    `json:"types"`
	Multipliers [][]float64 `json:"multipliers"`
}

func (t *TypeTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(typeTableJSON{Types: t.types, Multipliers: t.mult})
}

// UnmarshalJSON rebuilds the table through NewTypeTable so a stored table is
// validated the same way as a freshly declared one.
func (t *TypeTable) UnmarshalJSON(data []byte) error {
	var raw typeTableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := NewTypeTable(raw.Types, raw.Multipliers)
	if err != nil {
		return err
	}
	*t = *built
	return nil
}
