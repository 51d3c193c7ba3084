package battle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pokestudy/battle-api/internal/models"
)

var (
	ErrDuplicateCreature = errors.New("duplicate creature")
	ErrInvalidStats      = errors.New("invalid creature stats")
)

// Roster is the immutable creature table, keyed by id and by
// case-insensitive name.
type Roster struct {
	creatures []models.Creature
	byID      map[int]int
	byName    map[string]int
}

// NewRoster copies and indexes the given creatures. Type names are
// canonicalized; ids and names must be unique and stats non-negative.
func NewRoster(creatures []models.Creature) (*Roster, error) {
	r := &Roster{
		creatures: make([]models.Creature, 0, len(creatures)),
		byID:      make(map[int]int, len(creatures)),
		byName:    make(map[string]int, len(creatures)),
	}
	for _, c := range creatures {
		key := nameKey(c.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: creature %d has no name", ErrInvalidStats, c.ID)
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("%w: id %d", ErrDuplicateCreature, c.ID)
		}
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateCreature, c.Name)
		}
		for i, v := range c.Stats.Values() {
			if v < 0 {
				return nil, fmt.Errorf("%w: %s %s = %d", ErrInvalidStats, c.Name, models.StatNames[i], v)
			}
		}

		c.Name = strings.TrimSpace(c.Name)
		c.PrimaryType = CanonicalType(c.PrimaryType)
		c.SecondaryType = CanonicalType(c.SecondaryType)
		c.Abilities = append([]string(nil), c.Abilities...)

		r.byID[c.ID] = len(r.creatures)
		r.byName[key] = len(r.creatures)
		r.creatures = append(r.creatures, c)
	}
	return r, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup finds a creature by exact, case-insensitive name
func (r *Roster) Lookup(name string) (models.Creature, bool) {
	i, ok := r.byName[nameKey(name)]
	if !ok {
		return models.Creature{}, false
	}
	return r.creatures[i], true
}

// ByID finds a creature by roster id
func (r *Roster) ByID(id int) (models.Creature, bool) {
	i, ok := r.byID[id]
	if !ok {
		return models.Creature{}, false
	}
	return r.creatures[i], true
}

func (r *Roster) Len() int {
	return len(r.creatures)
}

// Creatures returns a copy of the roster rows in load order
func (r *Roster) Creatures() []models.Creature {
	return append([]models.Creature(nil), r.creatures...)
}
