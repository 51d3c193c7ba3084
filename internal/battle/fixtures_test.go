package battle

import (
	"testing"

	"go.uber.org/zap"

	"github.com/pokestudy/battle-api/internal/models"
)

func testCreatures() []models.Creature {
	return []models.Creature{
		{ID: 1, Name: "Bulbasaur", PrimaryType: "grass", SecondaryType: "poison", Stats: models.Stats{HP: 45, Attack: 49, Defense: 49, SpAttack: 65, SpDefense: 65, Speed: 45}},
		{ID: 4, Name: "Charmander", PrimaryType: "fire", Stats: models.Stats{HP: 39, Attack: 52, Defense: 43, SpAttack: 60, SpDefense: 50, Speed: 65}},
		{ID: 7, Name: "Squirtle", PrimaryType: "water", Stats: models.Stats{HP: 44, Attack: 48, Defense: 65, SpAttack: 50, SpDefense: 64, Speed: 43}},
		{ID: 25, Name: "Pikachu", PrimaryType: "electric", Stats: models.Stats{HP: 35, Attack: 55, Defense: 40, SpAttack: 50, SpDefense: 50, Speed: 90}},
		{ID: 95, Name: "Onix", PrimaryType: "rock", SecondaryType: "ground", Stats: models.Stats{HP: 35, Attack: 45, Defense: 160, SpAttack: 30, SpDefense: 45, Speed: 70}},
		{ID: 150, Name: "Mewtwo", PrimaryType: "psychic", Legendary: true, Stats: models.Stats{HP: 106, Attack: 110, Defense: 90, SpAttack: 154, SpDefense: 90, Speed: 130}},
	}
}

func testRoster(t *testing.T) *Roster {
	t.Helper()
	r, err := NewRoster(testCreatures())
	if err != nil {
		t.Fatalf("NewRoster: %v", err)
	}
	return r
}

// testCombats plays every ordered pair twice; the faster creature wins.
func testCombats() []models.CombatRecord {
	cs := testCreatures()
	var out []models.CombatRecord
	for round := 0; round < 2; round++ {
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
	}
	return out
}

func testBundle(t *testing.T) (*Roster, *Bundle) {
	t.Helper()
	roster := testRoster(t)
	trainer := NewTrainer(DefaultTrainOptions(), nil, zap.NewNop())
	bundle, err := trainer.Train(roster, testCombats())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	return roster, bundle
}
