package battle

import (
	"errors"
	"testing"

	"github.com/pokestudy/battle-api/internal/models"
)

func TestNewRoster(t *testing.T) {
	roster := testRoster(t)

	if roster.Len() != 6 {
		t.Errorf("Len = %d, want 6", roster.Len())
	}
	c, ok := roster.Lookup("  pIkAcHu ")
	if !ok {
		t.Fatal("Lookup is not case-insensitive")
	}
	if c.PrimaryType != "Electric" {
		t.Errorf("PrimaryType = %q, want canonical Electric", c.PrimaryType)
	}
	if _, ok := roster.Lookup("Pika"); ok {
		t.Error("Lookup matched a prefix")
	}
	if c, ok := roster.ByID(95); !ok || c.Name != "Onix" {
		t.Errorf("ByID(95) = %+v, %v", c, ok)
	}
}

func TestNewRoster_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]models.Creature) []models.Creature
		wantErr error
	}{
		{"Duplicate id", func(cs []models.Creature) []models.Creature {
			cs[1].ID = cs[0].ID
			return cs
		}, ErrDuplicateCreature},
		{"Duplicate name", func(cs []models.Creature) []models.Creature {
			cs[1].Name = "BULBASAUR"
			return cs
		}, ErrDuplicateCreature},
		{"Negative stat", func(cs []models.Creature) []models.Creature {
			cs[2].Stats.Speed = -1
			return cs
		}, ErrInvalidStats},
		{"Blank name", func(cs []models.Creature) []models.Creature {
			cs[3].Name = " "
			return cs
		}, ErrInvalidStats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRoster(tt.mutate(testCreatures())); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
