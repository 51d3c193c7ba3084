package models

import "time"

// Stats holds the six base statistics of a creature
type Stats struct {
	HP        int `json:"hp" validate:"gte=0"`
	Attack    int `json:"attack" validate:"gte=0"`
	Defense   int `json:"defense" validate:"gte=0"`
	SpAttack  int `json:"sp_attack" validate:"gte=0"`
	SpDefense int `json:"sp_defense" validate:"gte=0"`
	Speed     int `json:"speed" validate:"gte=0"`
}

// Total returns the base-stat total
func (s Stats) Total() int {
	return s.HP + s.Attack + s.Defense + s.SpAttack + s.SpDefense + s.Speed
}

// Values returns the stats in the fixed order hp, attack, defense, sp_attack, sp_defense, speed.
func (s Stats) Values() [6]int {
	return [6]int{s.HP, s.Attack, s.Defense, s.SpAttack, s.SpDefense, s.Speed}
}

// StatNames lists the stat keys in the same order as Stats.Values
var StatNames = [6]string{"hp", "attack", "defense", "sp_attack", "sp_defense", "speed"}

// Creature is one roster row
type Creature struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	PrimaryType   string   `json:"type1"`
	SecondaryType string   `json:"type2,omitempty"`
	Stats         Stats    `json:"stats"`
	Legendary     bool     `json:"is_legendary"`
	Abilities     []string `json:"abilities,omitempty"`
}

// CombatRecord is one historical encounter. Pair order is significant.
type CombatRecord struct {
	First  int `json:"first_pokemon" validate:"required"`
	Second int `json:"second_pokemon" validate:"required"`
	Winner int `json:"winner" validate:"required"`
}

// IngestedCombat is a combat record accepted for storage
type IngestedCombat struct {
	CombatRecord
	Source     string    `json:"source,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
