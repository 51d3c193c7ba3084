package store

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestMySQLRoster_LoadRoster(t *testing.T) {
	rows := &MockSQLRows{Data: [][]any{
		{1, "Bulbasaur", "Grass", sql.NullString{String: "Poison", Valid: true}, 45, 49, 49, 65, 65, 45, false,
			sql.NullString{String: "['Overgrow', 'Chlorophyll']", Valid: true}},
		{150, "Mewtwo", "Psychic", nil, 106, 110, 90, 154, 90, 130, true, nil},
	}}
	db := &MockSQL{QueryRowsFunc: func(ctx context.Context, query string, args ...any) (SQLRows, error) {
		if !strings.Contains(query, "FROM pokemon") {
			t.Errorf("unexpected query %q", query)
		}
		return rows, nil
	}}

	creatures, err := (&MySQLRoster{q: db}).LoadRoster(context.Background())
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(creatures) != 2 {
		t.Fatalf("got %d creatures, want 2", len(creatures))
	}
	if creatures[0].SecondaryType != "Poison" || creatures[1].SecondaryType != "" {
		t.Errorf("secondary types = %q, %q", creatures[0].SecondaryType, creatures[1].SecondaryType)
	}
	if !reflect.DeepEqual(creatures[0].Abilities, []string{"Overgrow", "Chlorophyll"}) {
		t.Errorf("Abilities = %v", creatures[0].Abilities)
	}
	if creatures[1].Abilities != nil {
		t.Errorf("NULL abilities = %v, want none", creatures[1].Abilities)
	}
	if !creatures[1].Legendary || creatures[1].Stats.SpAttack != 154 {
		t.Errorf("Mewtwo = %+v", creatures[1])
	}
	if !rows.closed {
		t.Error("rows not closed")
	}
}

func TestMySQLRoster_Errors(t *testing.T) {
	tests := []struct {
		name string
		db   *MockSQL
		want string
	}{
		{
			name: "query",
			db: &MockSQL{QueryRowsFunc: func(ctx context.Context, query string, args ...any) (SQLRows, error) {
				return nil, errors.New("table doesn't exist")
			}},
			want: "query pokemon",
		},
		{
			name: "scan",
			db: &MockSQL{QueryRowsFunc: func(ctx context.Context, query string, args ...any) (SQLRows, error) {
				return &MockSQLRows{Data: [][]any{{1}}, ScanErr: errors.New("converting NULL to int")}, nil
			}},
			want: "scan pokemon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&MySQLRoster{q: tt.db}).LoadRoster(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
