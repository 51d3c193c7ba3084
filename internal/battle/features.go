package battle

import (
	"github.com/pokestudy/battle-api/internal/models"
)

// Categorical field names
const (
	FieldLegendaryA = "legendary_a"
	FieldLegendaryB = "legendary_b"
	FieldAdvantage  = "advantage"
)

// Legendary flags are kept as strings so they one-hot encode like any other category.
const (
	LegendaryTrue  = "True"
	LegendaryFalse = "False"
)

// NumericColumns are the stat-difference columns in fixed order
var NumericColumns = []string{
	"diff_hp", "diff_attack", "diff_defense", "diff_sp_attack", "diff_sp_defense", "diff_speed",
}

// CategoricalFields are encoded in this order after the numeric columns
var CategoricalFields = []string{FieldLegendaryA, FieldLegendaryB, FieldAdvantage}

// FeatureVector describes an ordered pair (A, B)
type FeatureVector struct {
	Diffs      [6]float64
	LegendaryA string
	LegendaryB string
	Advantage  Advantage
}

// BuildFeatures derives the feature vector for A against B. Only primary
// types are considered for the advantage label.
func BuildFeatures(a, b models.Creature, types *TypeTable) (FeatureVector, error) {
	var fv FeatureVector

	sa, sb := a.Stats.Values(), b.Stats.Values()
	for i := range sa {
		fv.Diffs[i] = float64(sa[i] - sb[i])
	}
	fv.LegendaryA = legendaryString(a.Legendary)
	fv.LegendaryB = legendaryString(b.Legendary)

	adv, err := types.Classify(a.PrimaryType, b.PrimaryType)
	if err != nil {
		return FeatureVector{}, err
	}
	fv.Advantage = adv
	return fv, nil
}

func legendaryString(v bool) string {
	if v {
		return LegendaryTrue
	}
	return LegendaryFalse
}

// Category returns the value of a categorical field
func (f FeatureVector) Category(field string) string {
	switch field {
	case FieldLegendaryA:
		return f.LegendaryA
	case FieldLegendaryB:
		return f.LegendaryB
	case FieldAdvantage:
		return string(f.Advantage)
	}
	return ""
}
