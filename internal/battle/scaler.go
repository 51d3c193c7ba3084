package battle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes selected row positions to zero mean and unit
// variance using population statistics.
type StandardScaler struct {
	Columns   []string  `json:"columns"`
	Positions []int     `json:"positions"`
	Mean      []float64 `json:"mean"`
	Scale     []float64 `json:"scale"`
}

// FitScaler computes mean and standard deviation per position. A constant
// column gets scale 1 so it maps to zero instead of dividing by zero.
func FitScaler(rows [][]float64, columns []string, positions []int) (*StandardScaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit scaler: no rows")
	}
	if len(columns) != len(positions) {
		return nil, fmt.Errorf("fit scaler: %d columns for %d positions", len(columns), len(positions))
	}

	s := &StandardScaler{
		Columns:   append([]string(nil), columns...),
		Positions: append([]int(nil), positions...),
		Mean:      make([]float64, len(positions)),
		Scale:     make([]float64, len(positions)),
	}
	values := make([]float64, len(rows))
	for k, pos := range positions {
		for i, row := range rows {
			values[i] = row[pos]
		}
		mean, variance := stat.PopMeanVariance(values, nil)
		scale := math.Sqrt(variance)
		if scale == 0 || math.IsNaN(scale) {
			scale = 1
		}
		s.Mean[k] = mean
		s.Scale[k] = scale
	}
	return s, nil
}

// Transform returns a scaled copy of row
func (s *StandardScaler) Transform(row []float64) []float64 {
	out := append([]float64(nil), row...)
	for k, pos := range s.Positions {
		out[pos] = (out[pos] - s.Mean[k]) / s.Scale[k]
	}
	return out
}

func (s *StandardScaler) validate(width int) error {
	if len(s.Positions) != len(s.Mean) || len(s.Positions) != len(s.Scale) {
		return fmt.Errorf("scaler: inconsistent lengths")
	}
	for k, pos := range s.Positions {
		if pos < 0 || pos >= width {
			return fmt.Errorf("scaler: position %d out of range", pos)
		}
		if s.Scale[k] == 0 {
			return fmt.Errorf("scaler: zero scale for %s", s.Columns[k])
		}
	}
	return nil
}
