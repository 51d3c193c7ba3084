package battle

import (
	"errors"
	"fmt"
	"sort"
)

// SchemaVersion is bumped whenever the encoded column layout changes
const SchemaVersion = 1

var ErrSchemaMismatch = errors.New("feature schema mismatch")

// CategoricalDomain is the sorted category set of one field. The first
// category is the reference and gets no column of its own.
type CategoricalDomain struct {
	Field      string   `json:"field"`
	Categories []string `json:"categories"`
}

// Schema is the explicit encoded column layout shared by training and
// inference: numeric columns first, then one dummy column per
// non-reference category, field by field.
type Schema struct {
	Version     int                 `json:"version"`
	Numeric     []string            `json:"numeric"`
	Categorical []CategoricalDomain `json:"categorical"`
	Columns     []string            `json:"columns"`

	index map[string]int
}

func declaredCategories(field string) []string {
	switch field {
	case FieldLegendaryA, FieldLegendaryB:
		return []string{LegendaryFalse, LegendaryTrue}
	case FieldAdvantage:
		out := make([]string, len(Advantages))
		for i, a := range Advantages {
			out[i] = string(a)
		}
		return out
	}
	return nil
}

// NewSchema derives the schema from training vectors. Each field's domain
// is its declared categories plus anything observed, so the layout does not
// depend on which categories a particular history happens to contain.
func NewSchema(vectors []FeatureVector) *Schema {
	s := &Schema{
		Version: SchemaVersion,
		Numeric: append([]string(nil), NumericColumns...),
	}
	for _, field := range CategoricalFields {
		seen := make(map[string]struct{})
		for _, c := range declaredCategories(field) {
			seen[c] = struct{}{}
		}
		for _, fv := range vectors {
			seen[fv.Category(field)] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		s.Categorical = append(s.Categorical, CategoricalDomain{Field: field, Categories: cats})
	}

	s.Columns = append(s.Columns, s.Numeric...)
	for _, d := range s.Categorical {
		for _, c := range d.Categories[1:] {
			s.Columns = append(s.Columns, dummyColumn(d.Field, c))
		}
	}
	s.buildIndex()
	return s
}

func dummyColumn(field, category string) string {
	return field + "_" + category
}

func (s *Schema) buildIndex() {
	s.index = make(map[string]int, len(s.Columns))
	for i, c := range s.Columns {
		s.index[c] = i
	}
}

// validate checks a schema restored from storage
func (s *Schema) validate() error {
	if s.Version != SchemaVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrSchemaMismatch, s.Version, SchemaVersion)
	}
	want := len(s.Numeric)
	for _, d := range s.Categorical {
		if len(d.Categories) == 0 {
			return fmt.Errorf("%w: field %s has no categories", ErrSchemaMismatch, d.Field)
		}
		want += len(d.Categories) - 1
	}
	if len(s.Columns) != want {
		return fmt.Errorf("%w: %d columns, want %d", ErrSchemaMismatch, len(s.Columns), want)
	}
	s.buildIndex()
	if len(s.index) != len(s.Columns) {
		return fmt.Errorf("%w: duplicate columns", ErrSchemaMismatch)
	}
	return nil
}

func (s *Schema) reference(field string) string {
	for _, d := range s.Categorical {
		if d.Field == field {
			return d.Categories[0]
		}
	}
	return ""
}

// Encode expands one vector into named columns the way a dummy-variable
// expansion of a single row would: only the columns the row actually
// produces are present.
func (s *Schema) Encode(fv FeatureVector) map[string]float64 {
	out := make(map[string]float64, len(s.Numeric)+len(CategoricalFields))
	for i, c := range s.Numeric {
		out[c] = fv.Diffs[i]
	}
	for _, field := range CategoricalFields {
		v := fv.Category(field)
		if v == s.reference(field) {
			continue
		}
		out[dummyColumn(field, v)] = 1
	}
	return out
}

// Align orders encoded columns to the schema. Columns the schema expects but
// the row lacks are zero; a column the schema does not know is an error.
func (s *Schema) Align(encoded map[string]float64) ([]float64, error) {
	row := make([]float64, len(s.Columns))
	for col, v := range encoded {
		i, ok := s.index[col]
		if !ok {
			return nil, fmt.Errorf("%w: unexpected column %q", ErrSchemaMismatch, col)
		}
		row[i] = v
	}
	return row, nil
}

// Row encodes and aligns in one step
func (s *Schema) Row(fv FeatureVector) ([]float64, error) {
	return s.Align(s.Encode(fv))
}

// NumericPositions returns the row positions of the numeric columns
func (s *Schema) NumericPositions() []int {
	pos := make([]int, len(s.Numeric))
	for i, c := range s.Numeric {
		pos[i] = s.index[c]
	}
	return pos
}
