package battle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pokestudy/battle-api/internal/models"
)

// Bundle is the immutable output of a training run. Predictions only read it.
type Bundle struct {
	id        string
	trainedAt time.Time
	seed      int64
	model     *DecisionTree
	scaler    *StandardScaler
	schema    *Schema
	types     *TypeTable
	report    models.TrainingReport
}

func (b *Bundle) ID() string                    { return b.id }
func (b *Bundle) TrainedAt() time.Time          { return b.trainedAt }
func (b *Bundle) Seed() int64                   { return b.seed }
func (b *Bundle) Types() *TypeTable             { return b.types }
func (b *Bundle) Report() models.TrainingReport { return b.report }

// ExpectedColumns is the encoded column order the model was trained on
func (b *Bundle) ExpectedColumns() []string {
	return append([]string(nil), b.schema.Columns...)
}

// NumericColumns are the scaled columns
func (b *Bundle) NumericColumns() []string {
	return append([]string(nil), b.schema.Numeric...)
}

// Info summarizes the bundle for API consumers
func (b *Bundle) Info(rosterSize int) models.ModelInfo {
	return models.ModelInfo{
		ID:             b.id,
		SchemaVersion:  b.schema.Version,
		TrainedAt:      b.trainedAt,
		Seed:           b.seed,
		Columns:        b.ExpectedColumns(),
		NumericColumns: b.NumericColumns(),
		RosterSize:     rosterSize,
		Report:         b.report,
	}
}

type bundleJSON struct {
	ID        string                `json:"id"`
	TrainedAt time.Time             `json:"trained_at"`
	Seed      int64                 `json:"seed"`
	Model     *DecisionTree         `json:"model"`
	Scaler    *StandardScaler       `json:"scaler"`
	Schema    *Schema               `json:"schema"`
	Types     *TypeTable            `json:"types"`
	Report    models.TrainingReport `json:"report"`
}

func (b *Bundle) MarshalJSON() ([]byte, error) {
	return json.Marshal(bundleJSON{
		ID:        b.id,
		TrainedAt: b.trainedAt,
		Seed:      b.seed,
		Model:     b.model,
		Scaler:    b.scaler,
		Schema:    b.schema,
		Types:     b.types,
		Report:    b.report,
	})
}

// UnmarshalJSON restores a stored bundle and checks that its parts agree
// with each other and with the current schema version.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var raw bundleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Model == nil || raw.Scaler == nil || raw.Schema == nil || raw.Types == nil {
		return fmt.Errorf("bundle %s: missing component", raw.ID)
	}
	if err := raw.Schema.validate(); err != nil {
		return fmt.Errorf("bundle %s: %w", raw.ID, err)
	}
	if err := raw.Model.validate(); err != nil {
		return fmt.Errorf("bundle %s: %w", raw.ID, err)
	}
	if raw.Model.Features != len(raw.Schema.Columns) {
		return fmt.Errorf("bundle %s: %w: model has %d features for %d columns",
			raw.ID, ErrSchemaMismatch, raw.Model.Features, len(raw.Schema.Columns))
	}
	if err := raw.Scaler.validate(len(raw.Schema.Columns)); err != nil {
		return fmt.Errorf("bundle %s: %w", raw.ID, err)
	}

	*b = Bundle{
		id:        raw.ID,
		trainedAt: raw.TrainedAt,
		seed:      raw.Seed,
		model:     raw.Model,
		scaler:    raw.Scaler,
		schema:    raw.Schema,
		types:     raw.Types,
		report:    raw.Report,
	}
	return nil
}
