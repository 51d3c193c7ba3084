package models

// PredictRequest is the body of POST /api/v1/battles/predict
type PredictRequest struct {
	First  string `json:"first" validate:"required,max=64"`
	Second string `json:"second" validate:"required,max=64"`
}

// CompareRequest carries the two names of a side-by-side comparison
type CompareRequest struct {
	First  string `validate:"required,max=64"`
	Second string `validate:"required,max=64"`
}

// CombatPayload is one line of the combat ingest stream
type CombatPayload struct {
	First  int    `json:"first_pokemon" validate:"required,gt=0"`
	Second int    `json:"second_pokemon" validate:"required,gt=0,nefield=First"`
	Winner int    `json:"winner" validate:"required,gt=0"`
	Source string `json:"source,omitempty" validate:"omitempty,max=64"`
}

// Record drops the transport-only fields
func (c CombatPayload) Record() CombatRecord {
	return CombatRecord{First: c.First, Second: c.Second, Winner: c.Winner}
}

// IngestResponse summarises one ingest request
type IngestResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Shed     int      `json:"shed"`
	Errors   []string `json:"errors,omitempty"`
}
