package battle

import (
	"fmt"
	"math"

	"github.com/pokestudy/battle-api/internal/models"
)

// NotFoundMessage is returned when either name is missing from the roster
const NotFoundMessage = "one or both not found"

// Prediction is the result of one query. Found is false only when a name
// did not resolve; Winner is then empty.
type Prediction struct {
	First            models.Creature
	Second           models.Creature
	Found            bool
	Winner           string
	WinnerID         int
	ProbabilityFirst float64
	Confidence       float64
	Message          string
}

// Predict estimates whether nameA beats nameB. The tree is evaluated on both
// orderings and combined as P = (p(A,B) + 1 - p(B,A)) / 2, so swapping the
// arguments never changes the named winner. On an exact tie the higher base
// stat total wins, then the lower roster id.
//
// The only non-error failure is a name that does not resolve. Errors are
// schema mismatches between the bundle and the roster.
func Predict(nameA, nameB string, roster *Roster, bundle *Bundle) (Prediction, error) {
	a, okA := roster.Lookup(nameA)
	b, okB := roster.Lookup(nameB)
	if !okA || !okB {
		return Prediction{Message: NotFoundMessage}, nil
	}

	pab, err := bundle.proba(a, b)
	if err != nil {
		return Prediction{}, err
	}
	pba, err := bundle.proba(b, a)
	if err != nil {
		return Prediction{}, err
	}

	pred := Prediction{
		First:            a,
		Second:           b,
		Found:            true,
		ProbabilityFirst: (pab + 1 - pba) / 2,
		Confidence:       0.5 + math.Abs(pab-pba)/2,
	}

	winner := b
	switch {
	case pab > pba:
		winner = a
	case pab == pba:
		winner = tieBreak(a, b)
	}
	pred.Winner = winner.Name
	pred.WinnerID = winner.ID
	pred.Message = fmt.Sprintf("%s is likely to win with %.2f%% confidence!", winner.Name, pred.Confidence*100)
	return pred, nil
}

func tieBreak(a, b models.Creature) models.Creature {
	ta, tb := a.Stats.Total(), b.Stats.Total()
	if ta != tb {
		if ta > tb {
			return a
		}
		return b
	}
	if b.ID < a.ID {
		return b
	}
	return a
}

// proba is P(first wins) for the ordered pair as the tree sees it
func (b *Bundle) proba(first, second models.Creature) (float64, error) {
	fv, err := BuildFeatures(first, second, b.types)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	row, err := b.schema.Row(fv)
	if err != nil {
		return 0, err
	}
	return b.model.ProbaPositive(b.scaler.Transform(row))
}
