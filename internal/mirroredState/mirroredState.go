package mirroredstate

import (
	"encoding/json"
	"fmt"

	"github.com/wheelibin/glow/internal/constants"
	"github.com/wheelibin/glow/internal/models"
)

// Snapshot is the local copy of the remote documents. It is a value type and
// only changes by way of Apply.
type Snapshot struct {
	Mode         models.Mode
	Color        models.RGB
	Pattern      models.Pattern
	BreatheSpeed int
	FlashSpeed   int
	StartTime    string
	StopTime     string
}

// Apply overwrites the fields owned by the document's collection with the incoming
// values. Fields missing from a display document are reset, there is no merge.
func Apply(s Snapshot, doc models.Document) (Snapshot, error) {
	switch doc.Collection {

	case constants.CollectionStates:
		var state models.StateDocument
		if err := json.Unmarshal(doc.Data, &state); err != nil {
			return s, fmt.Errorf("error parsing %s: %w", doc.Ref(), err)
		}
		s.Mode = state.Type

	case constants.CollectionUser:
		var user models.UserDocument
		if err := json.Unmarshal(doc.Data, &user); err != nil {
			return s, fmt.Errorf("error parsing %s: %w", doc.Ref(), err)
		}
		s.Color = user.Color

	case constants.CollectionDisplay:
		var display models.DisplayDocument
		if err := json.Unmarshal(doc.Data, &display); err != nil {
			return s, fmt.Errorf("error parsing %s: %w", doc.Ref(), err)
		}
		s.Pattern = display.Pattern
		s.BreatheSpeed = deref(display.BreatheSpeed)
		s.FlashSpeed = deref(display.FlashSpeed)
		s.StartTime = deref(display.StartTime)
		s.StopTime = deref(display.StopTime)

	default:
		return s, fmt.Errorf("unexpected collection %q", doc.Collection)
	}

	return s, nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
