package state

import (
	"time"

	"github.com/oicur0t/logl-check/pkg/models"
)

// documentVersion is written into every saved document.
const documentVersion = 1

// Document is the whole persisted state, keyed by stream path.
type Document struct {
	Version int                           `json:"version" yaml:"version" bson:"version"`
	States  map[string]models.StreamState `json:"states" yaml:"states" bson:"states"`
}

// NewDocument returns an empty document, as used on the first run.
func NewDocument() *Document {
	return &Document{
		Version: documentVersion,
		States:  make(map[string]models.StreamState),
	}
}

// Lookup returns the state recorded for path, or a fresh state for a
// stream that was never scanned. The document is not modified.
func (d *Document) Lookup(path string) models.StreamState {
	if st, ok := d.States[path]; ok {
		st.Path = path
		return st
	}
	return models.StreamState{Path: path}
}

// Record folds a scan result into the stream's state. Kept alerts that
// expired before now are dropped; the survivors are returned so they can
// still count towards this run's status. When retention is positive and
// the result matched anything, it is kept until now+retention.
func (d *Document) Record(result models.Match, now time.Time, retention time.Duration) []models.KeptAlert {
	st := d.Lookup(result.Path)

	var carried []models.KeptAlert
	for _, k := range st.KeptAlerts {
		if k.Active(now) {
			carried = append(carried, k)
		}
	}

	kept := append([]models.KeptAlert(nil), carried...)
	if retention > 0 && len(result.Messages) > 0 {
		kept = append(kept, models.KeptAlert{
			Match:     result,
			KeepUntil: now.Add(retention),
		})
	}

	st.KeptAlerts = kept
	st.LineNumber = result.LastLineNumber
	st.Size = result.FileSize
	st.Modified = result.Modified

	if d.States == nil {
		d.States = make(map[string]models.StreamState)
	}
	d.States[result.Path] = st
	return carried
}
