package engine

import "time"

// MIME types used as Outputs keys.
const (
	MIMEText = "text/plain"
	MIMEHTML = "text/html"
)

// Outputs is the mergeable result of one or more operations: one rendered
// payload per content type, plus an optional elapsed time.
type Outputs struct {
	ContentByMIME map[string]string
	Timing        *time.Duration
}

// NewOutputs returns an empty Outputs.
func NewOutputs() Outputs {
	return Outputs{ContentByMIME: make(map[string]string)}
}

// TextOutputs returns Outputs holding a single plain-text payload.
func TextOutputs(text string) Outputs {
	out := NewOutputs()
	out.ContentByMIME[MIMEText] = text
	return out
}

// Merge copies every payload of other into o. A key present in both takes
// the value from other; payloads are replaced, not concatenated. Timing is
// not merged: it belongs to the call that produced o.
func (o *Outputs) Merge(other Outputs) {
	if o.ContentByMIME == nil {
		o.ContentByMIME = make(map[string]string, len(other.ContentByMIME))
	}
	for mime, content := range other.ContentByMIME {
		o.ContentByMIME[mime] = content
	}
}

// Get returns the payload for mime.
func (o Outputs) Get(mime string) (string, bool) {
	content, ok := o.ContentByMIME[mime]
	return content, ok
}

// IsEmpty reports whether o carries no payload and no timing.
func (o Outputs) IsEmpty() bool {
	return len(o.ContentByMIME) == 0 && o.Timing == nil
}
