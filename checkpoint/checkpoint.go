// Package checkpoint defines the serializable snapshot of iteration
// progress. A Checkpoint is the only state that survives a pause/resume
// boundary: it carries plain data only, never live references, and must
// let a resumed run visit the exact remaining combinations in the same
// order an uninterrupted run would have.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"
)

// Cursor is the integer position within one iteration level. The slice
// order in Checkpoint.Cursors matches the spec's level order.
type Cursor struct {
	Level string `json:"level"`
	Index int    `json:"index"`

	// Count is the candidate list size when the snapshot was taken.
	// Restore compares it against the recomputed list to detect source
	// changes that would break deterministic resumption. Zero means
	// the size was not recorded.
	Count int `json:"count,omitempty"`
}

// Combination is one concrete tuple produced by odometer iteration:
// one element per level, with the indexes it was assembled from.
type Combination struct {
	Levels   []string `json:"levels"`
	Indexes  []int    `json:"indexes"`
	Elements []any    `json:"elements"`
}

// Element returns the element for the named level.
func (c Combination) Element(level string) (any, bool) {
	for i, name := range c.Levels {
		if name == level {
			return c.Elements[i], true
		}
	}
	return nil, false
}

// Outcome records one attempted combination: the value the action
// produced, or the error it failed with.
type Outcome struct {
	At          time.Time   `json:"at"`
	Combination Combination `json:"combination"`
	Value       any         `json:"value,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Failed reports whether this combination's action returned an error.
func (o Outcome) Failed() bool { return o.Error != "" }

// Checkpoint is the snapshot persisted at every pause point. Cursors
// point at the next combination to process; Outcomes accumulates one
// entry per attempted combination, so len(Outcomes) is the processed
// count.
type Checkpoint struct {
	Cursors  []Cursor  `json:"cursors"`
	Outcomes []Outcome `json:"outcomes"`
	Percent  float64   `json:"percent"`
}

// Processed returns the number of combinations attempted so far.
func (c *Checkpoint) Processed() int {
	if c == nil {
		return 0
	}
	return len(c.Outcomes)
}

// FailedCount returns the number of combinations whose action failed.
func (c *Checkpoint) FailedCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, o := range c.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Cursor returns the full cursor for the named level.
func (c *Checkpoint) Cursor(level string) (Cursor, bool) {
	if c == nil {
		return Cursor{}, false
	}
	for _, cur := range c.Cursors {
		if cur.Level == level {
			return cur, true
		}
	}
	return Cursor{}, false
}

// CursorFor returns the cursor index for the named level.
func (c *Checkpoint) CursorFor(level string) (int, bool) {
	cur, ok := c.Cursor(level)
	return cur.Index, ok
}

// Encode serializes the checkpoint to its persisted string form.
func (c *Checkpoint) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode checkpoint: %w", err)
	}
	return string(data), nil
}

// Decode parses the persisted string form back into a Checkpoint.
func Decode(s string) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &c, nil
}
