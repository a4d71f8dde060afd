package harvest

import (
	"encoding/json"
	"fmt"
)

// Rendered forms of the non-present field states.
const (
	NotFoundText = "N/A"
	FailedText   = "Error during processing, data not captured."
)

// State is the outcome of reading one field of a node.
type State uint8

const (
	pending State = iota
	// Present means the element was found and its text read.
	Present
	// Absent means the element does not exist in the node.
	Absent
	// Failed means processing of the node faulted before this field was read.
	Failed
)

func (s State) String() string {
	switch s {
	case Present:
		return "present"
	case Absent:
		return "absent"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Field holds one harvested value. Text is meaningful only when State is
// Present.
type Field struct {
	State State
	Text  string
}

// PresentField returns a Present field carrying text.
func PresentField(text string) Field { return Field{State: Present, Text: text} }

// AbsentField returns an Absent field.
func AbsentField() Field { return Field{State: Absent} }

// FailedField returns a Failed field.
func FailedField() Field { return Field{State: Failed} }

// IsPresent reports whether the field carries harvested text.
func (f Field) IsPresent() bool { return f.State == Present }

// String renders the field the way the text outputs print it.
func (f Field) String() string {
	switch f.State {
	case Present:
		return f.Text
	case Failed:
		return FailedText
	default:
		return NotFoundText
	}
}

type fieldJSON struct {
	State string `json:"state"`
	Text  string `json:"text,omitempty"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{State: f.State.String(), Text: f.Text})
}

func (f *Field) UnmarshalJSON(b []byte) error {
	var raw fieldJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch raw.State {
	case "present":
		*f = PresentField(raw.Text)
	case "absent":
		*f = AbsentField()
	case "failed":
		*f = FailedField()
	case "pending":
		*f = Field{}
	default:
		return fmt.Errorf("harvest: unknown field state %q", raw.State)
	}
	return nil
}
