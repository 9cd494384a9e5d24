package workout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RepsPattern is a rep target, optionally split in "-" delimited stages
// ("12-10-8"). Stored as a string, accepted as a JSON number too.
type RepsPattern string

func (p *RepsPattern) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("reps pattern: %w", err)
		}
		*p = RepsPattern(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("reps pattern: %w", err)
	}
	*p = RepsPattern(n.String())
	return nil
}

// Stages returns the trimmed, non-empty stage values of the pattern.
func (p RepsPattern) Stages() []string {
	raw := strings.TrimSpace(string(p))
	if raw == "" {
		return nil
	}

	var stages []string
	for _, part := range strings.Split(raw, "-") {
		part = strings.TrimSpace(part)
		if part != "" {
			stages = append(stages, part)
		}
	}
	return stages
}

// TargetForSet resolves the rep target of the given 1-based set number,
// clamping to the last stage.
func (p RepsPattern) TargetForSet(setNumber int) Reps {
	stages := p.Stages()
	if len(stages) == 0 {
		return Reps{}
	}

	idx := min(max(setNumber-1, 0), len(stages)-1)
	return ParseReps(stages[idx])
}

// Reps is a resolved rep target: a number when the stage starts with an
// integer, free text otherwise.
type Reps struct {
	Number  int
	Text    string
	Numeric bool
}

func NumericReps(n int) Reps {
	return Reps{Number: n, Numeric: true}
}

func TextReps(s string) Reps {
	return Reps{Text: s}
}

// ParseReps keeps the leading integer of value when there is one
// ("10 per side" -> 10), and the text otherwise.
func ParseReps(value string) Reps {
	if n, ok := leadingInt(value); ok {
		return NumericReps(n)
	}
	return TextReps(value)
}

func (r Reps) String() string {
	if r.Numeric {
		return strconv.Itoa(r.Number)
	}
	return r.Text
}

func (r Reps) IsZero() bool {
	return !r.Numeric && r.Text == ""
}

func (r Reps) MarshalJSON() ([]byte, error) {
	if r.Numeric {
		return []byte(strconv.Itoa(r.Number)), nil
	}
	return json.Marshal(r.Text)
}

func (r *Reps) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = Reps{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("reps: %w", err)
		}
		*r = TextReps(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("reps: %w", err)
	}
	*r = NumericReps(int(f))
	return nil
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
