package assessment

import (
	"encoding/json"
	"strings"
)

// Answer is a yes/no screening response. Anything other than an explicit yes
// decodes to no.
type Answer bool

const (
	Yes Answer = true
	No  Answer = false
)

// ParseAnswer maps survey text to an Answer.
func ParseAnswer(s string) Answer {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return Yes
	default:
		return No
	}
}

// Float returns 1 for yes and 0 for no.
func (a Answer) Float() float64 {
	if a {
		return 1
	}
	return 0
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a {
		return []byte(`"yes"`), nil
	}
	return []byte(`"no"`), nil
}

// UnmarshalJSON accepts "yes"/"no" strings, booleans and 0/1 numbers.
// Unrecognized values decode to no.
func (a *Answer) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*a = Answer(t)
	case string:
		*a = ParseAnswer(t)
	case float64:
		*a = t == 1
	default:
		*a = No
	}
	return nil
}
