package risk

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid thresholds or training options.
	ErrConfiguration = errors.New("configuration error")
	// ErrData marks unusable input tables or records.
	ErrData = errors.New("data error")
	// ErrLoad marks a missing, corrupt or incompatible model artifact.
	ErrLoad = errors.New("load error")
	// ErrPrediction marks an inference failure.
	ErrPrediction = errors.New("prediction error")
)

// Label is the ordered risk class.
type Label int

const (
	Low Label = iota
	Medium
	High
)

// NumLabels is the number of risk classes.
const NumLabels = 3

// Labels lists every class in order.
var Labels = []Label{Low, Medium, High}

func (l Label) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// Valid reports whether l is one of the known classes.
func (l Label) Valid() bool {
	return l >= Low && l <= High
}

// ParseLabel parses low|medium|high, case-insensitive.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	default:
		return Low, fmt.Errorf("%w: unknown risk level %q", ErrData, s)
	}
}

func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: invalid label %d", ErrData, int(l))
	}
	return []byte(l.String()), nil
}

func (l *Label) UnmarshalText(b []byte) error {
	v, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
