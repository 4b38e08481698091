package assessment

import (
	"encoding/json"
	"strings"
)

// Daily is the ordinal servings-per-day scale.
type Daily int

// Weekly is the ordinal days-per-week scale.
type Weekly int

// Timing is the ordinal when-consumed scale.
type Timing int

// Glasses is the ordinal water glasses-per-day scale.
type Glasses int

// scale maps survey labels to ordinal values. Zero is reserved for unknown.
type scale struct {
	values map[string]int
	labels map[int]string
	max    int
}

func newScale(labels map[int]string, aliases map[string]int) scale {
	s := scale{values: make(map[string]int), labels: labels}
	for v, l := range labels {
		s.values[l] = v
		if v > s.max {
			s.max = v
		}
	}
	for l, v := range aliases {
		s.values[l] = v
	}
	return s
}

var (
	dailyScale = newScale(
		map[int]string{1: "1_day", 2: "2_day", 3: "3+_day", 4: "4-6_day"},
		map[string]int{"3_day": 3, "3_or_more_day": 3, "1-3_day": 2},
	)
	weeklyScale = newScale(
		map[int]string{1: "1-3_week", 3: "4-6_week", 4: "daily"},
		nil,
	)
	timingScale = newScale(
		map[int]string{1: "with_meals", 2: "between_meals", 3: "before_bedtime"},
		nil,
	)
	glassesScale = newScale(
		map[int]string{1: "<2", 2: "2-4", 3: ">6"},
		map[string]int{"4-6": 2},
	)
)

func (s scale) parse(v string) int {
	return s.values[strings.ToLower(strings.TrimSpace(v))]
}

func (s scale) label(v int) string {
	return s.labels[v]
}

// decode accepts a label string or a number within the scale bounds.
// Anything else is unknown (0).
func (s scale) decode(b []byte) (int, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case string:
		return s.parse(t), nil
	case float64:
		n := int(t)
		if float64(n) != t || n < 0 || n > s.max {
			return 0, nil
		}
		return n, nil
	default:
		return 0, nil
	}
}

func (s scale) encode(v int) ([]byte, error) {
	l, ok := s.labels[v]
	if !ok {
		return []byte(`""`), nil
	}
	return json.Marshal(l)
}

// ParseDaily maps a servings-per-day label to its ordinal, 0 when unknown.
func ParseDaily(s string) Daily { return Daily(dailyScale.parse(s)) }

// ParseWeekly maps a days-per-week label to its ordinal, 0 when unknown.
func ParseWeekly(s string) Weekly { return Weekly(weeklyScale.parse(s)) }

// ParseTiming maps a timing label to its ordinal, 0 when unknown.
func ParseTiming(s string) Timing { return Timing(timingScale.parse(s)) }

// ParseGlasses maps a water-glasses label to its ordinal, 0 when unknown.
func ParseGlasses(s string) Glasses { return Glasses(glassesScale.parse(s)) }

func (d Daily) Float() float64   { return float64(d) }
func (w Weekly) Float() float64  { return float64(w) }
func (t Timing) Float() float64  { return float64(t) }
func (g Glasses) Float() float64 { return float64(g) }

func (d Daily) String() string   { return dailyScale.label(int(d)) }
func (w Weekly) String() string  { return weeklyScale.label(int(w)) }
func (t Timing) String() string  { return timingScale.label(int(t)) }
func (g Glasses) String() string { return glassesScale.label(int(g)) }

func (d Daily) MarshalJSON() ([]byte, error)   { return dailyScale.encode(int(d)) }
func (w Weekly) MarshalJSON() ([]byte, error)  { return weeklyScale.encode(int(w)) }
func (t Timing) MarshalJSON() ([]byte, error)  { return timingScale.encode(int(t)) }
func (g Glasses) MarshalJSON() ([]byte, error) { return glassesScale.encode(int(g)) }

func (d *Daily) UnmarshalJSON(b []byte) error {
	v, err := dailyScale.decode(b)
	*d = Daily(v)
	return err
}

func (w *Weekly) UnmarshalJSON(b []byte) error {
	v, err := weeklyScale.decode(b)
	*w = Weekly(v)
	return err
}

func (t *Timing) UnmarshalJSON(b []byte) error {
	v, err := timingScale.decode(b)
	*t = Timing(v)
	return err
}

func (g *Glasses) UnmarshalJSON(b []byte) error {
	v, err := glassesScale.decode(b)
	*g = Glasses(v)
	return err
}
