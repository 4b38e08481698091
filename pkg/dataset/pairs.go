package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oralsmart/riskctl/pkg/assessment"
	"github.com/oralsmart/riskctl/pkg/risk"
)

// ReadPairs decodes a stream of JSON assessment pairs, one object per line.
func ReadPairs(r io.Reader) ([]assessment.Pair, error) {
	dec := json.NewDecoder(r)
	var out []assessment.Pair
	for n := 1; ; n++ {
		var p assessment.Pair
		err := dec.Decode(&p)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: assessment %d: %w", risk.ErrData, n, err)
		}
		out = append(out, p)
	}
}

// ReadPairsFile reads pairs from path, or stdin when path is "-".
func ReadPairsFile(path string) ([]assessment.Pair, error) {
	if path == "-" {
		return ReadPairs(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening assessments %s: %w", path, err)
	}
	defer f.Close()
	return ReadPairs(f)
}

// WritePairs encodes pairs as JSON lines.
func WritePairs(w io.Writer, pairs []assessment.Pair) error {
	enc := json.NewEncoder(w)
	for i, p := range pairs {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("error encoding assessment %d: %w", i+1, err)
		}
	}
	return nil
}
