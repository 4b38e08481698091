package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralsmart/riskctl/pkg/assessment"
)

func TestColumns(t *testing.T) {
	cols := Columns()
	require.Len(t, cols, Width)
	assert.Equal(t, "sa_citizen", cols[0])
	assert.Equal(t, DMFTColumn, cols[19])
	assert.Equal(t, "sweet_sugary_foods", cols[20])
	assert.Equal(t, "water_glasses", cols[65])
	assert.Equal(t, HasDentalColumn, cols[66])
	assert.Equal(t, HasDietaryColumn, cols[67])

	seen := make(map[string]bool)
	for _, c := range cols {
		assert.False(t, seen[c], "duplicate column %s", c)
		seen[c] = true
	}

	cols[0] = "changed"
	assert.Equal(t, "sa_citizen", Columns()[0], "Columns returns a copy")
}

func TestIndex(t *testing.T) {
	i, ok := Index("cavitated_lesions")
	require.True(t, ok)
	assert.Equal(t, 16, i)
	assert.Equal(t, "cavitated_lesions", Name(i))

	_, ok = Index("nope")
	assert.False(t, ok)
	assert.Empty(t, Name(-1))
	assert.Empty(t, Name(Width))
}

func TestEncodeMissingRecords(t *testing.T) {
	v := Encode(nil, nil)
	for i, x := range v {
		assert.Zero(t, x, "column %s", Name(i))
	}

	v = Encode(&assessment.DentalRecord{}, nil)
	assert.Equal(t, 1.0, v[Width-2])
	assert.Equal(t, 0.0, v[Width-1])

	v = Encode(nil, &assessment.DietaryRecord{})
	assert.Equal(t, 0.0, v[Width-2])
	assert.Equal(t, 1.0, v[Width-1])
}

func TestEncodeValues(t *testing.T) {
	d := &assessment.DentalRecord{
		CavitatedLesions: assessment.Yes,
		FluorideWater:    assessment.Yes,
		TeethData:        assessment.TeethData{"11": "1", "12": "C", "13": "0"},
	}
	diet := &assessment.DietaryRecord{
		SweetSugaryFoods:      assessment.Yes,
		SweetSugaryFoodsDaily: assessment.ParseDaily("3+_day"),
		WaterTiming:           assessment.ParseTiming("before_bedtime"),
		WaterGlasses:          assessment.ParseGlasses(">6"),
		VegetablesWeekly:      assessment.ParseWeekly("unknown-label"),
	}
	m := Encode(d, diet).Map()

	assert.Equal(t, 1.0, m["cavitated_lesions"])
	assert.Equal(t, 1.0, m["fluoride_water"])
	assert.Equal(t, 0.0, m["plaque"])
	assert.Equal(t, 2.0, m[DMFTColumn])
	assert.Equal(t, 1.0, m["sweet_sugary_foods"])
	assert.Equal(t, 3.0, m["sweet_sugary_foods_daily"])
	assert.Equal(t, 3.0, m["water_timing"])
	assert.Equal(t, 3.0, m["water_glasses"])
	assert.Equal(t, 0.0, m["vegetables_weekly"])
	assert.Equal(t, 1.0, m[HasDentalColumn])
	assert.Equal(t, 1.0, m[HasDietaryColumn])
}

func TestEncodeDeterministic(t *testing.T) {
	d := &assessment.DentalRecord{Plaque: assessment.Yes, TeethData: assessment.TeethData{"51": "B"}}
	diet := &assessment.DietaryRecord{Spreads: assessment.Yes}
	assert.Equal(t, Encode(d, diet), Encode(d, diet))
	assert.Equal(t, Encode(d, diet), EncodePair(assessment.Pair{Dental: d, Dietary: diet}))
}

func TestFromSlice(t *testing.T) {
	v := Encode(&assessment.DentalRecord{Plaque: assessment.Yes}, nil)
	back, ok := FromSlice(v.Slice())
	require.True(t, ok)
	assert.Equal(t, v, back)

	_, ok = FromSlice(make([]float64, Width-1))
	assert.False(t, ok)
}
