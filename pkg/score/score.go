package score

import (
	"log/slog"

	"github.com/oralsmart/riskctl/pkg/assessment"
)

// ModelVersion identifies the weighting below.
const ModelVersion = "composite-v1"

// Category weights.
const (
	MajorFindingWeight = 2.0
	CariogenicWeight   = 1.0
	FrequencyWeight    = 1.0
	ProtectiveWeight   = -1.0
	SpecialNeedsWeight = 2.0
	CaregiverWeight    = 1.0
	DMFTWeight         = 0.5

	// FrequentDaily is the servings-per-day ordinal at which a cariogenic
	// category also earns the frequency weight.
	FrequentDaily assessment.Daily = 3
)

// Breakdown is the composite score with its per-category subtotals.
type Breakdown struct {
	Total      float64 `json:"total" yaml:"total"`
	Clinical   float64 `json:"clinical" yaml:"clinical"`
	Dietary    float64 `json:"dietary" yaml:"dietary"`
	Frequency  float64 `json:"frequency" yaml:"frequency"`
	Protective float64 `json:"protective" yaml:"protective"`
	Social     float64 `json:"social" yaml:"social"`
	DMFT       float64 `json:"dmft" yaml:"dmft"`
	DMFTCount  int     `json:"dmft_count" yaml:"dmft_count"`
}

// Compute applies the evidence-weighted rules. Either record may be nil.
func Compute(d *assessment.DentalRecord, diet *assessment.DietaryRecord) Breakdown {
	var b Breakdown

	if d != nil {
		for _, a := range []assessment.Answer{
			d.CavitatedLesions,
			d.MissingTeeth,
			d.MultipleRestorations,
			d.EnamelChange,
			d.DentinDiscoloration,
			d.WhiteSpotLesions,
		} {
			if a {
				b.Clinical += MajorFindingWeight
			}
		}

		for _, a := range []assessment.Answer{
			d.FluorideWater,
			d.FluorideToothpaste,
			d.TopicalFluoride,
			d.RegularCheckups,
			d.SealedPits,
		} {
			if a {
				b.Protective += ProtectiveWeight
			}
		}

		if d.SpecialNeeds {
			b.Social += SpecialNeedsWeight
		}

		b.DMFTCount = d.TeethData.DMFT()
		b.DMFT = float64(b.DMFTCount) * DMFTWeight
	}

	// an absent dental record means no caregiver treatment was recorded
	if d == nil || !d.CaregiverTreatment {
		b.Social += CaregiverWeight
	}

	if diet != nil {
		for _, c := range []struct {
			consumed assessment.Answer
			daily    assessment.Daily
		}{
			{diet.SweetSugaryFoods, diet.SweetSugaryFoodsDaily},
			{diet.TakeawaysProcessedFoods, diet.TakeawaysProcessedFoodsDaily},
			{diet.ColdDrinksJuices, diet.ColdDrinksJuicesDaily},
			{diet.ProcessedFruit, diet.ProcessedFruitDaily},
			{diet.AddedSugars, diet.AddedSugarsDaily},
		} {
			if c.consumed {
				b.Dietary += CariogenicWeight
			}
			if c.daily >= FrequentDaily {
				b.Frequency += FrequencyWeight
			}
		}
	}

	b.Total = b.Clinical + b.Dietary + b.Frequency + b.Protective + b.Social + b.DMFT

	slog.Debug("composite score",
		"version", ModelVersion,
		"clinical", b.Clinical,
		"dietary", b.Dietary,
		"frequency", b.Frequency,
		"protective", b.Protective,
		"social", b.Social,
		"dmft", b.DMFT,
		"total", b.Total)

	return b
}
