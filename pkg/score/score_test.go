package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oralsmart/riskctl/pkg/assessment"
	"github.com/oralsmart/riskctl/pkg/risk"
)

func TestComputeEmpty(t *testing.T) {
	b := Compute(nil, nil)
	assert.Equal(t, CaregiverWeight, b.Total, "missing caregiver treatment still counts")
	assert.Equal(t, 0, b.DMFTCount)
}

func TestComputeCategories(t *testing.T) {
	tests := []struct {
		name    string
		dental  *assessment.DentalRecord
		dietary *assessment.DietaryRecord
		want    Breakdown
	}{
		{
			name:   "major findings",
			dental: &assessment.DentalRecord{CavitatedLesions: true, WhiteSpotLesions: true, CaregiverTreatment: true},
			want:   Breakdown{Total: 4, Clinical: 4},
		},
		{
			name:   "protective only",
			dental: &assessment.DentalRecord{FluorideWater: true, SealedPits: true, CaregiverTreatment: true},
			want:   Breakdown{Total: -2, Protective: -2},
		},
		{
			name:   "special needs without caregiver",
			dental: &assessment.DentalRecord{SpecialNeeds: true},
			want:   Breakdown{Total: 3, Social: 3},
		},
		{
			name: "dmft counted once",
			dental: &assessment.DentalRecord{
				CaregiverTreatment: true,
				TeethData:          assessment.TeethData{"11": "1", "12": "2", "13": "E"},
			},
			want: Breakdown{Total: 1.5, DMFT: 1.5, DMFTCount: 3},
		},
		{
			name:   "dietary frequency",
			dental: &assessment.DentalRecord{CaregiverTreatment: true},
			dietary: &assessment.DietaryRecord{
				SweetSugaryFoods:      true,
				SweetSugaryFoodsDaily: assessment.ParseDaily("3+_day"),
				AddedSugars:           true,
				AddedSugarsDaily:      assessment.ParseDaily("2_day"),
				FreshFruit:            true,
				FreshFruitDaily:       assessment.ParseDaily("4-6_day"),
			},
			want: Breakdown{Total: 3, Dietary: 2, Frequency: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.dental, tt.dietary))
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	d := &assessment.DentalRecord{Plaque: true, MissingTeeth: true, TeethData: assessment.TeethData{"11": "3"}}
	diet := &assessment.DietaryRecord{ColdDrinksJuices: true}
	assert.Equal(t, Compute(d, diet), Compute(d, diet))
}

func TestScenarios(t *testing.T) {
	policy := risk.DefaultPolicy()

	t.Run("fully protected child is low", func(t *testing.T) {
		d := &assessment.DentalRecord{
			CaregiverTreatment: true,
			FluorideWater:      true,
			FluorideToothpaste: true,
			TopicalFluoride:    true,
			RegularCheckups:    true,
			SealedPits:         true,
		}
		diet := &assessment.DietaryRecord{Vegetables: true, Water: true}
		b := Compute(d, diet)
		assert.Equal(t, -5.0, b.Total)
		assert.Equal(t, risk.Low, policy.Classify(b.Total, risk.TierOf(d, diet)))
	})

	t.Run("single lesion with one sugary drink is low", func(t *testing.T) {
		d := &assessment.DentalRecord{CaregiverTreatment: true, CavitatedLesions: true, FluorideToothpaste: true}
		diet := &assessment.DietaryRecord{
			ColdDrinksJuices:      true,
			ColdDrinksJuicesDaily: assessment.ParseDaily("1_day"),
		}
		b := Compute(d, diet)
		assert.Equal(t, 2.0, b.Total)
		assert.Equal(t, risk.Complete, risk.TierOf(d, diet))
		assert.Equal(t, risk.Low, policy.Classify(b.Total, risk.Complete))
	})

	t.Run("multiple findings and frequent sugar is high", func(t *testing.T) {
		d := &assessment.DentalRecord{
			CaregiverTreatment:  true,
			CavitatedLesions:    true,
			DentinDiscoloration: true,
			MissingTeeth:        true,
		}
		diet := &assessment.DietaryRecord{
			SweetSugaryFoods:      true,
			SweetSugaryFoodsDaily: assessment.ParseDaily("3+_day"),
		}
		b := Compute(d, diet)
		assert.Equal(t, 8.0, b.Total)
		assert.Equal(t, risk.High, policy.Classify(b.Total, risk.TierOf(d, diet)))
	})

	t.Run("dietary only record uses the partial tier", func(t *testing.T) {
		diet := &assessment.DietaryRecord{
			SweetSugaryFoods:      true,
			SweetSugaryFoodsDaily: assessment.ParseDaily("3+_day"),
		}
		b := Compute(nil, diet)
		// no dental record means no caregiver treatment on file
		assert.Equal(t, CaregiverWeight, b.Social)
		assert.Equal(t, 3.0, b.Total)
		tier := risk.TierOf(nil, diet)
		assert.Equal(t, risk.PartialSingleDomain, tier)
		assert.Equal(t, risk.Low, policy.Classify(b.Total, tier))
		assert.Equal(t, risk.High, policy.Classify(8, tier))
	})

	t.Run("clean dental screening keeps the complete tier", func(t *testing.T) {
		d := &assessment.DentalRecord{}
		frequent := assessment.ParseDaily("3+_day")
		diet := &assessment.DietaryRecord{
			SweetSugaryFoods:             true,
			SweetSugaryFoodsDaily:        frequent,
			TakeawaysProcessedFoods:      true,
			TakeawaysProcessedFoodsDaily: frequent,
			ColdDrinksJuices:             true,
			ColdDrinksJuicesDaily:        frequent,
		}
		b := Compute(d, diet)
		assert.Equal(t, 7.0, b.Total)
		tier := risk.TierOf(d, diet)
		assert.Equal(t, risk.Complete, tier)
		assert.Equal(t, risk.Medium, policy.Classify(b.Total, tier))
	})
}
