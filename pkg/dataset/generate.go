package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/oralsmart/riskctl/pkg/assessment"
	"github.com/oralsmart/riskctl/pkg/model"
)

// GenerateOptions shape a synthetic cohort.
type GenerateOptions struct {
	Count int
	Seed  uint64
	// IncompleteRate is the share of children missing one of the records.
	IncompleteRate float64
}

var (
	dailyLabels   = []string{"1_day", "2_day", "3+_day", "4-6_day"}
	weeklyLabels  = []string{"1-3_week", "4-6_week", "daily"}
	timingLabels  = []string{"with_meals", "between_meals", "before_bedtime"}
	glassesLabels = []string{"<2", "2-4", "4-6", ">6"}
	toothStatuses = []assessment.ToothStatus{"0", "0", "0", "0", "0", "0", "1", "2", "3", "B", "C", "D"}
)

// Generate produces a reproducible synthetic cohort for demos and tests.
func Generate(opts GenerateOptions) []assessment.Pair {
	rng := model.NewRand(opts.Seed)
	g := generator{rng: rng}
	out := make([]assessment.Pair, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		p := assessment.Pair{ID: fmt.Sprintf("synthetic-%05d", i+1)}
		// a higher-risk child has more findings and worse habits
		level := rng.Float64()
		p.Dental = g.dental(level)
		p.Dietary = g.dietary(level)
		if rng.Float64() < opts.IncompleteRate {
			if rng.IntN(2) == 0 {
				p.Dental = nil
			} else {
				p.Dietary = nil
			}
		}
		out = append(out, p)
	}
	return out
}

type generator struct {
	rng *rand.Rand
}

func (g generator) yes(p float64) assessment.Answer {
	return assessment.Answer(g.rng.Float64() < p)
}

func (g generator) pick(labels []string) string {
	return labels[g.rng.IntN(len(labels))]
}

// skewed picks from labels, leaning toward the end of the scale as r grows.
func (g generator) skewed(labels []string, r float64) string {
	i := int(float64(len(labels)) * (0.5*g.rng.Float64() + 0.5*r))
	return labels[min(i, len(labels)-1)]
}

func (g generator) dental(r float64) *assessment.DentalRecord {
	d := &assessment.DentalRecord{
		SACitizen:             g.yes(0.85),
		SpecialNeeds:          g.yes(0.05 + 0.1*r),
		CaregiverTreatment:    g.yes(0.8 - 0.3*r),
		Appliance:             g.yes(0.1),
		Plaque:                g.yes(0.2 + 0.5*r),
		DryMouth:              g.yes(0.05 + 0.1*r),
		EnamelDefects:         g.yes(0.1 + 0.2*r),
		FluorideWater:         g.yes(0.6 - 0.3*r),
		FluorideToothpaste:    g.yes(0.9 - 0.4*r),
		TopicalFluoride:       g.yes(0.4 - 0.2*r),
		RegularCheckups:       g.yes(0.7 - 0.4*r),
		SealedPits:            g.yes(0.3 - 0.2*r),
		RestorativeProcedures: g.yes(0.1 + 0.3*r),
		EnamelChange:          g.yes(0.05 + 0.4*r),
		DentinDiscoloration:   g.yes(0.05 + 0.35*r),
		WhiteSpotLesions:      g.yes(0.1 + 0.4*r),
		CavitatedLesions:      g.yes(0.05 + 0.5*r),
		MultipleRestorations:  g.yes(0.02 + 0.3*r),
		MissingTeeth:          g.yes(0.02 + 0.25*r),
		TeethData:             assessment.TeethData{},
	}
	for _, q := range []int{1, 2, 5, 6} {
		for n := 1; n <= 5; n++ {
			st := toothStatuses[0]
			if g.rng.Float64() < 0.1+0.4*r {
				st = toothStatuses[g.rng.IntN(len(toothStatuses))]
			}
			d.TeethData[fmt.Sprintf("%d%d", q, n)] = st
		}
	}
	return d
}

func (g generator) dietary(r float64) *assessment.DietaryRecord {
	sugar := func() (assessment.Answer, assessment.Answer, assessment.Daily, assessment.Weekly, assessment.Timing) {
		c := g.yes(0.3 + 0.6*r)
		if !c {
			return c, false, 0, 0, 0
		}
		return c, g.yes(0.1 + 0.4*r),
			assessment.ParseDaily(g.skewed(dailyLabels, r)),
			assessment.ParseWeekly(g.skewed(weeklyLabels, r)),
			assessment.ParseTiming(g.skewed(timingLabels, r))
	}
	d := &assessment.DietaryRecord{}
	d.SweetSugaryFoods, d.SweetSugaryFoodsBedtime, d.SweetSugaryFoodsDaily, d.SweetSugaryFoodsWeekly, d.SweetSugaryFoodsTiming = sugar()
	d.ColdDrinksJuices, d.ColdDrinksJuicesBedtime, d.ColdDrinksJuicesDaily, d.ColdDrinksJuicesWeekly, d.ColdDrinksJuicesTiming = sugar()
	d.ProcessedFruit, d.ProcessedFruitBedtime, d.ProcessedFruitDaily, d.ProcessedFruitWeekly, d.ProcessedFruitTiming = sugar()
	d.AddedSugars, d.AddedSugarsBedtime, d.AddedSugarsDaily, d.AddedSugarsWeekly, d.AddedSugarsTiming = sugar()
	d.Spreads, d.SpreadsBedtime, d.SpreadsDaily, d.SpreadsWeekly, d.SpreadsTiming = sugar()

	if d.TakeawaysProcessedFoods = g.yes(0.2 + 0.5*r); d.TakeawaysProcessedFoods {
		d.TakeawaysProcessedFoodsDaily = assessment.ParseDaily(g.skewed(dailyLabels, r))
		d.TakeawaysProcessedFoodsWeekly = assessment.ParseWeekly(g.skewed(weeklyLabels, r))
	}
	if d.FreshFruit = g.yes(0.8 - 0.3*r); d.FreshFruit {
		d.FreshFruitBedtime = g.yes(0.1)
		d.FreshFruitDaily = assessment.ParseDaily(g.pick(dailyLabels))
		d.FreshFruitWeekly = assessment.ParseWeekly(g.pick(weeklyLabels))
		d.FreshFruitTiming = assessment.ParseTiming(g.pick(timingLabels))
	}
	if d.SaltySnacks = g.yes(0.3 + 0.4*r); d.SaltySnacks {
		d.SaltySnacksDaily = assessment.ParseDaily(g.pick(dailyLabels))
		d.SaltySnacksWeekly = assessment.ParseWeekly(g.pick(weeklyLabels))
		d.SaltySnacksTiming = assessment.ParseTiming(g.pick(timingLabels))
	}
	if d.DairyProducts = g.yes(0.8); d.DairyProducts {
		d.DairyProductsDaily = assessment.ParseDaily(g.pick(dailyLabels))
		d.DairyProductsWeekly = assessment.ParseWeekly(g.pick(weeklyLabels))
	}
	if d.Vegetables = g.yes(0.85 - 0.3*r); d.Vegetables {
		d.VegetablesDaily = assessment.ParseDaily(g.pick(dailyLabels))
		d.VegetablesWeekly = assessment.ParseWeekly(g.pick(weeklyLabels))
	}
	if d.Water = g.yes(0.95); d.Water {
		d.WaterTiming = assessment.ParseTiming(g.pick(timingLabels))
		d.WaterGlasses = assessment.ParseGlasses(g.skewed(glassesLabels, 1-r))
	}
	return d
}
