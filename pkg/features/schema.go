package features

import (
	"github.com/oralsmart/riskctl/pkg/assessment"
)

const (
	// SchemaVersion tags the column layout below. Bump it whenever a column
	// is added, removed or reordered.
	SchemaVersion = "oral-risk-v1"

	// Width is the number of columns in every encoded vector:
	// 20 dental, 46 dietary and the two presence flags.
	Width = 68

	// DMFTColumn is the computed dental count column.
	DMFTColumn = "total_dmft_score"

	HasDentalColumn  = "has_dental_data"
	HasDietaryColumn = "has_dietary_data"
)

type column[T any] struct {
	name  string
	value func(*T) float64
}

type dental = assessment.DentalRecord
type dietary = assessment.DietaryRecord

var dentalColumns = []column[dental]{
	{"sa_citizen", func(r *dental) float64 { return r.SACitizen.Float() }},
	{"special_needs", func(r *dental) float64 { return r.SpecialNeeds.Float() }},
	{"caregiver_treatment", func(r *dental) float64 { return r.CaregiverTreatment.Float() }},
	{"appliance", func(r *dental) float64 { return r.Appliance.Float() }},
	{"plaque", func(r *dental) float64 { return r.Plaque.Float() }},
	{"dry_mouth", func(r *dental) float64 { return r.DryMouth.Float() }},
	{"enamel_defects", func(r *dental) float64 { return r.EnamelDefects.Float() }},
	{"fluoride_water", func(r *dental) float64 { return r.FluorideWater.Float() }},
	{"fluoride_toothpaste", func(r *dental) float64 { return r.FluorideToothpaste.Float() }},
	{"topical_fluoride", func(r *dental) float64 { return r.TopicalFluoride.Float() }},
	{"regular_checkups", func(r *dental) float64 { return r.RegularCheckups.Float() }},
	{"sealed_pits", func(r *dental) float64 { return r.SealedPits.Float() }},
	{"restorative_procedures", func(r *dental) float64 { return r.RestorativeProcedures.Float() }},
	{"enamel_change", func(r *dental) float64 { return r.EnamelChange.Float() }},
	{"dentin_discoloration", func(r *dental) float64 { return r.DentinDiscoloration.Float() }},
	{"white_spot_lesions", func(r *dental) float64 { return r.WhiteSpotLesions.Float() }},
	{"cavitated_lesions", func(r *dental) float64 { return r.CavitatedLesions.Float() }},
	{"multiple_restorations", func(r *dental) float64 { return r.MultipleRestorations.Float() }},
	{"missing_teeth", func(r *dental) float64 { return r.MissingTeeth.Float() }},
	{DMFTColumn, func(r *dental) float64 { return float64(r.TeethData.DMFT()) }},
}

var dietaryColumns = []column[dietary]{
	{"sweet_sugary_foods", func(r *dietary) float64 { return r.SweetSugaryFoods.Float() }},
	{"sweet_sugary_foods_bedtime", func(r *dietary) float64 { return r.SweetSugaryFoodsBedtime.Float() }},
	{"sweet_sugary_foods_daily", func(r *dietary) float64 { return r.SweetSugaryFoodsDaily.Float() }},
	{"sweet_sugary_foods_weekly", func(r *dietary) float64 { return r.SweetSugaryFoodsWeekly.Float() }},
	{"sweet_sugary_foods_timing", func(r *dietary) float64 { return r.SweetSugaryFoodsTiming.Float() }},
	{"takeaways_processed_foods", func(r *dietary) float64 { return r.TakeawaysProcessedFoods.Float() }},
	{"takeaways_processed_foods_daily", func(r *dietary) float64 { return r.TakeawaysProcessedFoodsDaily.Float() }},
	{"takeaways_processed_foods_weekly", func(r *dietary) float64 { return r.TakeawaysProcessedFoodsWeekly.Float() }},
	{"fresh_fruit", func(r *dietary) float64 { return r.FreshFruit.Float() }},
	{"fresh_fruit_bedtime", func(r *dietary) float64 { return r.FreshFruitBedtime.Float() }},
	{"fresh_fruit_daily", func(r *dietary) float64 { return r.FreshFruitDaily.Float() }},
	{"fresh_fruit_weekly", func(r *dietary) float64 { return r.FreshFruitWeekly.Float() }},
	{"fresh_fruit_timing", func(r *dietary) float64 { return r.FreshFruitTiming.Float() }},
	{"cold_drinks_juices", func(r *dietary) float64 { return r.ColdDrinksJuices.Float() }},
	{"cold_drinks_juices_bedtime", func(r *dietary) float64 { return r.ColdDrinksJuicesBedtime.Float() }},
	{"cold_drinks_juices_daily", func(r *dietary) float64 { return r.ColdDrinksJuicesDaily.Float() }},
	{"cold_drinks_juices_weekly", func(r *dietary) float64 { return r.ColdDrinksJuicesWeekly.Float() }},
	{"cold_drinks_juices_timing", func(r *dietary) float64 { return r.ColdDrinksJuicesTiming.Float() }},
	{"processed_fruit", func(r *dietary) float64 { return r.ProcessedFruit.Float() }},
	{"processed_fruit_bedtime", func(r *dietary) float64 { return r.ProcessedFruitBedtime.Float() }},
	{"processed_fruit_daily", func(r *dietary) float64 { return r.ProcessedFruitDaily.Float() }},
	{"processed_fruit_weekly", func(r *dietary) float64 { return r.ProcessedFruitWeekly.Float() }},
	{"processed_fruit_timing", func(r *dietary) float64 { return r.ProcessedFruitTiming.Float() }},
	{"spreads", func(r *dietary) float64 { return r.Spreads.Float() }},
	{"spreads_bedtime", func(r *dietary) float64 { return r.SpreadsBedtime.Float() }},
	{"spreads_daily", func(r *dietary) float64 { return r.SpreadsDaily.Float() }},
	{"spreads_weekly", func(r *dietary) float64 { return r.SpreadsWeekly.Float() }},
	{"spreads_timing", func(r *dietary) float64 { return r.SpreadsTiming.Float() }},
	{"added_sugars", func(r *dietary) float64 { return r.AddedSugars.Float() }},
	{"added_sugars_bedtime", func(r *dietary) float64 { return r.AddedSugarsBedtime.Float() }},
	{"added_sugars_daily", func(r *dietary) float64 { return r.AddedSugarsDaily.Float() }},
	{"added_sugars_weekly", func(r *dietary) float64 { return r.AddedSugarsWeekly.Float() }},
	{"added_sugars_timing", func(r *dietary) float64 { return r.AddedSugarsTiming.Float() }},
	{"salty_snacks", func(r *dietary) float64 { return r.SaltySnacks.Float() }},
	{"salty_snacks_daily", func(r *dietary) float64 { return r.SaltySnacksDaily.Float() }},
	{"salty_snacks_weekly", func(r *dietary) float64 { return r.SaltySnacksWeekly.Float() }},
	{"salty_snacks_timing", func(r *dietary) float64 { return r.SaltySnacksTiming.Float() }},
	{"dairy_products", func(r *dietary) float64 { return r.DairyProducts.Float() }},
	{"dairy_products_daily", func(r *dietary) float64 { return r.DairyProductsDaily.Float() }},
	{"dairy_products_weekly", func(r *dietary) float64 { return r.DairyProductsWeekly.Float() }},
	{"vegetables", func(r *dietary) float64 { return r.Vegetables.Float() }},
	{"vegetables_daily", func(r *dietary) float64 { return r.VegetablesDaily.Float() }},
	{"vegetables_weekly", func(r *dietary) float64 { return r.VegetablesWeekly.Float() }},
	{"water", func(r *dietary) float64 { return r.Water.Float() }},
	{"water_timing", func(r *dietary) float64 { return r.WaterTiming.Float() }},
	{"water_glasses", func(r *dietary) float64 { return r.WaterGlasses.Float() }},
}

var (
	names = buildNames()
	index = buildIndex()
)

func buildNames() []string {
	out := make([]string, 0, Width)
	for _, c := range dentalColumns {
		out = append(out, c.name)
	}
	for _, c := range dietaryColumns {
		out = append(out, c.name)
	}
	return append(out, HasDentalColumn, HasDietaryColumn)
}

func buildIndex() map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		m[n] = i
	}
	return m
}

// Columns returns the ordered column names. The slice is a copy.
func Columns() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Index resolves a column name to its position.
func Index(name string) (int, bool) {
	i, ok := index[name]
	return i, ok
}

// Name returns the column name at position i, or "" when out of range.
func Name(i int) string {
	if i < 0 || i >= len(names) {
		return ""
	}
	return names[i]
}
