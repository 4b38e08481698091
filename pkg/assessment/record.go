package assessment

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DentalRecord is a clinical screening of a single child.
type DentalRecord struct {
	SACitizen             Answer    `json:"sa_citizen"`
	SpecialNeeds          Answer    `json:"special_needs"`
	CaregiverTreatment    Answer    `json:"caregiver_treatment"`
	Appliance             Answer    `json:"appliance"`
	Plaque                Answer    `json:"plaque"`
	DryMouth              Answer    `json:"dry_mouth"`
	EnamelDefects         Answer    `json:"enamel_defects"`
	FluorideWater         Answer    `json:"fluoride_water"`
	FluorideToothpaste    Answer    `json:"fluoride_toothpaste"`
	TopicalFluoride       Answer    `json:"topical_fluoride"`
	RegularCheckups       Answer    `json:"regular_checkups"`
	SealedPits            Answer    `json:"sealed_pits"`
	RestorativeProcedures Answer    `json:"restorative_procedures"`
	EnamelChange          Answer    `json:"enamel_change"`
	DentinDiscoloration   Answer    `json:"dentin_discoloration"`
	WhiteSpotLesions      Answer    `json:"white_spot_lesions"`
	CavitatedLesions      Answer    `json:"cavitated_lesions"`
	MultipleRestorations  Answer    `json:"multiple_restorations"`
	MissingTeeth          Answer    `json:"missing_teeth"`
	TeethData             TeethData `json:"teeth_data,omitempty"`
}

// DietaryRecord is a food-habit survey of a single child. Field names match
// the dietary feature columns one to one.
type DietaryRecord struct {
	SweetSugaryFoods        Answer `json:"sweet_sugary_foods"`
	SweetSugaryFoodsBedtime Answer `json:"sweet_sugary_foods_bedtime"`
	SweetSugaryFoodsDaily   Daily  `json:"sweet_sugary_foods_daily,omitempty"`
	SweetSugaryFoodsWeekly  Weekly `json:"sweet_sugary_foods_weekly,omitempty"`
	SweetSugaryFoodsTiming  Timing `json:"sweet_sugary_foods_timing,omitempty"`

	TakeawaysProcessedFoods       Answer `json:"takeaways_processed_foods"`
	TakeawaysProcessedFoodsDaily  Daily  `json:"takeaways_processed_foods_daily,omitempty"`
	TakeawaysProcessedFoodsWeekly Weekly `json:"takeaways_processed_foods_weekly,omitempty"`

	FreshFruit        Answer `json:"fresh_fruit"`
	FreshFruitBedtime Answer `json:"fresh_fruit_bedtime"`
	FreshFruitDaily   Daily  `json:"fresh_fruit_daily,omitempty"`
	FreshFruitWeekly  Weekly `json:"fresh_fruit_weekly,omitempty"`
	FreshFruitTiming  Timing `json:"fresh_fruit_timing,omitempty"`

	ColdDrinksJuices        Answer `json:"cold_drinks_juices"`
	ColdDrinksJuicesBedtime Answer `json:"cold_drinks_juices_bedtime"`
	ColdDrinksJuicesDaily   Daily  `json:"cold_drinks_juices_daily,omitempty"`
	ColdDrinksJuicesWeekly  Weekly `json:"cold_drinks_juices_weekly,omitempty"`
	ColdDrinksJuicesTiming  Timing `json:"cold_drinks_juices_timing,omitempty"`

	ProcessedFruit        Answer `json:"processed_fruit"`
	ProcessedFruitBedtime Answer `json:"processed_fruit_bedtime"`
	ProcessedFruitDaily   Daily  `json:"processed_fruit_daily,omitempty"`
	ProcessedFruitWeekly  Weekly `json:"processed_fruit_weekly,omitempty"`
	ProcessedFruitTiming  Timing `json:"processed_fruit_timing,omitempty"`

	Spreads        Answer `json:"spreads"`
	SpreadsBedtime Answer `json:"spreads_bedtime"`
	SpreadsDaily   Daily  `json:"spreads_daily,omitempty"`
	SpreadsWeekly  Weekly `json:"spreads_weekly,omitempty"`
	SpreadsTiming  Timing `json:"spreads_timing,omitempty"`

	AddedSugars        Answer `json:"added_sugars"`
	AddedSugarsBedtime Answer `json:"added_sugars_bedtime"`
	AddedSugarsDaily   Daily  `json:"added_sugars_daily,omitempty"`
	AddedSugarsWeekly  Weekly `json:"added_sugars_weekly,omitempty"`
	AddedSugarsTiming  Timing `json:"added_sugars_timing,omitempty"`

	SaltySnacks       Answer `json:"salty_snacks"`
	SaltySnacksDaily  Daily  `json:"salty_snacks_daily,omitempty"`
	SaltySnacksWeekly Weekly `json:"salty_snacks_weekly,omitempty"`
	SaltySnacksTiming Timing `json:"salty_snacks_timing,omitempty"`

	DairyProducts       Answer `json:"dairy_products"`
	DairyProductsDaily  Daily  `json:"dairy_products_daily,omitempty"`
	DairyProductsWeekly Weekly `json:"dairy_products_weekly,omitempty"`

	Vegetables       Answer `json:"vegetables"`
	VegetablesDaily  Daily  `json:"vegetables_daily,omitempty"`
	VegetablesWeekly Weekly `json:"vegetables_weekly,omitempty"`

	Water        Answer  `json:"water"`
	WaterTiming  Timing  `json:"water_timing,omitempty"`
	WaterGlasses Glasses `json:"water_glasses,omitempty"`
}

// Pair is one child's assessment. Either side may be missing.
type Pair struct {
	ID      string         `json:"id,omitempty"`
	Dental  *DentalRecord  `json:"dental"`
	Dietary *DietaryRecord `json:"dietary"`
}

// Complete reports whether both records are present.
func (p Pair) Complete() bool {
	return p.Dental != nil && p.Dietary != nil
}

// ToothStatus is the per-tooth charting code.
type ToothStatus string

// IsDecayed, IsFilled and IsMissing follow the charting convention where
// numeric codes are permanent teeth and letters are primary teeth.
func (s ToothStatus) IsDecayed() bool {
	switch s.normalized() {
	case "1", "B":
		return true
	}
	return false
}

func (s ToothStatus) IsFilled() bool {
	switch s.normalized() {
	case "2", "C":
		return true
	}
	return false
}

func (s ToothStatus) IsMissing() bool {
	switch s.normalized() {
	case "3", "4", "D", "E":
		return true
	}
	return false
}

// Affected reports whether the tooth counts toward DMFT.
func (s ToothStatus) Affected() bool {
	return s.IsDecayed() || s.IsFilled() || s.IsMissing()
}

// UnmarshalJSON accepts string or numeric codes.
func (s *ToothStatus) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*s = ToothStatus(t)
	case float64:
		*s = ToothStatus(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		*s = ""
	}
	return nil
}

func (s ToothStatus) normalized() string {
	return strings.ToUpper(strings.TrimSpace(string(s)))
}

// TeethData maps a tooth identifier to its status code.
type TeethData map[string]ToothStatus

// DMFT is the count of decayed, missing or filled teeth. Each tooth counts
// at most once.
func (t TeethData) DMFT() int {
	n := 0
	for _, s := range t {
		if s.Affected() {
			n++
		}
	}
	return n
}
