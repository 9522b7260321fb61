package walker

import "github.com/use-agent/ratewalk/extract"

// Stage names of the Fair Work plan. They double as the keys of
// models.Entry.Choices.
const (
	StageClassification = "classification"
	StageAge            = "age"
)

const (
	fairworkForm       = "body > div.container-fluid > div > div.right-col.col-md-9 > div.inner-wrapper > div > div > form:nth-child(1)"
	fairworkNextButton = fairworkForm + " > div.progress-group > ul > li.pos-right > button"
	fairworkAwards     = fairworkForm + " > fieldset > div.award-container.clearfix > div.radio-panel > input.award-option"
	fairworkClasses    = fairworkForm + " > fieldset > div.classifcation-container.clearfix > div.radio-panel > input.classification-option"
	fairworkAges       = "#opa-questions > div > div.aet-searchcontrol-container.clearfix > fieldset > div.radio-panel > input"
	fairworkRatesPanel = "#ag-collapse_0"
)

// FairworkPlan is the pay calculator flow for one award: every
// classification and age bracket of a casual employee.
func FairworkPlan(startURL, award string) *Plan {
	return &Plan{
		Award:      award,
		StartURL:   startURL,
		NextButton: fairworkNextButton,
		Steps: []Step{
			{Name: "intro", Kind: StepNone, Next: true},
			{Name: "know-award", Kind: StepClick, Selector: "#know", Next: true},
			{Name: "award", Kind: StepFixed, Selector: fairworkAwards, Value: award, Next: true},
			{Name: "award-confirm", Kind: StepNone, Next: true},
			{Name: StageClassification, Kind: StepChoose, Selector: fairworkClasses, Next: true},
			{Name: "employment-type", Kind: StepClick, Selector: "#Casual", Next: true},
			{Name: StageAge, Kind: StepChoose, Selector: fairworkAges, Next: true},
			{
				Name: "rates",
				Kind: StepCapture,
				Clicks: []Click{
					{Selector: fairworkRatesPanel + " > div:nth-child(5) > div > table > tbody > tr > td:nth-child(2) > a", Navigate: true},
					{Selector: "#select-all-top"},
					{Selector: "body > div.container-fluid > div > div.right-col.col-md-9 > div.inner-wrapper > div > div > form > div.btn-group.hidden-md.hidden-lg > button:nth-child(2)", Navigate: true},
				},
			},
		},
		Rates: extract.RateSelectors{
			BaseRate:    fairworkRatesPanel + " > div:nth-child(1) > div > span",
			PenaltyRows: fairworkRatesPanel + " > div:nth-child(5) > div > table > tbody > tr",
			PenaltyName: "td.details",
			PenaltyRate: "td.value",
		},
		RatesTable: fairworkRatesPanel + " > div:nth-child(5) > div > table",
	}
}

// AwardListingPlan walks only as far as the award screen. ListAwards uses
// it to read the award codes.
func AwardListingPlan(startURL string) *Plan {
	return &Plan{
		StartURL:   startURL,
		NextButton: fairworkNextButton,
		Steps: []Step{
			{Name: "intro", Kind: StepNone, Next: true},
			{Name: "know-award", Kind: StepClick, Selector: "#know", Next: true},
			{Name: "award", Kind: StepChoose, Selector: fairworkAwards},
		},
	}
}
