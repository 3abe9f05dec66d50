package config

// Industries offered when describing a client.
var Industries = []string{
	"Technology / SaaS",
	"E-commerce / Retail",
	"Healthcare / Medical",
	"Finance / Banking",
	"Education / EdTech",
	"Real Estate",
	"Manufacturing",
	"Professional Services",
	"Marketing / Advertising",
	"Media / Entertainment",
	"Travel / Hospitality",
	"Food & Beverage",
	"Automotive",
	"Energy / Utilities",
	"Non-Profit",
	"Government",
	"Other",
}

// StageDescriptor documents one pipeline stage for clients and progress displays.
type StageDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ModelType   string `json:"model_type"` // research or analysis
	PerItem     bool   `json:"per_item"`
}

var PipelineStages = []StageDescriptor{
	{ID: "data_ingestion", Name: "Data Ingestion", Description: "Researching company information", ModelType: "research"},
	{ID: "audience_research", Name: "Audience Research", Description: "Generating Ideal Customer Profiles", ModelType: "analysis"},
	{ID: "usp_extraction", Name: "Value Proposition Analysis", Description: "Mapping value propositions to customer needs", ModelType: "analysis", PerItem: true},
	{ID: "pain_taxonomy", Name: "Pain Point Analysis", Description: "Categorizing customer friction points", ModelType: "analysis", PerItem: true},
	{ID: "journey_mapping", Name: "Journey Mapping", Description: "Creating customer journey maps", ModelType: "analysis", PerItem: true},
}

// JourneyStageDescriptor is one step of the five-stage customer journey.
type JourneyStageDescriptor struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Objective     string `json:"objective"`
	CustomerState string `json:"customer_state"`
}

var JourneyStages = []JourneyStageDescriptor{
	{ID: "awareness", Name: "Awareness", Objective: "Problem recognition", CustomerState: "Experiencing symptoms, not yet searching"},
	{ID: "consideration", Name: "Consideration", Objective: "Solution research", CustomerState: "Knows problem, researching solution types"},
	{ID: "decision", Name: "Decision", Objective: "Vendor selection", CustomerState: "Comparing specific vendors"},
	{ID: "onboarding", Name: "Onboarding", Objective: "First value achievement", CustomerState: "Implementation and activation"},
	{ID: "expansion", Name: "Expansion", Objective: "Maximize lifetime value", CustomerState: "Satisfied, ready for more"},
}
