package research

// Competitor is one company competing for the same customers.
type Competitor struct {
	Name               string   `json:"name"`
	Website            *string  `json:"website,omitempty"`
	Description        *string  `json:"description,omitempty"`
	KeyDifferentiators []string `json:"key_differentiators"`
	TargetAudience     *string  `json:"target_audience,omitempty"`
	MarketPosition     *string  `json:"market_position,omitempty"`
}

type ProductService struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	TargetAudience *string  `json:"target_audience,omitempty"`
	UniqueAspects  []string `json:"unique_aspects"`
}

type BrandVoice struct {
	Tone             string   `json:"tone"`
	KeyThemes        []string `json:"key_themes"`
	EmotionalAppeals []string `json:"emotional_appeals"`
}

// IsZero reports whether no brand voice attribute was captured.
func (b BrandVoice) IsZero() bool {
	return b.Tone == "" && len(b.KeyThemes) == 0 && len(b.EmotionalAppeals) == 0
}

// CompanyProfile is the structured output of ingestion.
type CompanyProfile struct {
	Name                    string           `json:"name"`
	WebsiteURL              string           `json:"website_url"`
	Industry                string           `json:"industry"`
	BusinessModel           BusinessModel    `json:"business_model"`
	Overview                string           `json:"overview"`
	ProductsServices        []ProductService `json:"products_services"`
	StatedValuePropositions []string         `json:"stated_value_propositions"`
	StatedTargetAudience    *string          `json:"stated_target_audience,omitempty"`
	BrandVoice              BrandVoice       `json:"brand_voice"`
	Competitors             []Competitor     `json:"competitors"`
	ContentThemes           []string         `json:"content_themes"`
	MarketGaps              []string         `json:"market_gaps"`
	MarketTrends            []string         `json:"market_trends"`
	FoundingStory           *string          `json:"founding_story,omitempty"`
	MissionStatement        *string          `json:"mission_statement,omitempty"`
	VisionStatement         *string          `json:"vision_statement,omitempty"`
	CoreValues              []string         `json:"core_values"`
}

// ProductNames returns the names of every product or service.
func (p *CompanyProfile) ProductNames() []string {
	names := make([]string, 0, len(p.ProductsServices))
	for _, ps := range p.ProductsServices {
		names = append(names, ps.Name)
	}
	return names
}
