package research

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidRequest wraps every ClientRequest validation failure.
var ErrInvalidRequest = errors.New("invalid client request")

type BusinessModel string

const (
	BusinessModelB2B  BusinessModel = "B2B"
	BusinessModelB2C  BusinessModel = "B2C"
	BusinessModelBoth BusinessModel = "Both"
)

// BusinessModels lists the accepted business model values.
var BusinessModels = []BusinessModel{BusinessModelB2B, BusinessModelB2C, BusinessModelBoth}

func (b BusinessModel) Valid() bool {
	switch b {
	case BusinessModelB2B, BusinessModelB2C, BusinessModelBoth:
		return true
	}
	return false
}

// ClientRequest describes the company to research. It is not mutated once
// a run starts.
type ClientRequest struct {
	ClientName          string        `json:"client_name"`
	WebsiteURL          string        `json:"website_url"`
	AboutPageURL        string        `json:"about_page_url,omitempty"`
	ProductsServicesURL string        `json:"products_services_url,omitempty"`
	AdditionalURLs      []string      `json:"additional_urls,omitempty"`
	Industry            string        `json:"industry"`
	BusinessModel       BusinessModel `json:"business_model"`
	TargetMarket        string        `json:"target_market,omitempty"`
	KnownCompetitors    string        `json:"known_competitors,omitempty"`
	AdditionalContext   string        `json:"additional_context,omitempty"`
	NumICPs             int           `json:"num_icps"`
}

// Normalize trims free-text fields, drops blank URLs and fills NumICPs
// with defaultItems when unset.
func (r ClientRequest) Normalize(defaultItems int) ClientRequest {
	r.ClientName = strings.TrimSpace(r.ClientName)
	r.WebsiteURL = strings.TrimSpace(r.WebsiteURL)
	r.AboutPageURL = strings.TrimSpace(r.AboutPageURL)
	r.ProductsServicesURL = strings.TrimSpace(r.ProductsServicesURL)
	r.Industry = strings.TrimSpace(r.Industry)
	r.TargetMarket = strings.TrimSpace(r.TargetMarket)
	r.KnownCompetitors = strings.TrimSpace(r.KnownCompetitors)
	r.AdditionalContext = strings.TrimSpace(r.AdditionalContext)

	urls := make([]string, 0, len(r.AdditionalURLs))
	for _, u := range r.AdditionalURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	r.AdditionalURLs = urls

	if bm := strings.TrimSpace(string(r.BusinessModel)); strings.EqualFold(bm, "both") {
		r.BusinessModel = BusinessModelBoth
	} else {
		r.BusinessModel = BusinessModel(strings.ToUpper(bm))
	}
	if r.NumICPs == 0 {
		r.NumICPs = defaultItems
	}
	return r
}

// Validate checks required fields and that NumICPs lies in [min, max].
func (r ClientRequest) Validate(min, max int) error {
	if r.ClientName == "" {
		return fmt.Errorf("%w: client_name required", ErrInvalidRequest)
	}
	if err := validateURL("website_url", r.WebsiteURL, true); err != nil {
		return err
	}
	if err := validateURL("about_page_url", r.AboutPageURL, false); err != nil {
		return err
	}
	if err := validateURL("products_services_url", r.ProductsServicesURL, false); err != nil {
		return err
	}
	for i, u := range r.AdditionalURLs {
		if err := validateURL(fmt.Sprintf("additional_urls[%d]", i), u, true); err != nil {
			return err
		}
	}
	if r.Industry == "" {
		return fmt.Errorf("%w: industry required", ErrInvalidRequest)
	}
	if !r.BusinessModel.Valid() {
		return fmt.Errorf("%w: business_model must be one of B2B, B2C, Both; got %q", ErrInvalidRequest, r.BusinessModel)
	}
	if r.NumICPs < min || r.NumICPs > max {
		return fmt.Errorf("%w: num_icps must be within [%d, %d], got %d", ErrInvalidRequest, min, max, r.NumICPs)
	}
	return nil
}

func validateURL(field, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%w: %s required", ErrInvalidRequest, field)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", ErrInvalidRequest, field, raw)
	}
	return nil
}
