package research

import (
	"errors"
	"testing"
)

func validRequest() ClientRequest {
	return ClientRequest{
		ClientName:    "Acme Analytics",
		WebsiteURL:    "https://acme.example",
		Industry:      "Technology / SaaS",
		BusinessModel: BusinessModelB2B,
		NumICPs:       3,
	}
}

func TestNormalizeFillsDefaultsAndTrims(t *testing.T) {
	req := ClientRequest{
		ClientName:     "  Acme ",
		WebsiteURL:     " https://acme.example ",
		Industry:       "SaaS",
		BusinessModel:  "both",
		AdditionalURLs: []string{" ", "https://acme.example/blog "},
	}.Normalize(3)
	if req.ClientName != "Acme" || req.WebsiteURL != "https://acme.example" {
		t.Fatalf("expected trimmed fields, got %+v", req)
	}
	if req.NumICPs != 3 {
		t.Fatalf("expected default num_icps 3, got %d", req.NumICPs)
	}
	if req.BusinessModel != BusinessModelBoth {
		t.Fatalf("expected Both, got %q", req.BusinessModel)
	}
	if len(req.AdditionalURLs) != 1 || req.AdditionalURLs[0] != "https://acme.example/blog" {
		t.Fatalf("unexpected additional urls: %#v", req.AdditionalURLs)
	}

	b2c := ClientRequest{BusinessModel: "b2c"}.Normalize(2)
	if b2c.BusinessModel != BusinessModelB2C {
		t.Fatalf("expected B2C, got %q", b2c.BusinessModel)
	}
}

func TestValidate(t *testing.T) {
	if err := validRequest().Validate(2, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]func(*ClientRequest){
		"missing name":     func(r *ClientRequest) { r.ClientName = "" },
		"relative url":     func(r *ClientRequest) { r.WebsiteURL = "acme.example" },
		"ftp url":          func(r *ClientRequest) { r.WebsiteURL = "ftp://acme.example" },
		"bad about url":    func(r *ClientRequest) { r.AboutPageURL = "/about" },
		"missing industry": func(r *ClientRequest) { r.Industry = "" },
		"bad model":        func(r *ClientRequest) { r.BusinessModel = "B2G" },
		"too few":          func(r *ClientRequest) { r.NumICPs = 1 },
		"too many":         func(r *ClientRequest) { r.NumICPs = 6 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			err := req.Validate(2, 5)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestParseDecisionStyle(t *testing.T) {
	cases := map[string]DecisionStyle{
		"analytical":    DecisionAnalytical,
		"Intuitive":     DecisionIntuitive,
		" consensus ":   DecisionConsensus,
		"delegator":     DecisionDelegator,
		"collaborative": DecisionCollaborative,
		"DECISIVE":      DecisionDecisive,
	}
	for label, want := range cases {
		got, ok := ParseDecisionStyle(label)
		if !ok || got != want {
			t.Fatalf("ParseDecisionStyle(%q) = %q, %v", label, got, ok)
		}
	}
	if got, ok := ParseDecisionStyle("chaotic"); ok || got != DecisionAnalytical {
		t.Fatalf("expected analytical soft default, got %q, %v", got, ok)
	}
}

func TestParseRiskTolerance(t *testing.T) {
	for _, label := range []string{"risk_averse", "Risk-Averse"} {
		if got, ok := ParseRiskTolerance(label); !ok || got != RiskAverse {
			t.Fatalf("ParseRiskTolerance(%q) = %q, %v", label, got, ok)
		}
	}
	if got, ok := ParseRiskTolerance("risk-seeking"); !ok || got != RiskSeeking {
		t.Fatalf("unexpected %q", got)
	}
	if got, ok := ParseRiskTolerance("yolo"); ok || got != RiskModerate {
		t.Fatalf("expected moderate soft default, got %q, %v", got, ok)
	}
}

