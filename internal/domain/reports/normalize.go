package reports

import (
	"encoding/json"
	"strings"
)

// Analysis is the body of a report as extracted from one oracle response,
// before an ID, owner and timestamp are attached.
type Analysis struct {
	Narrative       string        `json:"analysis"`
	Severity        Severity      `json:"severity"`
	Abnormalities   []Abnormality `json:"abnormalities"`
	Precautions     []string      `json:"precautions"`
	Recommendations []string      `json:"recommendations"`
}

// Fixed degraded-report content used when the oracle response cannot be
// parsed. The raw text is kept verbatim as the narrative so the operator
// still sees everything the model said.
const (
	fallbackAbnormality    = "Unable to parse detailed findings"
	fallbackPrecaution     = "Consult with a radiologist for proper interpretation"
	fallbackRecommendation = "Get a professional medical evaluation"
)

// NormalizeAnalysis turns raw oracle text into a valid Analysis. The text is
// expected to be a JSON object, possibly wrapped in markdown code fences.
// Parse or validation failure never surfaces: the caller always gets a
// readable report, with severity pinned to medium so a broken response is
// never presented as low risk.
func NormalizeAnalysis(raw string) Analysis {
	cleaned := StripCodeFences(raw)

	var a Analysis
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return fallbackAnalysis(raw)
	}
	if err := validateAnalysis(&a); err != nil {
		return fallbackAnalysis(raw)
	}
	return a
}

// validateAnalysis enforces the strict part of the schema. Coordinate
// clamping already happened during Abnormality decoding; empty precaution or
// recommendation lists are legitimate (a clean scan has no findings).
func validateAnalysis(a *Analysis) error {
	if strings.TrimSpace(a.Narrative) == "" {
		return ErrValidation
	}
	if !ValidSeverity(a.Severity) {
		return ErrValidation
	}
	if a.Abnormalities == nil {
		a.Abnormalities = []Abnormality{}
	}
	if a.Precautions == nil {
		a.Precautions = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	return nil
}

func fallbackAnalysis(raw string) Analysis {
	return Analysis{
		Narrative: raw,
		Severity:  SeverityMedium,
		Abnormalities: []Abnormality{
			{Description: fallbackAbnormality, Location: &Location{X: 50, Y: 50}},
		},
		Precautions:     []string{fallbackPrecaution},
		Recommendations: []string{fallbackRecommendation},
	}
}

// StripCodeFences removes leading/trailing markdown fences ("```" with or
// without a language tag) and surrounding whitespace.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop language tag up to the first newline, e.g. "json\n"
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if first == "" || isFenceTag(first) {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
