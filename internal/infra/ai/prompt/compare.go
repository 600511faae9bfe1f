package prompt

import (
	"encoding/json"
	"fmt"

	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
)

// Compare builds the longitudinal "chrono-compare" instruction. The caller
// must pass the reports in chronological order: baseline first.
func Compare(baseline, current *domain.Report) string {
	oldAbn, _ := json.Marshal(baseline.Abnormalities)
	newAbn, _ := json.Marshal(current.Abnormalities)

	return fmt.Sprintf(`Act as an expert radiologist performing a longitudinal analysis. Compare these two medical scans from the same patient.

SCAN A (Older - %s):
Analysis: %s
Abnormalities: %s

SCAN B (Newer - %s):
Analysis: %s
Abnormalities: %s

Provide a "Chrono-Compare" Report in JSON format:
{
    "summary": "2-3 sentences summarizing the overall progression (improved/worsened/stable).",
    "changes": [
        {
            "type": "improvement" | "deterioration" | "new_finding" | "stable",
            "description": "Specific change description (e.g., 'Lung nodule size reduced by approx 2mm')"
        }
    ],
    "key_differences": ["List of distinctive differences"],
    "recommendation": "One key recommendation based on the change."
}

Return ONLY the JSON object, no additional text.`,
		baseline.CreatedAt.Format("2006-01-02"), baseline.Narrative, oldAbn,
		current.CreatedAt.Format("2006-01-02"), current.Narrative, newAbn,
	)
}
