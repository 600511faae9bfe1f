package prompt

import (
	"encoding/json"
	"fmt"

	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
)

// ChatSystem frames a follow-up conversation around one stored report.
func ChatSystem(report *domain.Report) string {
	findings, _ := json.MarshalIndent(struct {
		Analysis        string               `json:"analysis"`
		Severity        domain.Severity      `json:"severity"`
		Abnormalities   []domain.Abnormality `json:"abnormalities"`
		Precautions     []string             `json:"precautions"`
		Recommendations []string             `json:"recommendations"`
	}{report.Narrative, report.Severity, report.Abnormalities, report.Precautions, report.Recommendations}, "", "  ")

	return fmt.Sprintf(`You are an expert medical AI assistant. You are analyzing a CT scan with the following findings:

%s

Please answer any follow-up questions about these findings. Be professional, clear, and empathetic. Always remind the user to consult a doctor for definitive medical advice.`, findings)
}
