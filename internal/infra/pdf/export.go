package pdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
)

// Export renders a stored report as a printable PDF document.
func Export(w io.Writer, rep *domain.Report) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(rep.Name, false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, "MedScanX Report", "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(0, 6, fmt.Sprintf("%s  -  %s", rep.Name, rep.CreatedAt.Format("02 Jan 2006 15:04 MST")), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("Severity: %s", strings.ToUpper(string(rep.Severity))), "", 1, "L", false, 0, "")
	doc.Ln(4)
	doc.SetTextColor(0, 0, 0)

	section(doc, "Analysis")
	doc.MultiCell(0, 5, rep.Narrative, "", "L", false)
	doc.Ln(3)

	section(doc, "Abnormalities")
	if len(rep.Abnormalities) == 0 {
		doc.MultiCell(0, 5, "No abnormalities detected.", "", "L", false)
	}
	for _, a := range rep.Abnormalities {
		line := "- " + a.Description
		if a.Location != nil {
			line += fmt.Sprintf(" (at %.0f%%, %.0f%%)", a.Location.X, a.Location.Y)
		}
		doc.MultiCell(0, 5, line, "", "L", false)
	}
	doc.Ln(3)

	section(doc, "Precautions")
	bulletList(doc, rep.Precautions)
	doc.Ln(3)

	section(doc, "Recommendations")
	bulletList(doc, rep.Recommendations)
	doc.Ln(6)

	doc.SetFont("Helvetica", "I", 8)
	doc.SetTextColor(120, 120, 120)
	doc.MultiCell(0, 4, "This report was generated by an AI assistant and is not a medical diagnosis. Always consult a qualified radiologist or physician.", "", "L", false)

	return doc.Output(w)
}

func section(doc *fpdf.Fpdf, title string) {
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
}

func bulletList(doc *fpdf.Fpdf, items []string) {
	if len(items) == 0 {
		doc.MultiCell(0, 5, "None.", "", "L", false)
		return
	}
	for _, it := range items {
		doc.MultiCell(0, 5, "- "+it, "", "L", false)
	}
}
