package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/appraisal"
)

const dateLayout = "2006-01-02"

// Names resolves identity ids to display names. Missing ids print as the id.
type Names map[string]string

func (n Names) of(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return fmt.Sprintf("%s (%s)", name, id)
	}
	return id
}

// Filename is the download name of the appraisal summary.
func Filename(a *appraisal.Appraisal) string {
	return fmt.Sprintf("appraisal-%s-%s.pdf", a.EmployeeID, a.PeriodEnd.Format(dateLayout))
}

// Render writes a PDF summary of a: header, frozen chain with the review of
// every level, and the final result once completed.
func Render(w io.Writer, a *appraisal.Appraisal, names Names) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Performance appraisal", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Performance appraisal")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	line(pdf, "Employee: %s", names.of(a.EmployeeID))
	line(pdf, "Period: %s to %s", a.PeriodStart.Format(dateLayout), a.PeriodEnd.Format(dateLayout))
	line(pdf, "Status: %s", a.Status)
	if a.SubmittedAt != nil {
		line(pdf, "Submitted: %s", a.SubmittedAt.Format(dateLayout))
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Approval chain")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	if a.Chain.Empty() {
		line(pdf, "%s", "No approvers were resolved for this appraisal.")
	}
	for _, link := range a.Chain {
		label := fmt.Sprintf("Level %d - %s - %s", link.Level, link.Role, names.of(link.ApproverID))
		if link.Final {
			label += " (final)"
		}
		pdf.SetFont("Helvetica", "B", 11)
		line(pdf, "%s", label)
		pdf.SetFont("Helvetica", "", 10)
		review, ok := a.Review(link.Level)
		if !ok {
			line(pdf, "  %s", "Pending")
			continue
		}
		line(pdf, "  Reviewed %s", review.ReviewedAt.Format(dateLayout))
		for _, ans := range review.Answers {
			writeAnswer(pdf, ans)
		}
		if review.Comment != "" {
			pdf.MultiCell(0, 6, "  "+review.Comment, "", "L", false)
		}
	}

	if len(a.Responses) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Self assessment")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 10)
		for _, ans := range a.Responses {
			writeAnswer(pdf, ans)
		}
	}

	if a.Status == appraisal.StatusCompleted {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Result")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		line(pdf, "Outcome: %s", a.Outcome)
		if a.Score != nil {
			line(pdf, "Score: %.1f", *a.Score)
		}
		if a.Grade != "" {
			line(pdf, "Grade: %s", a.Grade)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render appraisal %s: %w", a.ID, err)
	}
	return pdf.Output(w)
}

func line(pdf *gofpdf.Fpdf, format string, args ...any) {
	pdf.Cell(0, 7, fmt.Sprintf(format, args...))
	pdf.Ln(7)
}

func writeAnswer(pdf *gofpdf.Fpdf, ans appraisal.Answer) {
	text := "  " + ans.QuestionID
	if ans.MaxRating > 0 {
		text += fmt.Sprintf(": %g / %g", ans.Rating, ans.MaxRating)
	}
	if c := strings.TrimSpace(ans.Comment); c != "" {
		text += " - " + c
	}
	pdf.MultiCell(0, 6, text, "", "L", false)
}
