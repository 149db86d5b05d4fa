package forecast

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salahclock/internal/prayer"
)

// Format is an export format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
)

// Extension returns the file extension for f.
func (f Format) Extension() string {
	if f == FormatPDF {
		return ".pdf"
	}
	return ".txt"
}

// ParseFormat accepts "pdf", "text" or "txt".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "pdf":
		return FormatPDF, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown export format %q: must be pdf or text", s)
	}
}

// renderPDF is replaceable in tests.
var renderPDF = writePDF

// Export writes t to w in the requested format and returns the format actually
// written. A PDF that fails to render is replaced by the text export.
func Export(w io.Writer, t Table, f Format) (Format, error) {
	if f == FormatPDF {
		var buf bytes.Buffer
		err := renderPDF(&buf, t)
		if err == nil {
			_, err = buf.WriteTo(w)
			return FormatPDF, err
		}
		log.Warn().Err(err).Str("location", t.Location).Msg("[forecast] pdf generation failed, falling back to text")
	}
	return FormatText, WriteText(w, t)
}

// WriteText writes the plain text export.
func WriteText(w io.Writer, t Table) error {
	var sb strings.Builder
	sb.WriteString(t.Title() + "\n")
	sb.WriteString(t.Location + "\n")
	if t.Method != "" {
		sb.WriteString("Method: " + t.Method + "\n")
	}
	sb.WriteString("Generated: " + t.Generated.Format("02/01/2006") + "\n\n")

	for _, r := range t.Rows {
		fmt.Fprintf(&sb, "%s (%s)", r.Date.Format("2006-01-02"), r.Date.Format("Monday"))
		if r.Hijri != "" {
			fmt.Fprintf(&sb, " - %s", r.Hijri)
		}
		sb.WriteString("\n")
		for i, n := range prayer.Names {
			if i == 3 {
				sb.WriteString("\n")
			} else if i > 0 {
				sb.WriteString("  ")
			}
			fmt.Fprintf(&sb, "%s: %s", n, timeAt(r, i))
		}
		sb.WriteString("\n\n")
	}

	if len(t.Skipped) > 0 {
		sb.WriteString("Unavailable:")
		for _, d := range t.Skipped {
			sb.WriteString(" " + d.Format("2006-01-02"))
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func timeAt(r Row, i int) string {
	if i < len(r.Times) {
		return r.Times[i]
	}
	return "--:--"
}

// writePDF renders an A4 portrait table with one row per day.
func writePDF(w io.Writer, t Table) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(t.Title(), true)
	pdf.SetCreator("SalahClock", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(t.Title()), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(t.Location), "", 1, "L", false, 0, "")
	if t.Method != "" {
		pdf.CellFormat(0, 6, tr("Method: "+t.Method), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Generated: "+t.Generated.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{40, 23, 23, 23, 23, 23, 23}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 240, 235)
	for i, h := range Headers() {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i, r := range t.Rows {
		fill := i%2 == 1
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(widths[0], 6, r.Date.Format("Mon 02 Jan 2006"), "1", 0, "L", fill, 0, "")
		for j := range prayer.Names {
			pdf.CellFormat(widths[j+1], 6, timeAt(r, j), "1", 0, "C", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(t.Skipped) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		var days []string
		for _, d := range t.Skipped {
			days = append(days, d.Format("02 Jan"))
		}
		pdf.MultiCell(0, 5, "Unavailable: "+strings.Join(days, ", "), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
