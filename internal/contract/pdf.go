package contract

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
)

// PDF renders the agreement as an A4 document.
func PDF(s Snapshot) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Rental agreement #%d", s.BookingID), true)
	pdf.SetAuthor(s.company(), true)
	// core fonts are cp1252; translate UTF-8 input
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "CAR RENTAL AGREEMENT", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(s.company()), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	for _, l := range s.details() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 7, tr(l.label), "B", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, tr(l.value), "B", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Terms and conditions", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for i, t := range Terms {
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, t)), "", "L", false)
	}

	pdf.Ln(14)
	pdf.CellFormat(90, 6, tr("For "+s.company()), "T", 0, "L", false, 0, "")
	pdf.CellFormat(10, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(90, 6, tr("Renter: "+s.RenterName), "T", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render contract pdf: %w", err)
	}
	return buf.Bytes(), nil
}
