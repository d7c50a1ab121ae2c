// Package certificate renders the single-page issuance certificate of an
// issued request.
package certificate

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// Panama has no daylight saving time.
var panama = time.FixedZone("America/Panama", -5*60*60)

// Data is everything printed on a certificate.
type Data struct {
	RequestID     int64
	CertificateID string
	Nombre        string
	Cedula        string
	IssuedAt      time.Time
}

// CertificateID derives the printed identifier from a request id.
func CertificateID(requestID int64) string {
	return fmt.Sprintf("DT-%06d", requestID)
}

// FileName is the download name offered for a request's certificate.
func FileName(requestID int64) string {
	return fmt.Sprintf("certificado-%d.pdf", requestID)
}

// FormatDate renders t the way es-PA formats a short date.
func FormatDate(t time.Time) string {
	return t.In(panama).Format("1/2/2006")
}

type rgb struct{ r, g, b int }

var (
	colorTitle   = rgb{0x0f, 0x17, 0x2a}
	colorText    = rgb{0x1e, 0x29, 0x3b}
	colorMuted   = rgb{0x47, 0x55, 0x69}
	colorLine    = rgb{0xe2, 0xe8, 0xf0}
	colorBrand   = rgb{0x08, 0x91, 0xb2}
	colorSuccess = rgb{0x05, 0x96, 0x69}
	colorChipBg  = rgb{0xea, 0xfa, 0xf3}
	colorChipRim = rgb{0xd1, 0xfa, 0xe5}
)

const margin = 54.0

// Render writes the certificate for d to w as a PDF document.
func Render(w io.Writer, d Data) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle("Certificado "+d.CertificateID, false)
	pdf.SetAuthor("DocuTrack", false)
	pdf.SetCreator("DocuTrack", false)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	usableW := pageW - 2*margin
	issued := FormatDate(d.IssuedAt)

	text := func(c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
	line := func(x1, y1, x2, y2 float64) {
		pdf.SetDrawColor(colorLine.r, colorLine.g, colorLine.b)
		pdf.SetLineWidth(1)
		pdf.Line(x1, y1, x2, y2)
	}

	// Header
	text(colorTitle)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(usableW, 18, "DocuTrack", "", 1, "L", false, 0, "")
	line(margin, pdf.GetY()+6, pageW-margin, pdf.GetY()+6)
	pdf.Ln(24)

	// Title
	text(colorBrand)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(usableW, 24, tr("CERTIFICADO DE EMISIÓN"), "", 1, "C", false, 0, "")
	text(colorMuted)
	pdf.SetFont("Helvetica", "", 10.5)
	pdf.CellFormat(usableW, 14, tr("Documento electrónico válido para constancia y verificación."), "", 1, "C", false, 0, "")
	pdf.Ln(18)

	// Holder
	text(colorText)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(usableW, 16, "Datos del titular", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	field := func(label, value string) {
		text(colorMuted)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(118, 16, tr(label), "", 0, "L", false, 0, "")
		text(colorText)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(usableW-118, 16, tr(value), "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}
	field("Nombre:", d.Nombre)
	field("Cédula:", d.Cedula)
	pdf.Ln(10)

	text(colorText)
	pdf.SetFont("Helvetica", "", 11.5)
	pdf.MultiCell(usableW, 15, tr("Se certifica que el titular ha completado satisfactoriamente el trámite solicitado."), "", "L", false)
	pdf.Ln(12)

	// Issuance boxes
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(usableW, 16, tr("Detalles de emisión"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	const gap, boxH = 16.0, 48.0
	colW := (usableW - gap) / 2
	leftX, y := margin, pdf.GetY()
	rightX := leftX + colW + gap

	pdf.SetDrawColor(colorLine.r, colorLine.g, colorLine.b)
	pdf.RoundedRect(leftX, y, colW, boxH, 6, "1234", "D")
	pdf.RoundedRect(rightX, y, colW, boxH, 6, "1234", "D")

	text(colorMuted)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(leftX+12, y+9)
	pdf.CellFormat(colW-24, 12, tr("Fecha de emisión"), "", 0, "L", false, 0, "")
	pdf.SetXY(rightX+12, y+9)
	pdf.CellFormat(colW-24, 12, "Estado", "", 0, "L", false, 0, "")

	text(colorText)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(leftX+12, y+24)
	pdf.CellFormat(colW-24, 16, issued, "", 0, "L", false, 0, "")

	pdf.SetFillColor(colorChipBg.r, colorChipBg.g, colorChipBg.b)
	pdf.SetDrawColor(colorChipRim.r, colorChipRim.g, colorChipRim.b)
	pdf.RoundedRect(rightX+12, y+24, 78, 18, 9, "1234", "FD")
	text(colorSuccess)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(rightX+12, y+24)
	pdf.CellFormat(78, 18, "EMITIDO", "", 0, "C", false, 0, "")

	pdf.SetXY(margin, y+boxH+14)
	line(margin, pdf.GetY(), pageW-margin, pdf.GetY())
	pdf.Ln(18)

	text(colorMuted)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(usableW, 14, tr("Fecha de emisión: "+issued), "", 1, "L", false, 0, "")
	pdf.CellFormat(usableW, 14, "ID de certificado: "+d.CertificateID, "", 1, "L", false, 0, "")
	pdf.Ln(30)

	// Signature
	const sigW = 200.0
	centerX := margin + usableW/2
	sigY := pdf.GetY() + 8
	line(centerX-sigW/2, sigY, centerX+sigW/2, sigY)
	text(colorText)
	pdf.SetFont("Helvetica", "B", 10.5)
	pdf.SetXY(centerX-sigW/2, sigY+6)
	pdf.CellFormat(sigW, 14, "Firma autorizada", "", 0, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}
	return nil
}
