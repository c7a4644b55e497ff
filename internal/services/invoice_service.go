package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"gym_crm_backend/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// Gym identity printed on every invoice.
const (
	invoiceGymName    = "Sample Fitness Center"
	invoiceGymAddress = "Address: Sample Fitness Center, Chennai"
	invoiceGymPhone   = "Phone: +91 90000 00000"
	invoiceGymWebsite = "Website: https://www.samplefitness.com"
	invoiceGymEmail   = "E-Mail: samplefitness@mail.com"
)

var invoiceTerms = []string{
	"1. Membership is personal, no adjustment of days, no refund.",
	"2. Absentee days cannot be claimed later.",
	"3. Member is responsible for their health.",
	"4. We are not liable for valuable items.",
	"5. Management may suspend membership anytime.",
}

// InvoiceService renders a bill snapshot into a PDF document. Rendering has no
// side effects on stored state and can be retried freely.
type InvoiceService interface {
	RenderInvoice(bill *models.GymBill) ([]byte, error)
}

type invoiceService struct{}

// NewInvoiceService creates a new instance of InvoiceService.
func NewInvoiceService() InvoiceService {
	return &invoiceService{}
}

// formatRupees renders a monetary value as a fixed-point currency string.
func formatRupees(v float64) string {
	return fmt.Sprintf("Rs. %.2f", v)
}

var displayDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
}

// formatDisplayDate reformats a stored date string to "02 Jan 2006" display form.
// Unparseable dates pass through verbatim.
func formatDisplayDate(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	for _, layout := range displayDateLayouts {
		if d, err := time.Parse(layout, trimmed); err == nil {
			return d.Format("02 Jan 2006")
		}
	}
	return s
}

// imageTypeOf verifies the bytes decode as a supported image and returns the
// gofpdf image type. Undecodable images are skipped, never rendered as errors.
func imageTypeOf(data []byte) (string, bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	switch format {
	case "jpeg":
		return "JPG", true
	case "png":
		return "PNG", true
	case "gif":
		return "GIF", true
	}
	return "", false
}

func (s *invoiceService) RenderInvoice(bill *models.GymBill) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(36, 36, 36)
	pdf.SetAutoPageBreak(true, 36)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	leftX, _, rightMargin, _ := pdf.GetMargins()
	pageWidth := pageW - leftX - rightMargin
	y := 36.0

	text := func(x, yPos, w float64, align, str string) {
		pdf.SetXY(x, yPos)
		pdf.CellFormat(w, 10, str, "", 0, align, false, 0, "")
	}

	// Header: logo placeholder on the left, gym contact block on the right.
	const logoSize = 84.0
	pdf.Rect(leftX, y, logoSize, logoSize, "D")

	rightBlockX := leftX + pageWidth - 300
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	text(rightBlockX, y, 300, "R", invoiceGymAddress)
	text(rightBlockX, y+12, 300, "R", invoiceGymPhone)
	text(rightBlockX, y+24, 300, "R", invoiceGymWebsite)
	text(rightBlockX, y+36, 300, "R", invoiceGymEmail)

	y += logoSize + 16

	const sectionBarHeight = 14.0
	drawSection := func(title string) {
		pdf.SetFillColor(245, 197, 24)
		pdf.Rect(leftX, y, pageWidth, sectionBarHeight, "F")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "B", 10)
		text(leftX+6, y+2, pageWidth-12, "L", title)
		y += sectionBarHeight + 8
	}

	const colGap = 12.0
	colWidth := (pageWidth - colGap) / 2
	leftColX := leftX
	rightColX := leftX + colWidth + colGap

	drawLabelValue := func(label, value string, x, yPos float64) {
		if value == "" {
			value = "-"
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(51, 51, 51)
		text(x, yPos, colWidth, "L", label)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(0, 0, 0)
		text(x, yPos+11, colWidth, "L", value)
	}

	drawSection("Client Detail")
	drawLabelValue("Member ID:", bill.MemberID, leftColX, y)
	drawLabelValue("Billing date:", formatDisplayDate(bill.JoiningDate), rightColX, y)
	y += 34
	drawLabelValue("Name:", bill.Client, leftColX, y)
	drawLabelValue("Phone:", bill.ContactNumber, rightColX, y)
	y += 36

	drawSection("Description")
	drawLabelValue("Package name:", bill.Package, leftColX, y)
	drawLabelValue("Start date:", formatDisplayDate(bill.JoiningDate), rightColX, y)
	y += 34
	drawLabelValue("End date:", formatDisplayDate(bill.EndDate), leftColX, y)
	drawLabelValue("Billed by:", "Admin", rightColX, y)
	y += 36

	drawSection("Billing Detail")

	paymentMethod := bill.PaymentMethodDetail
	if paymentMethod == "" {
		paymentMethod = "Cash"
	}
	billingRows := [][2]string{
		{"Package fees:", formatRupees(bill.Price)},
		{"Other Charges:", formatRupees(bill.AdmissionCharges)},
		{"Discount:", formatRupees(bill.DiscountAmount)},
		{"TAX :", formatRupees(bill.Tax)},
		{"First amount paid : Via " + paymentMethod, formatRupees(bill.AmountPaid)},
	}

	valueX := leftX + pageWidth - 140
	const lineSpacing = 18.0
	pdf.SetFont("Helvetica", "", 10)
	ly := y
	for _, row := range billingRows {
		text(leftColX, ly, pageWidth-140-colGap, "L", row[0])
		text(valueX, ly, 140, "R", row[1])
		ly += lineSpacing
	}
	y = ly + 6

	// Pending amount banner.
	const pendingBarHeight = 24.0
	pdf.SetFillColor(212, 160, 23)
	pdf.Rect(leftX, y, pageWidth, pendingBarHeight, "F")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 11)
	text(leftX+10, y+7, 200, "L", "Pending Amount:")
	text(leftX+pageWidth-120, y+7, 110, "R", formatRupees(bill.Balance))
	y += pendingBarHeight + 20

	pdf.SetFont("Helvetica", "B", 11)
	text(leftX, y, pageWidth, "L", "Terms & Condition")
	y += 16

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(255, 0, 0)
	for _, term := range invoiceTerms {
		text(leftX+6, y, pageWidth-40, "L", term)
		y += 12
	}
	y += 18

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 11)
	text(leftX, y, pageWidth, "L", "To accept this invoice, sign here and return ____________________")
	y += 28

	pdf.SetFont("Helvetica", "B", 11)
	text(leftX, y, pageWidth, "C", "Thank you for your business and we look forward to coaching you.")

	pdf.SetFont("Helvetica", "", 10)
	text(leftX, pageH-72, pageWidth, "C", invoiceGymName)

	if bill.ProfilePicture != nil && len(bill.ProfilePicture.Data) > 0 {
		if imgType, ok := imageTypeOf(bill.ProfilePicture.Data); ok {
			opts := gofpdf.ImageOptions{ImageType: imgType}
			pdf.RegisterImageOptionsReader("profile", opts, bytes.NewReader(bill.ProfilePicture.Data))
			pdf.ImageOptions("profile", leftX+pageWidth-84, 110, 64, 64, false, opts, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
