// Package receipt assembles the printable receipt document for a finalized
// sale. Amounts stay in cents up to the formatting boundary; decimal is used
// only to render them.
package receipt

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/openkassa/backend-kassa/internal/db"
)

// Line is one printed article line.
type Line struct {
	Name           string `json:"name"`
	Qty            string `json:"qty"`
	UnitPrice      string `json:"unitPrice"`
	DiscountAmount string `json:"discountAmount,omitempty"`
	Total          string `json:"total"`
}

// VATRow is one entry of the per-rate VAT breakdown.
type VATRow struct {
	RateBps int32  `json:"rateBps"`
	Rate    string `json:"rate"`
	Net     string `json:"net"`
	VAT     string `json:"vat"`
	Gross   string `json:"gross"`
}

// Document is the full printable receipt.
type Document struct {
	SaleNumber    int64    `json:"saleNumber"`
	Currency      string   `json:"currency"`
	Lines         []Line   `json:"lines"`
	Subtotal      string   `json:"subtotal"`
	TotalDiscount string   `json:"totalDiscount,omitempty"`
	TotalVAT      string   `json:"totalVat"`
	Total         string   `json:"total"`
	VATBreakdown  []VATRow `json:"vatBreakdown"`
	RedeemedNote  string   `json:"redeemedNote,omitempty"`
	RoundingNote  string   `json:"roundingNote,omitempty"`
	AmountDue     string   `json:"amountDue"`
	Tendered      string   `json:"tendered,omitempty"`
	Change        string   `json:"change,omitempty"`
	PaymentMethod string   `json:"paymentMethod"`
	Cancelled     bool     `json:"cancelled,omitempty"`
}

// Build renders the receipt for a sale and its lines.
func Build(sale db.Sale, lines []db.SaleLine) Document {
	doc := Document{
		SaleNumber:    sale.SaleNumber,
		Currency:      "EUR",
		Subtotal:      euros(sale.SubtotalCents),
		TotalVAT:      euros(sale.VatCents),
		Total:         euros(sale.TotalCents),
		PaymentMethod: sale.PaymentMethod,
		Cancelled:     sale.Cancelled,
	}
	if sale.DiscountCents > 0 {
		doc.TotalDiscount = "-" + euros(sale.DiscountCents)
	}

	for _, line := range lines {
		l := Line{
			Name:      line.Name,
			Qty:       qty(line.QtyMilli, line.PricingMode),
			UnitPrice: euros(line.UnitPriceCents),
			Total:     euros(line.TotalCents),
		}
		if line.DiscountCents > 0 {
			l.DiscountAmount = "-" + euros(line.DiscountCents)
		}
		doc.Lines = append(doc.Lines, l)
	}
	doc.VATBreakdown = vatBreakdown(lines)

	due := sale.TotalCents - sale.RedeemedCents
	if sale.RedeemedCents > 0 {
		doc.RedeemedNote = "-" + euros(sale.RedeemedCents)
	}
	if sale.RoundedTotalCents.Valid {
		rounded := sale.RoundedTotalCents.Int64
		if diff := rounded - due; diff != 0 {
			doc.RoundingNote = signedEuros(diff)
		}
		due = rounded
	}
	doc.AmountDue = euros(due)
	if sale.TenderedCents.Valid {
		doc.Tendered = euros(sale.TenderedCents.Int64)
	}
	if sale.ChangeCents.Valid {
		doc.Change = euros(sale.ChangeCents.Int64)
	}
	return doc
}

// vatBreakdown groups the line amounts per VAT rate, low rates first. The
// per-rate figures come from the stored line amounts so the printed breakdown
// always reconciles with the sale.
func vatBreakdown(lines []db.SaleLine) []VATRow {
	type bucket struct {
		net, vat, gross int64
	}
	buckets := map[int32]*bucket{}
	for _, line := range lines {
		b, ok := buckets[line.VatBps]
		if !ok {
			b = &bucket{}
			buckets[line.VatBps] = b
		}
		b.net += line.SubtotalCents
		b.vat += line.VatAmountCents
		b.gross += line.TotalCents
	}
	rates := make([]int32, 0, len(buckets))
	for rate := range buckets {
		rates = append(rates, rate)
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i] < rates[j] })

	rows := make([]VATRow, 0, len(rates))
	for _, rate := range rates {
		b := buckets[rate]
		rows = append(rows, VATRow{
			RateBps: rate,
			Rate:    decimal.New(int64(rate), -2).StringFixed(2) + "%",
			Net:     euros(b.net),
			VAT:     euros(b.vat),
			Gross:   euros(b.gross),
		})
	}
	return rows
}

func euros(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func signedEuros(cents int64) string {
	if cents >= 0 {
		return "+" + euros(cents)
	}
	return euros(cents)
}

func qty(qtyMilli int64, mode string) string {
	if mode == "weight" {
		return decimal.New(qtyMilli, -3).StringFixed(3) + " kg"
	}
	return decimal.New(qtyMilli/1000, 0).String() + " x"
}
