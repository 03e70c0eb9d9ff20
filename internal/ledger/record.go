package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/fuel-ledger/internal/extraction"
)

// DefaultCategory is used when a record is saved without one
const DefaultCategory = "その他"

// dateLayout is the ledger's date format
const dateLayout = "2006-01-02"

// Record is one booked expense
type Record struct {
	ID          string           `json:"id"`
	Date        string           `json:"date"`   // YYYY-MM-DD
	Amount      int64            `json:"amount"` // yen, tax included
	Liters      *decimal.Decimal `json:"liters,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"` // yen per liter
	Tax         *int64           `json:"tax,omitempty"`
	Category    string           `json:"category"`
	Memo        string           `json:"memo,omitempty"`
	Photo       string           `json:"photo,omitempty"` // storage name of the receipt photo
	ContentType string           `json:"content_type,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// RecordInput is what a user confirms to create a record
type RecordInput struct {
	Date        string           `json:"date"`
	Amount      int64            `json:"amount"`
	Liters      *decimal.Decimal `json:"liters,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Tax         *int64           `json:"tax,omitempty"`
	Category    string           `json:"category"`
	Memo        string           `json:"memo,omitempty"`
	Photo       string           `json:"photo,omitempty"`
	ContentType string           `json:"content_type,omitempty"`
}

// Draft is a scanned receipt waiting for the user to confirm it
type Draft struct {
	PhotoID     string            `json:"photo_id"`
	Photo       string            `json:"photo"`
	ContentType string            `json:"content_type"`
	Text        string            `json:"text"` // raw OCR output
	Fields      extraction.Result `json:"fields"`
}

// RecordInput prefills a record from the extracted fields. The OCR text
// becomes the memo.
func (d *Draft) RecordInput(category string) RecordInput {
	in := RecordInput{
		Date:        strings.ReplaceAll(d.Fields.Date, "/", "-"),
		Liters:      d.Fields.Liters,
		UnitPrice:   d.Fields.UnitPrice,
		Tax:         d.Fields.Tax,
		Category:    category,
		Memo:        strings.TrimSpace(d.Text),
		Photo:       d.Photo,
		ContentType: d.ContentType,
	}
	if d.Fields.Total != nil {
		in.Amount = *d.Fields.Total
	}
	return in
}
