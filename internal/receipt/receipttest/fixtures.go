package receipttest

import "time"

// Purchase describes an in-app purchase fixture. Zero or nil optional fields
// are left out of the encoding.
type Purchase struct {
	Quantity              int
	ProductID             string
	TransactionID         string
	PurchaseDate          time.Time
	OriginalTransactionID string
	OriginalPurchaseDate  *time.Time
	ProductType           *int
	ExpiresDate           *time.Time
	WebOrderLineItemID    *int64
	CancellationDate      *time.Time
	IsInTrialPeriod       *bool
	IsInIntroOfferPeriod  *bool
	PromotionalOfferID    string

	// Extra attributes are appended verbatim.
	Extra []Attribute
}

func (p Purchase) Attributes() []Attribute {
	attrs := []Attribute{
		{Type: 1701, Version: 1, Value: Int(int64(p.Quantity))},
		{Type: 1702, Version: 1, Value: UTF8(p.ProductID)},
		{Type: 1703, Version: 1, Value: UTF8(p.TransactionID)},
		{Type: 1704, Version: 1, Value: Date(p.PurchaseDate)},
	}
	if p.OriginalTransactionID != "" {
		attrs = append(attrs, Attribute{Type: 1705, Version: 1, Value: UTF8(p.OriginalTransactionID)})
	}
	if p.OriginalPurchaseDate != nil {
		attrs = append(attrs, Attribute{Type: 1706, Version: 1, Value: Date(*p.OriginalPurchaseDate)})
	}
	if p.ProductType != nil {
		attrs = append(attrs, Attribute{Type: 1707, Version: 1, Value: Int(int64(*p.ProductType))})
	}
	if p.ExpiresDate != nil {
		attrs = append(attrs, Attribute{Type: 1708, Version: 1, Value: Date(*p.ExpiresDate)})
	}
	if p.WebOrderLineItemID != nil {
		attrs = append(attrs, Attribute{Type: 1711, Version: 1, Value: Int(*p.WebOrderLineItemID)})
	}
	if p.CancellationDate != nil {
		attrs = append(attrs, Attribute{Type: 1712, Version: 1, Value: Date(*p.CancellationDate)})
	}
	if p.IsInTrialPeriod != nil {
		attrs = append(attrs, Attribute{Type: 1713, Version: 1, Value: Bool(*p.IsInTrialPeriod)})
	}
	if p.IsInIntroOfferPeriod != nil {
		attrs = append(attrs, Attribute{Type: 1719, Version: 1, Value: Bool(*p.IsInIntroOfferPeriod)})
	}
	if p.PromotionalOfferID != "" {
		attrs = append(attrs, Attribute{Type: 1721, Version: 1, Value: UTF8(p.PromotionalOfferID)})
	}
	return append(attrs, p.Extra...)
}

func (p Purchase) Encode() []byte {
	return AttributeSet(p.Attributes()...)
}

// Receipt describes a receipt fixture. Tags listed in Omit are dropped from
// the encoding.
type Receipt struct {
	BundleID                   string
	ApplicationVersion         string
	OriginalApplicationVersion string
	OpaqueValue                []byte
	SHA1Hash                   []byte
	CreationDate               time.Time
	ExpirationDate             *time.Time
	Purchases                  []Purchase
	Extra                      []Attribute
	Omit                       []int
}

func (r Receipt) Attributes() []Attribute {
	attrs := []Attribute{
		{Type: 2, Version: 1, Value: UTF8(r.BundleID)},
		{Type: 3, Version: 1, Value: UTF8(r.ApplicationVersion)},
		{Type: 4, Version: 1, Value: r.OpaqueValue},
		{Type: 5, Version: 1, Value: r.SHA1Hash},
		{Type: 12, Version: 1, Value: Date(r.CreationDate)},
	}
	if r.OriginalApplicationVersion != "" {
		attrs = append(attrs, Attribute{Type: 19, Version: 1, Value: UTF8(r.OriginalApplicationVersion)})
	}
	if r.ExpirationDate != nil {
		attrs = append(attrs, Attribute{Type: 21, Version: 1, Value: Date(*r.ExpirationDate)})
	}
	for _, p := range r.Purchases {
		attrs = append(attrs, Attribute{Type: 17, Version: 1, Value: p.Encode()})
	}
	attrs = append(attrs, r.Extra...)

	kept := attrs[:0]
	for _, a := range attrs {
		if !contains(r.Omit, a.Type) {
			kept = append(kept, a)
		}
	}
	return kept
}

// Payload is the attribute SET carried inside the PKCS#7 data content.
func (r Receipt) Payload() []byte {
	return AttributeSet(r.Attributes()...)
}

// Encode returns the receipt wrapped in an unsigned ContentInfo.
func (r Receipt) Encode() []byte {
	return ContentInfo(r.Payload())
}

// Sample returns a valid receipt with a single subscription purchase.
func Sample() Receipt {
	created := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	expires := created.Add(30 * 24 * time.Hour)
	autoRenewable := 3
	trial := false
	return Receipt{
		BundleID:                   "com.example.app",
		ApplicationVersion:         "42",
		OriginalApplicationVersion: "1.0",
		OpaqueValue:                []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		SHA1Hash:                   make([]byte, 20),
		CreationDate:               created,
		Purchases: []Purchase{{
			Quantity:              1,
			ProductID:             "com.example.monthly",
			TransactionID:         "1000000000000001",
			OriginalTransactionID: "1000000000000001",
			PurchaseDate:          created,
			ProductType:           &autoRenewable,
			ExpiresDate:           &expires,
			IsInTrialPeriod:       &trial,
		}},
	}
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
