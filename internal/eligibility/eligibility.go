// Package eligibility decides locally whether a user can still redeem an
// introductory offer or free trial for a product.
package eligibility

import (
	"time"

	"github.com/containerd/log"
	"github.com/sirupsen/logrus"

	"github.com/vocdoni/gofirma/receiptparser/internal/receipt"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusEligible
	StatusIneligible
)

func (s Status) String() string {
	switch s {
	case StatusEligible:
		return "eligible"
	case StatusIneligible:
		return "ineligible"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ReceiptParser is the part of receipt.Parser the checker needs.
type ReceiptParser interface {
	Parse(data []byte) (receipt.AppleReceipt, error)
}

// ParserFunc adapts a function to ReceiptParser.
type ParserFunc func(data []byte) (receipt.AppleReceipt, error)

func (f ParserFunc) Parse(data []byte) (receipt.AppleReceipt, error) {
	return f(data)
}

// Checker parses receipts and checks them against a fixed product catalog.
type Checker struct {
	parser ReceiptParser
	groups map[string]string
	logger logrus.FieldLogger
}

// NewChecker returns a Checker for the products in groups, which maps each
// known product to its subscription group ("" for none).
func NewChecker(parser ReceiptParser, groups map[string]string) *Checker {
	return &Checker{parser: parser, groups: groups, logger: log.L}
}

// CheckData parses data and checks it at now. When parsing fails every
// product is StatusUnknown and the parse error is returned alongside.
func (c *Checker) CheckData(data []byte, productIDs []string, now time.Time) (map[string]Status, error) {
	r, err := c.parser.Parse(data)
	if err != nil {
		c.logger.WithError(err).Warn("could not parse receipt, intro eligibility unknown")
		out := make(map[string]Status, len(productIDs))
		for _, id := range productIDs {
			out[id] = StatusUnknown
		}
		return out, err
	}
	return Check(r, productIDs, c.groups, now), nil
}

// Check reports the eligibility of each product at now.
//
// groups is the product catalog: it maps every known product to its
// subscription group, "" meaning none. Products missing from it are
// StatusUnknown. A known product is ineligible when it, or another product
// of its group, is an active subscription or was bought with a trial or an
// introductory price.
func Check(r receipt.AppleReceipt, productIDs []string, groups map[string]string, now time.Time) map[string]Status {
	blockedProducts := make(map[string]bool)
	blockedGroups := make(map[string]bool)
	block := func(ids []string) {
		for _, id := range ids {
			blockedProducts[id] = true
			if g := groups[id]; g != "" {
				blockedGroups[g] = true
			}
		}
	}
	block(r.ActiveSubscriptionsProductIdentifiers(now))
	block(r.PurchasedIntroOfferOrFreeTrialProductIdentifiers())

	out := make(map[string]Status, len(productIDs))
	for _, id := range productIDs {
		g, known := groups[id]
		switch {
		case !known:
			out[id] = StatusUnknown
		case blockedProducts[id], g != "" && blockedGroups[g]:
			out[id] = StatusIneligible
		default:
			out[id] = StatusEligible
		}
	}
	return out
}
