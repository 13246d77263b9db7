package receipt

import (
	"fmt"
	"strconv"
	"time"
)

// AppleReceipt is the decoded payload of an App Store receipt.
type AppleReceipt struct {
	BundleID                   string          `json:"bundleId"`
	ApplicationVersion         string          `json:"applicationVersion"`
	OriginalApplicationVersion *string         `json:"originalApplicationVersion,omitempty"`
	OpaqueValue                []byte          `json:"opaqueValue"`
	SHA1Hash                   []byte          `json:"sha1Hash"`
	CreationDate               time.Time       `json:"creationDate"`
	ExpirationDate             *time.Time      `json:"expirationDate,omitempty"`
	InAppPurchases             []InAppPurchase `json:"inAppPurchases"`

	// BundleIDData is the encoded bundle identifier value, one of the
	// inputs of the receipt hash.
	BundleIDData []byte `json:"bundleIdData"`
}

type InAppPurchase struct {
	Quantity                   int         `json:"quantity"`
	ProductID                  string      `json:"productId"`
	TransactionID              string      `json:"transactionId"`
	OriginalTransactionID      *string     `json:"originalTransactionId,omitempty"`
	ProductType                ProductType `json:"productType"`
	PurchaseDate               time.Time   `json:"purchaseDate"`
	OriginalPurchaseDate       *time.Time  `json:"originalPurchaseDate,omitempty"`
	ExpiresDate                *time.Time  `json:"expiresDate,omitempty"`
	CancellationDate           *time.Time  `json:"cancellationDate,omitempty"`
	IsInTrialPeriod            *bool       `json:"isInTrialPeriod,omitempty"`
	IsInIntroOfferPeriod       *bool       `json:"isInIntroOfferPeriod,omitempty"`
	WebOrderLineItemID         *int64      `json:"webOrderLineItemId,omitempty"`
	PromotionalOfferIdentifier *string     `json:"promotionalOfferIdentifier,omitempty"`
}

type ProductType int

const (
	ProductTypeUnknown                   ProductType = -1
	ProductTypeNonConsumable             ProductType = 0
	ProductTypeConsumable                ProductType = 1
	ProductTypeNonRenewingSubscription   ProductType = 2
	ProductTypeAutoRenewableSubscription ProductType = 3
)

// productTypeFromInt maps the raw attribute value; anything unrecognised is
// unknown.
func productTypeFromInt(v int) ProductType {
	switch pt := ProductType(v); pt {
	case ProductTypeNonConsumable, ProductTypeConsumable,
		ProductTypeNonRenewingSubscription, ProductTypeAutoRenewableSubscription:
		return pt
	default:
		return ProductTypeUnknown
	}
}

func (p ProductType) String() string {
	switch p {
	case ProductTypeNonConsumable:
		return "nonConsumable"
	case ProductTypeConsumable:
		return "consumable"
	case ProductTypeNonRenewingSubscription:
		return "nonRenewingSubscription"
	case ProductTypeAutoRenewableSubscription:
		return "autoRenewableSubscription"
	default:
		return "unknown"
	}
}

func (p ProductType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ProductType) UnmarshalText(text []byte) error {
	s := string(text)
	for _, pt := range []ProductType{
		ProductTypeUnknown, ProductTypeNonConsumable, ProductTypeConsumable,
		ProductTypeNonRenewingSubscription, ProductTypeAutoRenewableSubscription,
	} {
		if pt.String() == s {
			*p = pt
			return nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		*p = productTypeFromInt(n)
		return nil
	}
	return fmt.Errorf("unknown product type %q", s)
}
