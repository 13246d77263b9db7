package receipt

import (
	"fmt"
	"time"

	"github.com/vocdoni/gofirma/receiptparser/internal/ber"
)

// attributeChildren is the shape of every receipt attribute:
// SEQUENCE { type INTEGER, version INTEGER, value OCTET STRING }.
const attributeChildren = 3

// unknownAttributeTag stands in for type integers that are negative or too
// wide to be an attribute type, so they never alias a known one.
const unknownAttributeTag = -1

type attribute struct {
	tag   int
	value ber.Container
}

func readAttribute(c ber.Container) (attribute, bool) {
	if len(c.Children) != attributeChildren {
		return attribute{}, false
	}
	tag := unknownAttributeTag
	if v, ok := ber.ToUint32(c.Children[0].Payload); ok {
		tag = int(v)
	}
	return attribute{tag: tag, value: c.Children[2]}, true
}

// InAppPurchaseBuilder decodes the attribute SET of a single in-app purchase.
type InAppPurchaseBuilder struct{}

// NewInAppPurchaseBuilder returns the default PurchaseBuilder.
func NewInAppPurchaseBuilder() *InAppPurchaseBuilder {
	return &InAppPurchaseBuilder{}
}

// Build decodes the purchase attribute SET c. Quantity, product identifier,
// transaction identifier and purchase date are required.
func (b *InAppPurchaseBuilder) Build(c ber.Container) (InAppPurchase, error) {
	var (
		purchase                              InAppPurchase
		hasQuantity, hasProductID, hasTransID bool
		hasPurchaseDate                       bool
	)
	purchase.ProductType = ProductTypeUnknown

	for _, child := range c.Children {
		if child.IsEndOfContent() {
			continue
		}
		attr, ok := readAttribute(child)
		if !ok {
			return InAppPurchase{}, purchaseError(fmt.Sprintf("attribute has %d components", len(child.Children)))
		}
		attrType, known := LookupInAppPurchaseAttribute(attr.tag)
		if !known {
			continue
		}
		inner, err := ber.BuildContainer(attr.value.Payload)
		if err != nil {
			return InAppPurchase{}, asn1Error(err)
		}
		if inner.Length.Value == 0 {
			continue
		}
		v := inner.Payload

		switch attrType {
		case AttrQuantity:
			purchase.Quantity = ber.ToInt(v)
			hasQuantity = true
		case AttrProductID:
			purchase.ProductID, hasProductID = ber.ToString(v)
		case AttrTransactionID:
			purchase.TransactionID, hasTransID = ber.ToString(v)
		case AttrPurchaseDate:
			purchase.PurchaseDate, hasPurchaseDate = ber.ToDate(v)
		case AttrOriginalTransactionID:
			purchase.OriginalTransactionID = optionalString(v)
		case AttrOriginalPurchaseDate:
			purchase.OriginalPurchaseDate = optionalDate(v)
		case AttrProductType:
			purchase.ProductType = productTypeFromInt(ber.ToInt(v))
		case AttrExpiresDate:
			purchase.ExpiresDate = optionalDate(v)
		case AttrWebOrderLineItemID:
			id := ber.ToInt64(v)
			purchase.WebOrderLineItemID = &id
		case AttrCancellationDate:
			purchase.CancellationDate = optionalDate(v)
		case AttrIsInTrialPeriod:
			flag := ber.ToBool(v)
			purchase.IsInTrialPeriod = &flag
		case AttrIsInIntroOfferPeriod:
			flag := ber.ToBool(v)
			purchase.IsInIntroOfferPeriod = &flag
		case AttrPromotionalOfferIdentifier:
			purchase.PromotionalOfferIdentifier = optionalString(v)
		}
	}

	switch {
	case !hasQuantity:
		return InAppPurchase{}, purchaseError("quantity missing")
	case !hasProductID:
		return InAppPurchase{}, purchaseError("product identifier missing")
	case !hasTransID:
		return InAppPurchase{}, purchaseError("transaction identifier missing")
	case !hasPurchaseDate:
		return InAppPurchase{}, purchaseError("purchase date missing")
	}
	return purchase, nil
}

func optionalString(b []byte) *string {
	s, ok := ber.ToString(b)
	if !ok {
		return nil
	}
	return &s
}

func optionalDate(b []byte) *time.Time {
	t, ok := ber.ToDate(b)
	if !ok {
		return nil
	}
	return &t
}
