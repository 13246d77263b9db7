package receipt

import (
	"fmt"

	"github.com/vocdoni/gofirma/receiptparser/internal/ber"
)

// PurchaseBuilder decodes one in-app purchase attribute SET.
type PurchaseBuilder interface {
	Build(c ber.Container) (InAppPurchase, error)
}

// ReceiptBuilder decodes the receipt payload found after the PKCS#7 data
// object identifier.
type ReceiptBuilder struct {
	purchases PurchaseBuilder
}

// NewReceiptBuilder returns a builder delegating purchases to p, or to an
// InAppPurchaseBuilder when p is nil.
func NewReceiptBuilder(p PurchaseBuilder) *ReceiptBuilder {
	if p == nil {
		p = NewInAppPurchaseBuilder()
	}
	return &ReceiptBuilder{purchases: p}
}

// Build reads the receipt attributes of c and fails when a required one is
// missing.
func (b *ReceiptBuilder) Build(c ber.Container) (AppleReceipt, error) {
	attributes, err := b.attributeSet(c)
	if err != nil {
		return AppleReceipt{}, err
	}

	var (
		r                                 AppleReceipt
		hasBundleID, hasAppVersion        bool
		hasOpaque, hasSHA1, hasCreateDate bool
	)
	for _, child := range attributes.Children {
		if child.IsEndOfContent() {
			continue
		}
		attr, ok := readAttribute(child)
		if !ok {
			return AppleReceipt{}, receiptError(fmt.Sprintf("attribute has %d components", len(child.Children)))
		}
		attrType, known := LookupReceiptAttribute(attr.tag)
		if !known {
			continue
		}
		payload := attr.value.Payload

		switch attrType {
		case AttrOpaqueValue:
			r.OpaqueValue = ber.ToData(payload)
			hasOpaque = true
		case AttrSHA1Hash:
			r.SHA1Hash = ber.ToData(payload)
			hasSHA1 = true
		case AttrBundleID:
			inner, err := ber.BuildContainer(payload)
			if err != nil {
				return AppleReceipt{}, asn1Error(err)
			}
			r.BundleID, hasBundleID = ber.ToString(inner.Payload)
			r.BundleIDData = ber.ToData(payload)
		case AttrApplicationVersion:
			inner, err := ber.BuildContainer(payload)
			if err != nil {
				return AppleReceipt{}, asn1Error(err)
			}
			r.ApplicationVersion, hasAppVersion = ber.ToString(inner.Payload)
		case AttrOriginalApplicationVersion:
			inner, err := ber.BuildContainer(payload)
			if err != nil {
				return AppleReceipt{}, asn1Error(err)
			}
			r.OriginalApplicationVersion = optionalString(inner.Payload)
		case AttrCreationDate:
			inner, err := ber.BuildContainer(payload)
			if err != nil {
				return AppleReceipt{}, asn1Error(err)
			}
			r.CreationDate, hasCreateDate = ber.ToDate(inner.Payload)
		case AttrExpirationDate:
			inner, err := ber.BuildContainer(payload)
			if err != nil {
				return AppleReceipt{}, asn1Error(err)
			}
			r.ExpirationDate = optionalDate(inner.Payload)
		case AttrInAppPurchase:
			inner, err := ber.BuildContainer(payload)
			if err != nil {
				return AppleReceipt{}, asn1Error(err)
			}
			purchase, err := b.purchases.Build(inner)
			if err != nil {
				return AppleReceipt{}, err
			}
			r.InAppPurchases = append(r.InAppPurchases, purchase)
		}
	}

	switch {
	case !hasBundleID:
		return AppleReceipt{}, receiptError("bundle identifier missing")
	case !hasAppVersion:
		return AppleReceipt{}, receiptError("application version missing")
	case !hasOpaque:
		return AppleReceipt{}, receiptError("opaque value missing")
	case !hasSHA1:
		return AppleReceipt{}, receiptError("sha1 hash missing")
	case !hasCreateDate:
		return AppleReceipt{}, receiptError("creation date missing")
	}
	return r, nil
}

// attributeSet unwraps the receipt payload held by the first child of c.
// StoreKitTest receipts wrap the SET in one more OCTET STRING.
func (b *ReceiptBuilder) attributeSet(c ber.Container) (ber.Container, error) {
	if len(c.Children) == 0 {
		return ber.Container{}, receiptError("receipt payload container is empty")
	}
	set, err := ber.BuildContainer(c.Children[0].Payload)
	if err != nil {
		return ber.Container{}, asn1Error(err)
	}
	if set.Encoding == ber.Primitive && set.Identifier == ber.TagOctetString {
		set, err = ber.BuildContainer(set.Payload)
		if err != nil {
			return ber.Container{}, asn1Error(err)
		}
	}
	return set, nil
}
