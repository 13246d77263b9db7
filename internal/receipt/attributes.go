package receipt

// ReceiptAttributeType is the type tag of a top-level receipt attribute.
type ReceiptAttributeType int

const (
	AttrBundleID                   ReceiptAttributeType = 2
	AttrApplicationVersion         ReceiptAttributeType = 3
	AttrOpaqueValue                ReceiptAttributeType = 4
	AttrSHA1Hash                   ReceiptAttributeType = 5
	AttrCreationDate               ReceiptAttributeType = 12
	AttrInAppPurchase              ReceiptAttributeType = 17
	AttrOriginalApplicationVersion ReceiptAttributeType = 19
	AttrExpirationDate             ReceiptAttributeType = 21
)

// LookupReceiptAttribute returns false for tags this package does not model.
// Unknown tags are skipped, not rejected.
func LookupReceiptAttribute(tag int) (ReceiptAttributeType, bool) {
	switch t := ReceiptAttributeType(tag); t {
	case AttrBundleID, AttrApplicationVersion, AttrOpaqueValue, AttrSHA1Hash,
		AttrCreationDate, AttrInAppPurchase, AttrOriginalApplicationVersion,
		AttrExpirationDate:
		return t, true
	default:
		return 0, false
	}
}

// InAppPurchaseAttributeType is the type tag of an attribute inside an
// in-app purchase record.
type InAppPurchaseAttributeType int

const (
	AttrQuantity                   InAppPurchaseAttributeType = 1701
	AttrProductID                  InAppPurchaseAttributeType = 1702
	AttrTransactionID              InAppPurchaseAttributeType = 1703
	AttrPurchaseDate               InAppPurchaseAttributeType = 1704
	AttrOriginalTransactionID      InAppPurchaseAttributeType = 1705
	AttrOriginalPurchaseDate       InAppPurchaseAttributeType = 1706
	AttrProductType                InAppPurchaseAttributeType = 1707
	AttrExpiresDate                InAppPurchaseAttributeType = 1708
	AttrWebOrderLineItemID         InAppPurchaseAttributeType = 1711
	AttrCancellationDate           InAppPurchaseAttributeType = 1712
	AttrIsInTrialPeriod            InAppPurchaseAttributeType = 1713
	AttrIsInIntroOfferPeriod       InAppPurchaseAttributeType = 1719
	AttrPromotionalOfferIdentifier InAppPurchaseAttributeType = 1721
)

func LookupInAppPurchaseAttribute(tag int) (InAppPurchaseAttributeType, bool) {
	switch t := InAppPurchaseAttributeType(tag); t {
	case AttrQuantity, AttrProductID, AttrTransactionID, AttrPurchaseDate,
		AttrOriginalTransactionID, AttrOriginalPurchaseDate, AttrProductType,
		AttrExpiresDate, AttrWebOrderLineItemID, AttrCancellationDate,
		AttrIsInTrialPeriod, AttrIsInIntroOfferPeriod,
		AttrPromotionalOfferIdentifier:
		return t, true
	default:
		return 0, false
	}
}
