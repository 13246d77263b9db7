package receipt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"

	"github.com/vocdoni/gofirma/receiptparser/internal/ber"
	"github.com/vocdoni/gofirma/receiptparser/internal/receipt/receipttest"
)

func buildPurchase(t *testing.T, attrs ...receipttest.Attribute) (InAppPurchase, error) {
	t.Helper()
	c, err := ber.BuildContainer(receipttest.AttributeSet(attrs...))
	assert.NilError(t, err)
	return NewInAppPurchaseBuilder().Build(c)
}

func TestInAppPurchaseMinimalRoundTrip(t *testing.T) {
	got, err := buildPurchase(t,
		receipttest.Attribute{Type: 1701, Version: 1, Value: receipttest.Int(1)},
		receipttest.Attribute{Type: 1702, Version: 1, Value: receipttest.UTF8("com.example.pro")},
		receipttest.Attribute{Type: 1703, Version: 1, Value: receipttest.UTF8("1000000123456789")},
		receipttest.Attribute{Type: 1704, Version: 1, Value: receipttest.EpochDate(1709296200)},
	)
	assert.NilError(t, err)

	want := InAppPurchase{
		Quantity:      1,
		ProductID:     "com.example.pro",
		TransactionID: "1000000123456789",
		ProductType:   ProductTypeUnknown,
		PurchaseDate:  time.Unix(1709296200, 0).UTC(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected purchase (-want +got):\n%s", diff)
	}
}

func TestInAppPurchaseOptionalFields(t *testing.T) {
	purchased := time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	original := purchased.Add(-90 * 24 * time.Hour)
	expires := purchased.Add(7 * 24 * time.Hour)
	cancelled := purchased.Add(24 * time.Hour)
	nonRenewing := 2
	orderID := int64(1000000087654321)
	yes, no := true, false

	fx := receipttest.Purchase{
		Quantity:              2,
		ProductID:             "com.example.weekly",
		TransactionID:         "2000000000000002",
		PurchaseDate:          purchased,
		OriginalTransactionID: "2000000000000001",
		OriginalPurchaseDate:  &original,
		ProductType:           &nonRenewing,
		ExpiresDate:           &expires,
		WebOrderLineItemID:    &orderID,
		CancellationDate:      &cancelled,
		IsInTrialPeriod:       &no,
		IsInIntroOfferPeriod:  &yes,
		PromotionalOfferID:    "spring_promo",
	}
	got, err := buildPurchase(t, fx.Attributes()...)
	assert.NilError(t, err)

	origTx, promo := "2000000000000001", "spring_promo"
	want := InAppPurchase{
		Quantity:                   2,
		ProductID:                  "com.example.weekly",
		TransactionID:              "2000000000000002",
		OriginalTransactionID:      &origTx,
		ProductType:                ProductTypeNonRenewingSubscription,
		PurchaseDate:               purchased,
		OriginalPurchaseDate:       &original,
		ExpiresDate:                &expires,
		CancellationDate:           &cancelled,
		IsInTrialPeriod:            &no,
		IsInIntroOfferPeriod:       &yes,
		WebOrderLineItemID:         &orderID,
		PromotionalOfferIdentifier: &promo,
	}
	assert.DeepEqual(t, got, want)
}

func TestInAppPurchaseSkipsEmptyValues(t *testing.T) {
	fx := receipttest.Purchase{
		Quantity:      1,
		ProductID:     "com.example.pro",
		TransactionID: "1",
		PurchaseDate:  time.Unix(0, 0),
		Extra: []receipttest.Attribute{
			{Type: 1708, Version: 1, Value: receipttest.IA5("")},
			{Type: 1721, Version: 1, Value: receipttest.UTF8("")},
		},
	}
	got, err := buildPurchase(t, fx.Attributes()...)
	assert.NilError(t, err)
	assert.Check(t, got.ExpiresDate == nil)
	assert.Check(t, got.PromotionalOfferIdentifier == nil)
}

func TestInAppPurchaseUnknownProductType(t *testing.T) {
	weird := 9
	fx := receipttest.Purchase{
		Quantity:      1,
		ProductID:     "p",
		TransactionID: "t",
		PurchaseDate:  time.Unix(0, 0),
		ProductType:   &weird,
	}
	got, err := buildPurchase(t, fx.Attributes()...)
	assert.NilError(t, err)
	assert.Equal(t, got.ProductType, ProductTypeUnknown)
}

func TestInAppPurchaseRequiredFields(t *testing.T) {
	base := receipttest.Purchase{
		Quantity:      1,
		ProductID:     "p",
		TransactionID: "t",
		PurchaseDate:  time.Unix(0, 0),
	}.Attributes()

	for i := range base {
		var attrs []receipttest.Attribute
		attrs = append(attrs, base[:i]...)
		attrs = append(attrs, base[i+1:]...)

		_, err := buildPurchase(t, attrs...)
		assert.Check(t, errors.Is(err, ErrInAppPurchaseParsing), "without tag %d: %v", base[i].Type, err)
	}
}

func TestInAppPurchaseRejectsMalformedAttribute(t *testing.T) {
	// SET { SEQUENCE { INTEGER 1701, INTEGER 1 } }
	c, err := ber.BuildContainer([]byte{0x31, 0x09, 0x30, 0x07, 0x02, 0x02, 0x06, 0xA5, 0x02, 0x01, 0x01})
	assert.NilError(t, err)

	_, err = NewInAppPurchaseBuilder().Build(c)
	assert.Check(t, errors.Is(err, ErrInAppPurchaseParsing), "got %v", err)
}

type stubPurchaseBuilder struct {
	calls int
}

func (s *stubPurchaseBuilder) Build(ber.Container) (InAppPurchase, error) {
	s.calls++
	return InAppPurchase{ProductID: "stub"}, nil
}

func receiptPayloadContainer(t *testing.T, payload []byte) ber.Container {
	t.Helper()
	c, err := ber.BuildContainer(receipttest.ContentInfo(payload))
	assert.NilError(t, err)
	found, ok := findDataContainer(c)
	assert.Assert(t, ok)
	return found
}

func TestReceiptBuilderDelegatesPurchases(t *testing.T) {
	fx := receipttest.Sample()
	fx.Purchases = append(fx.Purchases, fx.Purchases[0], fx.Purchases[0])

	stub := &stubPurchaseBuilder{}
	got, err := NewReceiptBuilder(stub).Build(receiptPayloadContainer(t, fx.Payload()))
	assert.NilError(t, err)
	assert.Equal(t, stub.calls, 3)
	assert.Equal(t, len(got.InAppPurchases), 3)
	assert.Equal(t, got.InAppPurchases[2].ProductID, "stub")
}

func TestReceiptBuilderOptionalFields(t *testing.T) {
	expiration := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	fx := receipttest.Sample()
	fx.OriginalApplicationVersion = ""
	fx.ExpirationDate = &expiration

	got, err := NewReceiptBuilder(nil).Build(receiptPayloadContainer(t, fx.Payload()))
	assert.NilError(t, err)
	assert.Check(t, got.OriginalApplicationVersion == nil)
	assert.Assert(t, got.ExpirationDate != nil)
	assert.Check(t, got.ExpirationDate.Equal(expiration))
}

func TestReceiptBuilderEmptyContainer(t *testing.T) {
	_, err := NewReceiptBuilder(nil).Build(ber.Container{})
	assert.Check(t, errors.Is(err, ErrReceiptParsing))
}

func TestProductTypeText(t *testing.T) {
	for _, pt := range []ProductType{
		ProductTypeUnknown, ProductTypeNonConsumable, ProductTypeConsumable,
		ProductTypeNonRenewingSubscription, ProductTypeAutoRenewableSubscription,
	} {
		text, err := pt.MarshalText()
		assert.NilError(t, err)

		var back ProductType
		assert.NilError(t, back.UnmarshalText(text))
		assert.Equal(t, back, pt)
	}

	var pt ProductType
	assert.NilError(t, pt.UnmarshalText([]byte("1")))
	assert.Equal(t, pt, ProductTypeConsumable)
	assert.ErrorContains(t, pt.UnmarshalText([]byte("gift")), "unknown product type")
}
