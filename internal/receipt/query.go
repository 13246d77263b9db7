package receipt

import (
	"sort"
	"time"
)

// purchaseExpirationTolerance is how far apart purchase and expiration may
// be while still counting as the same instant.
const purchaseExpirationTolerance = 5 * time.Second

// IsSubscription reports whether the purchase is a subscription. Older
// receipts do not carry a product type, in which case an expiration date is
// taken as the marker.
func (p InAppPurchase) IsSubscription() bool {
	switch p.ProductType {
	case ProductTypeNonRenewingSubscription, ProductTypeAutoRenewableSubscription:
		return true
	case ProductTypeUnknown:
		return p.ExpiresDate != nil
	default:
		return false
	}
}

func (p InAppPurchase) IsActiveSubscription(now time.Time) bool {
	return p.IsSubscription() && p.ExpiresDate != nil && p.ExpiresDate.After(now)
}

// PurchaseDateEqualsExpiration reports whether the purchase expired at the
// instant it was made. It is false for purchases without an expiration.
func (p InAppPurchase) PurchaseDateEqualsExpiration() bool {
	if p.ExpiresDate == nil {
		return false
	}
	d := p.ExpiresDate.Sub(p.PurchaseDate)
	if d < 0 {
		d = -d
	}
	return d <= purchaseExpirationTolerance
}

func (p InAppPurchase) usedIntroOrTrial() bool {
	return (p.IsInTrialPeriod != nil && *p.IsInTrialPeriod) ||
		(p.IsInIntroOfferPeriod != nil && *p.IsInIntroOfferPeriod)
}

// ContainsActivePurchase reports whether productID was bought as a
// non-subscription, or whether any subscription in the receipt is still
// active.
func (r AppleReceipt) ContainsActivePurchase(productID string, now time.Time) bool {
	for _, p := range r.InAppPurchases {
		if p.IsActiveSubscription(now) {
			return true
		}
		if !p.IsSubscription() && p.ProductID == productID {
			return true
		}
	}
	return false
}

// ActiveSubscriptionsProductIdentifiers returns the sorted, de-duplicated
// product identifiers of subscriptions active at now.
func (r AppleReceipt) ActiveSubscriptionsProductIdentifiers(now time.Time) []string {
	var ids []string
	for _, p := range r.InAppPurchases {
		if p.IsActiveSubscription(now) {
			ids = append(ids, p.ProductID)
		}
	}
	return uniqueSorted(ids)
}

func (r AppleReceipt) PurchasedIntroOfferOrFreeTrialProductIdentifiers() []string {
	var ids []string
	for _, p := range r.InAppPurchases {
		if p.usedIntroOrTrial() {
			ids = append(ids, p.ProductID)
		}
	}
	return uniqueSorted(ids)
}

// MostRecentActiveSubscription returns the active subscription with the
// latest purchase date.
func (r AppleReceipt) MostRecentActiveSubscription(now time.Time) (InAppPurchase, bool) {
	var (
		latest InAppPurchase
		found  bool
	)
	for _, p := range r.InAppPurchases {
		if !p.IsActiveSubscription(now) {
			continue
		}
		if !found || p.PurchaseDate.After(latest.PurchaseDate) {
			latest, found = p, true
		}
	}
	return latest, found
}

func uniqueSorted(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
