package envelope

import (
	"crypto/sha1"
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"

	"github.com/vocdoni/gofirma/receiptparser/internal/receipt"
)

var ErrHashMismatch = errors.New("receipt hash does not match this device")

// ValidateHash checks that r was issued for deviceID: the SHA-1 of the
// device identifier bytes, the opaque value and the encoded bundle id must
// equal the hash stored in the receipt.
func ValidateHash(r receipt.AppleReceipt, deviceID uuid.UUID) error {
	h := sha1.New()
	h.Write(deviceID[:])
	h.Write(r.OpaqueValue)
	h.Write(r.BundleIDData)
	if subtle.ConstantTimeCompare(h.Sum(nil), r.SHA1Hash) != 1 {
		return ErrHashMismatch
	}
	return nil
}
