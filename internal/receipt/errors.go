package receipt

import (
	"errors"

	"github.com/vocdoni/gofirma/receiptparser/internal/ber"
)

// Kind classifies a parsing failure.
type Kind int

const (
	KindASN1Parsing Kind = iota + 1
	KindInAppPurchaseParsing
	KindReceiptParsing
)

func (k Kind) String() string {
	switch k {
	case KindASN1Parsing:
		return "asn1ParsingError"
	case KindInAppPurchaseParsing:
		return "inAppPurchaseParsingError"
	case KindReceiptParsing:
		return "receiptParsingError"
	default:
		return "unknownError"
	}
}

var (
	ErrDataObjectIdentifierMissing = errors.New("receipt data object identifier missing")

	ErrASN1Parsing          = &Error{Kind: KindASN1Parsing}
	ErrInAppPurchaseParsing = &Error{Kind: KindInAppPurchaseParsing}
	ErrReceiptParsing       = &Error{Kind: KindReceiptParsing}
)

// Error is returned by the builders. Two errors match under errors.Is when
// their kinds are equal, so callers can test against ErrReceiptParsing and
// friends.
type Error struct {
	Kind        Kind
	Description string
	Err         error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func asn1Error(err error) error {
	var berErr *ber.Error
	if errors.As(err, &berErr) {
		return &Error{Kind: KindASN1Parsing, Description: berErr.Description, Err: err}
	}
	return &Error{Kind: KindASN1Parsing, Err: err}
}

func receiptError(description string) error {
	return &Error{Kind: KindReceiptParsing, Description: description}
}

func purchaseError(description string) error {
	return &Error{Kind: KindInAppPurchaseParsing, Description: description}
}

// IsParseError reports whether err was raised while decoding the receipt
// contents, as opposed to reading or decoding its transport.
func IsParseError(err error) bool {
	return errors.Is(err, ErrDataObjectIdentifierMissing) ||
		errors.Is(err, ErrASN1Parsing) ||
		errors.Is(err, ErrInAppPurchaseParsing) ||
		errors.Is(err, ErrReceiptParsing)
}

// FriendlyError returns a user-facing message for receipt parsing failures.
func FriendlyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataObjectIdentifierMissing):
		return "The file is not an App Store receipt: no receipt payload was found."
	case errors.Is(err, ErrASN1Parsing):
		return "The receipt is corrupted or truncated and could not be decoded."
	case errors.Is(err, ErrInAppPurchaseParsing):
		return "A purchase record in the receipt is incomplete."
	case errors.Is(err, ErrReceiptParsing):
		return "The receipt is missing required information."
	default:
		return "Receipt parsing failed. Please verify the file and try again."
	}
}
