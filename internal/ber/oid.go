package ber

import (
	"strconv"
	"strings"
)

// ObjectIdentifier is an OID in dotted decimal form.
type ObjectIdentifier string

// PKCS#7 content types (RFC 2315 section 14).
const (
	OIDData                   ObjectIdentifier = "1.2.840.113549.1.7.1"
	OIDSignedData             ObjectIdentifier = "1.2.840.113549.1.7.2"
	OIDEnvelopedData          ObjectIdentifier = "1.2.840.113549.1.7.3"
	OIDSignedAndEnvelopedData ObjectIdentifier = "1.2.840.113549.1.7.4"
	OIDDigestedData           ObjectIdentifier = "1.2.840.113549.1.7.5"
	OIDEncryptedData          ObjectIdentifier = "1.2.840.113549.1.7.6"
)

func (o ObjectIdentifier) String() string { return string(o) }

// BuildObjectIdentifier decodes the payload of an OBJECT IDENTIFIER
// container. It returns nil for an empty payload. A trailing arc with its
// continuation bit set is dropped.
func BuildObjectIdentifier(payload []byte) *ObjectIdentifier {
	if len(payload) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(int(payload[0] / 40)))
	sb.WriteByte('.')
	sb.WriteString(strconv.Itoa(int(payload[0] % 40)))

	var arc uint64
	for _, b := range payload[1:] {
		arc = arc<<7 | uint64(b&0x7f)
		if b&0x80 != 0 {
			continue
		}
		sb.WriteByte('.')
		sb.WriteString(strconv.FormatUint(arc, 10))
		arc = 0
	}
	oid := ObjectIdentifier(sb.String())
	return &oid
}
