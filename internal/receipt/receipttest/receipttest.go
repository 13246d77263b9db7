// Package receipttest builds App Store receipt fixtures for tests.
package receipttest

import (
	"encoding/asn1"
	"strconv"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	oidData         = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidSignedData   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	oidSHA256       = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	tagExplicitZero = cbasn1.Tag(0).Constructed().ContextSpecific()
)

// Attribute is one receipt attribute. Value holds the DER encoding placed
// inside the attribute OCTET STRING. RawType, when set, is written as the
// contents of the type INTEGER instead of Type.
type Attribute struct {
	Type    int
	RawType []byte
	Version int
	Value   []byte
}

func build(f func(b *cryptobyte.Builder)) []byte {
	var b cryptobyte.Builder
	f(&b)
	return b.BytesOrPanic()
}

func Int(v int64) []byte {
	return build(func(b *cryptobyte.Builder) { b.AddASN1Int64(v) })
}

func UTF8(s string) []byte {
	return build(func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.UTF8String, func(b *cryptobyte.Builder) { b.AddBytes([]byte(s)) })
	})
}

func IA5(s string) []byte {
	return build(func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.IA5String, func(b *cryptobyte.Builder) { b.AddBytes([]byte(s)) })
	})
}

// Date encodes t the way Apple does, as an RFC 3339 IA5String.
func Date(t time.Time) []byte {
	return IA5(t.UTC().Format(time.RFC3339))
}

// EpochDate encodes seconds since the Unix epoch as a digit string.
func EpochDate(secs int64) []byte {
	return IA5(strconv.FormatInt(secs, 10))
}

func Bool(v bool) []byte {
	if v {
		return Int(1)
	}
	return Int(0)
}

func OctetString(content []byte) []byte {
	return build(func(b *cryptobyte.Builder) { b.AddASN1OctetString(content) })
}

// AttributeSet encodes attrs as SET OF SEQUENCE { type, version, value }.
func AttributeSet(attrs ...Attribute) []byte {
	return build(func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SET, func(b *cryptobyte.Builder) {
			for _, a := range attrs {
				b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
					if a.RawType != nil {
						b.AddASN1(cbasn1.INTEGER, func(b *cryptobyte.Builder) { b.AddBytes(a.RawType) })
					} else {
						b.AddASN1Int64(int64(a.Type))
					}
					b.AddASN1Int64(int64(a.Version))
					b.AddASN1OctetString(a.Value)
				})
			}
		})
	})
}

// ContentInfo wraps payload in an unsigned PKCS#7 SignedData ContentInfo
// with definite lengths.
func ContentInfo(payload []byte) []byte {
	return build(func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidSignedData)
			b.AddASN1(tagExplicitZero, func(b *cryptobyte.Builder) {
				b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1Int64(1)
					b.AddASN1(cbasn1.SET, func(b *cryptobyte.Builder) {
						b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
							b.AddASN1ObjectIdentifier(oidSHA256)
							b.AddASN1NULL()
						})
					})
					b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
						b.AddASN1ObjectIdentifier(oidData)
						b.AddASN1(tagExplicitZero, func(b *cryptobyte.Builder) {
							b.AddASN1OctetString(payload)
						})
					})
				})
			})
		})
	})
}

// DoubleWrappedContentInfo reproduces StoreKitTest receipts, where the
// attribute SET sits inside one more OCTET STRING.
func DoubleWrappedContentInfo(payload []byte) []byte {
	return ContentInfo(OctetString(payload))
}

// IndefiniteContentInfo encodes the same structure as
// DoubleWrappedContentInfo using indefinite lengths for every constructed
// node, as StoreKitTest does.
func IndefiniteContentInfo(payload []byte) []byte {
	oid := func(o asn1.ObjectIdentifier) []byte {
		return build(func(b *cryptobyte.Builder) { b.AddASN1ObjectIdentifier(o) })
	}
	digestAlgorithms := build(func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SET, func(b *cryptobyte.Builder) {
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(oidSHA256)
				b.AddASN1NULL()
			})
		})
	})
	eoc := []byte{0x00, 0x00}

	var out []byte
	out = append(out, 0x30, 0x80)
	out = append(out, oid(oidSignedData)...)
	out = append(out, 0xA0, 0x80)
	out = append(out, 0x30, 0x80)
	out = append(out, Int(1)...)
	out = append(out, digestAlgorithms...)
	out = append(out, 0x30, 0x80)
	out = append(out, oid(oidData)...)
	out = append(out, 0xA0, 0x80)
	out = append(out, OctetString(OctetString(payload))...)
	for i := 0; i < 5; i++ {
		out = append(out, eoc...)
	}
	return out
}
