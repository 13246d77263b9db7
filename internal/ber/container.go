package ber

import (
	"fmt"
	"math"
)

// Class is the two-bit ASN.1 tag class.
type Class uint8

const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

// EncodingType tells whether a container carries raw bytes or nested
// containers.
type EncodingType uint8

const (
	Primitive EncodingType = iota
	Constructed
)

// Identifier is the five-bit tag number of a container. Only the values
// listed below are accepted.
type Identifier uint8

const (
	TagEndOfContent     Identifier = 0
	TagBoolean          Identifier = 1
	TagInteger          Identifier = 2
	TagBitString        Identifier = 3
	TagOctetString      Identifier = 4
	TagNull             Identifier = 5
	TagObjectIdentifier Identifier = 6
	TagObjectDescriptor Identifier = 7
	TagExternal         Identifier = 8
	TagReal             Identifier = 9
	TagEnumerated       Identifier = 10
	TagEmbeddedPDV      Identifier = 11
	TagUTF8String       Identifier = 12
	TagRelativeOID      Identifier = 13
	TagSequence         Identifier = 16
	TagSet              Identifier = 17
	TagNumericString    Identifier = 18
	TagPrintableString  Identifier = 19
	TagT61String        Identifier = 20
	TagVideotexString   Identifier = 21
	TagIA5String        Identifier = 22
	TagUTCTime          Identifier = 23
	TagGeneralizedTime  Identifier = 24
	TagGraphicString    Identifier = 25
	TagVisibleString    Identifier = 26
	TagGeneralString    Identifier = 27
	TagUniversalString  Identifier = 28
	TagCharacterString  Identifier = 29
	TagBMPString        Identifier = 30
)

func (i Identifier) valid() bool {
	switch {
	case i <= TagRelativeOID:
		return true
	case i >= TagSequence && i <= TagBMPString:
		return true
	default:
		return false
	}
}

// LengthDefinition distinguishes lengths read from the header from lengths
// computed by scanning for an end-of-content marker.
type LengthDefinition uint8

const (
	Definite LengthDefinition = iota
	Indefinite
)

type Length struct {
	Value      int
	BytesUsed  int
	Definition LengthDefinition
}

// Container is one decoded node of an ASN.1 tree. Payload aliases the input
// slice passed to BuildContainer.
type Container struct {
	Class      Class
	Encoding   EncodingType
	Identifier Identifier
	Length     Length
	Payload    []byte
	Children   []Container
}

// TotalBytesUsed is the size of the container in its parent: identifier
// byte, length bytes and payload.
func (c Container) TotalBytesUsed() int {
	return 1 + c.Length.BytesUsed + c.Length.Value
}

// IsEndOfContent reports whether c is the universal end-of-content marker.
func (c Container) IsEndOfContent() bool {
	return c.Class == ClassUniversal && c.Identifier == TagEndOfContent
}

// BuildContainer decodes the container starting at payload[0]. Bytes after
// the container are ignored.
//
// A constructed container declaring a length of zero is read as indefinite
// length, which is how StoreKitTest receipts are encoded: its children are
// read until an end-of-content marker (or the end of the input) and its
// length is the sum of their sizes.
func BuildContainer(payload []byte) (Container, error) {
	if len(payload) < 2 {
		return Container{}, newError("payload needs to be at least 2 bytes long")
	}
	first := payload[0]
	class, err := extractClass(first)
	if err != nil {
		return Container{}, err
	}
	encoding, err := extractEncodingType(first)
	if err != nil {
		return Container{}, err
	}
	identifier, err := extractIdentifier(first)
	if err != nil {
		return Container{}, err
	}

	isConstructed := encoding == Constructed
	length, children, err := extractLengthAndChildren(payload[1:], isConstructed)
	if err != nil {
		return Container{}, err
	}

	metadata := 1 + length.BytesUsed
	if len(payload)-metadata < length.Value {
		return Container{}, newError("payload is shorter than length value")
	}
	end := metadata + length.Value

	return Container{
		Class:      class,
		Encoding:   encoding,
		Identifier: identifier,
		Length:     length,
		Payload:    payload[metadata:end:end],
		Children:   children,
	}, nil
}

func buildChildren(payload []byte) ([]Container, error) {
	var children []Container
	for len(payload) > 0 {
		child, err := BuildContainer(payload)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		if child.IsEndOfContent() {
			break
		}
		payload = payload[child.TotalBytesUsed():]
	}
	return children, nil
}

func extractClass(b byte) (Class, error) {
	bits, err := ValueInRange(b, 0, 1)
	if err != nil {
		return 0, newError(err.Error())
	}
	class := Class(bits)
	if class > ClassPrivate {
		return 0, newError("couldn't determine asn1 class")
	}
	return class, nil
}

func extractEncodingType(b byte) (EncodingType, error) {
	bit, err := BitAtIndex(b, 2)
	if err != nil {
		return 0, newError(err.Error())
	}
	return EncodingType(bit), nil
}

func extractIdentifier(b byte) (Identifier, error) {
	bits, err := ValueInRange(b, 3, 7)
	if err != nil {
		return 0, newError(err.Error())
	}
	identifier := Identifier(bits)
	if !identifier.valid() {
		return 0, newError(fmt.Sprintf("couldn't determine identifier %d", bits))
	}
	return identifier, nil
}

// extractLengthAndChildren reads the length header at the start of data and,
// for constructed containers, the children that follow it.
func extractLengthAndChildren(data []byte, isConstructed bool) (Length, []Container, error) {
	if len(data) == 0 {
		return Length{}, nil, newError("length needs to be at least one byte")
	}
	first := data[0]
	lengthBit, err := BitAtIndex(first, 0)
	if err != nil {
		return Length{}, nil, newError(err.Error())
	}
	firstValue, err := ValueInRange(first, 1, 7)
	if err != nil {
		return Length{}, nil, newError(err.Error())
	}

	length := Length{BytesUsed: 1, Definition: Definite}
	if lengthBit == 0 {
		length.Value = int(firstValue)
	} else {
		n := int(firstValue)
		if n > len(data)-1 {
			return Length{}, nil, newError("length bytes exceed payload")
		}
		if n > 8 {
			return Length{}, nil, newError(fmt.Sprintf("length encoded in %d bytes", n))
		}
		var v uint64
		for _, c := range data[1 : 1+n] {
			v = v<<8 | uint64(c)
		}
		if v > math.MaxInt32 {
			return Length{}, nil, newError("length value too large")
		}
		length.BytesUsed += n
		length.Value = int(v)
	}

	var children []Container
	switch {
	case isConstructed && length.Value == 0:
		length.Definition = Indefinite
		children, err = buildChildren(data[length.BytesUsed:])
		if err != nil {
			return Length{}, nil, err
		}
		for _, child := range children {
			length.Value += child.TotalBytesUsed()
		}
	case isConstructed:
		inner := data[length.BytesUsed:]
		if len(inner) < length.Value {
			return Length{}, nil, newError("payload is shorter than length value")
		}
		children, err = buildChildren(inner[:length.Value])
		if err != nil {
			return Length{}, nil, err
		}
	}
	return length, children, nil
}
