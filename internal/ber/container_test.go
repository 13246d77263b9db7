package ber

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"pgregory.net/rapid"
)

var primitivePayload = []byte{0x01, 0x05}

func withIDByte(id byte, rest []byte) []byte {
	return append([]byte{id}, rest...)
}

func TestBuildContainerExtractsClass(t *testing.T) {
	tests := []struct {
		idByte byte
		want   Class
	}{
		{0b00000010, ClassUniversal},
		{0b01000010, ClassApplication},
		{0b10000010, ClassContextSpecific},
		{0b11000010, ClassPrivate},
	}
	for _, tc := range tests {
		c, err := BuildContainer(withIDByte(tc.idByte, primitivePayload))
		assert.NilError(t, err)
		assert.Equal(t, c.Class, tc.want)
	}
}

func TestBuildContainerExtractsEncoding(t *testing.T) {
	c, err := BuildContainer(withIDByte(0x02, primitivePayload))
	assert.NilError(t, err)
	assert.Equal(t, c.Encoding, Primitive)
	assert.Check(t, is.Len(c.Children, 0))

	c, err = BuildContainer([]byte{0x30, 0x03, 0x02, 0x01, 0x05})
	assert.NilError(t, err)
	assert.Equal(t, c.Encoding, Constructed)
	assert.Check(t, is.Len(c.Children, 1))
}

func TestBuildContainerExtractsIdentifier(t *testing.T) {
	for id := byte(0); id < 32; id++ {
		c, err := BuildContainer(withIDByte(id, primitivePayload))
		switch id {
		case 14, 15, 31:
			assert.Check(t, errors.Is(err, ErrMalformed), "identifier %d", id)
		default:
			assert.NilError(t, err, "identifier %d", id)
			assert.Equal(t, c.Identifier, Identifier(id))
		}
	}
}

func TestBuildContainerShortLength(t *testing.T) {
	c, err := BuildContainer([]byte{0x04, 0x03, 0xAA, 0xBB, 0xCC, 0xDD})
	assert.NilError(t, err)
	assert.Equal(t, c.Length, Length{Value: 3, BytesUsed: 1, Definition: Definite})
	assert.Check(t, is.DeepEqual(c.Payload, []byte{0xAA, 0xBB, 0xCC}))
	assert.Equal(t, c.TotalBytesUsed(), 5)
}

func TestBuildContainerLongLength(t *testing.T) {
	body := bytes.Repeat([]byte{0x07}, 300)
	payload := append([]byte{0x04, 0x82, 0x01, 0x2C}, body...)

	c, err := BuildContainer(payload)
	assert.NilError(t, err)
	assert.Equal(t, c.Length, Length{Value: 300, BytesUsed: 3, Definition: Definite})
	assert.Equal(t, c.TotalBytesUsed(), 304)
	assert.Check(t, is.DeepEqual(c.Payload, body))
}

func TestBuildContainerRejectsShortInput(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"single byte", []byte{0x04}},
		{"payload shorter than length", []byte{0x04, 0x05, 0x01, 0x02}},
		{"length bytes missing", []byte{0x04, 0x84, 0x01}},
		{"child overruns parent", []byte{0x30, 0x03, 0x04, 0x05, 0x01}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildContainer(tc.payload)
			assert.Check(t, errors.Is(err, ErrMalformed), "got %v", err)

			var asnErr *Error
			assert.Assert(t, errors.As(err, &asnErr))
			assert.Assert(t, asnErr.Description != "")
		})
	}
}

func TestBuildContainerConstructedChildren(t *testing.T) {
	payload := []byte{
		0x30, 0x0A,
		0x02, 0x01, 0x01,
		0x0C, 0x02, 'h', 'i',
		0x04, 0x01, 0xFF,
	}
	c, err := BuildContainer(payload)
	assert.NilError(t, err)
	assert.Equal(t, c.Identifier, TagSequence)
	assert.Assert(t, is.Len(c.Children, 3))
	assert.Equal(t, c.Children[0].Identifier, TagInteger)
	assert.Equal(t, c.Children[1].Identifier, TagUTF8String)
	assert.Equal(t, string(c.Children[1].Payload), "hi")
	assert.Equal(t, c.Children[2].Identifier, TagOctetString)
}

func TestBuildContainerIndefiniteLength(t *testing.T) {
	payload := []byte{
		0x20, 0x80,
		0x01, 0x04, 0x01, 0x01, 0x01, 0x01,
		0x01, 0x06, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01,
	}
	c, err := BuildContainer(payload)
	assert.NilError(t, err)
	assert.Equal(t, c.Length, Length{Value: 14, BytesUsed: 1, Definition: Indefinite})
	assert.Assert(t, is.Len(c.Children, 2))
	assert.Equal(t, c.Children[0].Length.Value, 4)
	assert.Equal(t, c.Children[1].Length.Value, 6)
}

func TestBuildContainerIndefiniteStopsAtEndOfContent(t *testing.T) {
	payload := []byte{
		0x30, 0x80,
		0x02, 0x01, 0x05,
		0x00, 0x00,
		0xFF, 0xFF,
	}
	c, err := BuildContainer(payload)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(c.Children, 2))
	assert.Assert(t, c.Children[1].IsEndOfContent())
	assert.Equal(t, c.Length.Value, 5)
	assert.Equal(t, c.TotalBytesUsed(), 7)
}

func TestBuildContainerContextSpecificZeroIsNotEndOfContent(t *testing.T) {
	payload := []byte{
		0x30, 0x80,
		0x80, 0x01, 0x07,
		0x02, 0x01, 0x05,
		0x00, 0x00,
	}
	c, err := BuildContainer(payload)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(c.Children, 3))
	assert.Equal(t, c.Children[0].Class, ClassContextSpecific)
	assert.Assert(t, !c.Children[0].IsEndOfContent())
}

func TestIndefiniteMatchesDefiniteEncoding(t *testing.T) {
	children := []byte{
		0x02, 0x01, 0x05,
		0x04, 0x01, 0x09,
		0x00, 0x00,
	}
	definite, err := BuildContainer(append([]byte{0x30, byte(len(children))}, children...))
	assert.NilError(t, err)
	indefinite, err := BuildContainer(append([]byte{0x30, 0x80}, children...))
	assert.NilError(t, err)

	if diff := cmp.Diff(definite.Children, indefinite.Children); diff != "" {
		t.Fatalf("children differ (-definite +indefinite):\n%s", diff)
	}
	assert.Equal(t, indefinite.Length.Value, definite.Length.Value)
	assert.Equal(t, indefinite.TotalBytesUsed(), definite.TotalBytesUsed())
	assert.Equal(t, indefinite.Length.Definition, Indefinite)
}

// encodeLength writes L in DER form: short form below 128, otherwise the
// minimal long form.
func encodeLength(l int) []byte {
	if l < 0x80 {
		return []byte{byte(l)}
	}
	var be []byte
	for v := l; v > 0; v >>= 8 {
		be = append([]byte{byte(v)}, be...)
	}
	return append([]byte{0x80 | byte(len(be))}, be...)
}

func TestLengthRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := rapid.IntRange(0, 1<<17).Draw(t, "length")
		header := append([]byte{0x04}, encodeLength(l)...)
		payload := append(header, make([]byte, l)...)

		c, err := BuildContainer(payload)
		if err != nil {
			t.Fatalf("BuildContainer: %v", err)
		}
		if c.Length.Value != l {
			t.Fatalf("decoded length %d, want %d", c.Length.Value, l)
		}
		if c.Length.BytesUsed != len(header)-1 {
			t.Fatalf("length bytes %d, want %d", c.Length.BytesUsed, len(header)-1)
		}
		if c.TotalBytesUsed() != len(payload) {
			t.Fatalf("total bytes %d, want %d", c.TotalBytesUsed(), len(payload))
		}
	})
}

func FuzzBuildContainer(f *testing.F) {
	f.Add([]byte{0x30, 0x03, 0x02, 0x01, 0x05})
	f.Add([]byte{0x30, 0x80, 0x02, 0x01, 0x05, 0x00, 0x00})
	f.Add([]byte{0x04, 0x82, 0x01, 0x00})
	f.Fuzz(func(t *testing.T, data []byte) {
		c, err := BuildContainer(data)
		if err != nil {
			return
		}
		if c.TotalBytesUsed() > len(data) {
			t.Fatalf("container claims %d bytes of a %d byte input", c.TotalBytesUsed(), len(data))
		}
	})
}
