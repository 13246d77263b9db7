package ber

import "testing"

func TestBuildObjectIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    ObjectIdentifier
	}{
		{"signed data", []byte{0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x07, 0x02}, OIDSignedData},
		{"data", []byte{0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x07, 0x01}, OIDData},
		{"sha256", []byte{0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01}, "2.16.840.1.101.3.4.2.1"},
		{"first byte only", []byte{0x2B}, "1.3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildObjectIdentifier(tc.payload)
			if got == nil {
				t.Fatalf("expected an identifier")
			}
			if *got != tc.want {
				t.Fatalf("got %s, want %s", *got, tc.want)
			}
		})
	}
}

func TestBuildObjectIdentifierEmpty(t *testing.T) {
	if got := BuildObjectIdentifier(nil); got != nil {
		t.Fatalf("expected nil, got %s", *got)
	}
}
