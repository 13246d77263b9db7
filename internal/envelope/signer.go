package envelope

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"strings"
)

var (
	oidCommonName         = asn1.ObjectIdentifier{2, 5, 4, 3}
	oidOrganization       = asn1.ObjectIdentifier{2, 5, 4, 10}
	oidOrganizationalUnit = asn1.ObjectIdentifier{2, 5, 4, 11}
	oidCountry            = asn1.ObjectIdentifier{2, 5, 4, 6}
)

// SignerInfo is a display summary of a signing certificate.
type SignerInfo struct {
	CommonName         string `json:"commonName"`
	Organization       string `json:"organization,omitempty"`
	OrganizationalUnit string `json:"organizationalUnit,omitempty"`
	Country            string `json:"country,omitempty"`
	Issuer             string `json:"issuer"`
	ValidFrom          string `json:"validFrom"`
	ValidUntil         string `json:"validUntil"`
	Fingerprint        string `json:"fingerprint"`
}

func SignerSummary(cert *x509.Certificate) SignerInfo {
	sum := sha256.Sum256(cert.Raw)
	info := SignerInfo{
		Issuer:      normalizeSpace(cert.Issuer.CommonName),
		ValidFrom:   cert.NotBefore.UTC().Format("2006-01-02"),
		ValidUntil:  cert.NotAfter.UTC().Format("2006-01-02"),
		Fingerprint: hex.EncodeToString(sum[:]),
	}
	for _, name := range cert.Subject.Names {
		val, ok := name.Value.(string)
		if !ok {
			continue
		}
		val = normalizeSpace(val)
		switch {
		case name.Type.Equal(oidCommonName):
			info.CommonName = val
		case name.Type.Equal(oidOrganization):
			info.Organization = val
		case name.Type.Equal(oidOrganizationalUnit):
			info.OrganizationalUnit = val
		case name.Type.Equal(oidCountry):
			info.Country = val
		}
	}
	if info.CommonName == "" {
		info.CommonName = normalizeSpace(cert.Subject.CommonName)
	}
	return info
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
