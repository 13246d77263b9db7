// Package envelope handles the PKCS#7 signature wrapped around App Store
// receipts: decoding, chain verification and the device hash check.
package envelope

import (
	"bytes"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/containerd/log"
	"github.com/smallstep/pkcs7"
)

var (
	ErrEmpty       = errors.New("receipt is empty")
	ErrNoSigner    = errors.New("receipt has no single signer")
	ErrNoContent   = errors.New("receipt has no signed content")
	ErrNoRootCerts = errors.New("no certificates found in root file")
)

type Envelope struct {
	// Raw is the DER ContentInfo, suitable for receipt.Parser.
	Raw          []byte
	Content      []byte
	Certificates []*x509.Certificate

	p7 *pkcs7.PKCS7
}

// Decode returns the DER bytes of a receipt read from disk. Base64 input,
// as stored by StoreKit or sent to the verifyReceipt endpoint, is decoded.
func Decode(raw []byte) ([]byte, error) {
	if len(raw) > 0 && raw[0] == 0x30 {
		return raw, nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrEmpty
	}
	der, err := base64.StdEncoding.DecodeString(string(bytes.Join(bytes.Fields(raw), nil)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 receipt: %w", err)
	}
	return der, nil
}

func Open(raw []byte) (*Envelope, error) {
	der, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	p7, err := pkcs7.Parse(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS#7: %w", err)
	}
	log.L.Debugf("opened receipt envelope: content=%d bytes certs=%d", len(p7.Content), len(p7.Certificates))
	return &Envelope{
		Raw:          der,
		Content:      p7.Content,
		Certificates: p7.Certificates,
		p7:           p7,
	}, nil
}

// Verify checks the signature and that the signer chains up to roots.
func (e *Envelope) Verify(roots *x509.CertPool) error {
	if len(e.Content) == 0 {
		return ErrNoContent
	}
	if err := e.p7.VerifyWithChain(roots); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

func (e *Envelope) Signer() (*x509.Certificate, error) {
	cert := e.p7.GetOnlySigner()
	if cert == nil {
		return nil, ErrNoSigner
	}
	return cert, nil
}

// LoadRoots reads PEM or DER certificates from path into a pool.
func LoadRoots(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read root certificate: %w", err)
	}

	pool := x509.NewCertPool()
	found := 0
	for rest := data; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse root certificate: %w", err)
		}
		pool.AddCert(cert)
		found++
	}
	if found == 0 {
		cert, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, ErrNoRootCerts
		}
		pool.AddCert(cert)
	}
	return pool, nil
}
