package receipt

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/containerd/log"
	"github.com/sirupsen/logrus"

	"github.com/vocdoni/gofirma/receiptparser/internal/ber"
)

// Builder turns the container following the data object identifier into a
// receipt.
type Builder interface {
	Build(c ber.Container) (AppleReceipt, error)
}

// Parser locates the receipt payload in a PKCS#7 container and hands it to
// a Builder. It does not check signatures.
type Parser struct {
	builder Builder
	logger  logrus.FieldLogger
}

// Option configures a Parser.
type Option func(*Parser)

// WithBuilder replaces the default ReceiptBuilder.
func WithBuilder(b Builder) Option {
	return func(p *Parser) { p.builder = b }
}

// WithLogger sets the logger used for debug traces. It defaults to log.L.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Parser) { p.logger = l }
}

// NewParser returns a Parser using a ReceiptBuilder unless opts say otherwise.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		builder: NewReceiptBuilder(nil),
		logger:  log.L,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse decodes raw receipt bytes starting at the PKCS#7 ContentInfo.
func (p *Parser) Parse(data []byte) (AppleReceipt, error) {
	p.logger.WithField("bytes", len(data)).Debug("parsing receipt")

	root, err := ber.BuildContainer(data)
	if err != nil {
		return AppleReceipt{}, asn1Error(err)
	}
	payload, ok := findDataContainer(root)
	if !ok {
		return AppleReceipt{}, ErrDataObjectIdentifierMissing
	}
	r, err := p.builder.Build(payload)
	if err != nil {
		p.logger.WithError(err).Debug("receipt payload rejected")
		return AppleReceipt{}, err
	}
	p.logger.WithFields(logrus.Fields{
		"bundleId":  r.BundleID,
		"purchases": len(r.InAppPurchases),
	}).Debug("receipt parsed")
	return r, nil
}

// ParseBase64 decodes a base64 receipt as stored on device or sent to the
// App Store. Whitespace and line breaks are ignored.
func (p *Parser) ParseBase64(s string) (AppleReceipt, error) {
	data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return AppleReceipt{}, fmt.Errorf("failed to decode base64 receipt: %w", err)
	}
	return p.Parse(data)
}

// ReceiptHasTransactions reports whether the receipt lists any purchase. A
// receipt that fails to parse is assumed to have transactions.
func (p *Parser) ReceiptHasTransactions(data []byte) bool {
	r, err := p.Parse(data)
	if err != nil {
		p.logger.WithError(err).Warn("could not parse receipt, assuming it has transactions")
		return true
	}
	return len(r.InAppPurchases) > 0
}

// findDataContainer walks constructed nodes depth-first and returns the
// sibling following the first data object identifier.
func findDataContainer(c ber.Container) (ber.Container, bool) {
	for i, child := range c.Children {
		if child.Identifier == ber.TagObjectIdentifier && child.Class == ber.ClassUniversal {
			oid := ber.BuildObjectIdentifier(child.Payload)
			if oid != nil && *oid == ber.OIDData && i+1 < len(c.Children) {
				return c.Children[i+1], true
			}
			continue
		}
		if child.Encoding == ber.Constructed {
			if found, ok := findDataContainer(child); ok {
				return found, true
			}
		}
	}
	return ber.Container{}, false
}
