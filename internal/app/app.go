// Package app wires the receipt parser to configuration, storage and
// signature verification for the command line tools.
package app

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/containerd/log"
	"github.com/google/uuid"

	"github.com/vocdoni/gofirma/receiptparser/internal/config"
	"github.com/vocdoni/gofirma/receiptparser/internal/eligibility"
	"github.com/vocdoni/gofirma/receiptparser/internal/envelope"
	"github.com/vocdoni/gofirma/receiptparser/internal/receipt"
	"github.com/vocdoni/gofirma/receiptparser/internal/storage"
	"github.com/vocdoni/gofirma/receiptparser/internal/version"
)

var (
	ErrBundleMismatch = errors.New("receipt bundle identifier does not match")
	ErrNoRoots        = errors.New("apple_root_cert is not configured")
)

type App struct {
	Config      config.Config
	Parser      *receipt.Parser
	Cache       *storage.Cache
	AuditLogger *storage.AuditLogger
}

// Options tweak NewApp. NoCache skips opening the bbolt cache.
type Options struct {
	NoCache bool
}

func NewApp(cfg config.Config, opts Options) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	audit, err := storage.NewAuditLogger(cfg.AuditDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit logger: %w", err)
	}

	a := &App{
		Config:      cfg,
		Parser:      receipt.NewParser(),
		AuditLogger: audit,
	}
	if !opts.NoCache && cfg.CachePath != "" {
		cache, err := storage.OpenCache(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open receipt cache: %w", err)
		}
		a.Cache = cache
	}
	return a, nil
}

func (a *App) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}

// Report is the outcome of parsing one receipt.
type Report struct {
	Receipt receipt.AppleReceipt `json:"receipt"`
	Hash    string               `json:"hash"`
	Cached  bool                 `json:"cached"`
	// Outdated is set when the receipt was issued for an application
	// version older than min_app_version.
	Outdated bool `json:"outdated,omitempty"`
}

// Parse decodes a DER or base64 receipt, consulting the cache first.
func (a *App) Parse(ctx context.Context, raw []byte) (Report, error) {
	der, err := envelope.Decode(raw)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Hash: storage.Key(der)}
	logger := log.G(ctx).WithField("receipt", rep.Hash[:12])

	if a.Cache != nil {
		if r, err := a.Cache.Get(rep.Hash); err == nil {
			rep.Receipt, rep.Cached = r, true
		} else if !errors.Is(err, storage.ErrNotCached) {
			logger.WithError(err).Warn("receipt cache lookup failed")
		}
	}
	if !rep.Cached {
		rep.Receipt, err = a.Parser.Parse(der)
		if err != nil {
			a.audit(ctx, storage.AuditEntry{Operation: "parse", ReceiptHash: rep.Hash, Status: storage.StatusRejected, Error: err.Error()})
			return Report{}, err
		}
		if a.Cache != nil {
			if err := a.Cache.Put(rep.Hash, rep.Receipt); err != nil {
				logger.WithError(err).Warn("failed to cache receipt")
			}
		}
	}

	if want := a.Config.ExpectedBundleID; want != "" && rep.Receipt.BundleID != want {
		err := fmt.Errorf("%w: got %q, want %q", ErrBundleMismatch, rep.Receipt.BundleID, want)
		a.audit(ctx, storage.AuditEntry{Operation: "parse", ReceiptHash: rep.Hash, BundleID: rep.Receipt.BundleID, Status: storage.StatusRejected, Error: err.Error()})
		return Report{}, err
	}
	if a.Config.MinAppVersion != "" {
		rep.Outdated = version.IsOutdated(rep.Receipt.ApplicationVersion, a.Config.MinAppVersion)
	}

	logger.WithField("purchases", len(rep.Receipt.InAppPurchases)).Debug("receipt ready")
	a.audit(ctx, storage.AuditEntry{
		Operation:     "parse",
		ReceiptHash:   rep.Hash,
		BundleID:      rep.Receipt.BundleID,
		PurchaseCount: len(rep.Receipt.InAppPurchases),
		Cached:        rep.Cached,
		Status:        storage.StatusParsed,
	})
	return rep, nil
}

// Eligibility parses raw and reports intro offer eligibility for products,
// using the configured product catalog. A receipt that fails to parse or is
// rejected yields StatusUnknown for every product together with the error.
func (a *App) Eligibility(ctx context.Context, raw []byte, products []string) (map[string]eligibility.Status, error) {
	parse := eligibility.ParserFunc(func(data []byte) (receipt.AppleReceipt, error) {
		rep, err := a.Parse(ctx, data)
		return rep.Receipt, err
	})
	return eligibility.NewChecker(parse, a.Config.ProductGroups()).CheckData(raw, products, time.Now())
}

type Verification struct {
	Signer    envelope.SignerInfo `json:"signer"`
	HashValid *bool               `json:"hashValid,omitempty"`
}

// Verify checks the receipt signature against the configured roots and,
// when a device id is configured, the receipt hash.
func (a *App) Verify(ctx context.Context, raw []byte) (Verification, error) {
	if a.Config.AppleRootCert == "" {
		return Verification{}, ErrNoRoots
	}
	roots, err := envelope.LoadRoots(a.Config.AppleRootCert)
	if err != nil {
		return Verification{}, err
	}
	return a.verify(ctx, raw, roots)
}

func (a *App) verify(ctx context.Context, raw []byte, roots *x509.CertPool) (Verification, error) {
	env, err := envelope.Open(raw)
	if err != nil {
		return Verification{}, err
	}
	hash := storage.Key(env.Raw)
	if err := env.Verify(roots); err != nil {
		a.audit(ctx, storage.AuditEntry{Operation: "verify", ReceiptHash: hash, Status: storage.StatusRejected, Error: err.Error()})
		return Verification{}, err
	}
	signer, err := env.Signer()
	if err != nil {
		return Verification{}, err
	}
	res := Verification{Signer: envelope.SignerSummary(signer)}

	if a.Config.DeviceID != "" {
		deviceID, err := uuid.Parse(a.Config.DeviceID)
		if err != nil {
			return Verification{}, fmt.Errorf("invalid device_id: %w", err)
		}
		rep, err := a.Parse(ctx, env.Raw)
		if err != nil {
			return Verification{}, err
		}
		valid := envelope.ValidateHash(rep.Receipt, deviceID) == nil
		res.HashValid = &valid
	}

	log.G(ctx).WithField("signer", res.Signer.CommonName).Debug("receipt signature verified")
	a.audit(ctx, storage.AuditEntry{Operation: "verify", ReceiptHash: hash, Status: storage.StatusVerified})
	return res, nil
}

func (a *App) audit(ctx context.Context, entry storage.AuditEntry) {
	if err := a.AuditLogger.Log(entry); err != nil {
		log.G(ctx).WithError(err).Warn("failed to write audit entry")
	}
}
