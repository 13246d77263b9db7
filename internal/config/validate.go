package config

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vocdoni/gofirma/receiptparser/internal/version"
)

// Validate checks field formats. Every field is optional.
func Validate(cfg Config) error {
	if cfg.DeviceID != "" {
		if _, err := uuid.Parse(cfg.DeviceID); err != nil {
			return fmt.Errorf("invalid device_id %q: %w", cfg.DeviceID, err)
		}
	}
	if cfg.MinAppVersion != "" && !version.Valid(cfg.MinAppVersion) {
		return fmt.Errorf("invalid min_app_version %q", cfg.MinAppVersion)
	}
	if cfg.LogLevel != "" {
		if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level: %w", err)
		}
	}
	if cfg.AuditDir == "" {
		return errors.New("audit_dir must be set")
	}

	seen := make(map[string]string)
	for group, products := range cfg.SubscriptionGroups {
		if group == "" {
			return errors.New("subscription_groups must not contain an empty group name")
		}
		for _, p := range products {
			if other, ok := seen[p]; ok && other != group {
				return fmt.Errorf("product %q is listed in subscription groups %q and %q", p, other, group)
			}
			seen[p] = group
		}
	}
	for _, p := range cfg.Products {
		if group, ok := seen[p]; ok {
			return fmt.Errorf("product %q is listed in products and in subscription group %q", p, group)
		}
	}
	return nil
}
