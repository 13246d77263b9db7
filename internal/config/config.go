// Package config loads the receiptparser YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	// AppleRootCert is a PEM or DER file with the roots trusted for
	// receipt signatures.
	AppleRootCert    string `yaml:"apple_root_cert"`
	DeviceID         string `yaml:"device_id"`
	MinAppVersion    string `yaml:"min_app_version"`
	ExpectedBundleID string `yaml:"expected_bundle_id"`
	CachePath        string `yaml:"cache_path"`
	AuditDir         string `yaml:"audit_dir"`
	LogLevel         string `yaml:"log_level"`

	// SubscriptionGroups maps a group name to its product identifiers.
	SubscriptionGroups map[string][]string `yaml:"subscription_groups"`
	// Products lists offered products that belong to no subscription group.
	Products []string `yaml:"products"`
}

// Default returns a configuration rooted at ~/.receiptparser.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get home dir: %w", err)
	}
	dataDir := filepath.Join(home, ".receiptparser")
	return Config{
		CachePath: filepath.Join(dataDir, "cache.db"),
		AuditDir:  dataDir,
		LogLevel:  "info",
	}, nil
}

// ProductGroups inverts SubscriptionGroups into product → group. Products
// map to the empty group.
func (c Config) ProductGroups() map[string]string {
	out := make(map[string]string)
	for _, p := range c.Products {
		out[p] = ""
	}
	for group, products := range c.SubscriptionGroups {
		for _, p := range products {
			out[p] = group
		}
	}
	return out
}
