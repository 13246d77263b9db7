package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/containerd/log"
	"github.com/google/uuid"
)

const (
	StatusParsed   = "parsed"
	StatusRejected = "rejected"
	StatusVerified = "verified"
)

// AuditEntry records one receipt operation.
type AuditEntry struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	Operation     string `json:"operation"`
	ReceiptHash   string `json:"receiptHash"`
	BundleID      string `json:"bundleId,omitempty"`
	PurchaseCount int    `json:"purchaseCount"`
	Cached        bool   `json:"cached,omitempty"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// AuditLogger appends entries to audit.jsonl.
type AuditLogger struct {
	mu       sync.Mutex
	filePath string
}

func NewAuditLogger(dir string) (*AuditLogger, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &AuditLogger{
		filePath: filepath.Join(dir, "audit.jsonl"),
	}, nil
}

func (l *AuditLogger) Log(entry AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	log.L.WithFields(log.Fields{
		"id":        entry.ID,
		"operation": entry.Operation,
		"status":    entry.Status,
	}).Debug("audit log entry")

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	return nil
}

// ReadAll returns the entries in file order. Reading stops at the first
// entry that fails to decode.
func (l *AuditLogger) ReadAll() ([]AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []AuditEntry{}, nil
		}
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}
	defer f.Close()

	var entries []AuditEntry
	dec := json.NewDecoder(f)
	for dec.More() {
		var entry AuditEntry
		if err := dec.Decode(&entry); err != nil {
			break
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
