// Command receiptgen writes a synthetic App Store receipt signed by a
// throwaway certificate authority, for exercising receiptparser locally.
package main

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/containerd/log"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/vocdoni/gofirma/receiptparser/internal/receipt/receipttest"
)

type options struct {
	out        string
	rootOut    string
	bundleID   string
	appVersion string
	deviceID   string
	products   []string
	trial      bool
	storeKit   bool
	asBase64   bool
	validFor   time.Duration
}

func main() {
	var opts options
	flags := pflag.NewFlagSet("receiptgen", pflag.ExitOnError)
	flags.StringVarP(&opts.out, "out", "o", "receipt.der", "Receipt output file")
	flags.StringVar(&opts.rootOut, "root-out", "root.pem", "Signing root certificate output file (PEM)")
	flags.StringVar(&opts.bundleID, "bundle-id", "com.example.app", "Bundle identifier")
	flags.StringVar(&opts.appVersion, "app-version", "1", "Application version (CFBundleVersion)")
	flags.StringVar(&opts.deviceID, "device-id", "", "Device identifier used for the receipt hash (random if empty)")
	flags.StringSliceVar(&opts.products, "product", []string{"com.example.monthly"}, "Auto-renewable product identifiers, one purchase each")
	flags.BoolVar(&opts.trial, "trial", false, "Mark purchases as free trials")
	flags.BoolVar(&opts.storeKit, "storekit", false, "Write an unsigned StoreKitTest style receipt instead")
	flags.BoolVar(&opts.asBase64, "base64", false, "Write the receipt base64 encoded")
	flags.DurationVar(&opts.validFor, "valid-for", 30*24*time.Hour, "Subscription length")
	_ = flags.Parse(os.Args[1:])

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "receiptgen:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	device := uuid.New()
	if opts.deviceID != "" {
		var err error
		if device, err = uuid.Parse(opts.deviceID); err != nil {
			return fmt.Errorf("invalid device id: %w", err)
		}
	}

	fx := buildReceipt(opts, device, time.Now().UTC().Truncate(time.Second))

	var (
		data []byte
		err  error
	)
	if opts.storeKit {
		data = receipttest.IndefiniteContentInfo(fx.Payload())
	} else {
		data, err = sign(fx.Payload(), opts.rootOut)
		if err != nil {
			return err
		}
	}
	if opts.asBase64 {
		data = []byte(base64.StdEncoding.EncodeToString(data))
	}
	if err := os.WriteFile(opts.out, data, 0600); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	log.L.WithField("device", device.String()).Infof("wrote %s with %d purchases", opts.out, len(fx.Purchases))
	return nil
}

func buildReceipt(opts options, device uuid.UUID, now time.Time) receipttest.Receipt {
	opaque := uuid.New()
	fx := receipttest.Receipt{
		BundleID:           opts.bundleID,
		ApplicationVersion: opts.appVersion,
		OpaqueValue:        opaque[:],
		CreationDate:       now,
	}

	h := sha1.New()
	h.Write(device[:])
	h.Write(fx.OpaqueValue)
	h.Write(receipttest.UTF8(fx.BundleID))
	fx.SHA1Hash = h.Sum(nil)

	autoRenewable := 3
	for i, product := range opts.products {
		expires := now.Add(opts.validFor)
		trial := opts.trial
		txID := fmt.Sprintf("%d", 1000000000000000+int64(i)+1)
		fx.Purchases = append(fx.Purchases, receipttest.Purchase{
			Quantity:              1,
			ProductID:             product,
			TransactionID:         txID,
			OriginalTransactionID: txID,
			PurchaseDate:          now,
			OriginalPurchaseDate:  &now,
			ProductType:           &autoRenewable,
			ExpiresDate:           &expires,
			IsInTrialPeriod:       &trial,
		})
	}
	return fx
}

func sign(payload []byte, rootOut string) ([]byte, error) {
	ca, err := receipttest.NewAuthority("Receiptgen Signing Authority")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(rootOut, ca.PEM(), 0600); err != nil {
		return nil, fmt.Errorf("failed to write root certificate: %w", err)
	}
	return ca.Sign(payload)
}
