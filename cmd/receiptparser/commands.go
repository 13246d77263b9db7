package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vocdoni/gofirma/receiptparser/internal/canon"
	"github.com/vocdoni/gofirma/receiptparser/internal/receipt"
)

func readReceipt(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt: %w", err)
	}
	return data, nil
}

func newParseCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Print a receipt as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			raw, err := readReceipt(args[0])
			if err != nil {
				return err
			}
			rep, err := a.Parse(cmd.Context(), raw)
			if err != nil {
				return err
			}
			out, err := canon.Indent(rep)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newPurchasesCommand(opts *rootOptions) *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "purchases FILE",
		Short: "List the in-app purchases of a receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			raw, err := readReceipt(args[0])
			if err != nil {
				return err
			}
			rep, err := a.Parse(cmd.Context(), raw)
			if err != nil {
				return err
			}
			printPurchases(cmd, rep.Receipt, time.Now(), activeOnly)
			return nil
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only list active subscriptions")
	return cmd
}

func printPurchases(cmd *cobra.Command, r receipt.AppleReceipt, now time.Time, activeOnly bool) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tTRANSACTION\tTYPE\tPURCHASED\tEXPIRES\tSTATE")
	for _, p := range r.InAppPurchases {
		active := p.IsActiveSubscription(now)
		if activeOnly && !active {
			continue
		}
		expires := "-"
		if p.ExpiresDate != nil {
			expires = p.ExpiresDate.Format(time.RFC3339)
		}
		state := ""
		switch {
		case p.CancellationDate != nil:
			state = "cancelled"
		case active:
			state = "active"
		case p.IsSubscription():
			state = "expired"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ProductID, p.TransactionID, p.ProductType, p.PurchaseDate.Format(time.RFC3339), expires, state)
	}
	w.Flush()
}

func newEligibilityCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "eligibility FILE PRODUCT...",
		Short: "Check introductory offer eligibility for products",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			raw, err := readReceipt(args[0])
			if err != nil {
				return err
			}
			// A receipt whose contents cannot be decoded still yields a
			// result, with every product unknown.
			statuses, err := a.Eligibility(cmd.Context(), raw, args[1:])
			if err != nil && !receipt.IsParseError(err) {
				return err
			}

			products := make([]string, 0, len(statuses))
			for p := range statuses {
				products = append(products, p)
			}
			sort.Strings(products)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRODUCT\tSTATUS")
			for _, p := range products {
				fmt.Fprintf(w, "%s\t%s\n", p, statuses[p])
			}
			return w.Flush()
		},
	}
}

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE",
		Short: "Verify the receipt signature and device hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			raw, err := readReceipt(args[0])
			if err != nil {
				return err
			}
			res, err := a.Verify(cmd.Context(), raw)
			if err != nil {
				return err
			}
			out, err := canon.Indent(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if res.HashValid != nil && !*res.HashValid {
				return fmt.Errorf("receipt hash does not match device %s", a.Config.DeviceID)
			}
			return nil
		},
	}
}
