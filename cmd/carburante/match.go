package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/flottaio/carburante/internal/cli"
)

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match [invoice-id]",
		Short: "Re-run matching for a stored invoice",
		Long: `Re-reconcile the extracted lines of an already imported invoice against
the current fleet reference data, replacing its stored match decisions.
Matching is deterministic: against unchanged reference data the decisions
never change.`,
		Args: cobra.ExactArgs(1),
		RunE: runMatch,
	}

	return cmd
}

func runMatch(cmd *cobra.Command, args []string) error {
	invoiceID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid invoice ID %q", args[0])
	}

	ctx := cmd.Context()
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	invoice, err := store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}

	lines, err := store.GetInvoiceLines(ctx, invoice.ID)
	if err != nil {
		return err
	}

	candidates, err := store.GetCandidates(ctx)
	if err != nil {
		return err
	}

	tolerances, err := store.GetTolerances(ctx, invoice.SupplierVAT)
	if err != nil {
		return err
	}

	decisions := newMatcher().MatchAll(lines, candidates, tolerances)
	if err := store.SaveDecisions(ctx, invoice.ID, decisions); err != nil {
		return err
	}

	fmt.Print(cli.RenderDecisions(decisions))
	return nil
}
