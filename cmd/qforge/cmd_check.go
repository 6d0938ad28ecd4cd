package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/models"
	"github.com/qforge/qforge/internal/validation"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <set.yaml>",
		Short: "Check a set spec without generating anything",
		Long: `Check a set spec against the schema and kind-specific rules.

Runs the same validation that generate performs, plus a full JSON Schema
pass, and reports every problem instead of stopping at the first one.`,
		Args: cobra.ExactArgs(1),
		RunE: checkCommandE,
	}
	return cmd
}

func checkCommandE(cmd *cobra.Command, args []string) error {
	specPath := args[0]
	out := cmd.OutOrStdout()

	schemaErrs, err := validation.ValidateSetSpecFile(specPath)
	if err != nil {
		return err
	}

	// Kind-specific rules only apply once the document parses at all.
	var specErr error
	if spec, loadErr := models.LoadSetSpec(specPath); loadErr != nil {
		specErr = loadErr
	} else {
		fmt.Fprintf(out, "Set:  %s (%s)\n", spec.Name, spec.Kind) //nolint:errcheck
	}

	if len(schemaErrs) == 0 && specErr == nil {
		fmt.Fprintf(out, "✓ %s is valid\n", specPath) //nolint:errcheck
		return nil
	}

	for _, e := range schemaErrs {
		fmt.Fprintf(out, "  ✗ %s\n", e) //nolint:errcheck
	}
	if specErr != nil {
		fmt.Fprintf(out, "  ✗ %v\n", specErr) //nolint:errcheck
	}
	return fmt.Errorf("%s failed validation", specPath)
}
