package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/wizard"
)

func newNewCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "new [set-name]",
		Short: "Create a set spec interactively",
		Long: `Create a question set spec through an interactive wizard.

The wizard collects the set kind, shared context, model, terms, and
question types, then writes a ready-to-run YAML spec. The optional
set-name argument pre-populates the name field.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initialName := ""
			if len(args) > 0 {
				initialName = args[0]
			}
			return newCommandE(cmd, initialName, outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (default: <name>.yaml)")

	return cmd
}

func newCommandE(cmd *cobra.Command, initialName, outPath string) error {
	answers, err := wizard.Run(cmd.InOrStdin(), cmd.OutOrStdout(), initialName)
	if err != nil {
		return err
	}

	content, err := wizard.RenderYAML(answers)
	if err != nil {
		return fmt.Errorf("failed to render spec: %w", err)
	}

	if outPath == "" {
		outPath = answers.Name + ".yaml"
	}
	if _, err := os.Stat(outPath); err == nil {
		return fmt.Errorf("%s already exists", outPath)
	}
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write spec: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", outPath)               //nolint:errcheck
	fmt.Fprintf(cmd.OutOrStdout(), "Run it: qforge generate %s\n", outPath) //nolint:errcheck
	return nil
}
