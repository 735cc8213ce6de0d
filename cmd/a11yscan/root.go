package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	applog "github.com/nao1215/a11yscan/internal/log"
)

// NewRootCmd creates the root command for a11yscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "a11yscan",
		Short: "Accessibility auditing tool for web pages",
		Long: `a11yscan checks web pages for accessibility problems such as missing
alternative text, unlabeled form controls, broken heading structure, low
color contrast, unnamed buttons and mouse-only interactions.

Each page gets a score from 0 to 100. Pages scoring 80 or more are
considered accessible. Results are stored locally so later audits can be
compared with earlier ones.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the command's logger. Secrets such as API keys and
// cookies are redacted before anything reaches stderr.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return applog.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
}
