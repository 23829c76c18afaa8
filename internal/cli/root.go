// Package cli implements the aisw command-line interface.
//
// The root command launches the interactive console; subcommands cover the
// non-interactive front door:
//
//	aisw              - interactive profile console
//	aisw list         - print the profile table for a kind
//	aisw apply        - apply a profile by index or name
//	aisw clear        - clear a kind's environment variables
//	aisw add          - add a custom profile via a guided form
//	aisw version      - print version information
package cli

import (
	stderrors "errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/LynnGuo666/ai-switch-cli/internal/config"
	"github.com/LynnGuo666/ai-switch-cli/internal/console"
	"github.com/LynnGuo666/ai-switch-cli/internal/envfile"
	"github.com/LynnGuo666/ai-switch-cli/internal/errors"
	"github.com/LynnGuo666/ai-switch-cli/internal/health"
	"github.com/LynnGuo666/ai-switch-cli/internal/logger"
	"github.com/LynnGuo666/ai-switch-cli/internal/ui"
)

// Global flags available to all subcommands
var configDirFlag string

// rootCmd launches the interactive console when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "aisw",
	Short: "Switch API credential profiles with live provider health",
	Long: `aisw browses named API-credential profiles (claude and codex kinds),
shows live provider health, and activates a profile by exporting its
credentials to the process environment and your shell startup file.

Run without arguments for the interactive console.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  t           Toggle kind (claude/codex)
  /           Search by name or group
  up/k down/j Move selection
  Enter       Apply selected profile (with confirmation)
  u           Apply an ad-hoc key via the selected profile
  a           Add a custom profile
  g           Node breakdown view
  s           Edit the health status URL
  r           Refresh health data
  x / X       Clear env (session / session+shell profile)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return consoleCommand()
	},
}

// Execute runs the root command and prints structured errors.
func Execute() {
	ui.InitColorProfile()
	if err := rootCmd.Execute(); err != nil {
		var swErr *errors.Error
		if stderrors.As(err, &swErr) {
			fmt.Fprintln(os.Stderr, swErr.Error())
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "",
		"config directory (default $AISW_CONFIG_DIR or ~/.config/ai-switch)")
}

// consoleCommand starts the Bubble Tea program.
func consoleCommand() error {
	store := config.NewStore(configDirFlag)
	applier := &envfile.Applier{}
	fetcher := health.NewFetcher(logger.NewEnvLogger("[health]"))

	model := console.NewModel(store, applier, fetcher, logger.NewEnvLogger("[console]"))
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrInput,
			"Console exited unexpectedly", "")
	}
	return nil
}
