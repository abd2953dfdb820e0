package commands

import (
	"github.com/reeflective/console"
	"github.com/spf13/cobra"
)

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive wlancryptctl shell",
		Long:  "Launches a reeflective/console REPL over the same cobra command tree wlancryptctl uses non-interactively.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runShell()
		},
	}
}

// runShell starts a reeflective/console REPL whose single menu exposes
// every wlancryptctl subcommand, so "install-key --iface wlan0 ..." works
// identically typed at the shell prompt or on the command line.
func runShell() error {
	app := console.New("wlancryptctl")

	menu := app.ActiveMenu()
	menu.SetCommands(shellCommandTree)

	return app.Start()
}

// shellCommandTree builds a fresh cobra command tree per invocation,
// since cobra commands carry mutable flag state that a REPL must not
// share across lines.
func shellCommandTree() *cobra.Command {
	root := &cobra.Command{
		Use:           "",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(installKeyCmd())
	root.AddCommand(deleteKeyCmd())
	root.AddCommand(countermeasuresCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(versionCmd())

	return root
}
