// Package commands implements the wlancryptctl CLI commands.
package commands

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/go80211/wlancrypt/pkg/wlancryptopb/wlancrypt/v1/wlancryptv1connect"
)

var (
	// client is the ConnectRPC CipherService client, initialized in PersistentPreRunE.
	client wlancryptv1connect.CipherServiceClient

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// serverAddr is the daemon address (host:port) for the ConnectRPC connection.
	serverAddr string
)

// rootCmd is the top-level cobra command for wlancryptctl.
var rootCmd = &cobra.Command{
	Use:   "wlancryptctl",
	Short: "CLI client for the wlancryptd daemon",
	Long:  "wlancryptctl communicates with the wlancryptd daemon via ConnectRPC to manage cipher keys and inspect countermeasures state.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		client = wlancryptv1connect.NewCipherServiceClient(
			http.DefaultClient,
			"http://"+serverAddr,
		)

		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:50151",
		"wlancryptd daemon address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(installKeyCmd())
	rootCmd.AddCommand(deleteKeyCmd())
	rootCmd.AddCommand(countermeasuresCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
