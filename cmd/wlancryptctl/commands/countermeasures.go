package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	wlancryptv1 "github.com/go80211/wlancrypt/pkg/wlancryptopb/wlancrypt/v1"
)

var errIfaceArgRequired = errors.New("interface name argument is required")

func countermeasuresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "countermeasures",
		Short: "Inspect and drive TKIP countermeasures state",
	}

	cmd.AddCommand(countermeasuresStatusCmd())
	cmd.AddCommand(reportMicFailureCmd())

	return cmd
}

// --- countermeasures status ---

func countermeasuresStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <iface>",
		Short: "Show the countermeasures state machine for an interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			resp, err := client.GetCountermeasuresState(context.Background(), connect.NewRequest(&wlancryptv1.GetCountermeasuresStateRequest{
				Iface: args[0],
			}))
			if err != nil {
				return fmt.Errorf("get countermeasures state: %w", err)
			}

			out, err := formatCountermeasuresState(args[0], resp.Msg, outputFormat)
			if err != nil {
				return fmt.Errorf("format countermeasures state: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}

// --- countermeasures report-mic-failure ---

// reportMicFailureCmd is the hardware-offload driver hook named in
// SPEC_FULL.md section 6, exposed here mainly for lab testing: it lets an
// operator simulate the MIC failure signal a real driver would emit.
func reportMicFailureCmd() *cobra.Command {
	var tscStr string

	cmd := &cobra.Command{
		Use:   "report-mic-failure <iface>",
		Short: "Report a Michael MIC failure for an interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if args[0] == "" {
				return errIfaceArgRequired
			}

			tsc, err := strconv.ParseUint(tscStr, 10, 64)
			if err != nil {
				return fmt.Errorf("parse --tsc: %w", err)
			}

			_, err = client.ReportMicFailure(context.Background(), connect.NewRequest(&wlancryptv1.ReportMicFailureRequest{
				Iface: args[0],
				Tsc:   tsc,
			}))
			if err != nil {
				return fmt.Errorf("report mic failure: %w", err)
			}

			fmt.Printf("MIC failure reported for %s at tsc=%d\n", args[0], tsc)

			return nil
		},
	}

	cmd.Flags().StringVar(&tscStr, "tsc", "0", "TKIP sequence counter value of the failing frame")

	return cmd
}
