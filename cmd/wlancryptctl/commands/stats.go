package commands

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	wlancryptv1 "github.com/go80211/wlancrypt/pkg/wlancryptopb/wlancrypt/v1"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-interface cipher-engine counters",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := client.Stats(context.Background(), connect.NewRequest(&wlancryptv1.StatsRequest{}))
			if err != nil {
				return fmt.Errorf("get stats: %w", err)
			}

			out, err := formatStats(resp.Msg.GetInterfaces(), outputFormat)
			if err != nil {
				return fmt.Errorf("format stats: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}
