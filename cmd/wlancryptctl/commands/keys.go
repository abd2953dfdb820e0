package commands

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	wlancryptv1 "github.com/go80211/wlancrypt/pkg/wlancryptopb/wlancrypt/v1"
)

// Sentinel errors for CLI validation.
var (
	errIfaceRequired   = errors.New("--iface flag is required")
	errStationRequired = errors.New("--station flag is required")
	errKeyHexRequired  = errors.New("--key flag is required (hex-encoded)")
	errUnknownCipher   = errors.New("unknown cipher suite, expected ccmp or tkip")
	errUnknownMode     = errors.New("unknown mode, expected ap or station")
)

func installKeyCmd() *cobra.Command {
	var (
		iface   string
		station string
		suite   string
		keyID   uint32
		keyHex  string
		mode    string
	)

	cmd := &cobra.Command{
		Use:   "install-key",
		Short: "Install a pairwise or group key for a station",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if iface == "" {
				return errIfaceRequired
			}
			if station == "" {
				return errStationRequired
			}
			if keyHex == "" {
				return errKeyHexRequired
			}

			cipherSuite, err := parseCipherSuite(suite)
			if err != nil {
				return fmt.Errorf("parse cipher suite: %w", err)
			}

			opMode, err := parseOperatingMode(mode)
			if err != nil {
				return fmt.Errorf("parse mode: %w", err)
			}

			keyBytes, err := hex.DecodeString(keyHex)
			if err != nil {
				return fmt.Errorf("decode --key as hex: %w", err)
			}

			req := connect.NewRequest(&wlancryptv1.InstallKeyRequest{
				Iface:    iface,
				Station:  station,
				Suite:    cipherSuite,
				KeyId:    keyID,
				KeyBytes: keyBytes,
				Mode:     opMode,
			})

			if _, err := client.InstallKey(context.Background(), req); err != nil {
				return fmt.Errorf("install key: %w", err)
			}

			fmt.Printf("Key installed: iface=%s station=%s key_id=%d suite=%s\n", iface, station, keyID, suite)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&iface, "iface", "", "radio interface name (required)")
	flags.StringVar(&station, "station", "", "station identifier, e.g. MAC address (required)")
	flags.StringVar(&suite, "suite", "ccmp", "cipher suite: ccmp or tkip")
	flags.Uint32Var(&keyID, "key-id", 0, "key id, 0-3")
	flags.StringVar(&keyHex, "key", "", "hex-encoded key bytes, 32 hex chars for CCMP or 64 for TKIP (required)")
	flags.StringVar(&mode, "mode", "ap", "interface operating mode: ap or station")

	return cmd
}

func deleteKeyCmd() *cobra.Command {
	var (
		iface   string
		station string
		keyID   uint32
	)

	cmd := &cobra.Command{
		Use:   "delete-key",
		Short: "Delete a previously installed key",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if iface == "" {
				return errIfaceRequired
			}
			if station == "" {
				return errStationRequired
			}

			req := connect.NewRequest(&wlancryptv1.DeleteKeyRequest{
				Iface:   iface,
				Station: station,
				KeyId:   keyID,
			})

			if _, err := client.DeleteKey(context.Background(), req); err != nil {
				return fmt.Errorf("delete key: %w", err)
			}

			fmt.Printf("Key deleted: iface=%s station=%s key_id=%d\n", iface, station, keyID)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&iface, "iface", "", "radio interface name (required)")
	flags.StringVar(&station, "station", "", "station identifier, e.g. MAC address (required)")
	flags.Uint32Var(&keyID, "key-id", 0, "key id, 0-3")

	return cmd
}

func parseCipherSuite(s string) (wlancryptv1.CipherSuite, error) {
	switch s {
	case "ccmp":
		return wlancryptv1.CipherSuite_CIPHER_SUITE_CCMP, nil
	case "tkip":
		return wlancryptv1.CipherSuite_CIPHER_SUITE_TKIP, nil
	default:
		return wlancryptv1.CipherSuite_CIPHER_SUITE_UNSPECIFIED, fmt.Errorf("%w: %q", errUnknownCipher, s)
	}
}

func parseOperatingMode(s string) (wlancryptv1.OperatingMode, error) {
	switch s {
	case "ap":
		return wlancryptv1.OperatingMode_OPERATING_MODE_AP, nil
	case "station":
		return wlancryptv1.OperatingMode_OPERATING_MODE_STATION, nil
	default:
		return wlancryptv1.OperatingMode_OPERATING_MODE_UNSPECIFIED, fmt.Errorf("%w: %q", errUnknownMode, s)
	}
}
