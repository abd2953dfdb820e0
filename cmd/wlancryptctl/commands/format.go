package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	wlancryptv1 "github.com/go80211/wlancrypt/pkg/wlancryptopb/wlancrypt/v1"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// --- countermeasures state ---

func formatCountermeasuresState(iface string, s *wlancryptv1.GetCountermeasuresStateResponse, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatCountermeasuresStateJSON(iface, s)
	case formatTable:
		return formatCountermeasuresStateTable(iface, s), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatCountermeasuresStateTable(iface string, s *wlancryptv1.GetCountermeasuresStateResponse) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Interface:\t%s\n", iface)
	fmt.Fprintf(w, "Active:\t%t\n", s.GetActive())
	fmt.Fprintf(w, "Has Last Failure:\t%t\n", s.GetHasLastFailure())
	if s.GetHasLastFailure() {
		fmt.Fprintf(w, "Last Failure Tick:\t%d\n", s.GetLastFailureTick())
		fmt.Fprintf(w, "Last Failed TSC:\t%d\n", s.GetLastFailedTsc())
	}

	_ = w.Flush()

	return buf.String()
}

type countermeasuresStateView struct {
	Interface       string `json:"interface"`
	Active          bool   `json:"active"`
	HasLastFailure  bool   `json:"has_last_failure"`
	LastFailureTick int64  `json:"last_failure_tick,omitempty"`
	LastFailedTSC   uint64 `json:"last_failed_tsc,omitempty"`
}

func formatCountermeasuresStateJSON(iface string, s *wlancryptv1.GetCountermeasuresStateResponse) (string, error) {
	v := countermeasuresStateView{
		Interface:       iface,
		Active:          s.GetActive(),
		HasLastFailure:  s.GetHasLastFailure(),
		LastFailureTick: s.GetLastFailureTick(),
		LastFailedTSC:   s.GetLastFailedTsc(),
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal countermeasures state to JSON: %w", err)
	}

	return string(data), nil
}

// --- stats ---

func formatStats(interfaces []*wlancryptv1.InterfaceStats, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatStatsJSON(interfaces)
	case formatTable:
		return formatStatsTable(interfaces), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatStatsTable(interfaces []*wlancryptv1.InterfaceStats) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IFACE\tENCRYPTED\tDECRYPTED\tREPLAY-DROPS\tMIC-FAILURES\tICV-FAILURES\tCOUNTERMEASURES")

	for _, s := range interfaces {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%t\n",
			s.GetIface(),
			s.GetFramesEncrypted(),
			s.GetFramesDecrypted(),
			s.GetReplayDrops(),
			s.GetMicFailures(),
			s.GetIcvFailures(),
			s.GetCountermeasuresActive(),
		)
	}

	_ = w.Flush()

	return buf.String()
}

type interfaceStatsView struct {
	Iface                 string `json:"iface"`
	FramesEncrypted       uint64 `json:"frames_encrypted"`
	FramesDecrypted       uint64 `json:"frames_decrypted"`
	ReplayDrops           uint64 `json:"replay_drops"`
	MICFailures           uint64 `json:"mic_failures"`
	ICVFailures           uint64 `json:"icv_failures"`
	CountermeasuresActive bool   `json:"countermeasures_active"`
}

func formatStatsJSON(interfaces []*wlancryptv1.InterfaceStats) (string, error) {
	views := make([]interfaceStatsView, 0, len(interfaces))
	for _, s := range interfaces {
		views = append(views, interfaceStatsView{
			Iface:                 s.GetIface(),
			FramesEncrypted:       s.GetFramesEncrypted(),
			FramesDecrypted:       s.GetFramesDecrypted(),
			ReplayDrops:           s.GetReplayDrops(),
			MICFailures:           s.GetMicFailures(),
			ICVFailures:           s.GetIcvFailures(),
			CountermeasuresActive: s.GetCountermeasuresActive(),
		})
	}

	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal stats to JSON: %w", err)
	}

	return string(data), nil
}
