// Package server implements the ConnectRPC control-plane service for
// wlancryptd: key lifecycle and observability. The frame path
// (Encrypt/Decrypt) is deliberately not exposed here — spec.md section 5
// places it on the synchronous soft-IRQ path, called in-process by the
// driver/host collaborator directly against wlancrypto.Manager.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	wlanmetrics "github.com/go80211/wlancrypt/internal/metrics"
	"github.com/go80211/wlancrypt/internal/wlancrypto"
	wlancryptv1 "github.com/go80211/wlancrypt/pkg/wlancryptopb/wlancrypt/v1"
	"github.com/go80211/wlancrypt/pkg/wlancryptopb/wlancrypt/v1/wlancryptv1connect"
)

// Sentinel errors for the server package.
var (
	// ErrInvalidKeyID indicates a key_id outside the spec's [0,3] range.
	ErrInvalidKeyID = errors.New("key_id must be in [0,3]")

	// ErrInvalidKeyLength indicates key_bytes is neither 16 nor 32 bytes.
	ErrInvalidKeyLength = errors.New("key_bytes must be 16 or 32 bytes")

	// ErrInvalidCipherSuite indicates an unrecognized CipherSuite enum value.
	ErrInvalidCipherSuite = errors.New("invalid cipher suite")

	// ErrInterfaceNotConfigured indicates GetCountermeasuresState was
	// called for an interface with no ConfigureInterface/InstallKey call yet.
	ErrInterfaceNotConfigured = errors.New("interface not configured")
)

const maxKeyID = 3

// StatsSource is the narrow interface CipherServer reads interface
// counters through, implemented by *wlanmetrics.Collector. Decoupling
// this keeps the server package free of a dependency on the concrete
// collector struct, the same seam wlancrypto.Manager uses for
// MetricsRecorder.
type StatsSource interface {
	Snapshot(iface string) wlanmetrics.InterfaceSnapshot
}

// CipherServer implements wlancryptv1connect.CipherServiceHandler.
//
// Each RPC delegates to the wlancrypto.Manager for actual key lifecycle
// operations. The server is a thin adapter between the ConnectRPC API and
// the internal domain, matching the teacher's BFDServer/bfd.Manager split.
type CipherServer struct {
	manager *wlancrypto.Manager
	stats   StatsSource
	logger  *slog.Logger
}

// verify interface compliance at compile time.
var _ wlancryptv1connect.CipherServiceHandler = (*CipherServer)(nil)

// New creates a new CipherServer and returns the ConnectRPC path and handler.
func New(mgr *wlancrypto.Manager, stats StatsSource, logger *slog.Logger, opts ...connect.HandlerOption) (string, http.Handler) {
	srv := &CipherServer{
		manager: mgr,
		stats:   stats,
		logger:  logger.With(slog.String("component", "server")),
	}
	return wlancryptv1connect.NewCipherServiceHandler(srv, opts...)
}

// InstallKey installs a pairwise or group key for a station on an
// interface (spec.md section 6's install_key operation).
func (s *CipherServer) InstallKey(ctx context.Context, req *connect.Request[wlancryptv1.InstallKeyRequest]) (*connect.Response[wlancryptv1.InstallKeyResponse], error) {
	msg := req.Msg
	s.logger.InfoContext(ctx, "InstallKey called",
		slog.String("iface", msg.GetIface()),
		slog.String("station", msg.GetStation()),
		slog.Int("key_id", int(msg.GetKeyId())),
	)

	suite, err := cipherSuiteFromProto(msg.GetSuite())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if msg.GetKeyId() > maxKeyID {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("value %d: %w", msg.GetKeyId(), ErrInvalidKeyID))
	}

	if l := len(msg.GetKeyBytes()); l != 16 && l != 32 {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("length %d: %w", l, ErrInvalidKeyLength))
	}

	s.manager.ConfigureInterface(msg.GetIface(), operatingModeFromProto(msg.GetMode()))

	if err := s.manager.InstallKey(msg.GetIface(), msg.GetStation(), suite, uint8(msg.GetKeyId()), msg.GetKeyBytes()); err != nil {
		return nil, mapManagerError(err, "install key")
	}

	return connect.NewResponse(&wlancryptv1.InstallKeyResponse{}), nil
}

// DeleteKey removes a previously installed key.
func (s *CipherServer) DeleteKey(ctx context.Context, req *connect.Request[wlancryptv1.DeleteKeyRequest]) (*connect.Response[wlancryptv1.DeleteKeyResponse], error) {
	msg := req.Msg
	s.logger.InfoContext(ctx, "DeleteKey called",
		slog.String("iface", msg.GetIface()),
		slog.String("station", msg.GetStation()),
		slog.Int("key_id", int(msg.GetKeyId())),
	)

	if err := s.manager.DeleteKey(msg.GetIface(), msg.GetStation(), uint8(msg.GetKeyId())); err != nil {
		return nil, mapManagerError(err, "delete key")
	}

	return connect.NewResponse(&wlancryptv1.DeleteKeyResponse{}), nil
}

// GetCountermeasuresState reports the current TKIP countermeasures state
// machine for an interface (spec.md section 4.4).
func (s *CipherServer) GetCountermeasuresState(ctx context.Context, req *connect.Request[wlancryptv1.GetCountermeasuresStateRequest]) (*connect.Response[wlancryptv1.GetCountermeasuresStateResponse], error) {
	msg := req.Msg
	s.logger.InfoContext(ctx, "GetCountermeasuresState called", slog.String("iface", msg.GetIface()))

	state, ok := s.manager.GetCountermeasuresState(msg.GetIface())
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound,
			fmt.Errorf("interface %q: %w", msg.GetIface(), ErrInterfaceNotConfigured))
	}

	return connect.NewResponse(&wlancryptv1.GetCountermeasuresStateResponse{
		Active:          state.Active,
		HasLastFailure:  state.HasLastFailure,
		LastFailureTick: state.LastFailureTick,
		LastFailedTsc:   state.LastFailedTSC,
	}), nil
}

// ReportMicFailure is the hardware-offload driver hook named in spec.md
// section 6, for drivers that verify the Michael MIC in firmware and
// never route the frame back through Decrypt.
func (s *CipherServer) ReportMicFailure(ctx context.Context, req *connect.Request[wlancryptv1.ReportMicFailureRequest]) (*connect.Response[wlancryptv1.ReportMicFailureResponse], error) {
	msg := req.Msg
	s.logger.WarnContext(ctx, "ReportMicFailure called",
		slog.String("iface", msg.GetIface()),
		slog.Uint64("tsc", msg.GetTsc()),
	)

	s.manager.ReportMICFailure(msg.GetIface(), msg.GetTsc())

	return connect.NewResponse(&wlancryptv1.ReportMicFailureResponse{}), nil
}

// Stats reports Prometheus-backed counters for every configured
// interface, for wlancryptctl's convenience; the /metrics endpoint
// remains the canonical source.
func (s *CipherServer) Stats(ctx context.Context, _ *connect.Request[wlancryptv1.StatsRequest]) (*connect.Response[wlancryptv1.StatsResponse], error) {
	s.logger.InfoContext(ctx, "Stats called")

	ifaces := s.manager.Interfaces()
	out := make([]*wlancryptv1.InterfaceStats, 0, len(ifaces))
	for _, iface := range ifaces {
		snap := s.stats.Snapshot(iface)
		out = append(out, &wlancryptv1.InterfaceStats{
			Iface:                 iface,
			FramesEncrypted:       snap.FramesEncrypted,
			FramesDecrypted:       snap.FramesDecrypted,
			ReplayDrops:           snap.ReplayDrops,
			MicFailures:           snap.MICFailures,
			IcvFailures:           snap.ICVFailures,
			CountermeasuresActive: snap.CountermeasuresActive,
		})
	}

	return connect.NewResponse(&wlancryptv1.StatsResponse{Interfaces: out}), nil
}

// -------------------------------------------------------------------------
// Internal helpers
// -------------------------------------------------------------------------

func cipherSuiteFromProto(s wlancryptv1.CipherSuite) (wlancrypto.CipherSuite, error) {
	switch s {
	case wlancryptv1.CipherSuite_CIPHER_SUITE_CCMP:
		return wlancrypto.CipherSuiteCCMP, nil
	case wlancryptv1.CipherSuite_CIPHER_SUITE_TKIP:
		return wlancrypto.CipherSuiteTKIP, nil
	default:
		return 0, fmt.Errorf("%v: %w", s, ErrInvalidCipherSuite)
	}
}

func operatingModeFromProto(m wlancryptv1.OperatingMode) wlancrypto.OperatingMode {
	if m == wlancryptv1.OperatingMode_OPERATING_MODE_STATION {
		return wlancrypto.OperatingModeStation
	}
	return wlancrypto.OperatingModeAP
}

// mapManagerError translates wlancrypto.Manager errors into appropriate
// ConnectRPC error codes.
func mapManagerError(err error, operation string) *connect.Error {
	switch {
	case errors.Is(err, wlancrypto.ErrKeyNotInstalled):
		return connect.NewError(connect.CodeNotFound, fmt.Errorf("%s: %w", operation, err))
	case errors.Is(err, wlancrypto.ErrBadKeyLength),
		errors.Is(err, wlancrypto.ErrBadKeyID):
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s: %w", operation, err))
	default:
		return connect.NewError(connect.CodeInternal, fmt.Errorf("%s: %w", operation, err))
	}
}
