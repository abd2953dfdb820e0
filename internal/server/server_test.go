package server_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	wlanmetrics "github.com/go80211/wlancrypt/internal/metrics"
	"github.com/go80211/wlancrypt/internal/server"
	"github.com/go80211/wlancrypt/internal/wlancrypto"
	wlancryptv1 "github.com/go80211/wlancrypt/pkg/wlancryptopb/wlancrypt/v1"
	"github.com/go80211/wlancrypt/pkg/wlancryptopb/wlancrypt/v1/wlancryptv1connect"
)

func newCCMPKeyBytes() []byte {
	b := make([]byte, wlancrypto.CCMPKeyLen)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return b
}

// setupTestServer creates a real HTTP server backed by a Manager and
// returns a ConnectRPC client connected to it. The server and manager are
// cleaned up when the test finishes.
func setupTestServer(t *testing.T) (wlancryptv1connect.CipherServiceClient, *wlancrypto.Manager) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	pool := wlancrypto.NewPool(0)
	clock := wlancrypto.NewFakeClock(1000)
	mgr := wlancrypto.NewManager(pool, clock, nil, logger)

	collector := wlanmetrics.NewCollector(prometheus.NewRegistry())

	path, handler := server.New(mgr, collector, logger)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return wlancryptv1connect.NewCipherServiceClient(srv.Client(), srv.URL), mgr
}

func TestInstallKeyThenGetCountermeasuresState(t *testing.T) {
	t.Parallel()

	client, _ := setupTestServer(t)
	ctx := context.Background()

	_, err := client.InstallKey(ctx, connect.NewRequest(&wlancryptv1.InstallKeyRequest{
		Iface:    "wlan0",
		Station:  "sta1",
		Suite:    wlancryptv1.CipherSuite_CIPHER_SUITE_CCMP,
		KeyId:    0,
		KeyBytes: newCCMPKeyBytes(),
		Mode:     wlancryptv1.OperatingMode_OPERATING_MODE_AP,
	}))
	if err != nil {
		t.Fatalf("InstallKey: %v", err)
	}

	resp, err := client.GetCountermeasuresState(ctx, connect.NewRequest(&wlancryptv1.GetCountermeasuresStateRequest{
		Iface: "wlan0",
	}))
	if err != nil {
		t.Fatalf("GetCountermeasuresState: %v", err)
	}
	if resp.Msg.GetActive() {
		t.Error("Active = true immediately after InstallKey, want false")
	}
}

func TestInstallKeyRejectsBadKeyID(t *testing.T) {
	t.Parallel()

	client, _ := setupTestServer(t)

	_, err := client.InstallKey(context.Background(), connect.NewRequest(&wlancryptv1.InstallKeyRequest{
		Iface:    "wlan0",
		Station:  "sta1",
		Suite:    wlancryptv1.CipherSuite_CIPHER_SUITE_CCMP,
		KeyId:    4,
		KeyBytes: newCCMPKeyBytes(),
	}))
	if err == nil {
		t.Fatal("InstallKey with key_id=4 returned nil error")
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodeInvalidArgument {
		t.Errorf("error = %v, want CodeInvalidArgument", err)
	}
}

func TestInstallKeyRejectsBadKeyLength(t *testing.T) {
	t.Parallel()

	client, _ := setupTestServer(t)

	_, err := client.InstallKey(context.Background(), connect.NewRequest(&wlancryptv1.InstallKeyRequest{
		Iface:    "wlan0",
		Station:  "sta1",
		Suite:    wlancryptv1.CipherSuite_CIPHER_SUITE_CCMP,
		KeyId:    0,
		KeyBytes: []byte{1, 2, 3},
	}))
	if err == nil {
		t.Fatal("InstallKey with a 3-byte key returned nil error")
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodeInvalidArgument {
		t.Errorf("error = %v, want CodeInvalidArgument", err)
	}
}

func TestDeleteKeyThenInstallKeyAgainSucceeds(t *testing.T) {
	t.Parallel()

	client, _ := setupTestServer(t)
	ctx := context.Background()

	req := &wlancryptv1.InstallKeyRequest{
		Iface:    "wlan0",
		Station:  "sta1",
		Suite:    wlancryptv1.CipherSuite_CIPHER_SUITE_CCMP,
		KeyId:    2,
		KeyBytes: newCCMPKeyBytes(),
	}
	if _, err := client.InstallKey(ctx, connect.NewRequest(req)); err != nil {
		t.Fatalf("InstallKey: %v", err)
	}

	if _, err := client.DeleteKey(ctx, connect.NewRequest(&wlancryptv1.DeleteKeyRequest{
		Iface: "wlan0", Station: "sta1", KeyId: 2,
	})); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}

	if _, err := client.DeleteKey(ctx, connect.NewRequest(&wlancryptv1.DeleteKeyRequest{
		Iface: "wlan0", Station: "sta1", KeyId: 2,
	})); err == nil {
		t.Fatal("second DeleteKey of the same key returned nil error, want CodeNotFound")
	}

	if _, err := client.InstallKey(ctx, connect.NewRequest(req)); err != nil {
		t.Fatalf("re-InstallKey after delete: %v", err)
	}
}

func TestReportMicFailureArmsCountermeasures(t *testing.T) {
	t.Parallel()

	client, _ := setupTestServer(t)
	ctx := context.Background()

	if _, err := client.InstallKey(ctx, connect.NewRequest(&wlancryptv1.InstallKeyRequest{
		Iface:    "wlan0",
		Station:  "sta1",
		Suite:    wlancryptv1.CipherSuite_CIPHER_SUITE_TKIP,
		KeyId:    0,
		KeyBytes: make([]byte, 32),
		Mode:     wlancryptv1.OperatingMode_OPERATING_MODE_AP,
	})); err != nil {
		t.Fatalf("InstallKey: %v", err)
	}

	if _, err := client.ReportMicFailure(ctx, connect.NewRequest(&wlancryptv1.ReportMicFailureRequest{
		Iface: "wlan0", Tsc: 1,
	})); err != nil {
		t.Fatalf("ReportMicFailure: %v", err)
	}

	resp, err := client.GetCountermeasuresState(ctx, connect.NewRequest(&wlancryptv1.GetCountermeasuresStateRequest{
		Iface: "wlan0",
	}))
	if err != nil {
		t.Fatalf("GetCountermeasuresState: %v", err)
	}
	if !resp.Msg.GetHasLastFailure() {
		t.Error("HasLastFailure = false after one MIC failure report, want true")
	}
	if resp.Msg.GetActive() {
		t.Error("Active = true after a single MIC failure, want false (needs two within the window)")
	}
}

func TestGetCountermeasuresStateUnknownInterfaceNotFound(t *testing.T) {
	t.Parallel()

	client, _ := setupTestServer(t)

	_, err := client.GetCountermeasuresState(context.Background(), connect.NewRequest(&wlancryptv1.GetCountermeasuresStateRequest{
		Iface: "wlan99",
	}))
	if err == nil {
		t.Fatal("GetCountermeasuresState for an unconfigured interface returned nil error")
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodeNotFound {
		t.Errorf("error = %v, want CodeNotFound", err)
	}
}

func TestStatsReportsConfiguredInterfaces(t *testing.T) {
	t.Parallel()

	client, _ := setupTestServer(t)
	ctx := context.Background()

	if _, err := client.InstallKey(ctx, connect.NewRequest(&wlancryptv1.InstallKeyRequest{
		Iface:    "wlan0",
		Station:  "sta1",
		Suite:    wlancryptv1.CipherSuite_CIPHER_SUITE_CCMP,
		KeyId:    0,
		KeyBytes: newCCMPKeyBytes(),
	})); err != nil {
		t.Fatalf("InstallKey: %v", err)
	}

	resp, err := client.Stats(ctx, connect.NewRequest(&wlancryptv1.StatsRequest{}))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(resp.Msg.GetInterfaces()) != 1 {
		t.Fatalf("Interfaces count = %d, want 1", len(resp.Msg.GetInterfaces()))
	}
	if resp.Msg.GetInterfaces()[0].GetIface() != "wlan0" {
		t.Errorf("Interfaces[0].Iface = %q, want %q", resp.Msg.GetInterfaces()[0].GetIface(), "wlan0")
	}
}
