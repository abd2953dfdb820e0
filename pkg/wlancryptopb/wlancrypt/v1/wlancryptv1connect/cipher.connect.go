// Package wlancryptv1connect holds the ConnectRPC client/handler surface
// for wlancrypt.v1.CipherService. Hand-written to match what
// `buf generate --template buf.gen.yaml` (connect-go plugin) would emit
// from cipher.proto, since this environment cannot run buf/protoc.
package wlancryptv1connect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	wlancryptv1 "github.com/go80211/wlancrypt/pkg/wlancryptopb/wlancrypt/v1"
)

const (
	// CipherServiceName is the fully-qualified name of CipherService.
	CipherServiceName = "wlancrypt.v1.CipherService"
)

const (
	cipherServiceInstallKeyProcedure              = "/wlancrypt.v1.CipherService/InstallKey"
	cipherServiceDeleteKeyProcedure               = "/wlancrypt.v1.CipherService/DeleteKey"
	cipherServiceGetCountermeasuresStateProcedure = "/wlancrypt.v1.CipherService/GetCountermeasuresState"
	cipherServiceReportMicFailureProcedure        = "/wlancrypt.v1.CipherService/ReportMicFailure"
	cipherServiceStatsProcedure                   = "/wlancrypt.v1.CipherService/Stats"
)

// CipherServiceClient is a client for the wlancrypt.v1.CipherService
// service: key lifecycle and observability, never the frame path itself
// (SPEC_FULL.md section 6 — Encrypt/Decrypt stay in-process).
type CipherServiceClient interface {
	InstallKey(context.Context, *connect.Request[wlancryptv1.InstallKeyRequest]) (*connect.Response[wlancryptv1.InstallKeyResponse], error)
	DeleteKey(context.Context, *connect.Request[wlancryptv1.DeleteKeyRequest]) (*connect.Response[wlancryptv1.DeleteKeyResponse], error)
	GetCountermeasuresState(context.Context, *connect.Request[wlancryptv1.GetCountermeasuresStateRequest]) (*connect.Response[wlancryptv1.GetCountermeasuresStateResponse], error)
	ReportMicFailure(context.Context, *connect.Request[wlancryptv1.ReportMicFailureRequest]) (*connect.Response[wlancryptv1.ReportMicFailureResponse], error)
	Stats(context.Context, *connect.Request[wlancryptv1.StatsRequest]) (*connect.Response[wlancryptv1.StatsResponse], error)
}

// NewCipherServiceClient constructs a client for CipherService.
func NewCipherServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CipherServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &cipherServiceClient{
		installKey: connect.NewClient[wlancryptv1.InstallKeyRequest, wlancryptv1.InstallKeyResponse](
			httpClient, baseURL+cipherServiceInstallKeyProcedure, opts...,
		),
		deleteKey: connect.NewClient[wlancryptv1.DeleteKeyRequest, wlancryptv1.DeleteKeyResponse](
			httpClient, baseURL+cipherServiceDeleteKeyProcedure, opts...,
		),
		getCountermeasuresState: connect.NewClient[wlancryptv1.GetCountermeasuresStateRequest, wlancryptv1.GetCountermeasuresStateResponse](
			httpClient, baseURL+cipherServiceGetCountermeasuresStateProcedure, opts...,
		),
		reportMicFailure: connect.NewClient[wlancryptv1.ReportMicFailureRequest, wlancryptv1.ReportMicFailureResponse](
			httpClient, baseURL+cipherServiceReportMicFailureProcedure, opts...,
		),
		stats: connect.NewClient[wlancryptv1.StatsRequest, wlancryptv1.StatsResponse](
			httpClient, baseURL+cipherServiceStatsProcedure, opts...,
		),
	}
}

type cipherServiceClient struct {
	installKey              *connect.Client[wlancryptv1.InstallKeyRequest, wlancryptv1.InstallKeyResponse]
	deleteKey               *connect.Client[wlancryptv1.DeleteKeyRequest, wlancryptv1.DeleteKeyResponse]
	getCountermeasuresState *connect.Client[wlancryptv1.GetCountermeasuresStateRequest, wlancryptv1.GetCountermeasuresStateResponse]
	reportMicFailure        *connect.Client[wlancryptv1.ReportMicFailureRequest, wlancryptv1.ReportMicFailureResponse]
	stats                   *connect.Client[wlancryptv1.StatsRequest, wlancryptv1.StatsResponse]
}

func (c *cipherServiceClient) InstallKey(ctx context.Context, req *connect.Request[wlancryptv1.InstallKeyRequest]) (*connect.Response[wlancryptv1.InstallKeyResponse], error) {
	return c.installKey.CallUnary(ctx, req)
}

func (c *cipherServiceClient) DeleteKey(ctx context.Context, req *connect.Request[wlancryptv1.DeleteKeyRequest]) (*connect.Response[wlancryptv1.DeleteKeyResponse], error) {
	return c.deleteKey.CallUnary(ctx, req)
}

func (c *cipherServiceClient) GetCountermeasuresState(ctx context.Context, req *connect.Request[wlancryptv1.GetCountermeasuresStateRequest]) (*connect.Response[wlancryptv1.GetCountermeasuresStateResponse], error) {
	return c.getCountermeasuresState.CallUnary(ctx, req)
}

func (c *cipherServiceClient) ReportMicFailure(ctx context.Context, req *connect.Request[wlancryptv1.ReportMicFailureRequest]) (*connect.Response[wlancryptv1.ReportMicFailureResponse], error) {
	return c.reportMicFailure.CallUnary(ctx, req)
}

func (c *cipherServiceClient) Stats(ctx context.Context, req *connect.Request[wlancryptv1.StatsRequest]) (*connect.Response[wlancryptv1.StatsResponse], error) {
	return c.stats.CallUnary(ctx, req)
}

// CipherServiceHandler is the server-side implementation of
// wlancrypt.v1.CipherService.
type CipherServiceHandler interface {
	InstallKey(context.Context, *connect.Request[wlancryptv1.InstallKeyRequest]) (*connect.Response[wlancryptv1.InstallKeyResponse], error)
	DeleteKey(context.Context, *connect.Request[wlancryptv1.DeleteKeyRequest]) (*connect.Response[wlancryptv1.DeleteKeyResponse], error)
	GetCountermeasuresState(context.Context, *connect.Request[wlancryptv1.GetCountermeasuresStateRequest]) (*connect.Response[wlancryptv1.GetCountermeasuresStateResponse], error)
	ReportMicFailure(context.Context, *connect.Request[wlancryptv1.ReportMicFailureRequest]) (*connect.Response[wlancryptv1.ReportMicFailureResponse], error)
	Stats(context.Context, *connect.Request[wlancryptv1.StatsRequest]) (*connect.Response[wlancryptv1.StatsResponse], error)
}

// NewCipherServiceHandler builds an HTTP handler for CipherService, to be
// mounted at the returned path (the ConnectRPC mux pattern used throughout
// the daemon's server wiring).
func NewCipherServiceHandler(svc CipherServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()

	mux.Handle(cipherServiceInstallKeyProcedure, connect.NewUnaryHandler(
		cipherServiceInstallKeyProcedure, svc.InstallKey, opts...,
	))
	mux.Handle(cipherServiceDeleteKeyProcedure, connect.NewUnaryHandler(
		cipherServiceDeleteKeyProcedure, svc.DeleteKey, opts...,
	))
	mux.Handle(cipherServiceGetCountermeasuresStateProcedure, connect.NewUnaryHandler(
		cipherServiceGetCountermeasuresStateProcedure, svc.GetCountermeasuresState, opts...,
	))
	mux.Handle(cipherServiceReportMicFailureProcedure, connect.NewUnaryHandler(
		cipherServiceReportMicFailureProcedure, svc.ReportMicFailure, opts...,
	))
	mux.Handle(cipherServiceStatsProcedure, connect.NewUnaryHandler(
		cipherServiceStatsProcedure, svc.Stats, opts...,
	))

	return "/wlancrypt.v1.CipherService/", mux
}

// UnimplementedCipherServiceHandler returns CodeUnimplemented from all
// methods, for embedding in partial test doubles.
type UnimplementedCipherServiceHandler struct{}

var errUnimplemented = errors.New("wlancrypt.v1.CipherService: not implemented")

func (UnimplementedCipherServiceHandler) InstallKey(context.Context, *connect.Request[wlancryptv1.InstallKeyRequest]) (*connect.Response[wlancryptv1.InstallKeyResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedCipherServiceHandler) DeleteKey(context.Context, *connect.Request[wlancryptv1.DeleteKeyRequest]) (*connect.Response[wlancryptv1.DeleteKeyResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedCipherServiceHandler) GetCountermeasuresState(context.Context, *connect.Request[wlancryptv1.GetCountermeasuresStateRequest]) (*connect.Response[wlancryptv1.GetCountermeasuresStateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedCipherServiceHandler) ReportMicFailure(context.Context, *connect.Request[wlancryptv1.ReportMicFailureRequest]) (*connect.Response[wlancryptv1.ReportMicFailureResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedCipherServiceHandler) Stats(context.Context, *connect.Request[wlancryptv1.StatsRequest]) (*connect.Response[wlancryptv1.StatsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}
