// Package wlancryptv1 holds the request/response message types for the
// wlancrypt.v1.CipherService ConnectRPC API (see
// wlancryptv1connect.CipherServiceHandler). These mirror what
// protoc-gen-go would emit from cipher.proto; they are hand-written here
// because this environment cannot invoke buf/protoc, so the field
// ordering, json names, and getter conventions below are the contract
// that a future `buf generate` run must reproduce byte-for-byte.
package wlancryptv1

// CipherSuite mirrors the wlancrypt.v1.CipherSuite proto enum.
type CipherSuite int32

const (
	CipherSuite_CIPHER_SUITE_UNSPECIFIED CipherSuite = 0
	CipherSuite_CIPHER_SUITE_CCMP        CipherSuite = 1
	CipherSuite_CIPHER_SUITE_TKIP        CipherSuite = 2
)

func (s CipherSuite) String() string {
	switch s {
	case CipherSuite_CIPHER_SUITE_CCMP:
		return "CCMP"
	case CipherSuite_CIPHER_SUITE_TKIP:
		return "TKIP"
	default:
		return "UNSPECIFIED"
	}
}

// OperatingMode mirrors the wlancrypt.v1.OperatingMode proto enum.
type OperatingMode int32

const (
	OperatingMode_OPERATING_MODE_UNSPECIFIED OperatingMode = 0
	OperatingMode_OPERATING_MODE_AP          OperatingMode = 1
	OperatingMode_OPERATING_MODE_STATION     OperatingMode = 2
)

// -------------------------------------------------------------------------
// InstallKey
// -------------------------------------------------------------------------

// InstallKeyRequest is validated by protovalidate: Iface and Station must
// be non-empty, KeyId must be in [0,3], and KeyBytes must be 16 bytes
// (CCMP, or TKIP per-direction halves) or 32 bytes (TKIP combined
// temporal + Michael key material), matching SPEC_FULL.md section 4.B.
type InstallKeyRequest struct {
	Iface     string      `protobuf:"bytes,1,opt,name=iface,proto3" json:"iface,omitempty"`
	Station   string      `protobuf:"bytes,2,opt,name=station,proto3" json:"station,omitempty"`
	Suite     CipherSuite `protobuf:"varint,3,opt,name=suite,proto3,enum=wlancrypt.v1.CipherSuite" json:"suite,omitempty"`
	KeyId     uint32      `protobuf:"varint,4,opt,name=key_id,json=keyId,proto3" json:"key_id,omitempty"`
	KeyBytes  []byte      `protobuf:"bytes,5,opt,name=key_bytes,json=keyBytes,proto3" json:"key_bytes,omitempty"`
	Mode      OperatingMode `protobuf:"varint,6,opt,name=mode,proto3,enum=wlancrypt.v1.OperatingMode" json:"mode,omitempty"`
}

func (x *InstallKeyRequest) GetIface() string {
	if x == nil {
		return ""
	}
	return x.Iface
}

func (x *InstallKeyRequest) GetStation() string {
	if x == nil {
		return ""
	}
	return x.Station
}

func (x *InstallKeyRequest) GetSuite() CipherSuite {
	if x == nil {
		return CipherSuite_CIPHER_SUITE_UNSPECIFIED
	}
	return x.Suite
}

func (x *InstallKeyRequest) GetKeyId() uint32 {
	if x == nil {
		return 0
	}
	return x.KeyId
}

func (x *InstallKeyRequest) GetKeyBytes() []byte {
	if x == nil {
		return nil
	}
	return x.KeyBytes
}

func (x *InstallKeyRequest) GetMode() OperatingMode {
	if x == nil {
		return OperatingMode_OPERATING_MODE_UNSPECIFIED
	}
	return x.Mode
}

// InstallKeyResponse is empty: success is the absence of an error, matching
// the teacher's AddSessionResponse/DeleteSessionResponse pattern of
// minimal response messages for mutating RPCs.
type InstallKeyResponse struct{}

// -------------------------------------------------------------------------
// DeleteKey
// -------------------------------------------------------------------------

type DeleteKeyRequest struct {
	Iface   string `protobuf:"bytes,1,opt,name=iface,proto3" json:"iface,omitempty"`
	Station string `protobuf:"bytes,2,opt,name=station,proto3" json:"station,omitempty"`
	KeyId   uint32 `protobuf:"varint,3,opt,name=key_id,json=keyId,proto3" json:"key_id,omitempty"`
}

func (x *DeleteKeyRequest) GetIface() string {
	if x == nil {
		return ""
	}
	return x.Iface
}

func (x *DeleteKeyRequest) GetStation() string {
	if x == nil {
		return ""
	}
	return x.Station
}

func (x *DeleteKeyRequest) GetKeyId() uint32 {
	if x == nil {
		return 0
	}
	return x.KeyId
}

type DeleteKeyResponse struct{}

// -------------------------------------------------------------------------
// GetCountermeasuresState
// -------------------------------------------------------------------------

type GetCountermeasuresStateRequest struct {
	Iface string `protobuf:"bytes,1,opt,name=iface,proto3" json:"iface,omitempty"`
}

func (x *GetCountermeasuresStateRequest) GetIface() string {
	if x == nil {
		return ""
	}
	return x.Iface
}

type GetCountermeasuresStateResponse struct {
	Active          bool   `protobuf:"varint,1,opt,name=active,proto3" json:"active,omitempty"`
	HasLastFailure  bool   `protobuf:"varint,2,opt,name=has_last_failure,json=hasLastFailure,proto3" json:"has_last_failure,omitempty"`
	LastFailureTick int64  `protobuf:"varint,3,opt,name=last_failure_tick,json=lastFailureTick,proto3" json:"last_failure_tick,omitempty"`
	LastFailedTsc   uint64 `protobuf:"varint,4,opt,name=last_failed_tsc,json=lastFailedTsc,proto3" json:"last_failed_tsc,omitempty"`
}

func (x *GetCountermeasuresStateResponse) GetActive() bool {
	if x == nil {
		return false
	}
	return x.Active
}

func (x *GetCountermeasuresStateResponse) GetHasLastFailure() bool {
	if x == nil {
		return false
	}
	return x.HasLastFailure
}

func (x *GetCountermeasuresStateResponse) GetLastFailureTick() int64 {
	if x == nil {
		return 0
	}
	return x.LastFailureTick
}

func (x *GetCountermeasuresStateResponse) GetLastFailedTsc() uint64 {
	if x == nil {
		return 0
	}
	return x.LastFailedTsc
}

// -------------------------------------------------------------------------
// ReportMicFailure
// -------------------------------------------------------------------------

// ReportMicFailureRequest is the hardware-offload driver hook named in
// spec.md section 6: a driver that verifies the Michael MIC itself (e.g.
// in firmware) reports the failing TSC here instead of routing the frame
// back through Decrypt.
type ReportMicFailureRequest struct {
	Iface string `protobuf:"bytes,1,opt,name=iface,proto3" json:"iface,omitempty"`
	Tsc   uint64 `protobuf:"varint,2,opt,name=tsc,proto3" json:"tsc,omitempty"`
}

func (x *ReportMicFailureRequest) GetIface() string {
	if x == nil {
		return ""
	}
	return x.Iface
}

func (x *ReportMicFailureRequest) GetTsc() uint64 {
	if x == nil {
		return 0
	}
	return x.Tsc
}

type ReportMicFailureResponse struct{}

// -------------------------------------------------------------------------
// Stats
// -------------------------------------------------------------------------

// StatsRequest has no fields: Stats always reports for every configured
// interface, matching ListSessions' unfiltered-by-default shape in the
// teacher's BfdService.
type StatsRequest struct{}

// InterfaceStats carries one interface's counters, sourced from the same
// Prometheus collector backing the /metrics endpoint (SPEC_FULL.md section
// 4.A); this RPC exists purely for wlancryptctl's convenience.
type InterfaceStats struct {
	Iface                 string `protobuf:"bytes,1,opt,name=iface,proto3" json:"iface,omitempty"`
	FramesEncrypted       uint64 `protobuf:"varint,2,opt,name=frames_encrypted,json=framesEncrypted,proto3" json:"frames_encrypted,omitempty"`
	FramesDecrypted       uint64 `protobuf:"varint,3,opt,name=frames_decrypted,json=framesDecrypted,proto3" json:"frames_decrypted,omitempty"`
	ReplayDrops           uint64 `protobuf:"varint,4,opt,name=replay_drops,json=replayDrops,proto3" json:"replay_drops,omitempty"`
	MicFailures           uint64 `protobuf:"varint,5,opt,name=mic_failures,json=micFailures,proto3" json:"mic_failures,omitempty"`
	IcvFailures           uint64 `protobuf:"varint,6,opt,name=icv_failures,json=icvFailures,proto3" json:"icv_failures,omitempty"`
	CountermeasuresActive bool   `protobuf:"varint,7,opt,name=countermeasures_active,json=countermeasuresActive,proto3" json:"countermeasures_active,omitempty"`
}

func (x *InterfaceStats) GetIface() string {
	if x == nil {
		return ""
	}
	return x.Iface
}

func (x *InterfaceStats) GetFramesEncrypted() uint64 {
	if x == nil {
		return 0
	}
	return x.FramesEncrypted
}

func (x *InterfaceStats) GetFramesDecrypted() uint64 {
	if x == nil {
		return 0
	}
	return x.FramesDecrypted
}

func (x *InterfaceStats) GetReplayDrops() uint64 {
	if x == nil {
		return 0
	}
	return x.ReplayDrops
}

func (x *InterfaceStats) GetMicFailures() uint64 {
	if x == nil {
		return 0
	}
	return x.MicFailures
}

func (x *InterfaceStats) GetIcvFailures() uint64 {
	if x == nil {
		return 0
	}
	return x.IcvFailures
}

func (x *InterfaceStats) GetCountermeasuresActive() bool {
	if x == nil {
		return false
	}
	return x.CountermeasuresActive
}

type StatsResponse struct {
	Interfaces []*InterfaceStats `protobuf:"bytes,1,rep,name=interfaces,proto3" json:"interfaces,omitempty"`
}

func (x *StatsResponse) GetInterfaces() []*InterfaceStats {
	if x == nil {
		return nil
	}
	return x.Interfaces
}
