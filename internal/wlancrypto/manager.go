package wlancrypto

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/go80211/wlancrypt/internal/stationdb"
)

// CountermeasuresState is the process-wide-per-interface state named in
// spec section 3.
type CountermeasuresState struct {
	Active          bool
	HasLastFailure  bool
	LastFailureTick int64
	LastFailedTSC   uint64
}

// InterfaceState groups everything the Manager tracks per radio
// interface: the AP/station mode that decides Michael key-half
// assignment (spec section 4.5) and the countermeasures state machine
// (spec section 4.4), which persists across key rotations (spec
// section 3, "Lifecycle").
type InterfaceState struct {
	Mode            OperatingMode
	Countermeasures CountermeasuresState
}

// MetricsRecorder is the narrow interface the Manager emits observability
// events through, implemented by internal/metrics.Collector. Defined here
// rather than imported to keep the engine package free of a Prometheus
// dependency, the same decoupling the teacher uses between its session
// logic and its metrics collector.
type MetricsRecorder interface {
	RecordEncrypt(suite CipherSuite)
	RecordDecrypt(suite CipherSuite)
	RecordReplayDrop(suite CipherSuite)
	RecordMICFailure(suite CipherSuite)
	RecordICVFailure()
	RecordCountermeasuresActivation(iface string)
}

type stationKeyID struct {
	iface   string
	station string
	keyID   uint8
}

// Manager owns the per-interface InterfaceState table and the per-station
// Key table, and is the sole entry point the host collaborator uses to
// install keys and push frames through the right engine (spec section 2,
// "Cipher Context Lifecycle" + section 6, "Host interface").
type Manager struct {
	mu sync.RWMutex

	pool          Allocator
	clock         Clock
	host          stationdb.Host
	logger        *slog.Logger
	metrics       MetricsRecorder
	windowSeconds int64

	interfaces map[string]*InterfaceState
	keys       map[stationKeyID]*Key
}

// ManagerOption configures optional Manager behavior at construction
// time, following the functional-options pattern used throughout this
// codebase for session/server construction.
type ManagerOption func(*Manager)

// WithMetrics attaches a Prometheus-backed (or fake) MetricsRecorder.
func WithMetrics(m MetricsRecorder) ManagerOption {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithCountermeasuresWindow overrides the default 60-second window (spec
// section 4.4); intended for test environments that cannot wait a minute.
// A value of zero or less keeps DefaultCountermeasuresWindowSeconds.
func WithCountermeasuresWindow(seconds int64) ManagerOption {
	return func(mgr *Manager) {
		if seconds > 0 {
			mgr.windowSeconds = seconds
		}
	}
}

// NewManager builds a Manager. host may be nil (countermeasures actions
// are then logged but not executed), useful for engine-only tests.
func NewManager(pool Allocator, clock Clock, host stationdb.Host, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	mgr := &Manager{
		pool:          pool,
		clock:         clock,
		host:          host,
		logger:        logger,
		windowSeconds: DefaultCountermeasuresWindowSeconds,
		interfaces:    make(map[string]*InterfaceState),
		keys:          make(map[stationKeyID]*Key),
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// ConfigureInterface registers iface (if new) and sets its operating
// mode. Must be called before InstallKey for TKIP keys, since Michael
// key-half assignment depends on mode (spec section 4.5).
func (m *Manager) ConfigureInterface(iface string, mode OperatingMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureInterfaceLocked(iface).Mode = mode
}

func (m *Manager) ensureInterfaceLocked(iface string) *InterfaceState {
	ifs, ok := m.interfaces[iface]
	if !ok {
		ifs = &InterfaceState{}
		m.interfaces[iface] = ifs
	}
	return ifs
}

// InstallKey implements the host interface's install_key operation (spec
// section 6).
func (m *Manager) InstallKey(iface, station string, suite CipherSuite, keyID uint8, bytes []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ifs := m.ensureInterfaceLocked(iface)
	k, err := installKey(suite, keyID, bytes, ifs.Mode)
	if err != nil {
		return err
	}
	m.keys[stationKeyID{iface, station, keyID}] = k
	m.logger.Info("key installed",
		slog.String("iface", iface), slog.String("station", station),
		slog.String("suite", suite.String()), slog.Int("key_id", int(keyID)))
	return nil
}

// DeleteKey implements the host interface's delete_key operation.
func (m *Manager) DeleteKey(iface, station string, keyID uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := stationKeyID{iface, station, keyID}
	k, ok := m.keys[id]
	if !ok {
		return ErrKeyNotInstalled
	}
	deleteKey(k)
	delete(m.keys, id)
	m.logger.Info("key deleted", slog.String("iface", iface), slog.String("station", station), slog.Int("key_id", int(keyID)))
	return nil
}

func (m *Manager) lookupKey(iface, station string, keyID uint8) (*Key, Cipher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.keys[stationKeyID{iface, station, keyID}]
	if !ok {
		return nil, nil, ErrKeyNotInstalled
	}
	return k, cipherFor(k.Suite), nil
}

// Encrypt implements the host interface's encrypt operation (spec
// section 6): encrypt(frame_in, key) -> frame_out | null.
func (m *Manager) Encrypt(iface, station string, keyID uint8, frame *Chain) (*Chain, error) {
	key, cip, err := m.lookupKey(iface, station, keyID)
	if err != nil {
		return nil, err
	}
	out, err := cip.Encrypt(m.pool, frame, key)
	if err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.RecordEncrypt(cip.Suite())
	}
	return out, nil
}

// Decrypt implements the host interface's decrypt operation. Every
// packet-level fault is a silent discard at the wire (spec section 7);
// the returned error exists for metrics/logging only and must never be
// surfaced as a protocol response to the frame's sender.
func (m *Manager) Decrypt(iface, station string, keyID uint8, frame *Chain) (*Chain, error) {
	key, cip, err := m.lookupKey(iface, station, keyID)
	if err != nil {
		return nil, err
	}

	out, err := cip.Decrypt(m.pool, frame, key)
	if err != nil {
		m.recordDecryptFailure(iface, cip.Suite(), err)
		m.logger.Debug("frame discarded", slog.String("iface", iface), slog.String("station", station), slog.Any("error", err))
		return nil, err
	}

	if m.metrics != nil {
		m.metrics.RecordDecrypt(cip.Suite())
	}
	return out, nil
}

func (m *Manager) recordDecryptFailure(iface string, suite CipherSuite, err error) {
	switch {
	case errors.Is(err, ErrReplay):
		if m.metrics != nil {
			m.metrics.RecordReplayDrop(suite)
		}
	case errors.Is(err, ErrICVMismatch):
		if m.metrics != nil {
			m.metrics.RecordICVFailure()
		}
	case errors.Is(err, ErrMICMismatch):
		if m.metrics != nil {
			m.metrics.RecordMICFailure(suite)
		}
		var micErr *micFailureError
		if errors.As(err, &micErr) {
			m.ReportMICFailure(iface, micErr.tsc)
		}
	}
}

// ReportMICFailure is the mic_failure(tsc) hook named in spec section 6,
// callable directly by hardware-offload drivers that detect a Michael
// failure themselves without going through Decrypt.
func (m *Manager) ReportMICFailure(iface string, tsc uint64) {
	m.mu.Lock()
	ifs, ok := m.interfaces[iface]
	if !ok {
		m.mu.Unlock()
		return
	}
	next, action := EvaluateMICFailure(ifs.Countermeasures, ifs.Mode, tsc, m.clock.Ticks(), m.clock.TicksPerSecond(), m.windowSeconds)
	ifs.Countermeasures = next
	mode := ifs.Mode
	m.mu.Unlock()

	m.executeMICFailureAction(iface, mode, action)
}

func (m *Manager) executeMICFailureAction(iface string, mode OperatingMode, action MICFailureAction) {
	switch action.Kind {
	case MICFailureActionNone:
		return
	case MICFailureActionArm:
		m.logger.Debug("Michael MIC failure recorded, arming countermeasures window", slog.String("iface", iface))
		return
	case MICFailureActionEngageAP, MICFailureActionEngageStation:
		m.logger.Warn("TKIP countermeasures engaged", slog.String("iface", iface), slog.String("action", action.Kind.String()))
		if m.metrics != nil {
			m.metrics.RecordCountermeasuresActivation(iface)
		}
	}

	if m.host == nil {
		return
	}

	switch action.Kind {
	case MICFailureActionEngageAP:
		m.host.IterateStations(func(st stationdb.Station) {
			if st.PairwiseCipherIsTKIP || st.GroupCipherIsTKIP {
				m.host.Deauthenticate(st.ID, stationdb.ReasonMICFailure)
			}
		})
	case MICFailureActionEngageStation:
		m.host.SendMICFailureReport(action.PreviousTSC)
		m.host.SendMICFailureReport(action.CurrentTSC)
		m.host.Deauthenticate("", stationdb.ReasonMICFailure)
		m.host.EnterScanState()
	}
	_ = mode
}

// GetCountermeasuresState returns the current countermeasures state for
// iface, and false if the interface has not been configured.
func (m *Manager) GetCountermeasuresState(iface string) (CountermeasuresState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ifs, ok := m.interfaces[iface]
	if !ok {
		return CountermeasuresState{}, false
	}
	return ifs.Countermeasures, true
}

// Interfaces returns the names of every interface configured via
// ConfigureInterface, in no particular order. Used by the server's Stats
// RPC to enumerate what to report on.
func (m *Manager) Interfaces() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.interfaces))
	for name := range m.interfaces {
		out = append(out, name)
	}
	return out
}
