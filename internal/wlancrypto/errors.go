package wlancrypto

import "errors"

// Sentinel errors returned by the engine layer. Per spec section 7, every
// packet-level fault is a silent discard: callers should treat any error
// from Encrypt/Decrypt as "drop the frame", never as something to surface
// to the wire. The distinct sentinels exist for logging and metrics, not
// for protocol behavior, which is identical across all of them.
var (
	ErrFrameTooShort   = errors.New("wlancrypto: frame shorter than header")
	ErrAllocFailed     = errors.New("wlancrypto: buffer pool exhausted")
	ErrExtIVMissing    = errors.New("wlancrypto: ExtIV bit not set")
	ErrReplay          = errors.New("wlancrypto: packet number not greater than replay counter")
	ErrICVMismatch     = errors.New("wlancrypto: WEP ICV mismatch")
	ErrMICMismatch     = errors.New("wlancrypto: MIC mismatch")
	ErrKeyNotInstalled = errors.New("wlancrypto: no key installed for station")
	ErrBadKeyLength    = errors.New("wlancrypto: invalid key length for cipher suite")
	ErrBadKeyID        = errors.New("wlancrypto: key id out of range 0-3")
)
