package wlancrypto

// CipherSuite selects which engine backs a Key.
type CipherSuite int

const (
	CipherSuiteCCMP CipherSuite = iota
	CipherSuiteTKIP
)

func (c CipherSuite) String() string {
	switch c {
	case CipherSuiteCCMP:
		return "CCMP"
	case CipherSuiteTKIP:
		return "TKIP"
	default:
		return "unknown"
	}
}

const (
	// CCMPKeyLen is the 128-bit AES temporal key length.
	CCMPKeyLen = 16
	// TKIPKeyLen is the 128-bit temporal key plus both 64-bit Michael
	// sub-keys (spec section 3, "Key: bytes").
	TKIPKeyLen = 32

	numTIDs = 8
)

// ccmpContext holds the AES-128 key schedule, the only per-key state CCMP
// needs beyond the raw temporal key (spec section 3, "CCMP Context").
type ccmpContext struct {
	enc *aesEncryptor
}

// phase1Cache holds one direction's cached Phase-1 output (spec section
// 4.3.3): five 16-bit words, valid only once computed at least once.
type phase1Cache struct {
	ttak  [5]uint16
	valid bool
}

// tkipContext holds TKIP's per-key software state (spec section 3, "TKIP
// Context"): Michael sub-key pointers (role depends on AP/station mode,
// spec section 4.5) and the cached Phase-1 TTAK per direction.
type tkipContext struct {
	txMIC [8]byte
	rxMIC [8]byte
	tx    phase1Cache
	rx    phase1Cache
}

// Key is the cipher context installed for one station/direction pairing.
// It carries both the raw temporal key material and the cipher-specific
// precomputed state, plus the per-TID replay counters (spec section 3).
type Key struct {
	Suite CipherSuite
	Bytes []byte // 16 bytes (CCMP) or 32 bytes (TKIP: TK + 2x Michael key)
	ID    uint8  // 0-3

	TxCounter uint64 // 48-bit TSC/PN, single-writer (transmit path)

	RxCounter     [numTIDs]uint64 // per-TID, single-writer (receive path)
	RxCounterMgmt uint64          // CCMP management-frame replay counter

	ccmp *ccmpContext
	tkip *tkipContext
}

// installKey builds the private cipher state for bytes/id under suite,
// per spec section 4.5. mode decides which half of a TKIP key is "tx"
// versus "rx" (AP vs station, spec section 4.5).
func installKey(suite CipherSuite, id uint8, bytes []byte, mode OperatingMode) (*Key, error) {
	if id > 3 {
		return nil, ErrBadKeyID
	}
	k := &Key{Suite: suite, ID: id, Bytes: append([]byte(nil), bytes...)}

	switch suite {
	case CipherSuiteCCMP:
		if len(bytes) != CCMPKeyLen {
			return nil, ErrBadKeyLength
		}
		enc, err := newAESEncryptor(bytes)
		if err != nil {
			return nil, err
		}
		k.ccmp = &ccmpContext{enc: enc}

	case CipherSuiteTKIP:
		if len(bytes) != TKIPKeyLen {
			return nil, ErrBadKeyLength
		}
		ctx := &tkipContext{}
		// Bits 128-191 are the Michael key for AP->STA, bits 192-255 for
		// STA->AP (spec section 4.5); in AP mode AP->STA is our tx key,
		// in station mode it is our rx key.
		apToSTA, staToAP := [8]byte(bytes[16:24]), [8]byte(bytes[24:32])
		if mode == OperatingModeAP {
			ctx.txMIC, ctx.rxMIC = apToSTA, staToAP
		} else {
			ctx.rxMIC, ctx.txMIC = apToSTA, staToAP
		}
		k.tkip = ctx

	default:
		return nil, ErrBadKeyLength
	}

	return k, nil
}

// deleteKey wipes sensitive material before the Key becomes eligible for
// garbage collection (spec section 3, "destroyed at delete time: wipe
// sensitive material before release").
func deleteKey(k *Key) {
	if k == nil {
		return
	}
	for i := range k.Bytes {
		k.Bytes[i] = 0
	}
	if k.tkip != nil {
		for i := range k.tkip.txMIC {
			k.tkip.txMIC[i] = 0
		}
		for i := range k.tkip.rxMIC {
			k.tkip.rxMIC[i] = 0
		}
	}
	k.ccmp = nil
	k.tkip = nil
}
