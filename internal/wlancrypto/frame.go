package wlancrypto

// Frame-control byte 0: protocol version (2 bits), type (2 bits), subtype
// (4 bits). Frame-control byte 1: ToDS, FromDS, More Fragments, Retry,
// Power Management, More Data, Protected, Order.
const (
	fc0TypeMask    = 0x0c
	fc0TypeMgmt    = 0x00
	fc0TypeData    = 0x08
	fc0SubtypeMask = 0xf0
	fc0SubtypeQoS  = 0x80 // bit 4 of the subtype nibble marks QoS data

	fc1ToDS      = 0x01
	fc1FromDS    = 0x02
	fc1MoreFrag  = 0x04
	fc1Retry     = 0x08
	fc1PwrMgt    = 0x10
	fc1MoreData  = 0x20
	fc1Protected = 0x40
	fc1Order     = 0x80

	addrLen = 6

	hdrBaseLen = 24 // FC(2) Dur(2) Addr1(6) Addr2(6) Addr3(6) SeqCtrl(2)
	addr4Len   = 6
	qosCtrlLen = 2
)

// FrameClass distinguishes the two classes of frame CCMP treats
// differently when building the AAD (spec section 4.2.1 and section 6).
type FrameClass int

const (
	FrameClassManagement FrameClass = iota
	FrameClassData
)

// Header is the result of introspecting an 802.11 MAC header: everything
// the CCMP/TKIP engines need to build AAD, nonces, and pseudo-headers
// without re-parsing frame-control bits themselves.
type Header struct {
	Length int
	Class  FrameClass

	FC0, FC1 byte

	Addr1, Addr2, Addr3 [addrLen]byte
	Addr4               [addrLen]byte
	HasAddr4            bool

	HasQoS bool
	TID    byte

	HasHTC bool

	// SeqCtrlLow is the low byte of the Sequence Control field (the
	// fragment-number nibble lives here); CCMP's AAD masks it further.
	SeqCtrlLow byte
}

// ParseHeader introspects the MAC header at the front of frame. It
// requires the first Length bytes to be contiguous, matching the
// contiguity precondition on BufferChain's head segment (spec section 3).
func ParseHeader(frame []byte) (*Header, error) {
	if len(frame) < hdrBaseLen {
		return nil, ErrFrameTooShort
	}

	fc0, fc1 := frame[0], frame[1]
	h := &Header{FC0: fc0, FC1: fc1}

	switch fc0 & fc0TypeMask {
	case fc0TypeMgmt:
		h.Class = FrameClassManagement
	case fc0TypeData:
		h.Class = FrameClassData
		if fc0&fc0SubtypeMask&fc0SubtypeQoS != 0 {
			h.HasQoS = true
		}
	default:
		h.Class = FrameClassManagement
	}

	h.Length = hdrBaseLen
	hasAddr4 := fc1&fc1ToDS != 0 && fc1&fc1FromDS != 0
	if hasAddr4 {
		h.Length += addr4Len
	}
	if h.HasQoS {
		h.Length += qosCtrlLen
	}
	if len(frame) < h.Length {
		return nil, ErrFrameTooShort
	}

	copy(h.Addr1[:], frame[4:10])
	copy(h.Addr2[:], frame[10:16])
	copy(h.Addr3[:], frame[16:22])
	h.SeqCtrlLow = frame[22]

	off := hdrBaseLen
	if hasAddr4 {
		copy(h.Addr4[:], frame[off:off+addr4Len])
		h.HasAddr4 = true
		off += addr4Len
	}
	if h.HasQoS {
		qos := frame[off]
		h.TID = qos & 0x0f
		off += qosCtrlLen
	}

	// HT Control is carried whenever Order is set on a QoS data frame
	// (IEEE 802.11-2007 Section 7.1.3.1.10, as amended by 802.11n); it
	// occupies four bytes immediately following the header modeled here
	// but, per the AAD construction rules, never changes Length itself.
	h.HasHTC = h.HasQoS && fc1&fc1Order != 0

	return h, nil
}

// ProtectedSet reports whether the Protected bit is set in fc1.
func (h *Header) ProtectedSet() bool { return h.FC1&fc1Protected != 0 }

// ClearProtected returns fc1 with the Protected bit cleared, for writing
// into a decrypted frame's copied header.
func (h *Header) ClearProtected() byte { return h.FC1 &^ fc1Protected }

// michaelAddrs selects DA/SA per the DS direction bits, as specified by
// the Michael pseudo-header table (spec section 6).
func (h *Header) michaelAddrs() (da, sa [addrLen]byte) {
	toDS := h.FC1&fc1ToDS != 0
	fromDS := h.FC1&fc1FromDS != 0
	switch {
	case !toDS && !fromDS:
		return h.Addr1, h.Addr2
	case toDS && !fromDS:
		return h.Addr3, h.Addr2
	case !toDS && fromDS:
		return h.Addr1, h.Addr3
	default: // ToDS && FromDS
		return h.Addr3, h.Addr4
	}
}

// michaelPriority is the TID used in the Michael pseudo-header: the QoS
// TID when present, otherwise zero (spec section 6).
func (h *Header) michaelPriority() byte {
	if h.HasQoS {
		return h.TID
	}
	return 0
}
