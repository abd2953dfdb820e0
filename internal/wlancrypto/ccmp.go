package wlancrypto

import (
	"crypto/subtle"
	"encoding/binary"
)

// CCMP parameters fixed by IEEE 802.11-2007 Section 8.3.3.
const (
	ccmpHdrLen   = 8
	ccmpMICLen   = 8
	ccmpNonceLen = 13
	ccmpAADCap   = 30 // AAD content, zero-padded; prefixed by a 2-byte length
	ccmpBlockLen = 16
)

// ccmpBuildAAD constructs the zero-padded AAD content (without its 2-byte
// length prefix) per spec section 4.2.1, returning the buffer and the
// number of meaningful bytes.
func ccmpBuildAAD(h *Header) (aad [ccmpAADCap]byte, n int) {
	fc0 := h.FC0
	if h.Class == FrameClassData {
		fc0 &^= fc0SubtypeMask
	}
	aad[0] = fc0

	fc1 := h.FC1 &^ (fc1Retry | fc1PwrMgt | fc1MoreData)
	if h.HasHTC {
		fc1 &^= fc1Order
	}
	aad[1] = fc1

	copy(aad[2:8], h.Addr1[:])
	copy(aad[8:14], h.Addr2[:])
	copy(aad[14:20], h.Addr3[:])
	n = 20

	aad[n] = h.SeqCtrlLow & 0x0f // sequence-number bits cleared, fragment number kept
	aad[n+1] = 0
	n += 2

	if h.HasAddr4 {
		copy(aad[n:n+addrLen], h.Addr4[:])
		n += addrLen
	}

	if h.HasQoS {
		aad[n] = h.TID
		aad[n+1] = 0
		n += 2
	}

	return aad, n
}

// ccmpNonce builds the 13-byte CCM nonce per spec section 4.2.1.
func ccmpNonce(h *Header, pn uint64) [ccmpNonceLen]byte {
	var nonce [ccmpNonceLen]byte
	priority := byte(0)
	if h.HasQoS {
		priority = h.TID
	}
	if h.Class == FrameClassManagement {
		priority |= 0x10
	}
	nonce[0] = priority
	copy(nonce[1:7], h.Addr2[:])
	putUint48BE(nonce[7:13], pn)
	return nonce
}

func putUint48BE(dst []byte, v uint64) {
	dst[0] = byte(v >> 40)
	dst[1] = byte(v >> 32)
	dst[2] = byte(v >> 24)
	dst[3] = byte(v >> 16)
	dst[4] = byte(v >> 8)
	dst[5] = byte(v)
}

// ccmpMICState carries the CBC-MAC accumulator and CTR keystream state
// shared by encrypt and decrypt, per spec section 4.2.1.
type ccmpMICState struct {
	enc     *aesEncryptor
	nonce   [ccmpNonceLen]byte
	t       [ccmpBlockLen]byte // CBC-MAC accumulator
	s0      [ccmpBlockLen]byte
	sCur    [ccmpBlockLen]byte
	counter uint16
	sPos    int // bytes of sCur already consumed (== ccmpBlockLen when exhausted)
}

func newCCMPMICState(enc *aesEncryptor, nonce [ccmpNonceLen]byte, lm int, aad [ccmpAADCap]byte, aadLen int) ccmpMICState {
	st := ccmpMICState{enc: enc, nonce: nonce}

	var b0 [ccmpBlockLen]byte
	b0[0] = 0x59 // Adata=1, (M-2)/2=3, L-1=1
	copy(b0[1:14], nonce[:])
	binary.BigEndian.PutUint16(b0[14:16], uint16(lm))

	var x [ccmpBlockLen]byte
	st.enc.encryptBlock(x[:], b0[:])

	var aadBlock [ccmpBlockLen]byte
	binary.BigEndian.PutUint16(aadBlock[0:2], uint16(aadLen))
	copy(aadBlock[2:16], aad[0:14])
	xorBlock(x[:], x[:], aadBlock[:])
	st.enc.encryptBlock(x[:], x[:])

	copy(aadBlock[:], aad[14:30])
	xorBlock(x[:], x[:], aadBlock[:])
	st.enc.encryptBlock(x[:], x[:])

	st.t = x

	var a0 [ccmpBlockLen]byte
	a0[0] = 0x01
	copy(a0[1:14], nonce[:])
	st.enc.encryptBlock(st.s0[:], a0[:])

	st.sPos = ccmpBlockLen // force generation of S_1 on first byte needed
	return st
}

// nextKeystreamByte returns the next CTR keystream byte (S_1, S_2, ...).
func (st *ccmpMICState) nextKeystreamByte() byte {
	if st.sPos == ccmpBlockLen {
		st.counter++
		var a [ccmpBlockLen]byte
		a[0] = 0x01
		copy(a[1:14], st.nonce[:])
		binary.BigEndian.PutUint16(a[14:16], st.counter)
		st.enc.encryptBlock(st.sCur[:], a[:])
		st.sPos = 0
	}
	b := st.sCur[st.sPos]
	st.sPos++
	return b
}

// micBlock buffers the CBC-MAC block being filled; absorb folds one
// plaintext byte into it at position pos (0..15), running the AES step
// once the block fills.
type micBlock struct {
	buf [ccmpBlockLen]byte
	pos int
}

func (st *ccmpMICState) absorb(mb *micBlock, b byte) {
	mb.buf[mb.pos] = b
	mb.pos++
	if mb.pos == ccmpBlockLen {
		st.cbcStep(mb.buf[:])
		mb.pos = 0
		mb.buf = [ccmpBlockLen]byte{}
	}
}

func (st *ccmpMICState) cbcStep(block []byte) {
	xorBlock(st.t[:], st.t[:], block)
	st.enc.encryptBlock(st.t[:], st.t[:])
}

// finalizeMIC runs the last partial CBC-MAC block (implicit zero padding)
// if one is pending, and returns the 8-byte MIC.
func (st *ccmpMICState) finalizeMIC(mb *micBlock) [ccmpMICLen]byte {
	if mb.pos > 0 {
		st.cbcStep(mb.buf[:])
	}
	var mic [ccmpMICLen]byte
	for i := 0; i < ccmpMICLen; i++ {
		mic[i] = st.t[i] ^ st.s0[i]
	}
	return mic
}

func xorBlock(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// ccmpEncrypt implements the streaming encrypt pipeline of spec section
// 4.2.2. frame must begin with a contiguous MAC header (spec section 3).
func ccmpEncrypt(pool Allocator, frame *Chain, key *Key) (*Chain, error) {
	h, err := ParseHeader(frame.Head().Data())
	if err != nil {
		return nil, err
	}

	key.TxCounter++
	pn := key.TxCounter

	w := newWriter(pool)
	if w == nil {
		return nil, ErrAllocFailed
	}
	if !w.appendBytes(frame.Head().Data()[:h.Length]) {
		return nil, ErrAllocFailed
	}

	var ivHdr [ccmpHdrLen]byte
	writeCCMPHeader(ivHdr[:], pn, key.ID)
	if !w.appendBytes(ivHdr[:]) {
		return nil, ErrAllocFailed
	}

	lm := frame.TotalLength() - h.Length
	aad, aadLen := ccmpBuildAAD(h)
	nonce := ccmpNonce(h, pn)
	st := newCCMPMICState(key.ccmp.enc, nonce, lm, aad, aadLen)

	in := newReader(frame)
	in.skip(h.Length)

	var mb micBlock
	ok := stream(in, w, lm, func(dst, src []byte) {
		for i, pb := range src {
			st.absorb(&mb, pb)
			dst[i] = pb ^ st.nextKeystreamByte()
		}
	})
	if !ok {
		return nil, ErrAllocFailed
	}

	mic := st.finalizeMIC(&mb)
	if !w.appendBytes(mic[:]) {
		return nil, ErrAllocFailed
	}

	return w.chain, nil
}

func writeCCMPHeader(dst []byte, pn uint64, keyID uint8) {
	dst[0] = byte(pn)      // PN0
	dst[1] = byte(pn >> 8) // PN1
	dst[2] = 0x00
	dst[3] = keyID<<6 | 0x20 // ExtIV
	dst[4] = byte(pn >> 16)
	dst[5] = byte(pn >> 24)
	dst[6] = byte(pn >> 32)
	dst[7] = byte(pn >> 40)
}

// ccmpDecrypt implements the streaming decrypt pipeline of spec section
// 4.2.3, including the replay-then-MIC ordering invariant from section
// 5 ("the replay counter is advanced only after MIC verification
// succeeds").
func ccmpDecrypt(pool Allocator, frame *Chain, key *Key) (*Chain, error) {
	h, err := ParseHeader(frame.Head().Data())
	if err != nil {
		return nil, err
	}
	if frame.TotalLength() < h.Length+ccmpHdrLen+ccmpMICLen {
		return nil, ErrFrameTooShort
	}

	ivHdr := make([]byte, ccmpHdrLen)
	frame.CopyOut(h.Length, ccmpHdrLen, ivHdr)
	if ivHdr[3]&0x20 == 0 {
		return nil, ErrExtIVMissing
	}
	pn := uint64(ivHdr[0]) | uint64(ivHdr[1])<<8 | uint64(ivHdr[4])<<16 |
		uint64(ivHdr[5])<<24 | uint64(ivHdr[6])<<32 | uint64(ivHdr[7])<<40

	var counter *uint64
	if h.Class == FrameClassManagement {
		counter = &key.RxCounterMgmt
	} else {
		counter = &key.RxCounter[h.TID]
	}
	if pn <= *counter {
		return nil, ErrReplay
	}

	lm := frame.TotalLength() - h.Length - ccmpHdrLen - ccmpMICLen

	aad, aadLen := ccmpBuildAAD(h)
	nonce := ccmpNonce(h, pn)
	st := newCCMPMICState(key.ccmp.enc, nonce, lm, aad, aadLen)

	w := newWriter(pool)
	if w == nil {
		return nil, ErrAllocFailed
	}
	headerCopy := append([]byte(nil), frame.Head().Data()[:h.Length]...)
	headerCopy[1] = h.ClearProtected()
	if !w.appendBytes(headerCopy) {
		return nil, ErrAllocFailed
	}

	in := newReader(frame)
	in.skip(h.Length + ccmpHdrLen)

	var mb micBlock
	ok := stream(in, w, lm, func(dst, src []byte) {
		for i, cb := range src {
			pb := cb ^ st.nextKeystreamByte()
			st.absorb(&mb, pb)
			dst[i] = pb
		}
	})
	if !ok {
		return nil, ErrAllocFailed
	}

	computed := st.finalizeMIC(&mb)
	received := make([]byte, ccmpMICLen)
	frame.CopyOut(h.Length+ccmpHdrLen+lm, ccmpMICLen, received)

	if subtle.ConstantTimeCompare(computed[:], received) != 1 {
		return nil, ErrMICMismatch
	}

	*counter = pn
	return w.chain, nil
}
