package wlancrypto

import (
	"crypto/subtle"
	"encoding/binary"
	"hash/crc32"
)

// TKIP parameters fixed by IEEE 802.11-2007 Section 8.3.2.
const (
	tkipHdrLen = 8
	tkipMICLen = 8
	tkipICVLen = 4
	tkipTailLen = tkipMICLen + tkipICVLen

	phase1LoopCount = 8
)

// tkipSbox is the 16-bit S-box used by the TKIP key-mixing function
// (spec section 4.3.1): entry i holds 2*S[i] in its high byte and 3*S[i]
// in its low byte (GF(2^8) multiples of the AES S-box value for byte i,
// e.g. S[0] = 0x63 gives 0xC6A5), so that a single table lookup plus one
// byte-swapped lookup produces the full 16-to-16-bit mixing function
// (spec section 9, "Endian").
var tkipSbox = [256]uint16{
	0xC6A5, 0xF884, 0xEE99, 0xF68D, 0xFF0D, 0xD6BD, 0xDEB1, 0x9154,
	0x6050, 0x0203, 0xCEA9, 0x567D, 0xE719, 0xB562, 0x4DE6, 0xEC9A,
	0x8F45, 0x1F9D, 0x8940, 0xFA87, 0xEF15, 0xB2EB, 0x8EC9, 0xFB0B,
	0x41EC, 0xB367, 0x5FFD, 0x45EA, 0x23BF, 0x53F7, 0xE496, 0x9B5B,
	0x75C2, 0xE11C, 0x3DAE, 0x4C6A, 0x6C5A, 0x7E41, 0xF502, 0x834F,
	0x685C, 0x51F4, 0xD134, 0xF908, 0xE293, 0xAB73, 0x6253, 0x2A3F,
	0x080C, 0x9552, 0x4665, 0x9D5E, 0x3028, 0x37A1, 0x0A0F, 0x2FB5,
	0x0E09, 0x2436, 0x1B9B, 0xDF3D, 0xCD26, 0x4E69, 0x7FCD, 0xEA9F,
	0x121B, 0x1D9E, 0x5874, 0x342E, 0x362D, 0xDCB2, 0xB4EE, 0x5BFB,
	0xA4F6, 0x764D, 0xB761, 0x7DCE, 0x527B, 0xDD3E, 0x5E71, 0x1397,
	0xA6F5, 0xB968, 0x0000, 0xC12C, 0x4060, 0xE31F, 0x79C8, 0xB6ED,
	0xD4BE, 0x8D46, 0x67D9, 0x724B, 0x94DE, 0x98D4, 0xB0E8, 0x854A,
	0xBB6B, 0xC52A, 0x4FE5, 0xED16, 0x86C5, 0x9AD7, 0x6655, 0x1194,
	0x8ACF, 0xE910, 0x0406, 0xFE81, 0xA0F0, 0x7844, 0x25BA, 0x4BE3,
	0xA2F3, 0x5DFE, 0x80C0, 0x058A, 0x3FAD, 0x21BC, 0x7048, 0xF104,
	0x63DF, 0x77C1, 0xAF75, 0x4263, 0x2030, 0xE51A, 0xFD0E, 0xBF6D,
	0x814C, 0x1814, 0x2635, 0xC32F, 0xBEE1, 0x35A2, 0x88CC, 0x2E39,
	0x9357, 0x55F2, 0xFC82, 0x7A47, 0xC8AC, 0xBAE7, 0x322B, 0xE695,
	0xC0A0, 0x1998, 0x9ED1, 0xA37F, 0x4466, 0x547E, 0x3BAB, 0x0B83,
	0x8CCA, 0xC729, 0x6BD3, 0x283C, 0xA779, 0xBCE2, 0x161D, 0xAD76,
	0xDB3B, 0x6456, 0x744E, 0x141E, 0x92DB, 0x0C0A, 0x486C, 0xB8E4,
	0x9F5D, 0xBD6E, 0x43EF, 0xC4A6, 0x39A8, 0x31A4, 0xD337, 0xF28B,
	0xD532, 0x8B43, 0x6E59, 0xDAB7, 0x018C, 0xB164, 0x9CD2, 0x49E0,
	0xD8B4, 0xACFA, 0xF307, 0xCF25, 0xCAAF, 0xF48E, 0x47E9, 0x1018,
	0x6FD5, 0xF088, 0x4A6F, 0x5C72, 0x3824, 0x57F1, 0x73C7, 0x9751,
	0xCB23, 0xA17C, 0xE89C, 0x3E21, 0x96DD, 0x61DC, 0x0D86, 0x0F85,
	0xE090, 0x7C42, 0x71C4, 0xCCAA, 0x90D8, 0x0605, 0xF701, 0x1C12,
	0xC2A3, 0x6A5F, 0xAEF9, 0x69D0, 0x1791, 0x9958, 0x3A27, 0x27B9,
	0xD938, 0xEB13, 0x2BB3, 0x2233, 0xD2BB, 0xA970, 0x0789, 0x33A7,
	0x2DB6, 0x3C22, 0x1592, 0xC920, 0x8749, 0xAAFF, 0x5078, 0xA57A,
	0x038F, 0x59F8, 0x0980, 0x1A17, 0x65DA, 0xD731, 0x84C6, 0xD0B8,
	0x82C3, 0x29B0, 0x5A77, 0x1E11, 0x7BCB, 0xA8FC, 0x6DD6, 0x2C3A,
}

func tkipSboxMix(v uint16) uint16 {
	lo, hi := byte(v), byte(v>>8)
	return tkipSbox[lo] ^ swap16(tkipSbox[hi])
}

func swap16(v uint16) uint16 { return v<<8 | v>>8 }

func tkipRotR1(v uint16) uint16 { return (v>>1)&0x7fff ^ (v&1)<<15 }

// tk16 selects the Nth little-endian 16-bit word of the temporal key.
func tk16(tk []byte, n int) uint16 { return binary.LittleEndian.Uint16(tk[2*n : 2*n+2]) }

// tkipPhase1 computes P1K from TK, the transmitter address, and the upper
// 32 bits of the TSC (spec section 4.3.1). Encrypt re-runs it only when
// the cache is invalid or the low 16 TSC bits wrap (spec section 4.3.3);
// decrypt re-runs it when the cache is invalid or the received upper 32
// TSC bits differ from the last accepted ones.
func tkipPhase1(tk []byte, ta [addrLen]byte, iv32 uint32) [5]uint16 {
	var p1k [5]uint16
	p1k[0] = uint16(iv32)
	p1k[1] = uint16(iv32 >> 16)
	p1k[2] = uint16(ta[0]) | uint16(ta[1])<<8
	p1k[3] = uint16(ta[2]) | uint16(ta[3])<<8
	p1k[4] = uint16(ta[4]) | uint16(ta[5])<<8

	for i := 0; i < phase1LoopCount; i++ {
		j := i & 1
		p1k[0] += tkipSboxMix(p1k[4] ^ tk16(tk, j+0))
		p1k[1] += tkipSboxMix(p1k[0] ^ tk16(tk, j+2))
		p1k[2] += tkipSboxMix(p1k[1] ^ tk16(tk, j+4))
		p1k[3] += tkipSboxMix(p1k[2] ^ tk16(tk, j+6))
		p1k[4] += tkipSboxMix(p1k[3] ^ tk16(tk, j+0))
		p1k[4] += uint16(i) // avoid slide attacks
	}
	return p1k
}

// tkipPhase2 mixes P1K, TK, and the low 16 TSC bits into a 16-byte RC4 key
// (spec section 4.3.2).
func tkipPhase2(tk []byte, p1k [5]uint16, iv16 uint16) [16]byte {
	var ppk [6]uint16
	copy(ppk[:5], p1k[:])
	ppk[5] = p1k[4] + iv16

	ppk[0] += tkipSboxMix(ppk[5] ^ tk16(tk, 0))
	ppk[1] += tkipSboxMix(ppk[0] ^ tk16(tk, 1))
	ppk[2] += tkipSboxMix(ppk[1] ^ tk16(tk, 2))
	ppk[3] += tkipSboxMix(ppk[2] ^ tk16(tk, 3))
	ppk[4] += tkipSboxMix(ppk[3] ^ tk16(tk, 4))
	ppk[5] += tkipSboxMix(ppk[4] ^ tk16(tk, 5))

	ppk[0] += tkipRotR1(ppk[5] ^ tk16(tk, 6))
	ppk[1] += tkipRotR1(ppk[0] ^ tk16(tk, 7))
	ppk[2] += tkipRotR1(ppk[1])
	ppk[3] += tkipRotR1(ppk[2])
	ppk[4] += tkipRotR1(ppk[3])
	ppk[5] += tkipRotR1(ppk[4])

	var rc4key [16]byte
	hi8 := byte(iv16 >> 8)
	rc4key[0] = hi8
	rc4key[1] = (hi8 | 0x20) & 0x7f // FMS weak-key avoidance byte
	rc4key[2] = byte(iv16)
	rc4key[3] = byte((ppk[5] ^ tk16(tk, 0)) >> 1)
	for i := 0; i < 6; i++ {
		binary.LittleEndian.PutUint16(rc4key[4+2*i:6+2*i], ppk[i])
	}
	return rc4key
}

// tkipPseudoHeader builds the 16-byte Michael pseudo-header (spec section
// 6): DA(6) | SA(6) | priority(1) | pad(3).
func tkipPseudoHeader(h *Header) [16]byte {
	var hdr [16]byte
	da, sa := h.michaelAddrs()
	copy(hdr[0:6], da[:])
	copy(hdr[6:12], sa[:])
	hdr[12] = h.michaelPriority()
	return hdr
}

// micFailureError wraps ErrMICMismatch with the TSC of the offending
// frame so the Manager can feed it to EvaluateMICFailure without the
// engine itself depending on the countermeasures controller or operating
// mode (spec section 4.4 treats MIC-failure reporting and countermeasures
// policy as a separate concern from the cipher pipeline).
type micFailureError struct {
	tsc uint64
}

func (e *micFailureError) Error() string { return ErrMICMismatch.Error() }
func (e *micFailureError) Unwrap() error { return ErrMICMismatch }

// tkipEncrypt implements the pipeline of spec section 4.3.4.
func tkipEncrypt(pool Allocator, frame *Chain, key *Key) (*Chain, error) {
	h, err := ParseHeader(frame.Head().Data())
	if err != nil {
		return nil, err
	}

	key.TxCounter++
	tsc := key.TxCounter
	tk := key.Bytes[0:16]

	tx := &key.tkip.tx
	if !tx.valid || tsc&0xffff == 0 {
		tx.ttak = tkipPhase1(tk, h.Addr2, uint32(tsc>>16))
		tx.valid = true
	}
	rc4key := tkipPhase2(tk, tx.ttak, uint16(tsc))
	stream4, err := newRC4Stream(rc4key[:])
	if err != nil {
		return nil, err
	}

	w := newWriter(pool)
	if w == nil {
		return nil, ErrAllocFailed
	}
	if !w.appendBytes(frame.Head().Data()[:h.Length]) {
		return nil, ErrAllocFailed
	}

	var ivHdr [tkipHdrLen]byte
	writeTKIPHeader(ivHdr[:], tsc, key.ID)
	if !w.appendBytes(ivHdr[:]) {
		return nil, ErrAllocFailed
	}

	lm := frame.TotalLength() - h.Length
	crc := crc32.NewIEEE()
	mic := newMichaelState(key.tkip.txMIC)
	pseudo := tkipPseudoHeader(h)
	mic.update(pseudo[:])

	in := newReader(frame)
	in.skip(h.Length)

	ok := stream(in, w, lm, func(dst, src []byte) {
		crc.Write(src)
		mic.update(src)
		stream4.XORKeyStream(dst, src)
	})
	if !ok {
		return nil, ErrAllocFailed
	}

	micBytes := mic.finalize()
	crc.Write(micBytes[:])
	encMIC := make([]byte, tkipMICLen)
	stream4.XORKeyStream(encMIC, micBytes[:])
	if !w.appendBytes(encMIC) {
		return nil, ErrAllocFailed
	}

	sum := crc.Sum32()
	var icv [tkipICVLen]byte
	binary.LittleEndian.PutUint32(icv[:], sum)
	encICV := make([]byte, tkipICVLen)
	stream4.XORKeyStream(encICV, icv[:])
	if !w.appendBytes(encICV) {
		return nil, ErrAllocFailed
	}

	return w.chain, nil
}

func writeTKIPHeader(dst []byte, tsc uint64, keyID uint8) {
	tsc0 := byte(tsc)
	tsc1 := byte(tsc >> 8)
	dst[0] = tsc1
	dst[1] = (tsc1 | 0x20) & 0x7f
	dst[2] = tsc0
	dst[3] = keyID<<6 | 0x20 // ExtIV
	dst[4] = byte(tsc >> 16)
	dst[5] = byte(tsc >> 24)
	dst[6] = byte(tsc >> 32)
	dst[7] = byte(tsc >> 40)
}

// tkipDecrypt implements the pipeline of spec section 4.3.5, including
// the commit-order invariant: the replay counter and Phase-1 cache are
// only made visible after both ICV and MIC checks pass.
func tkipDecrypt(pool Allocator, frame *Chain, key *Key) (*Chain, error) {
	h, err := ParseHeader(frame.Head().Data())
	if err != nil {
		return nil, err
	}
	if frame.TotalLength() < h.Length+tkipHdrLen+tkipTailLen {
		return nil, ErrFrameTooShort
	}

	ivHdr := make([]byte, tkipHdrLen)
	frame.CopyOut(h.Length, tkipHdrLen, ivHdr)
	if ivHdr[3]&0x20 == 0 {
		return nil, ErrExtIVMissing
	}
	tsc := uint64(ivHdr[2]) | uint64(ivHdr[0])<<8 | uint64(ivHdr[4])<<16 |
		uint64(ivHdr[5])<<24 | uint64(ivHdr[6])<<32 | uint64(ivHdr[7])<<40

	tid := byte(0)
	if h.HasQoS {
		tid = h.TID
	}
	counter := &key.RxCounter[tid]
	if tsc <= *counter {
		return nil, ErrReplay
	}

	tk := key.Bytes[0:16]
	rx := &key.tkip.rx
	recompute := !rx.valid || tsc>>16 != *counter>>16
	ttak := rx.ttak
	if recompute {
		rx.valid = false // invalidate before recompute (spec section 4.3.5)
		ttak = tkipPhase1(tk, h.Addr2, uint32(tsc>>16))
	}
	rc4key := tkipPhase2(tk, ttak, uint16(tsc))
	stream4, err := newRC4Stream(rc4key[:])
	if err != nil {
		return nil, err
	}

	w := newWriter(pool)
	if w == nil {
		return nil, ErrAllocFailed
	}
	headerCopy := append([]byte(nil), frame.Head().Data()[:h.Length]...)
	headerCopy[1] = h.ClearProtected()
	if !w.appendBytes(headerCopy) {
		return nil, ErrAllocFailed
	}

	lm := frame.TotalLength() - h.Length - tkipHdrLen - tkipTailLen
	crc := crc32.NewIEEE()
	mic := newMichaelState(key.tkip.rxMIC)
	pseudo := tkipPseudoHeader(h)
	mic.update(pseudo[:])

	in := newReader(frame)
	in.skip(h.Length + tkipHdrLen)

	ok := stream(in, w, lm, func(dst, src []byte) {
		stream4.XORKeyStream(dst, src)
		crc.Write(dst)
		mic.update(dst)
	})
	if !ok {
		return nil, ErrAllocFailed
	}

	tail := make([]byte, tkipTailLen)
	frame.CopyOut(h.Length+tkipHdrLen+lm, tkipTailLen, tail)
	stream4.XORKeyStream(tail, tail)

	mic0 := tail[0:tkipMICLen]
	crc.Write(mic0)
	sum := crc.Sum32()
	recvICV := binary.LittleEndian.Uint32(tail[tkipMICLen : tkipMICLen+tkipICVLen])
	if sum != recvICV {
		return nil, ErrICVMismatch
	}

	computedMIC := mic.finalize()
	if subtle.ConstantTimeCompare(computedMIC[:], mic0) != 1 {
		return nil, &micFailureError{tsc: tsc}
	}

	*counter = tsc
	if recompute {
		rx.ttak = ttak
		rx.valid = true
	}

	return w.chain, nil
}
