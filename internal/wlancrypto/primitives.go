package wlancrypto

import (
	"crypto/aes"
	"crypto/rc4"
	"encoding/binary"
	"hash/crc32"
)

// -------------------------------------------------------------------------
// AES-128 adapter — CCMP's only primitive (encrypt-only, IEEE 802.11-2007
// Section 8.3.3: CCMP never uses AES decrypt, only CTR-mode encrypt and
// CBC-MAC, both of which are forward AES operations).
// -------------------------------------------------------------------------

// aesEncryptor wraps a fixed-key AES-128 forward cipher. It is the software
// equivalent of the rijndael_ctx set up once at key-install time in the
// original net80211 implementation; a hardware-offload Cipher backend
// would replace this with a call into silicon instead.
type aesEncryptor struct {
	block cipherBlock
}

// cipherBlock is satisfied by crypto/aes.NewCipher's return value; named
// here so tests can substitute a fake without importing crypto/cipher.
type cipherBlock interface {
	Encrypt(dst, src []byte)
}

func newAESEncryptor(key []byte) (*aesEncryptor, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &aesEncryptor{block: block}, nil
}

// encryptBlock runs one AES-128 forward pass over a 16-byte block. dst and
// src may alias (in-place encryption), matching rijndael_encrypt(ctx, b, b).
func (a *aesEncryptor) encryptBlock(dst, src []byte) {
	a.block.Encrypt(dst, src)
}

// -------------------------------------------------------------------------
// RC4 adapter — TKIP's stream cipher.
// -------------------------------------------------------------------------

// newRC4Stream seeds an RC4 key stream from a 16-byte TKIP per-packet key.
func newRC4Stream(key []byte) (*rc4.Cipher, error) {
	return rc4.NewCipher(key)
}

// -------------------------------------------------------------------------
// CRC32-LE adapter — the WEP/TKIP ICV.
// -------------------------------------------------------------------------

// crc32LE returns the IEEE CRC32 of data, the polynomial used by the
// legacy WEP ICV and retained by TKIP (IEEE 802.11-2007 Section 8.3.2.3.7).
func crc32LE(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// -------------------------------------------------------------------------
// Michael MIC — TKIP's keyed 64-bit MAC (IEEE 802.11-2007 Section 8.3.2.3.6).
//
// No example repository in this corpus carries a Michael implementation
// (it predates, and is unrelated to, any standard hash in crypto/*), so
// this is written directly from the algorithm's definition rather than
// grounded on a library call: see DESIGN.md for the standard-library
// justification.
// -------------------------------------------------------------------------

// michaelBlock runs one round of Michael's unbalanced Feistel mixing.
func michaelBlock(l, r uint32) (uint32, uint32) {
	r ^= rotl32(l, 17)
	l += r
	r ^= byteSwap16In32(l)
	l += r
	r ^= rotl32(l, 3)
	l += r
	r ^= rotr32(l, 2)
	l += r
	return l, r
}

func rotl32(v uint32, n uint) uint32 { return (v << n) | (v >> (32 - n)) }
func rotr32(v uint32, n uint) uint32 { return (v >> n) | (v << (32 - n)) }

// byteSwap16In32 swaps the two 16-bit halves' byte order independently:
// the "XSWAP" step from the Michael definition.
func byteSwap16In32(v uint32) uint32 {
	return ((v & 0xff00ff00) >> 8) | ((v & 0x00ff00ff) << 8)
}

// michaelState is a running Michael computation that accepts data in
// arbitrary-sized chunks, mirroring michael_init/michael_update/
// michael_final in the reference TKIP code so the TKIP engine can feed it
// the pseudo-header and then the payload as it streams through the
// buffer walker, without buffering the whole frame to call michaelMIC.
type michaelState struct {
	l, r        uint32
	leftover    [4]byte
	leftoverLen int
}

func newMichaelState(key [8]byte) *michaelState {
	return &michaelState{
		l: binary.LittleEndian.Uint32(key[0:4]),
		r: binary.LittleEndian.Uint32(key[4:8]),
	}
}

func (m *michaelState) update(data []byte) {
	i := 0
	if m.leftoverLen > 0 {
		for m.leftoverLen < 4 && i < len(data) {
			m.leftover[m.leftoverLen] = data[i]
			m.leftoverLen++
			i++
		}
		if m.leftoverLen < 4 {
			return
		}
		m.l ^= binary.LittleEndian.Uint32(m.leftover[:])
		m.l, m.r = michaelBlock(m.l, m.r)
		m.leftoverLen = 0
	}
	for ; i+4 <= len(data); i += 4 {
		m.l ^= binary.LittleEndian.Uint32(data[i : i+4])
		m.l, m.r = michaelBlock(m.l, m.r)
	}
	for ; i < len(data); i++ {
		m.leftover[m.leftoverLen] = data[i]
		m.leftoverLen++
	}
}

// finalize appends the 0x5a sentinel and the standard's fixed trailing
// all-zero block, returning the 8-byte MIC.
func (m *michaelState) finalize() [8]byte {
	var tail [4]byte
	copy(tail[:], m.leftover[:m.leftoverLen])
	tail[m.leftoverLen] = 0x5a
	m.l ^= binary.LittleEndian.Uint32(tail[:])
	m.l, m.r = michaelBlock(m.l, m.r)
	m.l, m.r = michaelBlock(m.l, m.r)

	var mic [8]byte
	binary.LittleEndian.PutUint32(mic[0:4], m.l)
	binary.LittleEndian.PutUint32(mic[4:8], m.r)
	return mic
}

// michaelMIC computes the 8-byte Michael MIC of message under an 8-byte
// key. Callers pass the 16-byte pseudo-header concatenated with the
// plaintext frame body as message (IEEE 802.11-2007 Section 8.3.2.3.6):
// the pseudo-header is itself exactly four 4-byte words, so folding it
// into the generic message loop below reproduces the standard's
// DA/SA/priority-specific first four mixing rounds exactly.
func michaelMIC(key [8]byte, message []byte) [8]byte {
	l := binary.LittleEndian.Uint32(key[0:4])
	r := binary.LittleEndian.Uint32(key[4:8])

	blocks := len(message) / 4
	pos := 0
	for i := 0; i < blocks; i++ {
		l ^= binary.LittleEndian.Uint32(message[pos : pos+4])
		l, r = michaelBlock(l, r)
		pos += 4
	}

	// Trailer: the leftover bytes (0-3 of them) followed by the 0x5a
	// sentinel, zero-padded to a full 4-byte word, mixed once; then one
	// further mixing round over an implicit all-zero word (the standard's
	// fixed two-block trailer).
	left := len(message) - pos
	var tail [4]byte
	copy(tail[:left], message[pos:])
	tail[left] = 0x5a
	l ^= binary.LittleEndian.Uint32(tail[:])
	l, r = michaelBlock(l, r)
	l, r = michaelBlock(l, r)

	var mic [8]byte
	binary.LittleEndian.PutUint32(mic[0:4], l)
	binary.LittleEndian.PutUint32(mic[4:8], r)
	return mic
}
