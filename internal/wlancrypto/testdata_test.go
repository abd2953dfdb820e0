package wlancrypto

// Shared helpers for building synthetic 802.11 frames in tests. Field
// values are arbitrary but deterministic; only the bits the engines
// actually inspect (type/subtype, ToDS/FromDS, QoS, Addr4) are meaningful.

func mkAddr(b byte) [addrLen]byte {
	var a [addrLen]byte
	for i := range a {
		a[i] = b
	}
	return a
}

// buildHeader returns a minimal 802.11 MAC header: data frame, NoDS,
// no QoS, no Addr4 (24 bytes) unless qos/addr4 request otherwise.
func buildHeader(qos, addr4, htc, protected bool, class FrameClass) []byte {
	fc0 := byte(0x00)
	if class == FrameClassData {
		fc0 = fc0TypeData
		if qos {
			fc0 |= fc0SubtypeQoS
		}
	}
	fc1 := byte(0)
	if addr4 {
		fc1 |= fc1ToDS | fc1FromDS
	}
	if protected {
		fc1 |= fc1Protected
	}
	if htc {
		fc1 |= fc1Order
	}

	hdr := make([]byte, hdrBaseLen)
	hdr[0] = fc0
	hdr[1] = fc1
	a1, a2, a3 := mkAddr(0x11), mkAddr(0x22), mkAddr(0x33)
	copy(hdr[4:10], a1[:])
	copy(hdr[10:16], a2[:])
	copy(hdr[16:22], a3[:])
	hdr[22] = 0x50 // sequence control low byte, arbitrary fragment+seq bits

	if addr4 {
		a4 := mkAddr(0x44)
		hdr = append(hdr, a4[:]...)
	}
	if qos {
		hdr = append(hdr, 0x05, 0x00) // TID 5, no A-MSDU
	}
	return hdr
}

func buildFrame(headerBytes, payload []byte) []byte {
	return append(append([]byte(nil), headerBytes...), payload...)
}

func samplePayload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i*7 + 3)
	}
	return p
}

// failAfterAllocator wraps a real Allocator but returns nil (simulating
// pool exhaustion) once `remaining` successful allocations have been
// handed out; remaining < 0 means unlimited.
type failAfterAllocator struct {
	pool      Allocator
	remaining int
	calls     int
}

func (a *failAfterAllocator) Alloc() *Segment {
	a.calls++
	if a.remaining == 0 {
		return nil
	}
	if a.remaining > 0 {
		a.remaining--
	}
	return a.pool.Alloc()
}
