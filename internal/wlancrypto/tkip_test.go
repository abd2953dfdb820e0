package wlancrypto

import (
	"bytes"
	"errors"
	"testing"
)

func newTKIPKeyPair(t *testing.T) (tx, rx *Key) {
	t.Helper()
	keyBytes := samplePayload(TKIPKeyLen)
	tx, err := installKey(CipherSuiteTKIP, 0, keyBytes, OperatingModeAP)
	if err != nil {
		t.Fatalf("installKey (AP/tx): %v", err)
	}
	rx, err = installKey(CipherSuiteTKIP, 0, keyBytes, OperatingModeStation)
	if err != nil {
		t.Fatalf("installKey (station/rx): %v", err)
	}
	return tx, rx
}

func TestTKIPEncryptDecryptRoundTrip(t *testing.T) {
	pool := NewPool(DefaultSegmentCapacity)
	for _, n := range []int{0, 1, 3, 4, 100} {
		hdr := buildHeader(true, false, false, true, FrameClassData)
		payload := samplePayload(n)
		txKey, rxKey := newTKIPKeyPair(t)

		frame := NewChain(buildFrame(hdr, payload), pool)
		encrypted, err := tkipEncrypt(pool, frame, txKey)
		if err != nil {
			t.Fatalf("n=%d encrypt: %v", n, err)
		}

		decrypted, err := tkipDecrypt(pool, NewChain(encrypted.Bytes(), pool), rxKey)
		if err != nil {
			t.Fatalf("n=%d decrypt: %v", n, err)
		}

		got := decrypted.Bytes()
		want := buildFrame(buildHeader(true, false, false, false, FrameClassData), payload)
		if !bytes.Equal(got, want) {
			t.Fatalf("n=%d round trip mismatch:\ngot  %x\nwant %x", n, got, want)
		}
	}
}

func TestTKIPReplayRejectsNonIncreasingTSC(t *testing.T) {
	pool := NewPool(DefaultSegmentCapacity)
	hdr := buildHeader(true, false, false, true, FrameClassData)
	txKey, rxKey := newTKIPKeyPair(t)

	frame := NewChain(buildFrame(hdr, samplePayload(20)), pool)
	encrypted, err := tkipEncrypt(pool, frame, txKey)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	wire := encrypted.Bytes()

	if _, err := tkipDecrypt(pool, NewChain(wire, pool), rxKey); err != nil {
		t.Fatalf("first decrypt should succeed: %v", err)
	}
	if rxKey.RxCounter[5] != 1 {
		t.Fatalf("RxCounter[5] = %d, want 1", rxKey.RxCounter[5])
	}

	if _, err := tkipDecrypt(pool, NewChain(wire, pool), rxKey); !errors.Is(err, ErrReplay) {
		t.Fatalf("replayed frame: got %v, want ErrReplay", err)
	}
	if rxKey.RxCounter[5] != 1 {
		t.Fatalf("RxCounter[5] moved to %d on a rejected replay", rxKey.RxCounter[5])
	}
}

func TestTKIPWrongMichaelKeyRoleFailsMICNotICV(t *testing.T) {
	// Both sides install the SAME raw key bytes under OperatingModeAP,
	// which is a misconfiguration: the receiver should have installed
	// under OperatingModeStation so its rx Michael key matches the
	// transmitter's tx Michael key (spec section 4.5, role swap). The
	// RC4 temporal key (bytes 0:16) is shared either way, so the ICV
	// (a plain CRC32 over the correctly-decrypted plaintext) still
	// matches; only the Michael MIC, keyed by the swapped half, fails.
	pool := NewPool(DefaultSegmentCapacity)
	hdr := buildHeader(false, false, false, true, FrameClassData)
	keyBytes := samplePayload(TKIPKeyLen)

	txKey, err := installKey(CipherSuiteTKIP, 0, keyBytes, OperatingModeAP)
	if err != nil {
		t.Fatalf("installKey tx: %v", err)
	}
	rxKeyMisconfigured, err := installKey(CipherSuiteTKIP, 0, keyBytes, OperatingModeAP)
	if err != nil {
		t.Fatalf("installKey rx: %v", err)
	}

	frame := NewChain(buildFrame(hdr, samplePayload(40)), pool)
	encrypted, err := tkipEncrypt(pool, frame, txKey)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	_, err = tkipDecrypt(pool, NewChain(encrypted.Bytes(), pool), rxKeyMisconfigured)
	if !errors.Is(err, ErrMICMismatch) {
		t.Fatalf("got %v, want ErrMICMismatch", err)
	}
	if errors.Is(err, ErrICVMismatch) {
		t.Fatal("a Michael-key role mismatch must not also read back as an ICV failure")
	}
	var micErr *micFailureError
	if !errors.As(err, &micErr) {
		t.Fatal("expected a *micFailureError carrying the TSC")
	}
}

func TestTKIPCorruptedCiphertextFailsICV(t *testing.T) {
	pool := NewPool(DefaultSegmentCapacity)
	hdr := buildHeader(false, false, false, true, FrameClassData)
	txKey, rxKey := newTKIPKeyPair(t)

	frame := NewChain(buildFrame(hdr, samplePayload(40)), pool)
	encrypted, err := tkipEncrypt(pool, frame, txKey)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	wire := encrypted.Bytes()
	wire[len(hdr)+tkipHdrLen] ^= 0xff // flip the first ciphertext payload byte

	if _, err := tkipDecrypt(pool, NewChain(wire, pool), rxKey); !errors.Is(err, ErrICVMismatch) {
		t.Fatalf("got %v, want ErrICVMismatch", err)
	}
	if rxKey.RxCounter[0] != 0 {
		t.Fatalf("RxCounter[0] = %d, want 0 (no commit on ICV failure)", rxKey.RxCounter[0])
	}
}

func TestTKIPPhase1RecomputesOnlyOnIV16Wrap(t *testing.T) {
	pool := NewPool(DefaultSegmentCapacity)
	hdr := buildHeader(false, false, false, true, FrameClassData)
	txKey, _ := newTKIPKeyPair(t)

	send := func() {
		frame := NewChain(buildFrame(hdr, samplePayload(4)), pool)
		if _, err := tkipEncrypt(pool, frame, txKey); err != nil {
			t.Fatalf("encrypt: %v", err)
		}
	}

	txKey.TxCounter = 0xfffd // next encrypt increments to 0xfffe
	send()
	first := txKey.tkip.tx.ttak

	send() // 0xffff, still no wrap
	if txKey.tkip.tx.ttak != first {
		t.Fatal("Phase-1 cache changed without a TSC16 wrap")
	}

	send() // TxCounter now 0x10000: low 16 bits wrap to 0, must recompute
	if txKey.tkip.tx.ttak == first {
		t.Fatal("Phase-1 cache was not recomputed across a TSC16 wrap")
	}
}

func TestTKIPFragmentationInvariance(t *testing.T) {
	pool := NewPool(DefaultSegmentCapacity)
	hdr := buildHeader(true, false, false, true, FrameClassData)
	payload := samplePayload(1400)
	raw := buildFrame(hdr, payload)

	var reference []byte
	for i, sizes := range [][]int{
		{len(raw)},
		{len(hdr) + 3, len(raw) - len(hdr) - 3},
		{len(hdr), 100, len(raw) - len(hdr) - 100},
	} {
		txKey, _ := newTKIPKeyPair(t)
		frame := NewChainFragmented(raw, sizes, pool)
		encrypted, err := tkipEncrypt(pool, frame, txKey)
		if err != nil {
			t.Fatalf("sizes=%v encrypt: %v", sizes, err)
		}
		out := encrypted.Bytes()
		if i == 0 {
			reference = out
			continue
		}
		if !bytes.Equal(out, reference) {
			t.Fatalf("sizes=%v produced different ciphertext than the unfragmented input", sizes)
		}
	}
}

func TestTKIPAllocFailureAtEveryWriteSite(t *testing.T) {
	realPool := NewPool(32)
	hdr := buildHeader(false, false, false, true, FrameClassData)
	raw := buildFrame(hdr, samplePayload(150))

	probe := &failAfterAllocator{pool: realPool, remaining: -1}
	txKey, _ := newTKIPKeyPair(t)
	frame := NewChain(raw, probe)
	if _, err := tkipEncrypt(probe, frame, txKey); err != nil {
		t.Fatalf("baseline encrypt failed: %v", err)
	}
	totalAllocs := probe.calls

	for k := 0; k < totalAllocs; k++ {
		alloc := &failAfterAllocator{pool: realPool, remaining: k}
		frame := NewChain(raw, alloc)
		if frame == nil {
			continue
		}
		key, _ := newTKIPKeyPair(t)
		_, err := tkipEncrypt(alloc, frame, key)
		if !errors.Is(err, ErrAllocFailed) {
			t.Fatalf("k=%d: got %v, want ErrAllocFailed", k, err)
		}
	}
}
