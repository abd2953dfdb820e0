package wlancrypto

// Cipher is the capability table shared by CCMP and TKIP (spec section 9,
// "Cipher polymorphism"): both share the (install, delete, encrypt,
// decrypt) shape, keyed by cipher identifier, so a hardware-offload
// backend can implement the same interface and plug in uniformly without
// the Manager knowing which engine it is driving.
type Cipher interface {
	Suite() CipherSuite
	Encrypt(pool Allocator, frame *Chain, key *Key) (*Chain, error)
	Decrypt(pool Allocator, frame *Chain, key *Key) (*Chain, error)
}

type ccmpCipher struct{}

func (ccmpCipher) Suite() CipherSuite { return CipherSuiteCCMP }

func (ccmpCipher) Encrypt(pool Allocator, frame *Chain, key *Key) (*Chain, error) {
	return ccmpEncrypt(pool, frame, key)
}

func (ccmpCipher) Decrypt(pool Allocator, frame *Chain, key *Key) (*Chain, error) {
	return ccmpDecrypt(pool, frame, key)
}

type tkipCipher struct{}

func (tkipCipher) Suite() CipherSuite { return CipherSuiteTKIP }

func (tkipCipher) Encrypt(pool Allocator, frame *Chain, key *Key) (*Chain, error) {
	return tkipEncrypt(pool, frame, key)
}

func (tkipCipher) Decrypt(pool Allocator, frame *Chain, key *Key) (*Chain, error) {
	return tkipDecrypt(pool, frame, key)
}

// ciphers maps each CipherSuite to its engine. Hardware-offload backends
// would register additional entries (or replace these) behind the same
// interface; software is authoritative per spec section 1 Non-goals.
var ciphers = map[CipherSuite]Cipher{
	CipherSuiteCCMP: ccmpCipher{},
	CipherSuiteTKIP: tkipCipher{},
}

func cipherFor(suite CipherSuite) Cipher { return ciphers[suite] }
