// Package wlancrypto implements the per-frame link-layer confidentiality
// and integrity engines for IEEE 802.11: CCMP (IEEE 802.11-2007 Section
// 8.3.3) and TKIP (Section 8.3.2).
//
// This includes AAD/nonce construction, CCM counter-mode streaming over a
// scatter-gather buffer chain, CBC-MAC accumulation, TKIP two-phase key
// mixing, Michael MIC, WEP ICV, per-TID replay protection, and the TKIP
// countermeasures controller. The package also holds the 802.11 header
// introspection (frame.go) and the buffer chain with its segment pool
// (buffer.go); the host/station management plane is the collaborator kept
// outside it (internal/stationdb). AES, RC4 and CRC32 are thin adapters
// over crypto/aes, crypto/rc4 and hash/crc32; Michael is implemented here
// directly.
package wlancrypto
