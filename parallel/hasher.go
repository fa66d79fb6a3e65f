package parallel

import "crypto/sha256"
import "hash"
import "sync"

// Hasher digests n per-item hashes in index order while the items
// themselves may be put from any goroutine in any order.
type Hasher struct {
	mut    sync.Mutex
	sha    hash.Hash
	ate    int
	filled []bool
	data   [][32]byte
}

// NewHashHasher prepares a digest of n items.
func NewHashHasher(n int) *Hasher {
	return &Hasher{
		sha:    sha256.New(),
		filled: make([]bool, n),
		data:   make([][32]byte, n),
	}
}

// MustPutHash stores the hash of item n. Writing an item twice panics.
func (h *Hasher) MustPutHash(n int, value [32]byte) {
	h.mut.Lock()
	defer h.mut.Unlock()
	if n < h.ate || h.filled[n] {
		panic("duplicate hash write")
	}
	h.data[n] = value
	h.filled[n] = true
	for h.ate < len(h.data) && h.filled[h.ate] {
		h.sha.Write(h.data[h.ate][:])
		h.ate++
	}
}

// Sum returns the digest. It panics when an item is missing.
func (h *Hasher) Sum() (ret [32]byte) {
	h.mut.Lock()
	defer h.mut.Unlock()
	if h.ate != len(h.data) {
		panic("hash missing")
	}
	copy(ret[:], h.sha.Sum(nil))
	return
}
