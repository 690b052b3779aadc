package httpx

import (
	"crypto/rand"
	"encoding/hex"
	"sync/atomic"
	"time"
)

var idSeq atomic.Uint64

// genID returns a 16-hex-char connection identifier.
func genID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	// Fallback when the system RNG fails: time mixed with a sequence number.
	t := uint64(time.Now().UnixNano()) ^ idSeq.Add(1)<<48
	for i := 0; i < 8; i++ {
		b[i] = byte(t >> (uint(i) * 8))
	}
	return hex.EncodeToString(b[:])
}
