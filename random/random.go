package random

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/wippyai/wasi-common/errors"
)

// MaxBytes bounds a single Fill so a guest cannot make the host allocate
// or generate unbounded data in one call.
const MaxBytes = 1 << 20

// Secure returns the host's cryptographic random source.
func Secure() io.Reader {
	return rand.Reader
}

// Deterministic returns a reproducible stream derived from seed. The same
// seed yields the same byte sequence regardless of how reads are split.
func Deterministic(seed []byte) io.Reader {
	h := blake3.New()
	_, _ = h.Write([]byte("wasi-common deterministic random v1"))
	_, _ = h.Write(seed)
	return &deterministic{d: h.Digest()}
}

type deterministic struct {
	d  *blake3.Digest
	mu sync.Mutex
}

func (r *deterministic) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.d.Read(p)
}

// Fill fills buf from src in chunks of at most MaxBytes. Source failures
// are reported as KindIo.
func Fill(src io.Reader, buf []byte) error {
	for len(buf) > 0 {
		n := len(buf)
		if n > MaxBytes {
			n = MaxBytes
		}
		if _, err := io.ReadFull(src, buf[:n]); err != nil {
			return errors.Wrap(errors.PhaseBackend, errors.KindIo, err, "random source failed")
		}
		buf = buf[n:]
	}
	return nil
}
