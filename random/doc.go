// Package random provides the sources behind random_get.
//
// A source is any io.Reader. Secure draws from crypto/rand; Deterministic
// expands a seed with the BLAKE3 extendable output function and is a
// drop-in replacement for reproducible runs:
//
//	c, _ := wasi.New().WithRandom(random.Deterministic([]byte("seed"))).Build()
package random
