package fuzzyhash

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the fingerprint in the exportable
// "blocksize:finehash:coarsehash" form. The zero fingerprint renders as
// "0::".
func (f Fingerprint) String() string {
	return fmt.Sprintf("%d:%s:%s", f.BlockSize, f.Fine, f.Coarse)
}

// Parse reads a fingerprint from its string form.
func Parse(s string) (Fingerprint, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Fingerprint{}, fmt.Errorf("fuzzy hash %q: want blocksize:finehash:coarsehash", s)
	}
	blockSize, err := strconv.Atoi(parts[0])
	if err != nil {
		return Fingerprint{}, fmt.Errorf("fuzzy hash block size %q: %w", parts[0], err)
	}
	if blockSize < 0 {
		return Fingerprint{}, fmt.Errorf("fuzzy hash block size %d: must not be negative", blockSize)
	}
	for _, sig := range parts[1:] {
		for i := 0; i < len(sig); i++ {
			if !strings.ContainsRune(base64Chars, rune(sig[i])) {
				return Fingerprint{}, fmt.Errorf("fuzzy hash %q: invalid signature character %q", s, sig[i])
			}
		}
	}
	return Fingerprint{BlockSize: blockSize, Fine: parts[1], Coarse: parts[2]}, nil
}
