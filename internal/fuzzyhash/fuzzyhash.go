package fuzzyhash

// minBlockSize is the smallest rolling block size; block sizes grow from it
// in doubling steps as inputs get longer.
const minBlockSize = 3

// signatureLength caps the fine signature; the coarse signature is capped at
// half of it because its blocks cover twice the text.
const signatureLength = 64

// rollingWindow is the number of trailing bytes the rolling checksum sees.
const rollingWindow = 7

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Fingerprint is a piecewise rolling-hash fingerprint of one text.
type Fingerprint struct {
	// BlockSize is the rolling block size the fine signature was built with;
	// the coarse signature uses twice this value. Zero means empty input.
	BlockSize int
	Fine      string
	Coarse    string
}

// IsZero reports whether the fingerprint describes empty input.
func (f Fingerprint) IsZero() bool {
	return f.BlockSize == 0 || (f.Fine == "" && f.Coarse == "")
}

// Compute builds the fingerprint for text. Empty input yields the zero
// fingerprint. The block size starts at the smallest power-of-two multiple of
// minBlockSize whose blocks can cover the input within signatureLength and
// steps back down if the signature comes out too sparse.
func Compute(text string) Fingerprint {
	data := []byte(text)
	if len(data) == 0 {
		return Fingerprint{}
	}

	blockSize := minBlockSize
	for blockSize*signatureLength < len(data) {
		blockSize *= 2
	}

	for {
		fine, coarse := computeSignatures(data, blockSize)
		// A sparse fine signature means the block size overshot the input;
		// retry at the next finer granularity for better resolution.
		if blockSize > minBlockSize && len(fine) < signatureLength/2 {
			blockSize /= 2
			continue
		}
		return Fingerprint{BlockSize: blockSize, Fine: fine, Coarse: coarse}
	}
}

// computeSignatures runs one pass over data producing the fine signature at
// blockSize and the coarse signature at blockSize*2.
func computeSignatures(data []byte, blockSize int) (string, string) {
	var roll rollingState
	fineHash := fnvOffset
	coarseHash := fnvOffset
	fine := make([]byte, 0, signatureLength)
	coarse := make([]byte, 0, signatureLength/2)

	for _, b := range data {
		roll.update(b)
		fineHash = fnvStep(fineHash, b)
		coarseHash = fnvStep(coarseHash, b)
		sum := roll.sum()

		if sum%uint32(blockSize) == uint32(blockSize)-1 {
			if len(fine) < signatureLength-1 {
				fine = append(fine, base64Chars[fineHash%64])
				fineHash = fnvOffset
			}
		}
		if sum%uint32(blockSize*2) == uint32(blockSize*2)-1 {
			if len(coarse) < signatureLength/2-1 {
				coarse = append(coarse, base64Chars[coarseHash%64])
				coarseHash = fnvOffset
			}
		}
	}

	// The trailing partial block still identifies content; close it out.
	if roll.sum() != 0 {
		fine = append(fine, base64Chars[fineHash%64])
		coarse = append(coarse, base64Chars[coarseHash%64])
	}
	return string(fine), string(coarse)
}

const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619
)

func fnvStep(h uint32, b byte) uint32 {
	return (h ^ uint32(b)) * fnvPrime
}

// rollingState is the ssdeep-style rolling checksum over the last
// rollingWindow bytes.
type rollingState struct {
	window [rollingWindow]byte
	h1     uint32
	h2     uint32
	h3     uint32
	n      uint32
}

func (r *rollingState) update(b byte) {
	r.h2 -= r.h1
	r.h2 += rollingWindow * uint32(b)
	r.h1 += uint32(b)
	r.h1 -= uint32(r.window[r.n%rollingWindow])
	r.window[r.n%rollingWindow] = b
	r.n++
	r.h3 <<= 5
	r.h3 ^= uint32(b)
}

func (r *rollingState) sum() uint32 {
	return r.h1 + r.h2 + r.h3
}
