package corpus

import (
	"encoding/binary"
	"math"
)

// encodeVector converts a float32 slice to a little-endian blob for storage.
func encodeVector(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector converts a stored blob back to a float32 slice.
func decodeVector(blob []byte) []float32 {
	if len(blob) < 4 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
