package testing_util

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// GenRecordBytes derives a deterministic record payload of the given
// size from a seed. Tests use it to fill pages with distinguishable
// records without carrying fixture files.
func GenRecordBytes(seed uint32, size int) []byte {
	data := make([]byte, size)
	var chunk [4]byte
	binary.LittleEndian.PutUint32(chunk[:], seed)
	state := murmur3.Sum64(chunk[:])
	for i := range data {
		if i%8 == 0 && i > 0 {
			var next [8]byte
			binary.LittleEndian.PutUint64(next[:], state)
			state = murmur3.Sum64(next[:])
		}
		data[i] = byte(state >> (8 * uint(i%8)))
	}
	return data
}

// RecordFingerprint hashes a record payload so round-trip tests can
// compare large records without keeping both copies around.
func RecordFingerprint(data []byte) uint64 {
	return murmur3.Sum64(data)
}
