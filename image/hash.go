package image

import (
	"fmt"

	"github.com/spaolacci/murmur3"
)

// SumContent returns a 128 bit murmur3 hash of data, suffixed with its length
func SumContent(data []byte) string {
	h1, h2 := murmur3.Sum128(data)
	return fmt.Sprintf("%x", combine(h1, h2, len(data)))
}

func combine(h1, h2 uint64, t int) []byte {
	return []byte{
		byte(h1 >> 56), byte(h1 >> 48), byte(h1 >> 40), byte(h1 >> 32),
		byte(h1 >> 24), byte(h1 >> 16), byte(h1 >> 8), byte(h1),

		byte(h2 >> 56), byte(h2 >> 48), byte(h2 >> 40), byte(h2 >> 32),
		byte(h2 >> 24), byte(h2 >> 16), byte(h2 >> 8), byte(h2),

		byte(t >> 8), byte(t),
	}
}
