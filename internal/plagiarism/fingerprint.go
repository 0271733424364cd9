package plagiarism

import (
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// Hash is the 32-bit value of one k-gram
type Hash uint32

// Fingerprint is a selected hash tagged with its offset in the normalized stream
type Fingerprint struct {
	Hash     Hash `json:"hash"`
	Position int  `json:"position"`
}

// HashKGrams hashes every k-length window of text. The result has one entry
// per start offset in [0, len(text)-k] and is empty when text is shorter than k.
func HashKGrams(text []rune, k int) []Hash {
	if k <= 0 || len(text) < k {
		return []Hash{}
	}

	hashes := make([]Hash, 0, len(text)-k+1)
	buf := make([]byte, 0, k*utf8.UTFMax)
	for i := 0; i+k <= len(text); i++ {
		buf = buf[:0]
		for _, r := range text[i : i+k] {
			buf = utf8.AppendRune(buf, r)
		}
		hashes = append(hashes, fold(xxhash.Sum64(buf)))
	}

	return hashes
}

// fold mixes both halves of a 64-bit digest into 32 bits
func fold(sum uint64) Hash {
	return Hash(uint32(sum) ^ uint32(sum>>32))
}
