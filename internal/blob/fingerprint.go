package blob

import (
	"crypto/sha1"
	"encoding/hex"
)

// Digest is the hex encoded SHA-1 of an image payload.
type Digest string

// Fingerprint returns the content digest used as the deduplication key.
func Fingerprint(data []byte) Digest {
	sum := sha1.Sum(data)
	return Digest(hex.EncodeToString(sum[:]))
}

// SeenSet tracks the digests already emitted while exporting one slide.
// A new set must be created for every slide.
type SeenSet map[Digest]struct{}

func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// Duplicate reports whether d was seen before. On first sight d is recorded
// and false is returned.
func (s SeenSet) Duplicate(d Digest) bool {
	if _, ok := s[d]; ok {
		return true
	}
	s[d] = struct{}{}
	return false
}
