package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintIsStableAndFixedLength(t *testing.T) {
	a := Fingerprint([]byte("payload"))
	b := Fingerprint([]byte("payload"))
	c := Fingerprint([]byte("other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, string(a), 40)
}

func TestSeenSetDuplicate(t *testing.T) {
	seen := NewSeenSet()
	d := Fingerprint([]byte{1, 2, 3})

	assert.False(t, seen.Duplicate(d), "first sight is not a duplicate")
	assert.True(t, seen.Duplicate(d))
	assert.True(t, seen.Duplicate(d))

	fresh := NewSeenSet()
	assert.False(t, fresh.Duplicate(d), "a new slide starts with an empty set")
}
