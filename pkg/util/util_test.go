package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratedIDShapes(t *testing.T) {
	uid := GenerateUserID()
	sid := GenerateSessionID()
	mid := GenerateMessageID()

	assert.Len(t, uid, 20)
	assert.Len(t, sid, 20)
	assert.Len(t, mid, 20)
	assert.Equal(t, byte('U'), uid[0])
	assert.Equal(t, byte('S'), sid[0])
	assert.Equal(t, byte('M'), mid[0])
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := GenerateMessageID()
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id: %s", id)
		seen[id] = struct{}{}
	}
}
