package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	for _, offset := range []int64{0, 5, 100} {
		decoded, err := decodeCursor(encodeCursor(offset))
		require.NoError(t, err)
		assert.Equal(t, offset, decoded)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"not-a-cursor", "!!!", "eyJvIjotMX0"} {
		_, err := decodeCursor(token)
		assert.Error(t, err, "游标 %q 不应被接受", token)
	}
}
