package badger

import (
	"bytes"
	"testing"

	"github.com/poiesic/embedsync/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeID_RoundTrip(t *testing.T) {
	for _, id := range []core.ID{"0", "1", "42", "18446744073709551615", "007", "abc", "a-b-c", "-1"} {
		got, err := decodeID(encodeID(id))
		require.NoError(t, err, id)
		assert.Equal(t, id, got)
	}
}

func TestEncodeID_NumericOrder(t *testing.T) {
	ids := []core.ID{"1", "2", "9", "10", "100", "abc"}
	for i := 1; i < len(ids); i++ {
		prev := makeMissingKey(ids[i-1])
		cur := makeMissingKey(ids[i])
		assert.Equal(t, -1, bytes.Compare(prev, cur), "%s should sort before %s", ids[i-1], ids[i])
	}
}

func TestDecodeID_Malformed(t *testing.T) {
	_, err := decodeID(nil)
	assert.ErrorIs(t, err, errMalformedKey)
	_, err = decodeID([]byte{numericIDTag, 1, 2})
	assert.ErrorIs(t, err, errMalformedKey)
	_, err = decodeID([]byte{0x7f})
	assert.ErrorIs(t, err, errMalformedKey)
}

func TestKeyPrefixesDisjoint(t *testing.T) {
	rec := makeRecordKey("1")
	miss := makeMissingKey("1")
	assert.True(t, bytes.HasPrefix(rec, []byte(recordPrefix)))
	assert.False(t, bytes.HasPrefix(miss, []byte(recordPrefix)))
	assert.False(t, bytes.HasPrefix(rec, []byte(missingPrefix)))
}
