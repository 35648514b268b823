package badger

import (
	"encoding/binary"
	"errors"
	"strconv"

	"github.com/poiesic/embedsync/core"
)

// Key prefixes for different data types
const (
	recordPrefix  = "rec:"
	missingPrefix = "recmiss:"
	recordIDSeq   = "recseq"
)

// Encoded id tags. Numeric ids sort before other ids and among themselves by value.
const (
	numericIDTag byte = 0x00
	textIDTag    byte = 0x01
)

var errMalformedKey = errors.New("malformed key")

// encodeID produces an order-preserving key fragment for id.
func encodeID(id core.ID) []byte {
	s := id.String()
	if n, err := strconv.ParseUint(s, 10, 64); err == nil && strconv.FormatUint(n, 10) == s {
		buf := make([]byte, 9)
		buf[0] = numericIDTag
		// BigEndian so lexicographic sort matches numeric order
		binary.BigEndian.PutUint64(buf[1:], n)
		return buf
	}
	buf := make([]byte, 1+len(s))
	buf[0] = textIDTag
	copy(buf[1:], s)
	return buf
}

// decodeID reverses encodeID.
func decodeID(b []byte) (core.ID, error) {
	if len(b) == 0 {
		return "", errMalformedKey
	}
	switch b[0] {
	case numericIDTag:
		if len(b) != 9 {
			return "", errMalformedKey
		}
		return core.ID(strconv.FormatUint(binary.BigEndian.Uint64(b[1:]), 10)), nil
	case textIDTag:
		return core.ID(b[1:]), nil
	default:
		return "", errMalformedKey
	}
}

func makeKey(prefix string, id core.ID) []byte {
	enc := encodeID(id)
	buf := make([]byte, len(prefix)+len(enc))
	offset := copy(buf, prefix)
	copy(buf[offset:], enc)
	return buf
}

// makeRecordKey generates a key for a record by ID.
// Format: prefix:encodedID
func makeRecordKey(id core.ID) []byte {
	return makeKey(recordPrefix, id)
}

// makeMissingKey generates a key for the index of records lacking an embedding.
// Format: prefix:encodedID
func makeMissingKey(id core.ID) []byte {
	return makeKey(missingPrefix, id)
}
