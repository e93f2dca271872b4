package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/dkeye/Parley/internal/domain"
)

// Key layout:
//
//	room:<name>                          -> roomRecord
//	user:<username>                      -> userRecord
//	msg:<room_id>:<unixnano %019d>:<id>  -> messageRecord
//	seq:<room_id>                        -> last assigned unixnano (big endian)
//
// The zero padded timestamp keeps messages of a room in chronological
// order under a plain lexicographic scan.
const (
	roomPrefix = "room:"
	userPrefix = "user:"
	msgPrefix  = "msg:"
	seqPrefix  = "seq:"
)

func roomKey(name domain.RoomName) []byte { return []byte(roomPrefix + string(name)) }
func userKey(name domain.Identity) []byte { return []byte(userPrefix + string(name)) }
func seqKey(roomID domain.RoomID) []byte  { return []byte(seqPrefix + string(roomID)) }
func messagePrefix(roomID domain.RoomID) []byte {
	return []byte(msgPrefix + string(roomID) + ":")
}

func messageKey(roomID domain.RoomID, at time.Time, id domain.MessageID) []byte {
	return fmt.Appendf(nil, "%s%s:%019d:%s", msgPrefix, roomID, at.UnixNano(), id)
}

// keyTime recovers the timestamp embedded in a message key.
func keyTime(key, prefix []byte) (time.Time, bool) {
	rest := bytes.TrimPrefix(key, prefix)
	i := bytes.IndexByte(rest, ':')
	if i < 0 {
		return time.Time{}, false
	}
	nanos, err := strconv.ParseInt(string(rest[:i]), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, nanos).UTC(), true
}

func encodeNanos(n int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}

func decodeNanos(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("bad sequence value of %d bytes", len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}
