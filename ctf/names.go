package ctf

import (
	"bytes"

	ctferrors "github.com/wippyai/ctfkit/errors"
)

// ResolveName returns the string ref points at. Table 0 selects own, table 1
// selects external. Strings end at the first NUL or at the end of the blob;
// an offset equal to the blob length is the empty string.
func ResolveName(ref NameRef, own, external []byte) (string, error) {
	blob := own
	if ref.Table == StrTab1 {
		blob = external
	}
	if int64(ref.Offset) > int64(len(blob)) {
		return "", ctferrors.NameOffsetOutOfRange(ref.Table, ref.Offset, len(blob))
	}
	s := blob[ref.Offset:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s), nil
}

// stringTable builds a NUL-separated string blob, deduplicating entries.
// Offset 0 always holds the empty string.
type stringTable struct {
	offsets map[string]uint32
	buf     []byte
}

func newStringTable() *stringTable {
	return &stringTable{
		offsets: map[string]uint32{"": 0},
		buf:     []byte{0},
	}
}

// adoptStringTable indexes an existing blob so later additions reuse it.
func adoptStringTable(blob []byte) *stringTable {
	if len(blob) == 0 {
		return newStringTable()
	}
	st := &stringTable{offsets: make(map[string]uint32), buf: append([]byte(nil), blob...)}
	start := 0
	for i, b := range blob {
		if b != 0 {
			continue
		}
		s := string(blob[start:i])
		if _, ok := st.offsets[s]; !ok {
			st.offsets[s] = uint32(start)
		}
		start = i + 1
	}
	if blob[len(blob)-1] != 0 {
		st.buf = append(st.buf, 0)
	}
	return st
}

func (st *stringTable) add(s string) (uint32, error) {
	if off, ok := st.offsets[s]; ok {
		return off, nil
	}
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return 0, ctferrors.InvalidInput(ctferrors.PhaseEncode, "string contains NUL: "+s)
	}
	off := uint32(len(st.buf))
	if uint64(off)+uint64(len(s)) >= MaxName {
		return 0, ctferrors.OutOfRange(ctferrors.PhaseEncode, nil, "string table size", len(st.buf)+len(s)+1, MaxName)
	}
	st.buf = append(st.buf, s...)
	st.buf = append(st.buf, 0)
	st.offsets[s] = off
	return off, nil
}

func (st *stringTable) bytes() []byte {
	return st.buf
}
