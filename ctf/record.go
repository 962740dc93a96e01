package ctf

import (
	"errors"
	"strconv"

	bin "github.com/wippyai/ctfkit/ctf/internal/binary"
	ctferrors "github.com/wippyai/ctfkit/errors"
)

// decodeType reads one type record and its trailing sub-records.
func decodeType(r *bin.Reader, layout InfoLayout) (*Type, error) {
	start := r.Position()

	name, err := r.ReadU32()
	if err != nil {
		return nil, truncated(err)
	}
	info, err := r.ReadU16()
	if err != nil {
		return nil, truncated(err)
	}
	slot, err := r.ReadU16()
	if err != nil {
		return nil, truncated(err)
	}

	inf := layout.Unpack(info)
	if !inf.Kind.Valid() {
		return nil, ctferrors.UnknownKind(nil, start, uint8(inf.Kind))
	}

	t := &Type{
		Name: UnpackName(name),
		Kind: inf.Kind,
		Root: inf.Root,
	}

	switch {
	case slot == LSizeSentinel:
		if t.Size, err = r.ReadU64Split(); err != nil {
			return nil, truncated(err)
		}
		t.LongSize = true
	case t.Kind.sized():
		t.Size = uint64(slot)
	default:
		t.Ref = TypeID(slot)
	}

	vlen := int(inf.Vlen)
	switch t.Kind {
	case KindInteger, KindFloat:
		enc, err := r.ReadU32()
		if err != nil {
			return nil, truncated(err)
		}
		t.Encoding = UnpackEncoding(enc)

	case KindStruct, KindUnion:
		t.LongMembers = longMembers(t.Kind, t.Size)
		if err := decodeMembers(r, t, vlen); err != nil {
			return nil, err
		}

	case KindArray:
		if err := r.Need(arraySize); err != nil {
			return nil, truncated(err, "array")
		}
		contents, _ := r.ReadU16()
		index, _ := r.ReadU16()
		count, _ := r.ReadU32()
		t.Array = &Array{Contents: TypeID(contents), Index: TypeID(index), Count: count}

	case KindEnum:
		if err := r.Need(vlen * enumSize); err != nil {
			return nil, truncated(err, "enumerators")
		}
		t.Enumerators = make([]Enumerator, vlen)
		for i := range t.Enumerators {
			name, _ := r.ReadU32()
			value, _ := r.ReadI32()
			t.Enumerators[i] = Enumerator{Name: UnpackName(name), Value: value}
		}

	case KindFunction:
		if err := r.Need(paramsSize(vlen)); err != nil {
			return nil, truncated(err, "params")
		}
		if vlen > 0 {
			t.Params = make([]TypeID, vlen)
			for i := range t.Params {
				p, _ := r.ReadU16()
				t.Params[i] = TypeID(p)
			}
		}
		if vlen%2 != 0 {
			_ = r.Skip(2)
		}
	}

	return t, nil
}

func decodeMembers(r *bin.Reader, t *Type, vlen int) error {
	size := shortMemberSize
	if t.LongMembers {
		size = longMemberSize
	}
	if err := r.Need(vlen * size); err != nil {
		return truncated(err, "members")
	}
	if vlen == 0 {
		return nil
	}
	t.Members = make([]Member, vlen)
	for i := range t.Members {
		name, _ := r.ReadU32()
		typ, _ := r.ReadU16()
		m := Member{Name: UnpackName(name), Type: TypeID(typ)}
		if t.LongMembers {
			_, _ = r.ReadU16()
			m.Offset, _ = r.ReadU64Split()
		} else {
			off, _ := r.ReadU16()
			m.Offset = uint64(off)
		}
		t.Members[i] = m
	}
	return nil
}

// paramsSize returns the bytes taken by n parameter ids, padded to 4 bytes.
func paramsSize(n int) int {
	return (n*indexEntrySize + 3) &^ 3
}

// truncated converts a short read into a TruncatedRecord error.
func truncated(err error, path ...string) error {
	var se *bin.ShortReadError
	if errors.As(err, &se) {
		return ctferrors.TruncatedRecord(path, se.Position, se.Need, se.Have)
	}
	return err
}

func typePath(id int) string {
	return "type " + strconv.Itoa(id)
}
