package ctf_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/wippyai/ctfkit"
	"github.com/wippyai/ctfkit/ctf"
	ctferrors "github.com/wippyai/ctfkit/errors"
)

func TestDecodePointExample(t *testing.T) {
	data := pointImage().bytes()
	c := mustDecode(t, data)

	if len(c.Types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(c.Types))
	}

	i, s := c.Types[0], c.Types[1]
	if i.ID != 1 || s.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", i.ID, s.ID)
	}
	if i.Kind != ctf.KindInteger || mustName(t, c, i.Name) != "int" || i.Size != 4 {
		t.Errorf("type 1 = %+v", i)
	}
	if !i.Encoding.Signed() || i.Encoding.Bits != 32 {
		t.Errorf("int encoding = %+v", i.Encoding)
	}
	if s.Kind != ctf.KindStruct || mustName(t, c, s.Name) != "point" {
		t.Errorf("type 2 = %+v", s)
	}
	if s.SizeBits() != 64 {
		t.Errorf("struct size = %d bits, want 64", s.SizeBits())
	}
	if s.LongSize || s.LongMembers {
		t.Errorf("struct forms = long size %v, long members %v", s.LongSize, s.LongMembers)
	}
	if len(s.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(s.Members))
	}
	for n, want := range []struct {
		name   string
		offset uint64
	}{{"x", 0}, {"y", 32}} {
		m := s.Members[n]
		if mustName(t, c, m.Name) != want.name || m.Type != 1 || m.Offset != want.offset {
			t.Errorf("member %d = %+v", n, m)
		}
	}

	if got := mustEncode(t, c); !bytes.Equal(got, data) {
		t.Errorf("re-encode differs:\n got % x\nwant % x", got, data)
	}
	if got := mustEncode(t, buildPoint(t)); !bytes.Equal(got, data) {
		t.Errorf("encode of built graph differs:\n got % x\nwant % x", got, data)
	}
}

func TestDecodeIDsFollowRecordOrder(t *testing.T) {
	types := newBuf(nil).
		u32(0).u16(info(ctf.KindStruct, true, 0)).u16(0). // empty struct
		u32(0).u16(info(ctf.KindEnum, true, 3)).u16(4).
		u32(0).i32(-1).u32(0).i32(0).u32(0).i32(1).
		u32(0).u16(info(ctf.KindPointer, true, 0)).u16(1).
		u32(0).u16(info(ctf.KindFunction, true, 1)).u16(3).u16(1).u16(0).
		u32(0).u16(info(ctf.KindArray, true, 0)).u16(0).u16(3).u16(2).u32(10)
	data := image{types: types.b, strs: []byte{0}}.bytes()

	c := mustDecode(t, data)
	wantKinds := []ctf.Kind{ctf.KindStruct, ctf.KindEnum, ctf.KindPointer, ctf.KindFunction, ctf.KindArray}
	if len(c.Types) != len(wantKinds) {
		t.Fatalf("expected %d types, got %d", len(wantKinds), len(c.Types))
	}
	for i, typ := range c.Types {
		if int(typ.ID) != i+1 {
			t.Errorf("type %d has id %d", i, typ.ID)
		}
		if typ.Kind != wantKinds[i] {
			t.Errorf("type %d kind = %v, want %v", i+1, typ.Kind, wantKinds[i])
		}
	}
	if e := c.Types[1].Enumerators; len(e) != 3 || e[0].Value != -1 || e[2].Value != 1 {
		t.Errorf("enumerators = %+v", e)
	}
	if f := c.Types[3]; f.Ref != 3 || len(f.Params) != 1 || f.Params[0] != 1 {
		t.Errorf("function = %+v", f)
	}
	if a := c.Types[4].Array; a == nil || a.Contents != 3 || a.Index != 2 || a.Count != 10 {
		t.Errorf("array = %+v", a)
	}
}

func TestDecodeLongStructThreshold(t *testing.T) {
	shortForm := func(size uint16) []byte {
		return newBuf(nil).
			u32(0).u16(info(ctf.KindStruct, true, 1)).u16(size).
			u32(0).u16(0).u16(0xfff8).b
	}
	longForm := func(size uint16) []byte {
		return newBuf(nil).
			u32(0).u16(info(ctf.KindStruct, true, 1)).u16(size).
			u32(0).u16(0).u16(0).u32(0).u32(0x10000).b
	}

	t.Run("at_threshold_is_short", func(t *testing.T) {
		c := mustDecode(t, image{types: shortForm(ctf.LStructThreshold), strs: []byte{0}}.bytes())
		s := c.Types[0]
		if s.LongMembers {
			t.Error("struct of exactly the threshold size must use short members")
		}
		if s.Members[0].Offset != 0xfff8 {
			t.Errorf("offset = 0x%x", s.Members[0].Offset)
		}
	})

	t.Run("above_threshold_is_long", func(t *testing.T) {
		c := mustDecode(t, image{types: longForm(ctf.LStructThreshold + 1), strs: []byte{0}}.bytes())
		s := c.Types[0]
		if !s.LongMembers {
			t.Error("struct above the threshold must use long members")
		}
		if s.Members[0].Offset != 0x10000 {
			t.Errorf("offset = 0x%x", s.Members[0].Offset)
		}
	})

	t.Run("long_layout_at_threshold_misparses", func(t *testing.T) {
		// A long member where a short one is expected leaves 8 stray bytes,
		// which decode as a second record.
		c, err := ctf.Decode(image{types: longForm(ctf.LStructThreshold), strs: []byte{0}}.bytes())
		if err == nil && len(c.Types) == 1 {
			t.Error("long member layout accepted at the threshold")
		}
	})
}

func TestDecodeLongSize(t *testing.T) {
	types := newBuf(nil).
		u32(0).u16(info(ctf.KindStruct, true, 1)).u16(ctf.LSizeSentinel).u32(1).u32(8).
		u32(0).u16(0).u16(0).u32(1).u32(0)
	c := mustDecode(t, image{types: types.b, strs: []byte{0}}.bytes())

	s := c.Types[0]
	if !s.LongSize || s.Size != 1<<32|8 {
		t.Errorf("size = 0x%x long=%v", s.Size, s.LongSize)
	}
	if !s.LongMembers || s.Members[0].Offset != 1<<32 {
		t.Errorf("members = %+v", s.Members)
	}
}

func TestDecodeTruncatedBeforeTypeEnd(t *testing.T) {
	data := mustEncode(t, buildPoint(t))
	h, err := ctf.ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	typeEnd := ctf.HeaderSize + int(h.StrOff)

	_, err = ctf.Decode(data[:typeEnd-1])
	wantKind(t, err, ctferrors.ErrTruncatedRecord)

	var e *ctferrors.Error
	if !errors.As(err, &e) || e.Offset < ctf.HeaderSize {
		t.Errorf("error lacks offset: %v", err)
	}
}

func TestDecodeTruncatedEveryLength(t *testing.T) {
	data := mustEncode(t, buildPoint(t))
	for n := 0; n < len(data); n++ {
		c, err := ctf.Decode(data[:n])
		if err == nil {
			t.Fatalf("Decode of %d/%d bytes succeeded with %d types", n, len(data), len(c.Types))
		}
		if c != nil {
			t.Fatalf("Decode returned a partial container for %d bytes", n)
		}
	}
}

func TestDecodeRecordPastSectionEnd(t *testing.T) {
	// Struct claims two members but the section holds one.
	types := newBuf(nil).
		u32(0).u16(info(ctf.KindStruct, true, 2)).u16(8).
		u32(0).u16(0).u16(0)
	_, err := ctf.Decode(image{types: types.b, strs: []byte{0}}.bytes())
	wantKind(t, err, ctferrors.ErrTruncatedRecord)
}

func TestDecodeTrailingGarbage(t *testing.T) {
	types := newBuf(nil).
		u32(0).u16(info(ctf.KindPointer, true, 0)).u16(0).
		raw(0xde, 0xad, 0xbe)
	_, err := ctf.Decode(image{types: types.b, strs: []byte{0}}.bytes())
	wantKind(t, err, ctferrors.ErrTrailingGarbage)
}

func TestDecodeUnknownKind(t *testing.T) {
	for _, raw := range []uint16{0, 14 << 11, 31 << 11} {
		types := newBuf(nil).u32(0).u16(raw).u16(0)
		_, err := ctf.Decode(image{types: types.b, strs: []byte{0}}.bytes())
		wantKind(t, err, ctferrors.ErrUnknownKind)
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	good := pointImage().bytes()

	t.Run("bad_magic", func(t *testing.T) {
		data := append([]byte{}, good...)
		data[0], data[1] = 0x12, 0x34
		_, err := ctf.Decode(data)
		wantKind(t, err, ctferrors.ErrBadMagic)
	})

	t.Run("unsupported_version", func(t *testing.T) {
		data := append([]byte{}, good...)
		data[2] = 3
		_, err := ctf.Decode(data)
		wantKind(t, err, ctferrors.ErrUnsupportedVersion)
	})

	t.Run("short_header", func(t *testing.T) {
		_, err := ctf.Decode(good[:10])
		wantKind(t, err, ctferrors.ErrTruncatedSection)
	})

	t.Run("decreasing_offsets", func(t *testing.T) {
		data := append([]byte{}, good...)
		// objtoff > funcoff
		binary.LittleEndian.PutUint32(data[16:], 100)
		_, err := ctf.Decode(data)
		wantKind(t, err, ctferrors.ErrTruncatedSection)
	})

	t.Run("labels_beyond_buffer", func(t *testing.T) {
		im := pointImage()
		im.labels = newBuf(nil).u32(0).u32(2).b
		data := im.bytes()
		_, err := ctf.Decode(data[:ctf.HeaderSize+4])
		wantKind(t, err, ctferrors.ErrTruncatedSection)
	})

	t.Run("strings_beyond_buffer", func(t *testing.T) {
		data := good[:len(good)-3]
		_, err := ctf.Decode(data)
		wantKind(t, err, ctferrors.ErrTruncatedSection)
	})
}

func TestDecodeAuxiliaryTables(t *testing.T) {
	im := pointImage()
	im.labels = newBuf(nil).u32(5).u32(2).b
	im.objects = newBuf(nil).u16(1).u16(2).u16(0).b
	im.funcs = newBuf(nil).u16(0x8001).b
	c := mustDecode(t, im.bytes())

	if len(c.Labels) != 1 || mustName(t, c, c.Labels[0].Name) != "point" || c.Labels[0].Type != 2 {
		t.Errorf("labels = %+v", c.Labels)
	}
	if len(c.Objects) != 3 || c.Objects[1] != 2 {
		t.Errorf("objects = %v", c.Objects)
	}
	if len(c.Functions) != 1 || !c.Functions[0].InParent() {
		t.Errorf("functions = %v", c.Functions)
	}
	if l, ok := c.Label("point"); !ok || l.Type != 2 {
		t.Errorf("Label(point) = %+v, %v", l, ok)
	}

	im.objects = append(im.objects, 0x01)
	_, err := ctf.Decode(im.bytes())
	wantKind(t, err, ctferrors.ErrTrailingGarbage)
}

func TestDecodeBigEndian(t *testing.T) {
	data := mustEncode(t, buildPoint(t), ctf.WithByteOrder(binary.BigEndian))
	if data[0] != 0xcf || data[1] != 0xf1 {
		t.Fatalf("magic bytes = % x", data[:2])
	}
	c := mustDecode(t, data)
	if c.Header.Order != binary.BigEndian {
		t.Errorf("order = %v", c.Header.Order)
	}
	if len(c.Types) != 2 || c.Types[1].Members[1].Offset != 32 {
		t.Errorf("types = %+v", c.Types)
	}
}

func TestDecodeCompressed(t *testing.T) {
	plain := mustEncode(t, buildPoint(t))
	packed := mustEncode(t, buildPoint(t), ctf.WithCompression(ctf.Zlib{}))
	if packed[3]&ctf.FlagCompress == 0 {
		t.Fatal("compression flag not set")
	}

	c := mustDecode(t, packed)
	if len(c.Types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(c.Types))
	}
	if got := mustEncode(t, c); !bytes.Equal(got, plain) {
		t.Error("decompressed container re-encodes differently")
	}
}

func TestDecodeDecompressionSizeMismatch(t *testing.T) {
	packed := mustEncode(t, buildPoint(t), ctf.WithCompression(ctf.Zlib{}))

	short := ctfkit.InflaterFunc(func(src []byte, expected int) ([]byte, error) {
		return make([]byte, expected-1), nil
	})
	_, err := ctf.Decode(packed, ctf.WithInflater(short))
	wantKind(t, err, ctferrors.ErrDecompressionSizeMismatch)

	failing := ctfkit.InflaterFunc(func([]byte, int) ([]byte, error) {
		return nil, errors.New("corrupt stream")
	})
	_, err = ctf.Decode(packed, ctf.WithInflater(failing))
	wantKind(t, err, ctferrors.ErrDecompressionSizeMismatch)

	// Payload that inflates to more than the header declares.
	im := pointImage()
	im.flags = ctf.FlagCompress
	raw := im.bytes()
	payload, err := ctf.Zlib{}.Deflate(append(raw[ctf.HeaderSize:], 0, 0, 0))
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	_, err = ctf.Decode(append(raw[:ctf.HeaderSize:ctf.HeaderSize], payload...))
	wantKind(t, err, ctferrors.ErrDecompressionSizeMismatch)
}

func TestDecodeVersion1(t *testing.T) {
	c := ctf.NewContainer()
	names := make([]ctf.Enumerator, 1500)
	for i := range names {
		names[i] = ctf.Enumerator{Value: int32(i)}
	}
	mustAdd(t, c, &ctf.Type{Kind: ctf.KindEnum, Size: 4, Enumerators: names})

	if _, err := ctf.Encode(c); !errors.Is(err, ctferrors.ErrValueOutOfRange) {
		t.Fatalf("version 2 encode of 1500 enumerators: %v", err)
	}

	data := mustEncode(t, c, ctf.WithVersion(ctf.Version1))
	got := mustDecode(t, data)
	if got.Header.Version != ctf.Version1 {
		t.Errorf("version = %d", got.Header.Version)
	}
	if len(got.Types) != 1 || len(got.Types[0].Enumerators) != 1500 {
		t.Fatalf("types = %d", len(got.Types))
	}
	if got.Types[0].Enumerators[1499].Value != 1499 {
		t.Errorf("last enumerator = %+v", got.Types[0].Enumerators[1499])
	}
}
