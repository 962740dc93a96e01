package ctf_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/wippyai/ctfkit/ctf"
	ctferrors "github.com/wippyai/ctfkit/errors"
)

// buf assembles raw little- or big-endian CTF fields for hand-built fixtures.
type buf struct {
	order binary.ByteOrder
	b     []byte
}

func newBuf(order binary.ByteOrder) *buf {
	if order == nil {
		order = binary.LittleEndian
	}
	return &buf{order: order}
}

func (b *buf) u8(v uint8) *buf { b.b = append(b.b, v); return b }

func (b *buf) u16(v uint16) *buf {
	var tmp [2]byte
	b.order.PutUint16(tmp[:], v)
	b.b = append(b.b, tmp[:]...)
	return b
}

func (b *buf) u32(v uint32) *buf {
	var tmp [4]byte
	b.order.PutUint32(tmp[:], v)
	b.b = append(b.b, tmp[:]...)
	return b
}

func (b *buf) i32(v int32) *buf { return b.u32(uint32(v)) }

func (b *buf) raw(p ...byte) *buf { b.b = append(b.b, p...); return b }

func (b *buf) str(s string) *buf { b.b = append(append(b.b, s...), 0); return b }

// image is a hand-built container split into its sections.
type image struct {
	order    binary.ByteOrder
	version  uint8
	flags    uint8
	parLabel uint32
	parName  uint32
	labels   []byte
	objects  []byte
	funcs    []byte
	types    []byte
	strs     []byte
}

func (im image) bytes() []byte {
	order := im.order
	if order == nil {
		order = binary.LittleEndian
	}
	version := im.version
	if version == 0 {
		version = ctf.Version2
	}
	objOff := uint32(len(im.labels))
	funcOff := objOff + uint32(len(im.objects))
	typeOff := funcOff + uint32(len(im.funcs))
	strOff := typeOff + uint32(len(im.types))

	h := newBuf(order).u16(ctf.Magic).u8(version).u8(im.flags).
		u32(im.parLabel).u32(im.parName).
		u32(0).u32(objOff).u32(funcOff).u32(typeOff).u32(strOff).u32(uint32(len(im.strs)))
	h.raw(im.labels...).raw(im.objects...).raw(im.funcs...).raw(im.types...).raw(im.strs...)
	return h.b
}

func info(k ctf.Kind, root bool, vlen uint16) uint16 {
	v, err := ctf.PackInfo(ctf.Info{Kind: k, Root: root, Vlen: vlen})
	if err != nil {
		panic(err)
	}
	return v
}

// pointImage is an int followed by struct point { int x; int y; }.
func pointImage() image {
	types := newBuf(nil).
		// int
		u32(1).u16(info(ctf.KindInteger, true, 0)).u16(4).
		u32(ctf.Encoding{Format: ctf.IntSigned, Bits: 32}.Pack()).
		// struct point
		u32(5).u16(info(ctf.KindStruct, true, 2)).u16(8).
		u32(11).u16(1).u16(0).
		u32(13).u16(1).u16(32)
	strs := newBuf(nil).str("").str("int").str("point").str("x").str("y")
	return image{types: types.b, strs: strs.b}
}

// buildPoint builds the same graph through the container API.
func buildPoint(t *testing.T) *ctf.Container {
	t.Helper()
	c := ctf.NewContainer()
	intID := mustAdd(t, c, &ctf.Type{
		Kind:     ctf.KindInteger,
		Root:     true,
		Name:     c.MustAddString("int"),
		Size:     4,
		Encoding: ctf.Encoding{Format: ctf.IntSigned, Bits: 32},
	})
	mustAdd(t, c, &ctf.Type{
		Kind: ctf.KindStruct,
		Root: true,
		Name: c.MustAddString("point"),
		Size: 8,
		Members: []ctf.Member{
			{Name: c.MustAddString("x"), Type: intID, Offset: 0},
			{Name: c.MustAddString("y"), Type: intID, Offset: 32},
		},
	})
	return c
}

func mustAdd(t *testing.T, c *ctf.Container, typ *ctf.Type) ctf.TypeID {
	t.Helper()
	id, err := c.Add(typ)
	if err != nil {
		t.Fatalf("Add(%v): %v", typ.Kind, err)
	}
	return id
}

func mustDecode(t *testing.T, data []byte, opts ...ctf.DecodeOption) *ctf.Container {
	t.Helper()
	c, err := ctf.Decode(data, opts...)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return c
}

func mustEncode(t *testing.T, c *ctf.Container, opts ...ctf.EncodeOption) []byte {
	t.Helper()
	data, err := ctf.Encode(c, opts...)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

func mustName(t *testing.T, c *ctf.Container, ref ctf.NameRef) string {
	t.Helper()
	s, err := c.Name(ref)
	if err != nil {
		t.Fatalf("Name(%+v): %v", ref, err)
	}
	return s
}

func wantKind(t *testing.T, err error, sentinel *ctferrors.Error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", sentinel.Kind)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %s error, got %v", sentinel.Kind, err)
	}
}
