package ctf

import (
	ctferrors "github.com/wippyai/ctfkit/errors"
)

// Info is the unpacked form of a type record's 16-bit info word.
type Info struct {
	Kind Kind
	Root bool
	Vlen uint16
}

// InfoLayout describes how kind, root flag and vlen share the info word.
// Version 2 uses 5/1/10 bits, version 1 uses 4/1/11 bits.
type InfoLayout struct {
	kindShift uint
	rootShift uint
	maxKind   Kind
	maxVlen   uint16
}

var (
	infoV1 = InfoLayout{kindShift: 12, rootShift: 11, maxKind: 15, maxVlen: 0x07ff}
	infoV2 = InfoLayout{kindShift: 11, rootShift: 10, maxKind: KindMax, maxVlen: MaxVlen}
)

// LayoutFor returns the info word layout used by a format version.
func LayoutFor(version uint8) InfoLayout {
	if version == Version1 {
		return infoV1
	}
	return infoV2
}

// MaxVlen returns the largest vlen the layout can hold.
func (l InfoLayout) MaxVlen() uint16 {
	return l.maxVlen
}

// Unpack splits an info word.
func (l InfoLayout) Unpack(info uint16) Info {
	return Info{
		Kind: Kind(info >> l.kindShift),
		Root: info>>l.rootShift&1 != 0,
		Vlen: info & l.maxVlen,
	}
}

// Pack builds an info word, rejecting fields that do not fit.
func (l InfoLayout) Pack(i Info) (uint16, error) {
	if i.Kind > l.maxKind {
		return 0, ctferrors.OutOfRange(ctferrors.PhaseEncode, nil, "kind", uint8(i.Kind), uint8(l.maxKind))
	}
	if i.Vlen > l.maxVlen {
		return 0, ctferrors.OutOfRange(ctferrors.PhaseEncode, nil, "vlen", i.Vlen, l.maxVlen)
	}
	v := uint16(i.Kind)<<l.kindShift | i.Vlen
	if i.Root {
		v |= 1 << l.rootShift
	}
	return v, nil
}

// UnpackInfo splits a version 2 info word.
func UnpackInfo(info uint16) Info {
	return infoV2.Unpack(info)
}

// PackInfo builds a version 2 info word.
func PackInfo(i Info) (uint16, error) {
	return infoV2.Pack(i)
}

// Encoding describes the representation of an integer or float type.
// Format holds the integer flag set or the float class, depending on the kind.
type Encoding struct {
	Format uint8
	Offset uint8
	Bits   uint16
}

// UnpackEncoding splits a 32-bit encoding word.
func UnpackEncoding(v uint32) Encoding {
	return Encoding{
		Format: uint8(v >> 24),
		Offset: uint8(v >> 16),
		Bits:   uint16(v),
	}
}

// Pack builds the 32-bit encoding word.
func (e Encoding) Pack() uint32 {
	return uint32(e.Format)<<24 | uint32(e.Offset)<<16 | uint32(e.Bits)
}

// Signed reports whether an integer encoding is signed.
func (e Encoding) Signed() bool { return e.Format&IntSigned != 0 }

// Char reports whether an integer encoding is a character type.
func (e Encoding) Char() bool { return e.Format&IntChar != 0 }

// Bool reports whether an integer encoding is a boolean type.
func (e Encoding) Bool() bool { return e.Format&IntBool != 0 }

// Varargs reports whether an integer encoding marks varargs.
func (e Encoding) Varargs() bool { return e.Format&IntVarargs != 0 }

// NameRef locates a string in one of the two string tables.
type NameRef struct {
	Table  uint8
	Offset uint32
}

// UnpackName splits a 32-bit name reference.
func UnpackName(v uint32) NameRef {
	return NameRef{Table: uint8(v >> 31), Offset: v & MaxName}
}

// Pack builds the 32-bit name reference.
func (n NameRef) Pack() uint32 {
	return uint32(n.Table&1)<<31 | n.Offset&MaxName
}

// IsZero reports whether n is the empty name in the own table.
func (n NameRef) IsZero() bool {
	return n == NameRef{}
}

// TypeID refers to a type in a container or its parent.
type TypeID uint16

// ParentID returns the id referring to index in the parent container.
func ParentID(index uint16) TypeID {
	return TypeID(index&MaxIndex | ParentBit)
}

// LocalID returns the id referring to index in the immediate container.
func LocalID(index uint16) TypeID {
	return TypeID(index & MaxIndex)
}

// InParent reports whether the id refers to the parent container.
func (id TypeID) InParent() bool {
	return id&ParentBit != 0
}

// Index returns the 1-based index within the selected container.
func (id TypeID) Index() uint16 {
	return uint16(id) & MaxIndex
}
