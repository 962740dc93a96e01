package ctf

// Type is one node of the type graph.
type Type struct {
	Array       *Array
	Members     []Member
	Enumerators []Enumerator
	Params      []TypeID

	Name     NameRef
	Size     uint64 // bytes, for integer, float, struct, union and enum
	Encoding Encoding
	ID       TypeID
	Ref      TypeID // target, element or return type
	Kind     Kind
	Root     bool

	// LongSize is set when the record used the 64-bit size form.
	LongSize bool
	// LongMembers is set when struct or union members use 64-bit offsets.
	LongMembers bool
}

// Member is a struct or union field. Offset is in bits.
type Member struct {
	Name   NameRef
	Offset uint64
	Type   TypeID
}

// Array describes an array type.
type Array struct {
	Count    uint32
	Contents TypeID
	Index    TypeID
}

// Enumerator is one named value of an enum.
type Enumerator struct {
	Name  NameRef
	Value int32
}

// Label names the set of types defined up to and including Type.
type Label struct {
	Name NameRef
	Type uint32
}

// Void is returned when resolving the null type id.
var Void = &Type{Kind: KindUnknown}

// SizeBits returns the size of the type in bits.
func (t *Type) SizeBits() uint64 {
	return t.Size * 8
}

// Vlen returns the number of trailing sub-records the type encodes.
func (t *Type) Vlen() int {
	switch t.Kind {
	case KindStruct, KindUnion:
		return len(t.Members)
	case KindEnum:
		return len(t.Enumerators)
	case KindFunction:
		return len(t.Params)
	}
	return 0
}

// Variadic reports whether a function type takes a variable argument list,
// marked by a trailing void parameter.
func (t *Type) Variadic() bool {
	return t.Kind == KindFunction && len(t.Params) > 0 && t.Params[len(t.Params)-1] == 0
}

// IsVoid reports whether t is the void sentinel.
func (t *Type) IsVoid() bool {
	return t == Void
}

// normalize sets the record form flags from the type's size.
func (t *Type) normalize() {
	t.LongSize = t.Kind.sized() && t.Size > MaxSize
	t.LongMembers = longMembers(t.Kind, t.Size)
}

func longMembers(k Kind, size uint64) bool {
	return (k == KindStruct || k == KindUnion) && size > LStructThreshold
}
