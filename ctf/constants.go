package ctf

import "strconv"

// CTF preamble magic number and versions.
const (
	// Magic is the CTF magic number, stored in the container's byte order.
	Magic uint16 = 0xcff1

	Version1 uint8 = 1
	Version2 uint8 = 2

	// Version is the version written by the encoder by default.
	Version = Version2
)

// Preamble flags.
const (
	FlagCompress uint8 = 1 << 0 // payload after the header is zlib compressed
)

// Format limits.
const (
	MaxName   = 0x7fffffff // largest string table offset in a name reference
	MaxVlen   = 0x03ff     // largest vlen in the version 2 info word
	MaxSize   = 0xfffe     // largest size that fits the short type record
	MaxType   = 0xffff     // largest raw type id
	MaxIndex  = 0x7fff     // largest type index within one container
	ParentBit = 0x8000     // type id bit selecting the parent container

	// LSizeSentinel in the 16-bit size slot announces the long type record.
	LSizeSentinel = MaxSize + 1

	// LStructThreshold is the struct size above which members use the long form.
	LStructThreshold = 8192
)

// Record sizes in bytes.
const (
	HeaderSize      = 36
	labelSize       = 8
	shortTypeSize   = 8
	longTypeSize    = 16
	shortMemberSize = 8
	longMemberSize  = 16
	arraySize       = 8
	enumSize        = 8
	encodingSize    = 4
	indexEntrySize  = 2
)

// String table selectors.
const (
	StrTab0 uint8 = 0 // the container's own string blob
	StrTab1 uint8 = 1 // an externally supplied string blob
)

// Kind is the category of a type record.
type Kind uint8

// Type kinds.
const (
	KindUnknown  Kind = 0
	KindInteger  Kind = 1
	KindFloat    Kind = 2
	KindPointer  Kind = 3
	KindArray    Kind = 4
	KindFunction Kind = 5
	KindStruct   Kind = 6
	KindUnion    Kind = 7
	KindEnum     Kind = 8
	KindForward  Kind = 9
	KindTypedef  Kind = 10
	KindVolatile Kind = 11
	KindConst    Kind = 12
	KindRestrict Kind = 13
	KindMax      Kind = 31
)

var kindNames = [...]string{
	KindUnknown:  "unknown",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindPointer:  "pointer",
	KindArray:    "array",
	KindFunction: "function",
	KindStruct:   "struct",
	KindUnion:    "union",
	KindEnum:     "enum",
	KindForward:  "forward",
	KindTypedef:  "typedef",
	KindVolatile: "volatile",
	KindConst:    "const",
	KindRestrict: "restrict",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is one of the defined type kinds.
func (k Kind) Valid() bool {
	return k >= KindInteger && k <= KindRestrict
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name && Kind(k).Valid() {
			return Kind(k), true
		}
	}
	return KindUnknown, false
}

// sized reports whether the 16-bit slot holds a size rather than a type id.
func (k Kind) sized() bool {
	switch k {
	case KindInteger, KindFloat, KindStruct, KindUnion, KindEnum:
		return true
	}
	return false
}

// Integer encoding flags.
const (
	IntSigned  uint8 = 1 << 0
	IntChar    uint8 = 1 << 1
	IntBool    uint8 = 1 << 2
	IntVarargs uint8 = 1 << 3
)

// Float encoding classes.
const (
	FloatSingle           uint8 = 1
	FloatDouble           uint8 = 2
	FloatComplex          uint8 = 3
	FloatDoubleComplex    uint8 = 4
	FloatLDoubleComplex   uint8 = 5
	FloatLDouble          uint8 = 6
	FloatInterval         uint8 = 7
	FloatDoubleInterval   uint8 = 8
	FloatLDoubleInterval  uint8 = 9
	FloatImaginary        uint8 = 10
	FloatDoubleImaginary  uint8 = 11
	FloatLDoubleImaginary uint8 = 12
)

var floatClassNames = map[uint8]string{
	FloatSingle:           "single",
	FloatDouble:           "double",
	FloatComplex:          "complex",
	FloatDoubleComplex:    "double-complex",
	FloatLDoubleComplex:   "long-double-complex",
	FloatLDouble:          "long-double",
	FloatInterval:         "interval",
	FloatDoubleInterval:   "double-interval",
	FloatLDoubleInterval:  "long-double-interval",
	FloatImaginary:        "imaginary",
	FloatDoubleImaginary:  "double-imaginary",
	FloatLDoubleImaginary: "long-double-imaginary",
}

// FloatClassName returns the name of a float encoding class.
func FloatClassName(class uint8) string {
	if n, ok := floatClassNames[class]; ok {
		return n
	}
	return "float(" + strconv.Itoa(int(class)) + ")"
}

// ParseFloatClass returns the float encoding class with the given name.
func ParseFloatClass(name string) (uint8, bool) {
	for c, n := range floatClassNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

var intFlagNames = []struct {
	flag uint8
	name string
}{
	{IntSigned, "signed"},
	{IntChar, "char"},
	{IntBool, "bool"},
	{IntVarargs, "varargs"},
}

// IntFlagNames returns the names of the flags set in an integer encoding.
func IntFlagNames(flags uint8) []string {
	var names []string
	for _, f := range intFlagNames {
		if flags&f.flag != 0 {
			names = append(names, f.name)
		}
	}
	return names
}

// ParseIntFlag returns the integer encoding flag with the given name.
func ParseIntFlag(name string) (uint8, bool) {
	for _, f := range intFlagNames {
		if f.name == name {
			return f.flag, true
		}
	}
	return 0, false
}
