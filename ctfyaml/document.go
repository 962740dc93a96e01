package ctfyaml

// Field order below is the order fields are written in.

// Document is the YAML form of a container.
type Document struct {
	Version   uint8      `yaml:"version,omitempty"`
	ByteOrder string     `yaml:"byteorder,omitempty"`
	Compress  bool       `yaml:"compress,omitempty"`
	Parent    *Parent    `yaml:"parent,omitempty,flow"`
	Labels    []LabelDoc `yaml:"labels,omitempty"`
	Objects   []uint16   `yaml:"objects,omitempty,flow"`
	Functions []uint16   `yaml:"functions,omitempty,flow"`
	Types     []TypeDoc  `yaml:"types"`
}

// Parent names the container a child was built against.
type Parent struct {
	Label string `yaml:"label,omitempty"`
	Name  string `yaml:"name,omitempty"`
}

// LabelDoc is one label entry.
type LabelDoc struct {
	Name string `yaml:"name"`
	Type uint32 `yaml:"type"`
}

// TypeDoc is one type record. Fields that do not apply to Kind must be left
// empty. Type ids are raw 16-bit values; 0x8000 and above refer to the parent.
// Root defaults to true.
type TypeDoc struct {
	Kind        string          `yaml:"kind"`
	Name        string          `yaml:"name,omitempty"`
	ExtName     *uint32         `yaml:"extname,omitempty"`
	Root        *bool           `yaml:"root,omitempty"`
	Size        uint64          `yaml:"size,omitempty"`
	Ref         uint16          `yaml:"ref,omitempty"`
	Encoding    *EncodingDoc    `yaml:"encoding,omitempty,flow"`
	Array       *ArrayDoc       `yaml:"array,omitempty,flow"`
	Members     []MemberDoc     `yaml:"members,omitempty"`
	Enumerators []EnumeratorDoc `yaml:"enumerators,omitempty"`
	Params      []uint16        `yaml:"params,omitempty,flow"`
}

// EncodingDoc describes an integer or float encoding. Flags apply to
// integers, Class to floats.
type EncodingDoc struct {
	Flags  []string `yaml:"flags,omitempty"`
	Class  string   `yaml:"class,omitempty"`
	Offset uint8    `yaml:"offset,omitempty"`
	Bits   uint16   `yaml:"bits"`
}

// MemberDoc is a struct or union member. Offset is in bits.
type MemberDoc struct {
	Name    string  `yaml:"name,omitempty"`
	ExtName *uint32 `yaml:"extname,omitempty"`
	Type    uint16  `yaml:"type"`
	Offset  uint64  `yaml:"offset"`
}

// EnumeratorDoc is one enum constant.
type EnumeratorDoc struct {
	Name    string  `yaml:"name,omitempty"`
	ExtName *uint32 `yaml:"extname,omitempty"`
	Value   int32   `yaml:"value"`
}

// ArrayDoc describes an array type.
type ArrayDoc struct {
	Contents uint16 `yaml:"contents"`
	Index    uint16 `yaml:"index"`
	Count    uint32 `yaml:"count"`
}
