package ctfyaml

import (
	"bytes"
	"encoding/binary"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/ctfkit/ctf"
	ctferrors "github.com/wippyai/ctfkit/errors"
)

// Parse reads a YAML description. Unknown fields are rejected.
func Parse(src []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, ctferrors.Wrap(ctferrors.PhaseDescribe, ctferrors.KindInvalidInput, err, "parse yaml")
	}
	return &doc, nil
}

// Compile builds a container from a YAML description. Names are interned
// into the container's own string table; extname fields become table 1
// references. Type references are not checked; see Container.Validate.
func Compile(src []byte) (*ctf.Container, error) {
	doc, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return doc.Container()
}

// Build compiles src and encodes the result with the version, byte order and
// compression the document asks for.
func Build(src []byte) ([]byte, error) {
	c, err := Compile(src)
	if err != nil {
		return nil, err
	}
	var opts []ctf.EncodeOption
	if c.Header.Compressed() {
		opts = append(opts, ctf.WithCompression(ctf.Zlib{}))
	}
	return ctf.Encode(c, opts...)
}

// Container converts the document into a type graph.
func (d *Document) Container() (*ctf.Container, error) {
	c := ctf.NewContainer()
	b := &builder{c: c}

	switch d.Version {
	case 0:
	case ctf.Version1, ctf.Version2:
		c.Header.Version = d.Version
	default:
		return nil, ctferrors.OutOfRange(ctferrors.PhaseDescribe, []string{"version"}, "version", d.Version, ctf.Version2)
	}
	switch d.ByteOrder {
	case "", "little":
		c.Header.Order = binary.LittleEndian
	case "big":
		c.Header.Order = binary.BigEndian
	default:
		return nil, invalid([]string{"byteorder"}, "byte order must be little or big, got %q", d.ByteOrder)
	}
	if d.Compress {
		c.Header.Flags |= ctf.FlagCompress
	}

	if d.Parent != nil {
		var err error
		if c.Header.ParentLabel, err = b.name(d.Parent.Label, nil); err != nil {
			return nil, ctferrors.At(err, "parent", "label")
		}
		if c.Header.ParentName, err = b.name(d.Parent.Name, nil); err != nil {
			return nil, ctferrors.At(err, "parent", "name")
		}
	}

	for i, td := range d.Types {
		t, err := b.typ(td)
		if err != nil {
			return nil, ctferrors.At(err, "types", strconv.Itoa(i))
		}
		if _, err := c.Add(t); err != nil {
			return nil, ctferrors.At(describeErr(err), "types", strconv.Itoa(i))
		}
	}

	for i, l := range d.Labels {
		ref, err := b.name(l.Name, nil)
		if err != nil {
			return nil, ctferrors.At(err, "labels", strconv.Itoa(i))
		}
		c.Labels = append(c.Labels, ctf.Label{Name: ref, Type: l.Type})
	}
	c.Objects = typeIDs(d.Objects)
	c.Functions = typeIDs(d.Functions)

	Logger().Debug("compiled ctf description",
		zap.Int("types", len(c.Types)),
		zap.Int("labels", len(c.Labels)),
		zap.Int("strings", len(c.Strings())))
	return c, nil
}

type builder struct {
	c *ctf.Container
}

// name interns s, or returns a table 1 reference when ext is set.
func (b *builder) name(s string, ext *uint32) (ctf.NameRef, error) {
	if ext != nil {
		if s != "" {
			return ctf.NameRef{}, invalid(nil, "name and extname are exclusive")
		}
		if *ext > ctf.MaxName {
			return ctf.NameRef{}, ctferrors.OutOfRange(ctferrors.PhaseDescribe, nil, "extname", *ext, ctf.MaxName)
		}
		return ctf.NameRef{Table: ctf.StrTab1, Offset: *ext}, nil
	}
	ref, err := b.c.AddString(s)
	if err != nil {
		return ctf.NameRef{}, describeErr(err)
	}
	return ref, nil
}

func (b *builder) typ(td TypeDoc) (*ctf.Type, error) {
	kind, ok := ctf.ParseKind(td.Kind)
	if !ok {
		return nil, invalid([]string{"kind"}, "unknown kind %q", td.Kind)
	}
	if err := checkFields(kind, td); err != nil {
		return nil, err
	}

	name, err := b.name(td.Name, td.ExtName)
	if err != nil {
		return nil, ctferrors.At(err, "name")
	}
	t := &ctf.Type{
		Kind: kind,
		Name: name,
		Root: td.Root == nil || *td.Root,
		Size: td.Size,
		Ref:  ctf.TypeID(td.Ref),
	}

	switch kind {
	case ctf.KindInteger, ctf.KindFloat:
		if t.Encoding, err = encoding(kind, td); err != nil {
			return nil, ctferrors.At(err, "encoding")
		}
	case ctf.KindStruct, ctf.KindUnion:
		for i, m := range td.Members {
			ref, err := b.name(m.Name, m.ExtName)
			if err != nil {
				return nil, ctferrors.At(err, "members", strconv.Itoa(i))
			}
			t.Members = append(t.Members, ctf.Member{Name: ref, Type: ctf.TypeID(m.Type), Offset: m.Offset})
		}
	case ctf.KindEnum:
		for i, e := range td.Enumerators {
			ref, err := b.name(e.Name, e.ExtName)
			if err != nil {
				return nil, ctferrors.At(err, "enumerators", strconv.Itoa(i))
			}
			t.Enumerators = append(t.Enumerators, ctf.Enumerator{Name: ref, Value: e.Value})
		}
	case ctf.KindArray:
		if td.Array == nil {
			return nil, invalid([]string{"array"}, "array type needs an array descriptor")
		}
		t.Array = &ctf.Array{
			Contents: ctf.TypeID(td.Array.Contents),
			Index:    ctf.TypeID(td.Array.Index),
			Count:    td.Array.Count,
		}
	case ctf.KindFunction:
		t.Params = typeIDs(td.Params)
	}
	return t, nil
}

// checkFields rejects fields that the kind's record cannot carry.
func checkFields(kind ctf.Kind, td TypeDoc) error {
	sized := kind == ctf.KindInteger || kind == ctf.KindFloat ||
		kind == ctf.KindStruct || kind == ctf.KindUnion || kind == ctf.KindEnum
	for _, f := range []struct {
		name    string
		present bool
		allowed bool
	}{
		{"size", td.Size != 0, sized},
		{"ref", td.Ref != 0, !sized},
		{"encoding", td.Encoding != nil, kind == ctf.KindInteger || kind == ctf.KindFloat},
		{"members", len(td.Members) > 0, kind == ctf.KindStruct || kind == ctf.KindUnion},
		{"enumerators", len(td.Enumerators) > 0, kind == ctf.KindEnum},
		{"array", td.Array != nil, kind == ctf.KindArray},
		{"params", len(td.Params) > 0, kind == ctf.KindFunction},
	} {
		if f.present && !f.allowed {
			return invalid([]string{f.name}, "%s not valid for %s", f.name, kind)
		}
	}
	return nil
}

func encoding(kind ctf.Kind, td TypeDoc) (ctf.Encoding, error) {
	ed := td.Encoding
	if ed == nil {
		return ctf.Encoding{Bits: uint16(td.Size * 8)}, nil
	}
	e := ctf.Encoding{Offset: ed.Offset, Bits: ed.Bits}
	if kind == ctf.KindFloat {
		if len(ed.Flags) > 0 {
			return e, invalid([]string{"flags"}, "float encodings take a class, not flags")
		}
		if ed.Class != "" {
			class, ok := ctf.ParseFloatClass(ed.Class)
			if !ok {
				return e, invalid([]string{"class"}, "unknown float class %q", ed.Class)
			}
			e.Format = class
		}
		return e, nil
	}
	if ed.Class != "" {
		return e, invalid([]string{"class"}, "integer encodings take flags, not a class")
	}
	for _, name := range ed.Flags {
		flag, ok := ctf.ParseIntFlag(name)
		if !ok {
			return e, invalid([]string{"flags"}, "unknown integer flag %q", name)
		}
		e.Format |= flag
	}
	return e, nil
}

func typeIDs(raw []uint16) []ctf.TypeID {
	if len(raw) == 0 {
		return nil
	}
	ids := make([]ctf.TypeID, len(raw))
	for i, v := range raw {
		ids[i] = ctf.TypeID(v)
	}
	return ids
}

func invalid(path []string, format string, args ...any) error {
	return ctferrors.New(ctferrors.PhaseDescribe, ctferrors.KindInvalidInput).
		Path(path...).
		Detail(format, args...).
		Build()
}

// describeErr re-labels an error from the ctf package as a describe failure.
func describeErr(err error) error {
	e, ok := ctferrors.At(err).(*ctferrors.Error)
	if !ok {
		return err
	}
	e.Phase = ctferrors.PhaseDescribe
	return e
}
