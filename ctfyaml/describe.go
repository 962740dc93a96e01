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

// Describe renders c as YAML. Table 0 names are written as strings, table 1
// names as extname offsets so the output compiles back to the same graph.
func Describe(c *ctf.Container) ([]byte, error) {
	doc, err := NewDocument(c)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, ctferrors.Wrap(ctferrors.PhaseDescribe, ctferrors.KindInvalidInput, err, "write yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, ctferrors.Wrap(ctferrors.PhaseDescribe, ctferrors.KindInvalidInput, err, "write yaml")
	}
	Logger().Debug("described ctf container", zap.Int("types", len(c.Types)), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// NewDocument converts a container into its YAML form.
func NewDocument(c *ctf.Container) (*Document, error) {
	if c == nil {
		return nil, ctferrors.InvalidInput(ctferrors.PhaseDescribe, "nil container")
	}
	d := &Document{
		Version:  c.Header.Version,
		Compress: c.Header.Compressed(),
		Types:    make([]TypeDoc, 0, len(c.Types)),
	}
	if c.Header.Order == binary.BigEndian {
		d.ByteOrder = "big"
	} else {
		d.ByteOrder = "little"
	}

	if !c.Header.ParentLabel.IsZero() || !c.Header.ParentName.IsZero() {
		label, err := c.Name(c.Header.ParentLabel)
		if err != nil {
			return nil, ctferrors.At(describeErr(err), "parent", "label")
		}
		name, err := c.Name(c.Header.ParentName)
		if err != nil {
			return nil, ctferrors.At(describeErr(err), "parent", "name")
		}
		d.Parent = &Parent{Label: label, Name: name}
	}

	for i, l := range c.Labels {
		name, err := c.Name(l.Name)
		if err != nil {
			return nil, ctferrors.At(describeErr(err), "labels", strconv.Itoa(i))
		}
		d.Labels = append(d.Labels, LabelDoc{Name: name, Type: l.Type})
	}
	d.Objects = rawIDs(c.Objects)
	d.Functions = rawIDs(c.Functions)

	for _, t := range c.Types {
		td, err := describeType(c, t)
		if err != nil {
			return nil, ctferrors.At(describeErr(err), "types", strconv.Itoa(int(t.ID.Index())-1))
		}
		d.Types = append(d.Types, td)
	}
	return d, nil
}

func describeType(c *ctf.Container, t *ctf.Type) (TypeDoc, error) {
	td := TypeDoc{
		Kind: t.Kind.String(),
		Size: t.Size,
		Ref:  uint16(t.Ref),
	}
	var err error
	if td.Name, td.ExtName, err = name(c, t.Name); err != nil {
		return td, ctferrors.At(err, "name")
	}
	if !t.Root {
		root := false
		td.Root = &root
	}

	switch t.Kind {
	case ctf.KindInteger:
		td.Encoding = &EncodingDoc{
			Flags:  ctf.IntFlagNames(t.Encoding.Format),
			Offset: t.Encoding.Offset,
			Bits:   t.Encoding.Bits,
		}
	case ctf.KindFloat:
		td.Encoding = &EncodingDoc{Offset: t.Encoding.Offset, Bits: t.Encoding.Bits}
		if t.Encoding.Format != 0 {
			td.Encoding.Class = ctf.FloatClassName(t.Encoding.Format)
		}
	case ctf.KindStruct, ctf.KindUnion:
		for i, m := range t.Members {
			md := MemberDoc{Type: uint16(m.Type), Offset: m.Offset}
			if md.Name, md.ExtName, err = name(c, m.Name); err != nil {
				return td, ctferrors.At(err, "members", strconv.Itoa(i))
			}
			td.Members = append(td.Members, md)
		}
	case ctf.KindEnum:
		for i, e := range t.Enumerators {
			ed := EnumeratorDoc{Value: e.Value}
			if ed.Name, ed.ExtName, err = name(c, e.Name); err != nil {
				return td, ctferrors.At(err, "enumerators", strconv.Itoa(i))
			}
			td.Enumerators = append(td.Enumerators, ed)
		}
	case ctf.KindArray:
		if t.Array != nil {
			td.Array = &ArrayDoc{
				Contents: uint16(t.Array.Contents),
				Index:    uint16(t.Array.Index),
				Count:    t.Array.Count,
			}
		}
	case ctf.KindFunction:
		td.Params = rawIDs(t.Params)
	}
	return td, nil
}

// name returns the string for a table 0 reference, or the offset of a
// table 1 reference.
func name(c *ctf.Container, ref ctf.NameRef) (string, *uint32, error) {
	if ref.Table == ctf.StrTab1 {
		off := ref.Offset
		return "", &off, nil
	}
	s, err := c.Name(ref)
	return s, nil, err
}

func rawIDs(ids []ctf.TypeID) []uint16 {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]uint16, len(ids))
	for i, id := range ids {
		raw[i] = uint16(id)
	}
	return raw
}
