package ctf

import (
	"encoding/binary"
	"sync"

	"go.uber.org/zap"

	ctferrors "github.com/wippyai/ctfkit/errors"
)

// Container is one CTF image: a type graph with its string tables, labels
// and symbol index tables.
//
// A decoded container is immutable and safe for concurrent readers. A
// container under construction (NewContainer, Add, AddString) must be
// confined to one goroutine.
type Container struct {
	// Parent resolves ids with the parent bit set. Not owned.
	Parent *Container

	logger *zap.Logger
	strtab *stringTable // set while building; nil for decoded containers
	names  sync.Map     // NameRef -> string

	Header    Header
	Types     []*Type
	Labels    []Label
	Objects   []TypeID
	Functions []TypeID

	own      []byte
	external []byte
}

// NewContainer returns an empty container for building a type graph.
func NewContainer() *Container {
	st := newStringTable()
	return &Container{
		Header: Header{
			Order:   binary.LittleEndian,
			Magic:   Magic,
			Version: Version,
		},
		strtab: st,
		own:    st.bytes(),
		logger: Logger(),
	}
}

// Strings returns the container's own string blob.
func (c *Container) Strings() []byte {
	return c.own
}

// ExternalStrings returns the string blob used for table 1 references.
func (c *Container) ExternalStrings() []byte {
	return c.external
}

// SetExternalStrings installs the blob used for table 1 references.
func (c *Container) SetExternalStrings(blob []byte) {
	c.external = blob
	c.names.Range(func(k, _ any) bool {
		if k.(NameRef).Table == StrTab1 {
			c.names.Delete(k)
		}
		return true
	})
}

// AddString interns s in the own string table and returns its reference.
func (c *Container) AddString(s string) (NameRef, error) {
	if c.strtab == nil {
		c.strtab = adoptStringTable(c.own)
	}
	off, err := c.strtab.add(s)
	if err != nil {
		return NameRef{}, err
	}
	c.own = c.strtab.bytes()
	return NameRef{Table: StrTab0, Offset: off}, nil
}

// MustAddString is AddString for names known to be valid.
func (c *Container) MustAddString(s string) NameRef {
	ref, err := c.AddString(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// Add appends t to the graph, assigns its id and returns it. The record
// form flags are derived from the type's size.
func (c *Container) Add(t *Type) (TypeID, error) {
	if t == nil {
		return 0, ctferrors.InvalidInput(ctferrors.PhaseEncode, "nil type")
	}
	if !t.Kind.Valid() {
		return 0, ctferrors.New(ctferrors.PhaseEncode, ctferrors.KindUnknownKind).
			Expected("1..13").Actual(uint8(t.Kind)).Build()
	}
	if len(c.Types) >= MaxIndex {
		return 0, ctferrors.OutOfRange(ctferrors.PhaseEncode, nil, "type count", len(c.Types)+1, MaxIndex)
	}
	t.ID = LocalID(uint16(len(c.Types) + 1))
	t.normalize()
	c.Types = append(c.Types, t)
	return t.ID, nil
}

// Name resolves ref against the container's string tables. Results are
// memoized per container.
func (c *Container) Name(ref NameRef) (string, error) {
	if v, ok := c.names.Load(ref); ok {
		return v.(string), nil
	}
	s, err := ResolveName(ref, c.own, c.external)
	if err != nil {
		return "", err
	}
	c.names.Store(ref, s)
	return s, nil
}

// TypeCount returns the number of types defined in this container.
func (c *Container) TypeCount() int {
	return len(c.Types)
}

// Label returns the label with the given name.
func (c *Container) Label(name string) (Label, bool) {
	for _, l := range c.Labels {
		if n, err := c.Name(l.Name); err == nil && n == name {
			return l, true
		}
	}
	return Label{}, false
}

// SetParent attaches the container that parent-bit ids resolve against.
// A parent lacking the label this container was built against is logged,
// not rejected.
func (c *Container) SetParent(p *Container) {
	c.Parent = p
	if p == nil || c.Header.ParentLabel.IsZero() {
		return
	}
	want, err := c.Name(c.Header.ParentLabel)
	if err != nil || want == "" {
		return
	}
	if _, ok := p.Label(want); !ok {
		c.log().Warn("parent container lacks expected label", zap.String("label", want))
	}
}

func (c *Container) log() *zap.Logger {
	if c.logger == nil {
		return Logger()
	}
	return c.logger
}
