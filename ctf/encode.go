package ctf

import (
	"encoding/binary"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/ctfkit"
	bin "github.com/wippyai/ctfkit/ctf/internal/binary"
	ctferrors "github.com/wippyai/ctfkit/errors"
)

type encodeConfig struct {
	order    binary.ByteOrder
	deflater ctfkit.Deflater
	logger   *zap.Logger
	version  uint8
	preserve bool
}

// EncodeOption configures Encode.
type EncodeOption func(*encodeConfig)

// WithByteOrder sets the byte order of the output. Defaults to the
// container's header order, or little-endian.
func WithByteOrder(order binary.ByteOrder) EncodeOption {
	return func(c *encodeConfig) { c.order = order }
}

// WithVersion sets the format version of the output. Defaults to the
// container's header version, or Version.
func WithVersion(v uint8) EncodeOption {
	return func(c *encodeConfig) { c.version = v }
}

// WithCompression compresses the payload after the header and sets the
// compression flag.
func WithCompression(d ctfkit.Deflater) EncodeOption {
	return func(c *encodeConfig) { c.deflater = d }
}

// WithPreservedStrings writes the container's own string blob unchanged and
// keeps table 0 offsets as they are, instead of building a fresh blob.
func WithPreservedStrings() EncodeOption {
	return func(c *encodeConfig) { c.preserve = true }
}

// WithEncodeLogger overrides the package logger for one call.
func WithEncodeLogger(l *zap.Logger) EncodeOption {
	return func(c *encodeConfig) { c.logger = l }
}

// encoder carries the state of one Encode call.
type encoder struct {
	c      *Container
	names  *stringTable
	layout InfoLayout
	order  binary.ByteOrder
}

// Encode serializes the container: header, labels, object index, function
// index, types and the own string blob. Record forms are chosen from sizes
// and offsets, not from the flags stored on decoded types.
func Encode(c *Container, opts ...EncodeOption) ([]byte, error) {
	if c == nil {
		return nil, ctferrors.InvalidInput(ctferrors.PhaseEncode, "nil container")
	}
	cfg := encodeConfig{order: c.Header.Order, version: c.Header.Version}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.order == nil {
		cfg.order = binary.LittleEndian
	}
	if cfg.version == 0 {
		cfg.version = Version
	}
	if cfg.version != Version1 && cfg.version != Version2 {
		return nil, ctferrors.UnsupportedVersion(cfg.version)
	}
	if cfg.logger == nil {
		cfg.logger = c.log()
	}

	e := &encoder{
		c:      c,
		layout: LayoutFor(cfg.version),
		order:  cfg.order,
	}
	if !cfg.preserve {
		e.names = newStringTable()
	}

	h := Header{Version: cfg.version}
	var err error
	if h.ParentLabel, err = e.name(c.Header.ParentLabel); err != nil {
		return nil, ctferrors.At(err, "header", "parent label")
	}
	if h.ParentName, err = e.name(c.Header.ParentName); err != nil {
		return nil, ctferrors.At(err, "header", "parent name")
	}

	labels := bin.NewWriter(cfg.order)
	for i, l := range c.Labels {
		ref, err := e.name(l.Name)
		if err != nil {
			return nil, ctferrors.At(err, "labels", strconv.Itoa(i))
		}
		labels.WriteU32(ref.Pack())
		labels.WriteU32(l.Type)
	}

	objects := bin.NewWriter(cfg.order)
	for _, id := range c.Objects {
		objects.WriteU16(uint16(id))
	}
	funcs := bin.NewWriter(cfg.order)
	for _, id := range c.Functions {
		funcs.WriteU16(uint16(id))
	}

	types := bin.NewWriter(cfg.order)
	for i, t := range c.Types {
		if err := e.encodeType(types, t); err != nil {
			return nil, ctferrors.At(err, typePath(i+1))
		}
	}

	strs := c.own
	if e.names != nil {
		strs = e.names.bytes()
	}
	if len(strs) == 0 {
		strs = []byte{0}
	}

	h.LabelOff = 0
	h.ObjectOff = uint32(labels.Len())
	h.FuncOff = h.ObjectOff + uint32(objects.Len())
	h.TypeOff = h.FuncOff + uint32(funcs.Len())
	h.StrOff = h.TypeOff + uint32(types.Len())
	h.StrLen = uint32(len(strs))

	payload := bin.NewWriter(cfg.order)
	payload.WriteBytes(labels.Bytes())
	payload.WriteBytes(objects.Bytes())
	payload.WriteBytes(funcs.Bytes())
	payload.WriteBytes(types.Bytes())
	payload.WriteBytes(strs)

	body := payload.Bytes()
	if cfg.deflater != nil {
		h.Flags |= FlagCompress
		if body, err = cfg.deflater.Deflate(body); err != nil {
			return nil, ctferrors.Wrap(ctferrors.PhaseEncode, ctferrors.KindInvalidInput, err, "deflate payload")
		}
	}

	out := bin.NewWriter(cfg.order)
	writeHeader(out, h)
	out.WriteBytes(body)

	cfg.logger.Debug("encoded ctf container",
		zap.Uint8("version", h.Version),
		zap.Int("types", len(c.Types)),
		zap.Uint32("strlen", h.StrLen),
		zap.Bool("compressed", cfg.deflater != nil),
		zap.Int("size", out.Len()))

	return out.Bytes(), nil
}

// name maps a table 0 reference into the output string table. Table 1
// references are passed through.
func (e *encoder) name(ref NameRef) (NameRef, error) {
	if e.names == nil || ref.Table == StrTab1 {
		return ref, nil
	}
	s, err := e.c.Name(ref)
	if err != nil {
		return NameRef{}, err
	}
	off, err := e.names.add(s)
	if err != nil {
		return NameRef{}, err
	}
	return NameRef{Table: StrTab0, Offset: off}, nil
}

func (e *encoder) encodeType(w *bin.Writer, t *Type) error {
	if !t.Kind.Valid() {
		return ctferrors.New(ctferrors.PhaseEncode, ctferrors.KindUnknownKind).
			Expected("1..13").Actual(uint8(t.Kind)).Build()
	}
	vlen := t.Vlen()
	if vlen > int(e.layout.MaxVlen()) {
		return ctferrors.OutOfRange(ctferrors.PhaseEncode, nil, "vlen", vlen, e.layout.MaxVlen())
	}
	info, err := e.layout.Pack(Info{Kind: t.Kind, Root: t.Root, Vlen: uint16(vlen)})
	if err != nil {
		return err
	}
	name, err := e.name(t.Name)
	if err != nil {
		return err
	}

	w.WriteU32(name.Pack())
	w.WriteU16(info)
	switch {
	case t.Kind.sized() && t.Size > MaxSize:
		w.WriteU16(LSizeSentinel)
		w.WriteU64Split(t.Size)
	case t.Kind.sized():
		w.WriteU16(uint16(t.Size))
	case t.LongSize:
		// The sentinel takes the slot, so a reference cannot be kept.
		if t.Ref != 0 {
			return ctferrors.OutOfRange(ctferrors.PhaseEncode, nil, "type reference with long size", uint16(t.Ref), 0)
		}
		w.WriteU16(LSizeSentinel)
		w.WriteU64Split(t.Size)
	default:
		if t.Ref == LSizeSentinel {
			return ctferrors.OutOfRange(ctferrors.PhaseEncode, nil, "type reference", uint16(t.Ref), MaxSize)
		}
		w.WriteU16(uint16(t.Ref))
	}

	switch t.Kind {
	case KindInteger, KindFloat:
		w.WriteU32(t.Encoding.Pack())

	case KindStruct, KindUnion:
		long := longMembers(t.Kind, t.Size)
		for i, m := range t.Members {
			mname, err := e.name(m.Name)
			if err != nil {
				return ctferrors.At(err, "member "+strconv.Itoa(i))
			}
			w.WriteU32(mname.Pack())
			w.WriteU16(uint16(m.Type))
			if long {
				w.WriteU16(0)
				w.WriteU64Split(m.Offset)
				continue
			}
			if m.Offset > 0xffff {
				return ctferrors.OutOfRange(ctferrors.PhaseEncode, []string{"member " + strconv.Itoa(i)},
					"short member offset", m.Offset, 0xffff)
			}
			w.WriteU16(uint16(m.Offset))
		}

	case KindArray:
		if t.Array == nil {
			return ctferrors.InvalidInput(ctferrors.PhaseEncode, "array without descriptor")
		}
		w.WriteU16(uint16(t.Array.Contents))
		w.WriteU16(uint16(t.Array.Index))
		w.WriteU32(t.Array.Count)

	case KindEnum:
		for i, en := range t.Enumerators {
			ename, err := e.name(en.Name)
			if err != nil {
				return ctferrors.At(err, "enumerator "+strconv.Itoa(i))
			}
			w.WriteU32(ename.Pack())
			w.WriteI32(en.Value)
		}

	case KindFunction:
		for _, p := range t.Params {
			w.WriteU16(uint16(p))
		}
		if len(t.Params)%2 != 0 {
			w.Pad(2)
		}
	}
	return nil
}
