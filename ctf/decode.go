package ctf

import (
	"go.uber.org/zap"

	"github.com/wippyai/ctfkit"
	bin "github.com/wippyai/ctfkit/ctf/internal/binary"
	ctferrors "github.com/wippyai/ctfkit/errors"
)

type decodeConfig struct {
	inflater ctfkit.Inflater
	parent   *Container
	logger   *zap.Logger
	external []byte
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

// WithInflater sets the collaborator used for compressed containers.
// Zlib is used when none is given.
func WithInflater(in ctfkit.Inflater) DecodeOption {
	return func(c *decodeConfig) { c.inflater = in }
}

// WithExternalStrings supplies the string blob for table 1 name references,
// typically the string table of the object file carrying the container.
func WithExternalStrings(blob []byte) DecodeOption {
	return func(c *decodeConfig) { c.external = blob }
}

// WithParent supplies the container that parent-bit type ids resolve against.
// The parent must outlive the decoded container.
func WithParent(p *Container) DecodeOption {
	return func(c *decodeConfig) { c.parent = p }
}

// WithLogger overrides the package logger for one call.
func WithLogger(l *zap.Logger) DecodeOption {
	return func(c *decodeConfig) { c.logger = l }
}

// Decode parses a complete CTF image. On error no container is returned.
func Decode(data []byte, opts ...DecodeOption) (*Container, error) {
	cfg := decodeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = Logger()
	}
	log := cfg.logger

	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	log.Debug("parsed ctf header",
		zap.Uint8("version", h.Version),
		zap.Uint8("flags", h.Flags),
		zap.Stringer("order", h.Order),
		zap.Int("payload", h.PayloadSize()))

	body := data[HeaderSize:]
	if h.Compressed() {
		body, err = inflate(cfg.inflater, body, h.PayloadSize())
		if err != nil {
			return nil, err
		}
		log.Debug("inflated ctf payload", zap.Int("compressed", len(data)-HeaderSize), zap.Int("size", len(body)))
	}

	for _, s := range h.Sections()[:3] {
		if int(s.End) > len(body) {
			return nil, ctferrors.TruncatedSection(s.Name, HeaderSize+int(s.End), len(data))
		}
	}

	c := &Container{
		Header:   h,
		Parent:   cfg.parent,
		external: cfg.external,
		logger:   log,
	}

	if c.Labels, err = decodeLabels(body, h); err != nil {
		return nil, err
	}
	if c.Objects, err = decodeIndex(body, h, h.ObjectOff, h.FuncOff, "objects"); err != nil {
		return nil, err
	}
	if c.Functions, err = decodeIndex(body, h, h.FuncOff, h.TypeOff, "functions"); err != nil {
		return nil, err
	}
	if c.Types, err = decodeTypes(body, h); err != nil {
		return nil, err
	}

	strEnd := h.PayloadSize()
	if strEnd > len(body) {
		return nil, ctferrors.TruncatedSection("strings", HeaderSize+strEnd, HeaderSize+len(body))
	}
	c.own = body[h.StrOff:strEnd]

	log.Debug("decoded ctf container",
		zap.Int("types", len(c.Types)),
		zap.Int("labels", len(c.Labels)),
		zap.Int("objects", len(c.Objects)),
		zap.Int("functions", len(c.Functions)),
		zap.Int("strings", len(c.own)))

	if cfg.parent != nil {
		c.SetParent(cfg.parent)
	}
	return c, nil
}

func inflate(in ctfkit.Inflater, payload []byte, expected int) ([]byte, error) {
	if in == nil {
		in = Zlib{}
	}
	out, err := in.Inflate(payload, expected)
	if err != nil {
		return nil, ctferrors.Wrap(ctferrors.PhaseInflate, ctferrors.KindDecompressionSizeMismatch, err, "inflate payload")
	}
	if len(out) != expected {
		return nil, ctferrors.SizeMismatch(expected, len(out))
	}
	return out, nil
}

func decodeLabels(body []byte, h Header) ([]Label, error) {
	sec := body[h.LabelOff:h.ObjectOff]
	if rem := len(sec) % labelSize; rem != 0 {
		return nil, ctferrors.TrailingGarbage("labels", HeaderSize+int(h.ObjectOff)-rem, rem)
	}
	if len(sec) == 0 {
		return nil, nil
	}
	r := bin.NewReader(sec, h.Order)
	labels := make([]Label, len(sec)/labelSize)
	for i := range labels {
		name, _ := r.ReadU32()
		typ, _ := r.ReadU32()
		labels[i] = Label{Name: UnpackName(name), Type: typ}
	}
	return labels, nil
}

func decodeIndex(body []byte, h Header, start, end uint32, name string) ([]TypeID, error) {
	sec := body[start:end]
	if rem := len(sec) % indexEntrySize; rem != 0 {
		return nil, ctferrors.TrailingGarbage(name, HeaderSize+int(end)-rem, rem)
	}
	if len(sec) == 0 {
		return nil, nil
	}
	r := bin.NewReader(sec, h.Order)
	ids := make([]TypeID, len(sec)/indexEntrySize)
	for i := range ids {
		v, _ := r.ReadU16()
		ids[i] = TypeID(v)
	}
	return ids, nil
}

// decodeTypes walks the type section, assigning ids 1..K in encounter order.
// A type section cut short by the end of the buffer reports TruncatedRecord;
// a complete section with a remainder too small for a record reports
// TrailingGarbage.
func decodeTypes(body []byte, h Header) ([]*Type, error) {
	end := int(h.StrOff)
	short := end > len(body)
	if short {
		end = len(body)
	}
	start := int(h.TypeOff)
	if start > end {
		return nil, ctferrors.TruncatedRecord([]string{"types"}, HeaderSize+end, start-end, 0)
	}

	layout := LayoutFor(h.Version)
	r := bin.NewSectionReader(body[start:end], h.Order, HeaderSize+start)

	var types []*Type
	for r.Len() > 0 {
		id := len(types) + 1
		if r.Len() < shortTypeSize && !short {
			return nil, ctferrors.TrailingGarbage("types", r.Position(), r.Len())
		}
		if id > MaxIndex {
			return nil, ctferrors.OutOfRange(ctferrors.PhaseDecode, []string{typePath(id)}, "type count", id, MaxIndex)
		}
		t, err := decodeType(r, layout)
		if err != nil {
			return nil, ctferrors.At(err, typePath(id))
		}
		t.ID = LocalID(uint16(id))
		types = append(types, t)
	}
	if short {
		return nil, ctferrors.TruncatedRecord([]string{"types"}, HeaderSize+len(body), int(h.StrOff)-len(body), 0)
	}
	return types, nil
}
