package ctf

import (
	"encoding/binary"

	bin "github.com/wippyai/ctfkit/ctf/internal/binary"
	ctferrors "github.com/wippyai/ctfkit/errors"
)

// Header is the fixed preamble and section table of a container.
// Section offsets are relative to the end of the header.
type Header struct {
	Order       binary.ByteOrder
	ParentLabel NameRef
	ParentName  NameRef
	LabelOff    uint32
	ObjectOff   uint32
	FuncOff     uint32
	TypeOff     uint32
	StrOff      uint32
	StrLen      uint32
	Magic       uint16
	Version     uint8
	Flags       uint8
}

// Compressed reports whether the payload after the header is compressed.
func (h Header) Compressed() bool {
	return h.Flags&FlagCompress != 0
}

// PayloadSize returns the number of bytes the sections occupy after the header.
func (h Header) PayloadSize() int {
	return int(uint64(h.StrOff) + uint64(h.StrLen))
}

// Section is a named byte range of the payload.
type Section struct {
	Name  string
	Start uint32
	End   uint32
}

// Len returns the section length in bytes.
func (s Section) Len() int {
	return int(s.End - s.Start)
}

// Sections returns the payload ranges in file order.
func (h Header) Sections() []Section {
	return []Section{
		{Name: "labels", Start: h.LabelOff, End: h.ObjectOff},
		{Name: "objects", Start: h.ObjectOff, End: h.FuncOff},
		{Name: "functions", Start: h.FuncOff, End: h.TypeOff},
		{Name: "types", Start: h.TypeOff, End: h.StrOff},
		{Name: "strings", Start: h.StrOff, End: h.StrOff + h.StrLen},
	}
}

// detectOrder identifies the byte order from the first two bytes.
func detectOrder(b0, b1 byte) (binary.ByteOrder, bool) {
	switch {
	case b0 == byte(Magic&0xff) && b1 == byte(Magic>>8):
		return binary.LittleEndian, true
	case b0 == byte(Magic>>8) && b1 == byte(Magic&0xff):
		return binary.BigEndian, true
	}
	return nil, false
}

// ParseHeader validates the preamble and reads the section table.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < 2 {
		return Header{}, ctferrors.TruncatedSection("header", HeaderSize, len(data))
	}
	order, ok := detectOrder(data[0], data[1])
	if !ok {
		return Header{}, ctferrors.BadMagic(binary.LittleEndian.Uint16(data))
	}
	if len(data) < HeaderSize {
		return Header{}, ctferrors.TruncatedSection("header", HeaderSize, len(data))
	}

	r := bin.NewReader(data[:HeaderSize], order)
	h := Header{Order: order}
	h.Magic, _ = r.ReadU16()
	h.Version, _ = r.ReadU8()
	h.Flags, _ = r.ReadU8()
	if h.Version != Version1 && h.Version != Version2 {
		return Header{}, ctferrors.UnsupportedVersion(h.Version)
	}

	var fields [8]uint32
	for i := range fields {
		fields[i], _ = r.ReadU32()
	}
	h.ParentLabel = UnpackName(fields[0])
	h.ParentName = UnpackName(fields[1])
	h.LabelOff = fields[2]
	h.ObjectOff = fields[3]
	h.FuncOff = fields[4]
	h.TypeOff = fields[5]
	h.StrOff = fields[6]
	h.StrLen = fields[7]

	secs := h.Sections()
	for i := 1; i < len(secs); i++ {
		if secs[i].Start < secs[i-1].Start {
			return Header{}, ctferrors.SectionOrder(secs[i].Name, secs[i].Start, secs[i-1].Start)
		}
	}
	if uint64(h.StrOff)+uint64(h.StrLen) > MaxName {
		return Header{}, ctferrors.TruncatedSection("strings", int(h.StrOff), MaxName)
	}
	return h, nil
}

// writeHeader serializes h into w.
func writeHeader(w *bin.Writer, h Header) {
	w.WriteU16(Magic)
	w.Byte(h.Version)
	w.Byte(h.Flags)
	w.WriteU32(h.ParentLabel.Pack())
	w.WriteU32(h.ParentName.Pack())
	w.WriteU32(h.LabelOff)
	w.WriteU32(h.ObjectOff)
	w.WriteU32(h.FuncOff)
	w.WriteU32(h.TypeOff)
	w.WriteU32(h.StrOff)
	w.WriteU32(h.StrLen)
}
