package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/ctfkit/ctf"
)

var (
	fileStyle = lipgloss.NewStyle().Bold(true)
	kindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// printer writes the plain type listing, styled when w is a terminal.
type printer struct {
	w      io.Writer
	styled bool
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p *printer) container(file string, c *ctf.Container) {
	h := c.Header
	fmt.Fprintf(p.w, "%s\n", p.style(fileStyle, file))
	fmt.Fprintf(p.w, "  version %d, %s, compressed %v\n", h.Version, orderName(h.Order), h.Compressed())
	if !h.ParentName.IsZero() || !h.ParentLabel.IsZero() {
		label, _ := c.Name(h.ParentLabel)
		name, _ := c.Name(h.ParentName)
		fmt.Fprintf(p.w, "  parent %q label %q\n", name, label)
	}
	for _, s := range h.Sections() {
		fmt.Fprintf(p.w, "  %-10s %6d bytes @ %d\n", s.Name, s.Len(), s.Start)
	}
	fmt.Fprintf(p.w, "  %d types, %d labels, %d objects, %d functions\n\n",
		len(c.Types), len(c.Labels), len(c.Objects), len(c.Functions))

	for _, t := range c.Types {
		fmt.Fprintf(p.w, "[%d] %s %s", t.ID, p.style(kindStyle, t.Kind.String()), p.style(nameStyle, c.TypeName(t.ID)))
		if size, ok := typeSize(t); ok {
			fmt.Fprintf(p.w, " %s", p.style(dimStyle, size))
		}
		fmt.Fprintln(p.w)
		for _, line := range detailLines(c, t) {
			fmt.Fprintf(p.w, "    %s\n", line)
		}
	}
	fmt.Fprintln(p.w)
}

func orderName(order binary.ByteOrder) string {
	if order == binary.BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

func typeSize(t *ctf.Type) (string, bool) {
	switch t.Kind {
	case ctf.KindInteger, ctf.KindFloat, ctf.KindStruct, ctf.KindUnion, ctf.KindEnum:
		return fmt.Sprintf("(%d bytes)", t.Size), true
	}
	return "", false
}

// detailLines describes the sub-records of t, one line each.
func detailLines(c *ctf.Container, t *ctf.Type) []string {
	var lines []string
	switch t.Kind {
	case ctf.KindInteger:
		e := t.Encoding
		flags := strings.Join(ctf.IntFlagNames(e.Format), ",")
		if flags == "" {
			flags = "unsigned"
		}
		lines = append(lines, fmt.Sprintf("encoding %s, %d bits at offset %d", flags, e.Bits, e.Offset))
	case ctf.KindFloat:
		e := t.Encoding
		lines = append(lines, fmt.Sprintf("encoding %s, %d bits at offset %d", ctf.FloatClassName(e.Format), e.Bits, e.Offset))
	case ctf.KindStruct, ctf.KindUnion:
		for _, m := range t.Members {
			lines = append(lines, fmt.Sprintf("%s: %s @ bit %d", nameOr(c, m.Name, "(anon)"), c.TypeName(m.Type), m.Offset))
		}
	case ctf.KindEnum:
		for _, e := range t.Enumerators {
			lines = append(lines, fmt.Sprintf("%s = %d", nameOr(c, e.Name, "?"), e.Value))
		}
	case ctf.KindArray:
		if t.Array != nil {
			lines = append(lines, fmt.Sprintf("%d x %s, index %s", t.Array.Count,
				c.TypeName(t.Array.Contents), c.TypeName(t.Array.Index)))
		}
	case ctf.KindPointer, ctf.KindTypedef, ctf.KindConst, ctf.KindVolatile, ctf.KindRestrict:
		lines = append(lines, fmt.Sprintf("-> [0x%04x] %s", uint16(t.Ref), c.TypeName(t.Ref)))
	}
	return lines
}

func nameOr(c *ctf.Container, ref ctf.NameRef, fallback string) string {
	s, err := c.Name(ref)
	if err != nil || s == "" {
		return fallback
	}
	return s
}
