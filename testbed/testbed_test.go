package testbed

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/wippyai/ctfkit/ctf"
	"github.com/wippyai/ctfkit/ctfyaml"
	ctferrors "github.com/wippyai/ctfkit/errors"
)

// End-to-end tests across ctf and ctfyaml.
// Unit tests live next to each package.

const kernelParent = `
labels: [{name: base, type: 6}]
types:
  - {kind: integer, name: char, size: 1, encoding: {flags: [signed, char], bits: 8}}
  - {kind: integer, name: int, size: 4, encoding: {flags: [signed], bits: 32}}
  - {kind: integer, name: long, size: 8, encoding: {flags: [signed], bits: 64}}
  - {kind: pointer, ref: 1}
  - {kind: typedef, name: caddr_t, ref: 4}
  - kind: struct
    name: list
    size: 16
    members:
      - {name: next, type: 7, offset: 0}
      - {name: data, type: 5, offset: 64}
  - {kind: pointer, ref: 6}
`

const moduleChild = `
byteorder: big
compress: true
parent: {label: base, name: genunix}
objects: [0x8002, 3]
functions: [4]
types:
  - kind: struct
    name: mod_state
    size: 40
    members:
      - {name: head, type: 0x8007, offset: 0}
      - {name: count, type: 0x8002, offset: 128}
      - {name: flags, type: 2, offset: 160}
  - kind: enum
    name: mod_flags
    size: 4
    enumerators:
      - {name: MOD_LOADED, value: 1}
      - {name: MOD_BUSY, value: 2}
      - {extname: 1, value: -1}
  - {kind: array, array: {contents: 0x8001, index: 0x8002, count: 32}}
  - {kind: function, ref: 0x8002, params: [0x8005, 0]}
  - {kind: const, ref: 1}
  - {kind: forward, name: mod_ops}
`

func build(t *testing.T, src string) []byte {
	t.Helper()
	data, err := ctfyaml.Build([]byte(src))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return data
}

func TestParentChildPipeline(t *testing.T) {
	parent, err := ctf.Decode(build(t, kernelParent))
	if err != nil {
		t.Fatalf("decode parent: %v", err)
	}
	childData := build(t, moduleChild)
	if childData[0] != 0xcf || childData[3]&ctf.FlagCompress == 0 {
		t.Fatalf("child preamble = % x", childData[:4])
	}

	child, err := ctf.Decode(childData,
		ctf.WithParent(parent),
		ctf.WithExternalStrings([]byte("\x00MOD_ERROR\x00")))
	if err != nil {
		t.Fatalf("decode child: %v", err)
	}
	if err := child.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	names := map[ctf.TypeID]string{
		1: "struct mod_state",
		2: "enum mod_flags",
		3: "char [32]",
		4: "int (*)(caddr_t, ...)",
		5: "const struct mod_state",
		6: "mod_ops",
	}
	for id, want := range names {
		if got := child.TypeName(id); got != want {
			t.Errorf("TypeName(%d) = %q, want %q", id, got, want)
		}
	}

	head, err := child.Resolve(child.Types[0].Members[0].Type)
	if err != nil {
		t.Fatalf("Resolve head: %v", err)
	}
	list, err := child.Resolve(0x8000 | head.Ref)
	if err != nil || list != parent.Types[5] {
		t.Fatalf("list node = %+v, %v", list, err)
	}

	caddr, err := child.Resolved(0x8005)
	if err != nil {
		t.Fatalf("Resolved(0x8005): %v", err)
	}
	if caddr.Kind != ctf.KindPointer {
		t.Errorf("caddr_t resolves to %v", caddr.Kind)
	}

	ext, err := child.Name(child.Types[1].Enumerators[2].Name)
	if err != nil || ext != "MOD_ERROR" {
		t.Errorf("external enumerator = %q, %v", ext, err)
	}
}

func TestDescribeRebuildIsStable(t *testing.T) {
	for _, tt := range []struct {
		name string
		src  string
	}{
		{"parent", kernelParent},
		{"child", moduleChild},
	} {
		t.Run(tt.name, func(t *testing.T) {
			first := build(t, tt.src)
			c, err := ctf.Decode(first)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			yml, err := ctfyaml.Describe(c)
			if err != nil {
				t.Fatalf("Describe: %v", err)
			}
			second := build(t, string(yml))
			if !bytes.Equal(first, second) {
				t.Errorf("rebuilt container differs\n%s", yml)
			}
		})
	}
}

func TestByteOrderAndVersionMatrix(t *testing.T) {
	c, err := ctfyaml.Compile([]byte(kernelParent))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var reference []*ctf.Type
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		for _, version := range []uint8{ctf.Version1, ctf.Version2} {
			for _, compress := range []bool{false, true} {
				opts := []ctf.EncodeOption{ctf.WithByteOrder(order), ctf.WithVersion(version)}
				if compress {
					opts = append(opts, ctf.WithCompression(ctf.Zlib{}))
				}
				data, err := ctf.Encode(c, opts...)
				if err != nil {
					t.Fatalf("Encode(%v, v%d, %v): %v", order, version, compress, err)
				}
				got, err := ctf.Decode(data)
				if err != nil {
					t.Fatalf("Decode(%v, v%d, %v): %v", order, version, compress, err)
				}
				if got.Header.Version != version || got.Header.Order != order || got.Header.Compressed() != compress {
					t.Errorf("header = %+v", got.Header)
				}
				if reference == nil {
					reference = got.Types
					continue
				}
				for i := range reference {
					if got.TypeName(reference[i].ID) != c.TypeName(reference[i].ID) {
						t.Errorf("v%d %v: type %d name differs", version, order, i+1)
					}
				}
				if len(got.Types) != len(reference) {
					t.Errorf("v%d %v: %d types", version, order, len(got.Types))
				}
			}
		}
	}
}

func TestConcurrentDecode(t *testing.T) {
	parent, err := ctf.Decode(build(t, kernelParent))
	if err != nil {
		t.Fatalf("decode parent: %v", err)
	}
	data := build(t, moduleChild)

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			c, err := ctf.Decode(data, ctf.WithParent(parent))
			if err != nil {
				return err
			}
			for id := ctf.TypeID(1); int(id) <= c.TypeCount(); id++ {
				if _, err := c.Resolved(id); err != nil {
					return err
				}
			}
			// Shared parent is read from every goroutine.
			for id := ctf.TypeID(1); int(id) <= parent.TypeCount(); id++ {
				_ = parent.TypeName(id)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

// TestCorruptionNeverPanics flips bytes across a container. Every outcome
// must be a clean decode or a structured error.
func TestCorruptionNeverPanics(t *testing.T) {
	for _, src := range []string{kernelParent, "byteorder: big\n" + kernelParent} {
		data := build(t, src)
		for i := range data {
			for _, mask := range []byte{0x01, 0x10, 0x80, 0xff} {
				mutated := append([]byte(nil), data...)
				mutated[i] ^= mask

				c, err := ctf.Decode(mutated)
				if err != nil {
					var e *ctferrors.Error
					if !errors.As(err, &e) {
						t.Fatalf("byte %d ^ 0x%02x: unstructured error %T: %v", i, mask, err, err)
					}
					if c != nil {
						t.Fatalf("byte %d ^ 0x%02x: container returned with error", i, mask)
					}
					continue
				}
				_ = c.Validate()
				for _, typ := range c.Types {
					_ = c.TypeName(typ.ID)
					_, _ = c.Resolved(typ.ID)
				}
				_, _ = ctf.Encode(c)
				_, _ = ctfyaml.Describe(c)
			}
		}
	}
}

func TestCompressedCorruption(t *testing.T) {
	data := build(t, "compress: true\n"+kernelParent)
	for i := ctf.HeaderSize; i < len(data); i++ {
		mutated := append([]byte(nil), data...)
		mutated[i] ^= 0x55
		if _, err := ctf.Decode(mutated); err != nil {
			var e *ctferrors.Error
			if !errors.As(err, &e) {
				t.Fatalf("byte %d: unstructured error %v", i, err)
			}
		}
	}
}
