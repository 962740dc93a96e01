// Package ctfkit provides a Go implementation of the Compact Type Format (CTF),
// the dense binary encoding of C type graphs emitted by compilers and linkers
// and consumed by debuggers, introspection tools and kernel-module loaders.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	ctfkit/              Root package with the Inflater and Deflater collaborator interfaces
//	├── ctf/             Container decoding, encoding, type resolution and validation
//	├── ctfyaml/         YAML description of type graphs, compiled to and from containers
//	├── errors/          Structured error types carrying offsets and expected values
//	└── cmd/ctfdump/     Command line dumper, converter and interactive browser
//
// # Quick Start
//
// Decode a container and walk its types:
//
//	c, err := ctf.Decode(data, ctf.WithExternalStrings(strtab))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, t := range c.Types {
//	    fmt.Println(t.ID, c.TypeName(t.ID))
//	}
//
// Build and encode a graph:
//
//	c := ctf.NewContainer()
//	intID, _ := c.Add(&ctf.Type{Kind: ctf.KindInteger, Name: c.MustAddString("int"), Size: 4,
//	    Encoding: ctf.Encoding{Format: ctf.IntSigned, Bits: 32}})
//	data, err := ctf.Encode(c)
//
// Locating the CTF section inside an object file and implementing the
// compression algorithm are left to the caller; compressed containers are
// inflated through a ctfkit.Inflater (ctf.Zlib by default).
package ctfkit
