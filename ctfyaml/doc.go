// Package ctfyaml provides a YAML description format for CTF containers.
//
// A description lists the types of a container in id order, so the first
// entry is type 1. It compiles to a ctf.Container, and a decoded container can
// be described back:
//
//	c, err := ctfyaml.Compile([]byte(`
//	types:
//	  - {kind: integer, name: int, size: 4, encoding: {flags: [signed], bits: 32}}
//	  - kind: struct
//	    name: point
//	    size: 8
//	    members:
//	      - {name: x, type: 1, offset: 0}
//	      - {name: y, type: 1, offset: 32}
//	`))
//
//	out, err := ctfyaml.Describe(c)
//
// Build compiles and encodes in one step, honoring the document's version,
// byteorder and compress fields.
package ctfyaml
