// Package ctf provides Compact Type Format decoding and encoding.
//
// A CTF container describes C types as a flat sequence of variable-length
// records: integers, floats, pointers, arrays, functions, structs, unions,
// enums, forward declarations, typedefs and the const, volatile and restrict
// qualifiers. Types are numbered from 1 in encounter order; 0 is void.
//
// # Container Layout
//
//	header      magic 0xcff1, version, flags, parent label/name, section offsets
//	labels      {name, type index} pairs
//	objects     type id per data symbol
//	functions   type id per function symbol
//	types       type records with trailing members, enumerators, ...
//	strings     NUL-separated string blob (table 0)
//
// The byte order is taken from the magic number. When flag bit 0 is set,
// everything after the header is zlib compressed.
//
// # Decoding
//
//	c, err := ctf.Decode(data,
//	    ctf.WithExternalStrings(elfStrtab),
//	    ctf.WithParent(genunix))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	t, _ := c.Resolve(7)
//	name, _ := c.Name(t.Name)
//
// Names are resolved lazily; a type can be inspected and sized without
// touching the string tables.
//
// # Parent Containers
//
// A child container refers to types of a separately distributed parent by
// setting the top bit of a type id. Resolve follows such ids into the
// parent supplied with WithParent or SetParent:
//
//	c.Resolve(0x8003) // type 3 of the parent
//	c.Resolve(0x0003) // type 3 of c itself
//
// # Encoding
//
//	data, err := ctf.Encode(c, ctf.WithCompression(ctf.Zlib{}))
//
// Short and long record forms are chosen from the values being written: sizes
// above 0xfffe use the 64-bit size form, and members of structs larger than
// 8192 bytes use 64-bit offsets. Table 0 names are packed into a fresh string
// blob unless WithPreservedStrings is given; table 1 names are kept as is.
//
// # Errors
//
// All failures are *errors.Error values from github.com/wippyai/ctfkit/errors,
// carrying a kind such as truncated_record or type_id_out_of_range and the
// byte offset of the malformed data. A failed decode never returns a partial
// container.
package ctf
