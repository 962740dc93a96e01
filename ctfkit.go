package ctfkit

// Inflater decompresses a container payload. expected is the length the
// header declares for the inflated sections; implementations may use it to
// size buffers and must not return more than expected+1 bytes.
type Inflater interface {
	Inflate(src []byte, expected int) ([]byte, error)
}

// Deflater compresses a container payload for the encoder.
type Deflater interface {
	Deflate(src []byte) ([]byte, error)
}

// InflaterFunc adapts a function to the Inflater interface.
type InflaterFunc func(src []byte, expected int) ([]byte, error)

// Inflate calls f(src, expected).
func (f InflaterFunc) Inflate(src []byte, expected int) ([]byte, error) {
	return f(src, expected)
}

// DeflaterFunc adapts a function to the Deflater interface.
type DeflaterFunc func(src []byte) ([]byte, error)

// Deflate calls f(src).
func (f DeflaterFunc) Deflate(src []byte) ([]byte, error) {
	return f(src)
}
