package ctf

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// maxPrealloc caps the buffer reserved up front from the header's claimed size.
const maxPrealloc = 1 << 20

// Zlib is the default Inflater and Deflater, backed by klauspost/compress.
// Level is used for deflating; zero means zlib.DefaultCompression.
type Zlib struct {
	Level int
}

// Inflate decompresses src, reading at most one byte past expected so an
// oversized stream is reported as a size mismatch instead of being buffered.
func (z Zlib) Inflate(src []byte, expected int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	buf := bytes.NewBuffer(make([]byte, 0, min(expected, maxPrealloc)))
	if _, err := io.Copy(buf, io.LimitReader(zr, int64(expected)+1)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deflate compresses src.
func (z Zlib) Deflate(src []byte) ([]byte, error) {
	level := z.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(src); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
