// Package lutcodec encodes lookup tables as compact little-endian float32
// blobs, optionally zstd compressed.
//
// Layout:
//
//	offset  size  field
//	0       4     magic "CLUT"
//	4       1     version (1)
//	5       1     channels (4)
//	6       2     reserved
//	8       4     rows, uint32
//	12      16*n  rows x (r, g, b, a) float32
package lutcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/microvis/cmap/pkg/colormap"
)

const (
	version    = 1
	channels   = 4
	headerSize = 12
)

var magic = []byte("CLUT")

// ErrCorrupt is returned when a blob cannot be decoded.
var ErrCorrupt = errors.New("corrupt lut data")

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

// codecs lazily creates the shared zstd encoder and decoder. EncodeAll and
// DecodeAll are safe for concurrent use.
func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			codecErr = fmt.Errorf("failed to create zstd encoder: %w", codecErr)
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
		if codecErr != nil {
			codecErr = fmt.Errorf("failed to create zstd decoder: %w", codecErr)
		}
	})
	return encoder, decoder, codecErr
}

// Encode serializes lut.
func Encode(lut colormap.LUT) []byte {
	out := make([]byte, headerSize+len(lut)*channels*4)
	copy(out, magic)
	out[4] = version
	out[5] = channels
	binary.LittleEndian.PutUint32(out[8:], uint32(len(lut)))
	p := out[headerSize:]
	for _, row := range lut {
		for _, v := range row {
			binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)))
			p = p[4:]
		}
	}
	return out
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (colormap.LUT, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic) {
		return nil, fmt.Errorf("%w: missing header", ErrCorrupt)
	}
	if data[4] != version || data[5] != channels {
		return nil, fmt.Errorf("%w: unsupported version %d with %d channels", ErrCorrupt, data[4], data[5])
	}
	n := binary.LittleEndian.Uint32(data[8:])
	body := data[headerSize:]
	if uint64(len(body)) != uint64(n)*channels*4 {
		return nil, fmt.Errorf("%w: %d rows need %d bytes, have %d", ErrCorrupt, n, uint64(n)*channels*4, len(body))
	}
	lut := make(colormap.LUT, n)
	for i := range lut {
		for c := 0; c < channels; c++ {
			lut[i][c] = float64(math.Float32frombits(binary.LittleEndian.Uint32(body)))
			body = body[4:]
		}
	}
	return lut, nil
}

// Compress wraps data in a zstd frame.
func Compress(data []byte) ([]byte, error) {
	enc, _, err := codecs()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	_, dec, err := codecs()
	if err != nil {
		return nil, err
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress failed: %w", err)
	}
	return out, nil
}

// EncodeCompressed is Encode followed by Compress.
func EncodeCompressed(lut colormap.LUT) ([]byte, error) {
	return Compress(Encode(lut))
}

// DecodeCompressed is Decompress followed by Decode.
func DecodeCompressed(data []byte) (colormap.LUT, error) {
	raw, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}
