// Package codec encodes and decodes one tile's sparse pixel->count map
// as a compact byte string: sorted (varint delta, u8 count) pairs,
// deflate-compressed. Compression uses klauspost/compress's flate
// implementation (grounded on banshee-data-velocity.report's dependency
// on it) rather than stdlib compress/flate — same interface, faster.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/flate"
)

// Visit is one decoded (pixel index, count) pair.
type Visit struct {
	Pixel int
	Count uint8
}

// Encode serializes a pixel->count map. Counts are clamped to [1, 255];
// a zero count is elided rather than stored, matching the spec's "no
// implicit zeros stored" invariant.
func Encode(counts map[int]int) ([]byte, error) {
	pixels := make([]int, 0, len(counts))
	for px, c := range counts {
		if c <= 0 {
			continue
		}
		pixels = append(pixels, px)
	}
	sort.Ints(pixels)

	var raw bytes.Buffer
	var varintBuf [binary.MaxVarintLen64]byte
	prev := 0
	for _, px := range pixels {
		delta := px - prev
		n := binary.PutUvarint(varintBuf[:], uint64(delta))
		raw.Write(varintBuf[:n])

		c := counts[px]
		if c > 255 {
			c = 255
		}
		raw.WriteByte(byte(c))
		prev = px
	}

	var out bytes.Buffer
	w, err := flate.NewWriter(&out, flate.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("codec: init compressor: %w", err)
	}
	if _, err := w.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("codec: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: flush compressor: %w", err)
	}
	return out.Bytes(), nil
}

// Decode reverses Encode, yielding (pixel index, count) pairs in
// strictly increasing pixel-index order.
func Decode(data []byte) ([]Visit, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: decompress: %w", err)
	}

	var visits []Visit
	pixel := 0
	i := 0
	for i < len(raw) {
		delta, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("codec: corrupt varint at offset %d", i)
		}
		i += n
		if i >= len(raw) {
			return nil, fmt.Errorf("codec: truncated count at offset %d", i)
		}
		count := raw[i]
		i++

		pixel += int(delta)
		visits = append(visits, Visit{Pixel: pixel, Count: count})
	}
	return visits, nil
}

// DecodeInto decodes directly into a pixel->count map, the shape most
// callers (the renderer, tests) actually want.
func DecodeInto(data []byte) (map[int]int, error) {
	visits, err := Decode(data)
	if err != nil {
		return nil, err
	}
	out := make(map[int]int, len(visits))
	for _, v := range visits {
		out[v.Pixel] = int(v.Count)
	}
	return out, nil
}
