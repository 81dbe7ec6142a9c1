/*
Copyright 2011-2025 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package transform

import (
	"encoding/binary"
	"errors"
	"fmt"

	brc "github.com/loxxous/Behemoth-Rank-Coding"
)

// VSRC Sorted-Rank Code: a move-to-front variant whose initial ranks are
// assigned in order of first appearance among the symbols present, and
// whose rank output is reordered so that every rank emitted for a given
// source symbol lands contiguously in its bucket, buckets being laid out
// by decreasing symbol frequency (ties broken by ascending byte value). A 256-entry byte-frequency histogram is appended as a
// fixed 1024-byte footer so the transform can be inverted without any
// other side channel.
type VSRC struct {
}

// NewVSRC creates a new instance of VSRC.
func NewVSRC() (*VSRC, error) {
	return &VSRC{}, nil
}

// MaxEncodedLen returns the max size required for the encoding output
// buffer: the source length plus the fixed histogram footer.
func (this *VSRC) MaxEncodedLen(srcLen int) int {
	return srcLen + brc.HistogramSize
}

// Forward applies VSRC to src and writes the bucketed rank stream
// followed by the histogram footer to dst.
func (this *VSRC) Forward(src, dst []byte) (uint, uint, error) {
	count := len(src)

	if n := this.MaxEncodedLen(count); len(dst) < n {
		return 0, 0, fmt.Errorf("vsrc: output buffer too small - size: %d, required: %d", len(dst), n)
	}

	if count == 0 {
		for i := 0; i < brc.HistogramSize; i++ {
			dst[i] = 0
		}

		return 0, uint(brc.HistogramSize), nil
	}

	if &src[0] == &dst[0] {
		return 0, 0, errors.New("vsrc: input and output buffers cannot be equal")
	}

	var H [256]uint32
	var s2r [256]byte
	var r2s [256]byte
	u := 0

	// First pass: histogram, and first-occurrence rank assignment (the
	// symbol seen first gets rank 0, the next new symbol rank 1, etc).
	for i := 0; i < count; {
		c := src[i]

		if H[c] == 0 {
			r2s[u] = c
			s2r[c] = byte(u)
			u++
		}

		j := i + 1

		for j < count && src[j] == c {
			j++
		}

		H[c] += uint32(j - i)
		i = j
	}

	writeHistogram(dst[count:count+brc.HistogramSize], H[:])

	symbols := append([]byte(nil), r2s[:u]...)
	sortSigma(symbols, H[:])

	buckets := [256]int{}

	for i, pos := 0, 0; i < u; i++ {
		c := symbols[i]
		buckets[c] = pos
		pos += int(H[c])
	}

	// Second pass: emit the rank of each symbol into its bucket and
	// advance the MTF state.
	for i := 0; i < count; {
		c := src[i]
		r := s2r[c]
		p := buckets[c]
		dst[p] = r
		p++

		if r > 0 {
			for t := r; ; {
				prev := r2s[t-1]
				r2s[t], s2r[prev] = prev, t

				if t == 1 {
					break
				}

				t--
			}

			r2s[0] = c
			s2r[c] = 0
		}

		i++

		for i < count && src[i] == c {
			dst[p] = 0
			p++
			i++
		}

		buckets[c] = p
	}

	return uint(count), uint(count + brc.HistogramSize), nil
}

// Inverse reconstructs the original byte sequence from a bucketed rank
// stream followed by its histogram footer.
func (this *VSRC) Inverse(src, dst []byte) (uint, uint, error) {
	n := len(dst)

	if len(src) < brc.HistogramSize {
		return 0, 0, fmt.Errorf("vsrc: input buffer too small - size: %d, required at least: %d", len(src), brc.HistogramSize)
	}

	var H [256]uint32
	footer := src[len(src)-brc.HistogramSize:]
	sum := uint64(0)

	for v := 0; v < 256; v++ {
		H[v] = binary.LittleEndian.Uint32(footer[v*4:])
		sum += uint64(H[v])
	}

	if sum != uint64(n) {
		return 0, 0, brc.ErrInvalidSubHeader
	}

	if n == 0 {
		return uint(brc.HistogramSize), 0, nil
	}

	rPrime := src[:len(src)-brc.HistogramSize]

	if len(rPrime) != n {
		return 0, 0, brc.ErrInvalidSubHeader
	}

	if &src[0] == &dst[0] {
		return 0, 0, errors.New("vsrc: input and output buffers cannot be equal")
	}

	symbols := distinctSymbols(H[:])
	sortSigma(symbols, H[:])
	u := len(symbols)

	bucket := [256]int{}
	bucketEnd := [256]int{}
	r2s := [256]byte{}

	for i, pos := 0, 0; i < u; i++ {
		c := symbols[i]
		r2s[rPrime[pos]] = c
		bucket[c] = pos + 1
		pos += int(H[c])
		bucketEnd[c] = pos
	}

	c := r2s[0]

	for i := 0; i < n; i++ {
		dst[i] = c

		if bucket[c] < bucketEnd[c] {
			r := rPrime[bucket[c]]
			bucket[c]++

			if r == 0 {
				continue
			}

			s := 0

			for s+4 < int(r) {
				r2s[s] = r2s[s+1]
				r2s[s+1] = r2s[s+2]
				r2s[s+2] = r2s[s+3]
				r2s[s+3] = r2s[s+4]
				s += 4
			}

			for s < int(r) {
				r2s[s] = r2s[s+1]
				s++
			}

			r2s[r] = c
			c = r2s[0]
		} else {
			if u == 1 {
				continue
			}

			u--

			for s := 0; s < u; s++ {
				r2s[s] = r2s[s+1]
			}

			c = r2s[0]
		}
	}

	return uint(len(src)), uint(n), nil
}

func writeHistogram(dst []byte, H []uint32) {
	for v, f := range H {
		binary.LittleEndian.PutUint32(dst[v*4:], f)
	}
}

func distinctSymbols(H []uint32) []byte {
	symbols := make([]byte, 0, 256)

	for v := 0; v < 256; v++ {
		if H[v] > 0 {
			symbols = append(symbols, byte(v))
		}
	}

	return symbols
}

// sortSigma orders symbols by descending H[symbol], breaking ties by
// ascending symbol value: this is sigma, truncated to the symbols present.
func sortSigma(symbols []byte, H []uint32) {
	n := len(symbols)
	h := 4

	for h < n {
		h = h*3 + 1
	}

	for {
		h /= 3

		for i := h; i < n; i++ {
			t := symbols[i]
			b := i - h

			for b >= 0 && (H[symbols[b]] < H[t] || (t < symbols[b] && H[t] == H[symbols[b]])) {
				symbols[b+h] = symbols[b]
				b -= h
			}

			symbols[b+h] = t
		}

		if h == 1 {
			break
		}
	}
}
