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
	"errors"
	"fmt"

	internal "github.com/loxxous/Behemoth-Rank-Coding/internal"
)

// RLT Zero Run-Length Transform: replaces runs of the literal byte 0 with
// a compact binary-length code, escapes the two reserved high byte
// values (0xfe, 0xff), and shifts every other byte by +1. Well suited to
// post-VSRC data, which is dominated by zero ranks.
//
// Forward never fails for lack of compressibility (it fails only on an
// undersized or aliased output buffer): if the packed form would not fit
// in the source length, it falls back to a verbatim copy. Either way a single
// trailing marker byte records which form follows (0 = verbatim,
// 1 = packed).
type RLT struct {
}

// NewRLT creates a new instance of RLT.
func NewRLT() (*RLT, error) {
	return &RLT{}, nil
}

// MaxEncodedLen returns the max size required for the encoding output
// buffer: the source length plus one marker byte.
func (this *RLT) MaxEncodedLen(srcLen int) int {
	return srcLen + 1
}

// Forward packs zero runs in src and writes the result, followed by a
// one-byte mode marker, to dst. Falls back to a verbatim copy with
// marker 0 when the packed form would not fit in len(src) bytes.
func (this *RLT) Forward(src, dst []byte) (uint, uint, error) {
	l := len(src)

	if n := this.MaxEncodedLen(l); len(dst) < n {
		return 0, 0, fmt.Errorf("rlt: output buffer too small - size: %d, required: %d", len(dst), n)
	}

	if l == 0 {
		dst[0] = 1
		return 0, 1, nil
	}

	if &src[0] == &dst[0] {
		return 0, 0, errors.New("rlt: input and output buffers cannot be equal")
	}

	if packedLen, ok := this.pack(src, dst[:l]); ok {
		dst[packedLen] = 1
		return uint(l), uint(packedLen) + 1, nil
	}

	copy(dst[:l], src)
	dst[l] = 0
	return uint(l), uint(l) + 1, nil
}

// pack attempts to write the packed form of src into dst (capacity l).
// Returns the number of bytes written and whether it fit.
func (this *RLT) pack(src, dst []byte) (int, bool) {
	srcEnd := uint(len(src))
	dstEnd := uint(len(dst))
	srcIdx, dstIdx := uint(0), uint(0)

	for srcIdx < srcEnd {
		if src[srcIdx] == 0 {
			runStart := srcIdx
			srcIdx++

			for srcIdx+1 < srcEnd && src[srcIdx]|src[srcIdx+1] == 0 {
				srcIdx += 2
			}

			for srcIdx < srcEnd && src[srcIdx] == 0 {
				srcIdx++
			}

			runLength := srcIdx - runStart
			log2, _ := internal.Log2Floor(uint32(runLength + 1))

			if dstIdx+uint(log2) > dstEnd {
				return 0, false
			}

			for log2 > 0 {
				log2--
				dst[dstIdx] = byte((runLength + 1) >> log2 & 1)
				dstIdx++
			}

			continue
		}

		if src[srcIdx] >= 0xfe {
			if dstIdx+2 > dstEnd {
				return 0, false
			}

			dst[dstIdx] = 0xff
			dstIdx++
			dst[dstIdx] = src[srcIdx] - 0xfe
		} else {
			if dstIdx+1 > dstEnd {
				return 0, false
			}

			dst[dstIdx] = src[srcIdx] + 1
		}

		srcIdx++
		dstIdx++
	}

	return int(dstIdx), true
}

// Inverse expands the packed-or-verbatim body of src (whose last byte is
// the mode marker) and writes the original bytes to dst.
func (this *RLT) Inverse(src, dst []byte) (uint, uint, error) {
	if len(src) == 0 {
		return 0, 0, errors.New("rlt: input buffer too small - missing mode marker")
	}

	marker := src[len(src)-1]
	body := src[:len(src)-1]

	if marker == 0 {
		if len(dst) < len(body) {
			return 0, 0, fmt.Errorf("rlt: output buffer too small - size: %d, required: %d", len(dst), len(body))
		}

		copy(dst, body)
		return uint(len(src)), uint(len(body)), nil
	}

	if len(body) == 0 {
		return uint(len(src)), 0, nil
	}

	if &src[0] == &dst[0] {
		return 0, 0, errors.New("rlt: input and output buffers cannot be equal")
	}

	srcEnd, dstEnd := uint(len(body)), uint(len(dst))
	srcIdx, dstIdx := uint(0), uint(0)

	for srcIdx < srcEnd {
		if body[srcIdx] <= 1 {
			runLength := uint(1)

			for body[srcIdx] <= 1 {
				runLength = (runLength << 1) | uint(body[srcIdx])
				srcIdx++

				// A packed stream legitimately ends mid zero-run: the
				// last code has no trailing non-zero byte to terminate
				// it, so stop accumulating and fall through to emit it.
				if srcIdx >= srcEnd {
					break
				}
			}

			runLength--

			if dstIdx+runLength > dstEnd {
				return 0, 0, fmt.Errorf("rlt: output buffer too small - size: %d", len(dst))
			}

			for runLength > 0 {
				runLength--
				dst[dstIdx] = 0
				dstIdx++
			}

			continue
		}

		if body[srcIdx] == 0xff {
			srcIdx++

			if srcIdx >= srcEnd {
				return 0, 0, errors.New("rlt: truncated escape sequence")
			}

			if dstIdx >= dstEnd {
				return 0, 0, fmt.Errorf("rlt: output buffer too small - size: %d", len(dst))
			}

			dst[dstIdx] = 0xfe + body[srcIdx]
		} else {
			if dstIdx >= dstEnd {
				return 0, 0, fmt.Errorf("rlt: output buffer too small - size: %d", len(dst))
			}

			dst[dstIdx] = body[srcIdx] - 1
		}

		srcIdx++
		dstIdx++
	}

	return uint(len(src)), uint(dstIdx), nil
}
