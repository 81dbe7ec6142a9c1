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

// Package brc implements Behemoth Rank Coding, a post-processing stage
// for Burrows-Wheeler-transformed byte streams: a sorted-rank move-to-front
// code (VSRC) followed by a zero run-length pack (RLT), composed into a
// block codec and a fixed-partition parallel wrapper around it.
package brc

import "errors"

const (
	// HistogramSize is the size in bytes of the serialised per-block
	// byte-frequency histogram appended by VSRC (256 little-endian u32 words).
	HistogramSize = 256 * 4

	// MaxThreads is the format-level clamp on caller-supplied thread counts.
	MaxThreads = 16

	// FormatTag occupies the high 16 bits of a partitioned container's
	// magic|version word.
	FormatTag = 0x4252 // "BR"

	// FormatVersion occupies the low 16 bits of a partitioned container's
	// magic|version word.
	FormatVersion = 1

	// AlignSize is the alignment, in bytes, that hot working buffers are
	// rounded up to. It is a performance contract only; it is never
	// observable in any encoded bitstream.
	AlignSize = 8

	// safetyPad is the small constant reserved on top of a block's
	// logical worst-case size for alignment/overwrite safety (spec.md
	// §4.3: "pad... a small constant (>= 16)").
	safetyPad = 16
)

// Sentinel errors for the taxonomy of spec.md §7. Callers should compare
// with errors.Is, since wrapped variants may add context.
var (
	// ErrAllocation is returned when a working or scratch buffer cannot
	// be sized as requested.
	ErrAllocation = errors.New("brc: allocation failure")

	// ErrInvalidContainer is returned when a partitioned container's
	// magic or version field fails validation.
	ErrInvalidContainer = errors.New("brc: invalid container")

	// ErrInvalidSubHeader is returned when a VSRC footer's histogram
	// does not sum to the expected decoded length.
	ErrInvalidSubHeader = errors.New("brc: invalid sub-header")

	// ErrBufferTooSmall is returned when a caller-supplied buffer is
	// smaller than the safe bound for the operation.
	ErrBufferTooSmall = errors.New("brc: buffer too small")
)

// ByteTransform is implemented by both halves of the BRC core (VSRC and
// RLT). Forward and Inverse report the number of bytes consumed from src
// and written to dst. A transform must be stateless across calls: repeated
// invocations with the same input must produce the same output regardless
// of how many other blocks have been processed, so that partitioned,
// concurrent use (C4) is byte-identical to serial use.
type ByteTransform interface {
	// Forward applies the transform to src and writes the result to dst.
	// Returns the number of bytes read from src, the number of bytes
	// written to dst, and an error if any.
	Forward(src, dst []byte) (uint, uint, error)

	// Inverse applies the reverse transform to src and writes the result
	// to dst. Returns the number of bytes read from src, the number of
	// bytes written to dst, and an error if any.
	Inverse(src, dst []byte) (uint, uint, error)

	// MaxEncodedLen returns the maximum size required of the output
	// buffer passed to Forward for an input of the given length.
	MaxEncodedLen(srcLen int) int
}

// SafeBound returns the capacity a block codec's working buffer must have
// to encode a block of n source bytes: the block itself, the VSRC
// histogram footer, the RLT marker byte, and the alignment/overwrite pad.
func SafeBound(n int) int {
	return alignUp(n + HistogramSize + 1 + safetyPad)
}

func alignUp(n int) int {
	return (n + AlignSize - 1) &^ (AlignSize - 1)
}
