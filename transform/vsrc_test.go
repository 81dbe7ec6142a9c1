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
	"bytes"
	"math/rand"
	"testing"

	brc "github.com/loxxous/Behemoth-Rank-Coding"
)

func roundTripVSRC(t *testing.T, input []byte) {
	v, err := NewVSRC()

	if err != nil {
		t.Fatalf("NewVSRC: %v", err)
	}

	encoded := make([]byte, v.MaxEncodedLen(len(input)))

	for i := range encoded {
		encoded[i] = 0xAA
	}

	_, encLen, err := v.Forward(input, encoded)

	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	decoded := make([]byte, len(input))
	v2, _ := NewVSRC()
	_, decLen, err := v2.Inverse(encoded[:encLen], decoded)

	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}

	if int(decLen) != len(input) {
		t.Fatalf("decoded length mismatch: got %v, want %v", decLen, len(input))
	}

	if !bytes.Equal(decoded, input) {
		t.Fatalf("round trip mismatch:\n  in:  %v\n  out: %v", input, decoded)
	}
}

func TestVSRCFixedCases(t *testing.T) {
	cases := [][]byte{
		{},
		{0},
		{5},
		{1, 1, 1, 1, 1},
		{0, 1, 2, 2, 2, 2, 7, 9, 9, 16, 16, 16, 1, 3},
		bytes.Repeat([]byte{0}, 2048),
		bytes.Repeat([]byte{7}, 40000),
	}

	for i, c := range cases {
		t.Run("", func(t *testing.T) {
			_ = i
			roundTripVSRC(t, c)
		})
	}

	// All 256 symbols present exactly once: exercises every bucket.
	allSymbols := make([]byte, 256)

	for i := range allSymbols {
		allSymbols[i] = byte(i)
	}

	roundTripVSRC(t, allSymbols)
}

func TestVSRCFuzz(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	for iter := 0; iter < 64; iter++ {
		size := rnd.Intn(4096)
		input := make([]byte, size)

		// Bias toward a handful of distinct values so frequency ties and
		// the bucket-reordering logic actually get exercised.
		alphabet := byte(rnd.Intn(40) + 1)

		for i := range input {
			input[i] = byte(rnd.Intn(int(alphabet)))
		}

		roundTripVSRC(t, input)
	}
}

func TestVSRCRejectsAliasedBuffers(t *testing.T) {
	v, _ := NewVSRC()
	buf := make([]byte, 64+brc.HistogramSize)

	if _, _, err := v.Forward(buf[:8], buf); err == nil {
		t.Fatalf("expected error for aliased src/dst")
	}
}

func TestVSRCInverseRejectsBadHistogram(t *testing.T) {
	v, _ := NewVSRC()
	footer := make([]byte, brc.HistogramSize)
	// An all-zero histogram sums to 0, which cannot match a non-empty dst.
	dst := make([]byte, 10)

	if _, _, err := v.Inverse(footer, dst); err == nil {
		t.Fatalf("expected ErrInvalidSubHeader for inconsistent histogram")
	}
}

func TestVSRCInverseRejectsShortInput(t *testing.T) {
	v, _ := NewVSRC()
	dst := make([]byte, 4)

	if _, _, err := v.Inverse(make([]byte, 3), dst); err == nil {
		t.Fatalf("expected error for input shorter than the histogram footer")
	}
}
