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

package codec

import (
	"bytes"
	"math/rand"
	"testing"

	brc "github.com/loxxous/Behemoth-Rank-Coding"
)

func roundTripPartitioned(t *testing.T, partitions, threads int, input []byte) {
	p, err := NewPartitioned(partitions, threads)

	if err != nil {
		t.Fatalf("NewPartitioned: %v", err)
	}

	encoded := make([]byte, p.MaxEncodedLen(len(input)))
	n, err := p.Encode(input, encoded)

	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded := make([]byte, len(input))

	if err := p.Decode(encoded[:n], decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !bytes.Equal(decoded, input) {
		t.Fatalf("round trip mismatch for %v partitions / %v threads:\n  in:  %v\n  out: %v", partitions, threads, input, decoded)
	}
}

func TestPartitionedFixedCases(t *testing.T) {
	sizes := []int{0, 1, 7, 1000, 10000}
	shapes := []struct{ partitions, threads int }{
		{1, 1},
		{2, 1},
		{4, 4},
		{4, 2},
		{8, 16},
	}

	for _, size := range sizes {
		input := make([]byte, size)

		for i := range input {
			input[i] = byte(i % 31)
		}

		for _, shape := range shapes {
			roundTripPartitioned(t, shape.partitions, shape.threads, input)
		}
	}
}

func TestPartitionedFuzz(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))

	for iter := 0; iter < 24; iter++ {
		size := rnd.Intn(20000) + 8
		input := make([]byte, size)
		alphabet := byte(rnd.Intn(64) + 1)

		for i := range input {
			input[i] = byte(rnd.Intn(int(alphabet)))
		}

		partitions := rnd.Intn(8) + 1
		threads := rnd.Intn(brc.MaxThreads) + 1
		roundTripPartitioned(t, partitions, threads, input)
	}
}

func TestPartitionedClampsThreadCount(t *testing.T) {
	p, err := NewPartitioned(4, 1000)

	if err != nil {
		t.Fatalf("NewPartitioned: %v", err)
	}

	if p.threads != brc.MaxThreads {
		t.Fatalf("expected thread count clamped to %v, got %v", brc.MaxThreads, p.threads)
	}
}

func TestPartitionedRejectsZeroPartitions(t *testing.T) {
	if _, err := NewPartitioned(0, 1); err == nil {
		t.Fatalf("expected error for zero partitions")
	}
}

func TestPartitionedDecodeRejectsBadMagic(t *testing.T) {
	p, _ := NewPartitioned(2, 2)
	input := bytes.Repeat([]byte{9}, 256)
	encoded := make([]byte, p.MaxEncodedLen(len(input)))
	n, err := p.Encode(input, encoded)

	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	encoded[6] ^= 0xff // corrupt the low byte of the magic (high 16 bits of the magic|version word)

	decoded := make([]byte, len(input))

	if err := p.Decode(encoded[:n], decoded); err == nil {
		t.Fatalf("expected ErrInvalidContainer for corrupted magic")
	}
}
