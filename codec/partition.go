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
	"encoding/binary"
	"fmt"
	"sync"

	cerrors "cloudeng.io/errors"

	brc "github.com/loxxous/Behemoth-Rank-Coding"
	"github.com/loxxous/Behemoth-Rank-Coding/internal"
)

// lenPrefixSize is the width, in bytes, of the per-partition stored-size
// prefix written inside each partition's reserved slot (see SPEC_FULL.md,
// "Partition slot sizing").
const lenPrefixSize = 4

// Partitioned splits a buffer into a fixed number of equal partitions
// (the last absorbing any remainder) and codes each independently with a
// BlockCodec, in parallel, behind a container header identifying the
// nominal partition size and the format version.
type Partitioned struct {
	partitions int
	threads    int
}

// NewPartitioned creates a wrapper that splits blocks into exactly
// partitions pieces and runs up to threads of them concurrently. threads
// is clamped to [1, brc.MaxThreads].
func NewPartitioned(partitions, threads int) (*Partitioned, error) {
	if partitions <= 0 {
		return nil, fmt.Errorf("partitioned: invalid partition count: %d", partitions)
	}

	if threads < 1 {
		threads = 1
	}

	if threads > brc.MaxThreads {
		threads = brc.MaxThreads
	}

	return &Partitioned{partitions: partitions, threads: threads}, nil
}

// partitionLens returns the source-byte length of each of the P
// partitions for a block of n bytes: step = n/P for all but the last,
// which absorbs the remainder.
func (this *Partitioned) partitionLens(n int) []int {
	step := n / this.partitions
	lens := make([]int, this.partitions)

	for i := range lens {
		lens[i] = step
	}

	lens[this.partitions-1] = n - step*(this.partitions-1)
	return lens
}

func slotCapacity(partitionLen int) int {
	return lenPrefixSize + brc.SafeBound(partitionLen)
}

func slotOffsets(lens []int) ([]int, int) {
	offsets := make([]int, len(lens))
	off := 8

	for i, l := range lens {
		offsets[i] = off
		off += slotCapacity(l)
	}

	return offsets, off
}

// MaxEncodedLen returns the size required of the output buffer passed to
// Encode for a block of n source bytes.
func (this *Partitioned) MaxEncodedLen(n int) int {
	_, total := slotOffsets(this.partitionLens(n))
	return total
}

// Encode splits src into this.partitions partitions, encodes each with a
// BlockCodec (in parallel, up to this.threads at a time), and writes the
// container header plus every partition's slot to dst. Returns the total
// number of bytes written.
func (this *Partitioned) Encode(src, dst []byte) (int, error) {
	n := len(src)
	lens := this.partitionLens(n)
	offsets, need := slotOffsets(lens)

	if len(dst) < need {
		return 0, fmt.Errorf("%w: size: %d, required: %d", brc.ErrBufferTooSmall, len(dst), need)
	}

	step := lens[0]

	if this.partitions == 1 {
		step = n
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(step))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(brc.FormatTag)<<16|uint32(brc.FormatVersion))

	srcOffsets := make([]int, this.partitions)
	srcOff := 0

	for i, l := range lens {
		srcOffsets[i] = srcOff
		srcOff += l
	}

	errs := this.dispatch(func(i int) error {
		l := lens[i]
		bc, err := NewBlockCodec(l)

		if err != nil {
			return err
		}

		if err := bc.Encode(src[srcOffsets[i] : srcOffsets[i]+l]); err != nil {
			return err
		}

		slot := dst[offsets[i] : offsets[i]+slotCapacity(l)]
		binary.LittleEndian.PutUint32(slot[:lenPrefixSize], uint32(bc.StoredSize()))
		copy(slot[lenPrefixSize:], bc.Buffer()[:bc.StoredSize()])
		return nil
	})

	if errs != nil {
		return 0, errs
	}

	return need, nil
}

// Decode parses a container written by Encode and reconstructs the
// original block into dst; len(dst) must equal the original source
// length. Partitions are decoded independently and in parallel; the
// wrapper does not publish dst until every partition has completed.
func (this *Partitioned) Decode(src, dst []byte) error {
	if len(src) < 8 {
		return brc.ErrInvalidContainer
	}

	step := int(binary.LittleEndian.Uint32(src[0:4]))
	magicVersion := binary.LittleEndian.Uint32(src[4:8])
	magic := uint16(magicVersion >> 16)
	version := uint16(magicVersion)

	if magic != brc.FormatTag {
		return brc.ErrInvalidContainer
	}

	if version > brc.FormatVersion {
		return brc.ErrInvalidContainer
	}

	n := len(dst)
	lens := make([]int, this.partitions)

	for i := 0; i < this.partitions-1; i++ {
		lens[i] = step
	}

	lens[this.partitions-1] = n - step*(this.partitions-1)
	offsets, need := slotOffsets(lens)

	if len(src) < need {
		return brc.ErrInvalidContainer
	}

	dstOffsets := make([]int, this.partitions)
	dstOff := 0

	for i, l := range lens {
		dstOffsets[i] = dstOff
		dstOff += l
	}

	errs := this.dispatch(func(i int) error {
		l := lens[i]
		slot := src[offsets[i] : offsets[i]+slotCapacity(l)]
		storedLen := int(binary.LittleEndian.Uint32(slot[:lenPrefixSize]))

		if lenPrefixSize+storedLen > len(slot) {
			return brc.ErrInvalidContainer
		}

		bc, err := NewBlockCodec(l)

		if err != nil {
			return err
		}

		if err := bc.LoadEncoded(slot[lenPrefixSize : lenPrefixSize+storedLen]); err != nil {
			return err
		}

		if _, err := bc.Decode(dst[dstOffsets[i] : dstOffsets[i]+l]); err != nil {
			return err
		}

		return nil
	})

	if errs != nil {
		return errs
	}

	return nil
}

// dispatch fans partition indices 0..partitions-1 out across min(threads,
// partitions) worker goroutines, each handling a contiguous share of the
// partitions computed by internal.ComputeJobsPerTask, and waits for all
// of them before returning. Per-partition failures are collected rather
// than aborting siblings, then aggregated into one error.
func (this *Partitioned) dispatch(work func(i int) error) error {
	nbTasks := this.threads

	if nbTasks > this.partitions {
		nbTasks = this.partitions
	}

	jobsPerTask, err := internal.ComputeJobsPerTask(make([]uint, nbTasks), uint(this.partitions), uint(nbTasks))

	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	errs := &cerrors.M{}

	start := 0

	for t := 0; t < nbTasks; t++ {
		count := int(jobsPerTask[t])
		wg.Add(1)

		go func(first, count int) {
			defer wg.Done()

			for k := 0; k < count; k++ {
				if err := work(first + k); err != nil {
					mu.Lock()
					errs.Append(err)
					mu.Unlock()
				}
			}
		}(start, count)

		start += count
	}

	wg.Wait()
	return errs.Err()
}
