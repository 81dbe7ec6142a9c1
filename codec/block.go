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

// Package codec composes the VSRC and RLT transforms into a single block
// codec and a fixed-partition parallel wrapper around it.
package codec

import (
	"fmt"

	brc "github.com/loxxous/Behemoth-Rank-Coding"
	"github.com/loxxous/Behemoth-Rank-Coding/transform"
)

// BlockCodec composes VSRC and RLT: encode applies VSRC then RLT, decode
// applies inverse RLT then inverse VSRC. It owns one working buffer,
// sized by brc.SafeBound, and one scratch buffer used only transiently
// during Encode/Decode so that at most one scratch copy of the block ever
// exists at a time.
type BlockCodec struct {
	vsrc       *transform.VSRC
	rlt        *transform.RLT
	buffer     []byte
	scratch    []byte
	storedSize int
}

// NewBlockCodec creates a BlockCodec whose working buffer is sized for
// blocks of up to n source bytes.
func NewBlockCodec(n int) (*BlockCodec, error) {
	v, err := transform.NewVSRC()

	if err != nil {
		return nil, err
	}

	r, err := transform.NewRLT()

	if err != nil {
		return nil, err
	}

	this := &BlockCodec{vsrc: v, rlt: r}

	if err := this.Init(n); err != nil {
		return nil, err
	}

	return this, nil
}

// Init (re)sizes the working buffer for blocks of up to n source bytes.
// Existing buffer capacity is reused when large enough.
func (this *BlockCodec) Init(n int) error {
	size := brc.SafeBound(n)

	if cap(this.buffer) < size {
		this.buffer = make([]byte, size)
	} else {
		this.buffer = this.buffer[:size]
	}

	return nil
}

// Free releases the working and scratch buffers.
func (this *BlockCodec) Free() {
	this.buffer = nil
	this.scratch = nil
}

// StoredSize returns the number of bytes the last Encode call produced in
// the working buffer.
func (this *BlockCodec) StoredSize() int {
	return this.storedSize
}

// Buffer exposes the working buffer holding the most recently encoded (or
// about-to-be-decoded) block, valid for StoredSize() bytes.
func (this *BlockCodec) Buffer() []byte {
	return this.buffer
}

func (this *BlockCodec) ensureScratch(size int) {
	if cap(this.scratch) < size {
		this.scratch = make([]byte, size)
	} else {
		this.scratch = this.scratch[:size]
	}
}

// LoadEncoded copies a previously encoded block into the working buffer
// and records its length as StoredSize, readying it for Decode. Init (or
// NewBlockCodec) must already have reserved a buffer at least as large
// as data.
func (this *BlockCodec) LoadEncoded(data []byte) error {
	if len(this.buffer) < len(data) {
		return brc.ErrBufferTooSmall
	}

	copy(this.buffer, data)
	this.storedSize = len(data)
	return nil
}

// Encode runs VSRC forward from src into the working buffer, then RLT
// forward from a scratch copy of that result back into the working
// buffer, and records the resulting length as StoredSize.
func (this *BlockCodec) Encode(src []byte) error {
	n := len(src)
	need := brc.SafeBound(n)

	if len(this.buffer) < need {
		if err := this.Init(n); err != nil {
			return err
		}
	}

	vsrcLen := this.vsrc.MaxEncodedLen(n)

	if _, _, err := this.vsrc.Forward(src, this.buffer[:vsrcLen]); err != nil {
		return fmt.Errorf("block codec: vsrc forward: %w", err)
	}

	this.ensureScratch(brc.SafeBound(vsrcLen))
	copy(this.scratch[:vsrcLen], this.buffer[:vsrcLen])

	rltCap := this.rlt.MaxEncodedLen(vsrcLen)
	_, written, err := this.rlt.Forward(this.scratch[:vsrcLen], this.buffer[:rltCap])

	if err != nil {
		return fmt.Errorf("block codec: rlt forward: %w", err)
	}

	this.storedSize = int(written)
	return nil
}

// Decode consumes the working buffer (StoredSize() bytes of it) and
// writes the original block to dst, returning the number of bytes
// written. Fails with brc.ErrInvalidSubHeader when the embedded
// histogram does not sum to len(dst).
func (this *BlockCodec) Decode(dst []byte) (int, error) {
	s := this.storedSize
	this.ensureScratch(brc.SafeBound(s))
	copy(this.scratch[:s], this.buffer[:s])

	_, vsrcLen, err := this.rlt.Inverse(this.scratch[:s], this.buffer)

	if err != nil {
		return 0, fmt.Errorf("block codec: rlt inverse: %w", err)
	}

	_, n, err := this.vsrc.Inverse(this.buffer[:vsrcLen], dst)

	if err != nil {
		return 0, err
	}

	return int(n), nil
}
