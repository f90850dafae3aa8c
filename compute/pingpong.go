// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

// PingPong is a two-state token over a pair of distinct buffers.
// The zero value is not usable; create tokens with NewPingPong.
type PingPong struct {
	bufs    [2]BufferID
	current uint8
}

// NewPingPong returns a token whose Current buffer is a and Next buffer is b.
// It panics if a == b: a ping-pong pair must never alias.
func NewPingPong(a, b BufferID) PingPong {
	if a == b {
		panic("compute: ping-pong buffers must be distinct, got " + a.String() + " twice")
	}
	return PingPong{bufs: [2]BufferID{a, b}}
}

// Current returns the buffer holding the latest result.
func (p PingPong) Current() BufferID { return p.bufs[p.current] }

// Next returns the buffer the following iteration writes.
func (p PingPong) Next() BufferID { return p.bufs[p.current^1] }

// Swap returns the token for the following iteration: the buffer just
// written becomes Current.
func (p PingPong) Swap() PingPong {
	p.current ^= 1
	return p
}
