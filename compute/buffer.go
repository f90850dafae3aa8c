// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import "fmt"

// BufferID addresses one device buffer of a session.
type BufferID int

// Session buffers. Channel, scratch and edge buffers hold float32 samples;
// output buffers hold byte samples.
const (
	BufChannel0 BufferID = iota
	BufChannel1
	BufChannel2
	BufScratch0
	BufScratch1
	BufScratch2
	BufEdge
	BufOutput0
	BufOutput1
	BufOutput2

	// BufferCount is the number of buffers a session owns.
	BufferCount
)

// Channels is the number of color planes the pipeline processes.
const Channels = 3

// ChannelBuffer returns the working plane buffer of channel c.
func ChannelBuffer(c int) BufferID { return BufChannel0 + BufferID(c) }

// ScratchBuffer returns the scratch buffer with index i (0..2).
func ScratchBuffer(i int) BufferID { return BufScratch0 + BufferID(i) }

// OutputBuffer returns the byte-domain output buffer of channel c.
func OutputBuffer(c int) BufferID { return BufOutput0 + BufferID(c) }

// Valid reports whether b names a session buffer.
func (b BufferID) Valid() bool {
	return b >= 0 && b < BufferCount
}

// IsOutput reports whether b is one of the byte-domain output buffers.
func (b BufferID) IsOutput() bool {
	return b >= BufOutput0 && b <= BufOutput2
}

// String returns the buffer label.
func (b BufferID) String() string {
	switch {
	case b >= BufChannel0 && b <= BufChannel2:
		return fmt.Sprintf("channel%d", int(b-BufChannel0))
	case b >= BufScratch0 && b <= BufScratch2:
		return fmt.Sprintf("scratch%d", int(b-BufScratch0))
	case b == BufEdge:
		return "edge"
	case b.IsOutput():
		return fmt.Sprintf("output%d", int(b-BufOutput0))
	default:
		return fmt.Sprintf("Unknown(%d)", int(b))
	}
}
