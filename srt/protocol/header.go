/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package protocol

import "encoding/binary"

// HeaderSize is the fixed size in bytes of the common SRT packet header.
const HeaderSize = 16

// Header is the 16-byte shell common to every SRT packet: two type-specific
// 32-bit segments, a relative timestamp, and the destination socket id.
//
// Marshal/unmarshal are implemented as free functions below rather than as
// methods with a default MarshalBinary, so that embedding a Header inside a
// typed packet variant never silently exposes an incomplete encoding of the
// type-specific Seg1 field.
type Header struct {
	// Seg0 carries, for a data packet, the packet-type bit (MSB) plus the
	// 31-bit packet sequence number; for a control packet, the packet-type
	// bit, a 15-bit control type, and a 16-bit type-specific reserved field.
	Seg0 uint32
	// Seg1 is entirely type-specific: packet-position/order/encryption/
	// retransmission flags and the message number for data packets, or a
	// control-subtype field (e.g. the ACK/ACKACK acknowledgement number)
	// for control packets.
	Seg1 uint32
	// Timestamp is microseconds elapsed since the owning connection's
	// start time, truncated to 32 bits.
	Timestamp uint32
	// DestinationSocketID names the peer socket this packet targets.
	DestinationSocketID uint32
}

// IsControl reports whether the header's packet-type bit marks it a control
// packet (bit 0 of Seg0 set).
func (h Header) IsControl() bool {
	return bits(h.Seg0, 0, 1) == 1
}

// SetControl sets or clears the packet-type discriminator bit.
func (h *Header) SetControl(v bool) {
	var bit uint32
	if v {
		bit = 1
	}
	setBits(&h.Seg0, 0, 1, bit)
}

// ControlType reads the 15-bit control type field (bits 1..16 of Seg0).
// Only meaningful when IsControl() is true.
func (h Header) ControlType() uint16 {
	return uint16(bits(h.Seg0, 1, 16))
}

// SetControlType writes the 15-bit control type field.
func (h *Header) SetControlType(t uint16) {
	setBits(&h.Seg0, 1, 16, uint32(t))
}

// SequenceNumber reads the 31-bit packet sequence number (bits 1..32 of
// Seg0). Only meaningful when IsControl() is false.
func (h Header) SequenceNumber() uint32 {
	return bits(h.Seg0, 1, 32)
}

// SetSequenceNumber writes the 31-bit packet sequence number.
func (h *Header) SetSequenceNumber(seq uint32) {
	setBits(&h.Seg0, 1, 32, seq)
}

// unmarshalHeader decodes the 16-byte common header from the front of b.
func unmarshalHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, &ErrShortBuffer{Need: HeaderSize, Have: len(b)}
	}
	return Header{
		Seg0:                binary.BigEndian.Uint32(b[0:4]),
		Seg1:                binary.BigEndian.Uint32(b[4:8]),
		Timestamp:           binary.BigEndian.Uint32(b[8:12]),
		DestinationSocketID: binary.BigEndian.Uint32(b[12:16]),
	}, nil
}

// marshalHeaderTo encodes h into the first 16 bytes of dst, which must be at
// least HeaderSize long.
func marshalHeaderTo(dst []byte, h Header) {
	binary.BigEndian.PutUint32(dst[0:4], h.Seg0)
	binary.BigEndian.PutUint32(dst[4:8], h.Seg1)
	binary.BigEndian.PutUint32(dst[8:12], h.Timestamp)
	binary.BigEndian.PutUint32(dst[12:16], h.DestinationSocketID)
}
