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

// PacketPosition names where a data packet sits within a fragmented
// message. This implementation never fragments outbound data (Full only)
// but must decode all four positions from a peer.
type PacketPosition uint32

// Packet position values, read from bits 0..2 of Seg1.
const (
	PacketPositionMiddle PacketPosition = 0b00
	PacketPositionLast   PacketPosition = 0b01
	PacketPositionFirst  PacketPosition = 0b10
	PacketPositionFull   PacketPosition = 0b11
)

// DataPacket is a data-carrying SRT packet: the common header plus payload.
type DataPacket struct {
	Header Header
	Data   []byte
}

// PacketSequenceNumber returns the 31-bit packet sequence number.
func (d DataPacket) PacketSequenceNumber() uint32 {
	return d.Header.SequenceNumber()
}

// SetPacketSequenceNumber writes the 31-bit packet sequence number.
func (d *DataPacket) SetPacketSequenceNumber(seq uint32) {
	d.Header.SetSequenceNumber(seq)
}

// PacketPositionFlag reads the packet-position bits of Seg1.
func (d DataPacket) PacketPositionFlag() PacketPosition {
	return PacketPosition(bits(d.Header.Seg1, 0, 2))
}

// SetPacketPositionFlag writes the packet-position bits of Seg1.
func (d *DataPacket) SetPacketPositionFlag(p PacketPosition) {
	setBits(&d.Header.Seg1, 0, 2, uint32(p))
}

// OrderFlag reads the in-order-delivery bit of Seg1.
func (d DataPacket) OrderFlag() bool {
	return bits(d.Header.Seg1, 2, 3) == 1
}

// SetOrderFlag writes the in-order-delivery bit of Seg1.
func (d *DataPacket) SetOrderFlag(v bool) {
	var b uint32
	if v {
		b = 1
	}
	setBits(&d.Header.Seg1, 2, 3, b)
}

// EncryptionFlag reads the 2-bit encryption key field of Seg1. 0 means
// unencrypted; this implementation never produces a nonzero value.
func (d DataPacket) EncryptionFlag() uint32 {
	return bits(d.Header.Seg1, 3, 5)
}

// SetEncryptionFlag writes the 2-bit encryption key field of Seg1.
func (d *DataPacket) SetEncryptionFlag(v uint32) {
	setBits(&d.Header.Seg1, 3, 5, v)
}

// RetransmissionFlag reads the retransmitted bit of Seg1.
func (d DataPacket) RetransmissionFlag() bool {
	return bits(d.Header.Seg1, 5, 6) == 1
}

// SetRetransmissionFlag writes the retransmitted bit of Seg1.
func (d *DataPacket) SetRetransmissionFlag(v bool) {
	var b uint32
	if v {
		b = 1
	}
	setBits(&d.Header.Seg1, 5, 6, b)
}

// MessageNumber reads the 26-bit message number field of Seg1.
func (d DataPacket) MessageNumber() uint32 {
	return bits(d.Header.Seg1, 6, 32)
}

// SetMessageNumber writes the 26-bit message number field of Seg1.
func (d *DataPacket) SetMessageNumber(n uint32) {
	setBits(&d.Header.Seg1, 6, 32, n)
}

// Encode serializes the data packet to a newly allocated byte slice.
func (d DataPacket) Encode() []byte {
	buf := make([]byte, HeaderSize+len(d.Data))
	marshalHeaderTo(buf, d.Header)
	copy(buf[HeaderSize:], d.Data)
	return buf
}

// DecodeDataPacket decodes a data packet from b, which must already be
// known (by the header's packet-type bit) to be a data packet.
func DecodeDataPacket(b []byte) (DataPacket, error) {
	h, err := unmarshalHeader(b)
	if err != nil {
		return DataPacket{}, err
	}
	data := make([]byte, len(b)-HeaderSize)
	copy(data, b[HeaderSize:])
	return DataPacket{Header: h, Data: data}, nil
}
