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

func putUint32BE(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func getUint32BE(b []byte) uint32    { return binary.BigEndian.Uint32(b) }

// NakPacket reports sequence numbers the receiver considers lost.
type NakPacket struct {
	Header Header
	Lost   []SequenceNumbers
}

// NewNakPacket returns a zero-value NAK with the control header pre-filled.
func NewNakPacket() NakPacket {
	return NakPacket{Header: newControlHeader(ControlTypeNak)}
}

// Encode serializes the NAK to a newly allocated byte slice.
func (n NakPacket) Encode() []byte {
	size := HeaderSize
	for _, s := range n.Lost {
		size += s.EncodedLen()
	}
	buf := make([]byte, HeaderSize, size)
	marshalHeaderTo(buf, n.Header)
	for _, s := range n.Lost {
		buf = s.Encode(buf)
	}
	return buf
}

// DecodeNakPacket decodes a NAK from b.
func DecodeNakPacket(b []byte) (NakPacket, error) {
	h, err := unmarshalHeader(b)
	if err != nil {
		return NakPacket{}, err
	}
	if err := requireControlType(h, ControlTypeNak); err != nil {
		return NakPacket{}, err
	}
	body := b[HeaderSize:]
	var lost []SequenceNumbers
	for len(body) > 0 {
		sn, n, err := DecodeSequenceNumbers(body)
		if err != nil {
			return NakPacket{}, err
		}
		lost = append(lost, sn)
		body = body[n:]
	}
	return NakPacket{Header: h, Lost: lost}, nil
}

// DropRequestPacket asks the peer to stop waiting for a range of
// irrecoverably lost sequence numbers.
type DropRequestPacket struct {
	Header                 Header
	FirstPacketSequenceNum uint32
	LastPacketSequenceNum  uint32
}

// NewDropRequestPacket returns a zero-value DropRequest with the control
// header pre-filled.
func NewDropRequestPacket() DropRequestPacket {
	return DropRequestPacket{Header: newControlHeader(ControlTypeDropRequest)}
}

// MessageNumber returns the message number of the dropped segment, carried
// in the header's Seg1.
func (d DropRequestPacket) MessageNumber() uint32 {
	return d.Header.Seg1
}

// SetMessageNumber sets the message number of the dropped segment.
func (d *DropRequestPacket) SetMessageNumber(n uint32) {
	d.Header.Seg1 = n
}

// Encode serializes the DropRequest to a newly allocated byte slice. The
// first/last fields are plain 31-bit words, not the tagged SequenceNumbers
// encoding: DropRequest always names an explicit range via two dedicated
// fields rather than the NAK list format.
func (d DropRequestPacket) Encode() []byte {
	buf := make([]byte, HeaderSize+8)
	marshalHeaderTo(buf, d.Header)
	putUint32BE(buf[HeaderSize:HeaderSize+4], d.FirstPacketSequenceNum&0x7FFFFFFF)
	putUint32BE(buf[HeaderSize+4:HeaderSize+8], d.LastPacketSequenceNum&0x7FFFFFFF)
	return buf
}

// DecodeDropRequestPacket decodes a DropRequest from b.
func DecodeDropRequestPacket(b []byte) (DropRequestPacket, error) {
	h, err := unmarshalHeader(b)
	if err != nil {
		return DropRequestPacket{}, err
	}
	if err := requireControlType(h, ControlTypeDropRequest); err != nil {
		return DropRequestPacket{}, err
	}
	body := b[HeaderSize:]
	if len(body) < 8 {
		return DropRequestPacket{}, &ErrShortBuffer{Need: 8, Have: len(body)}
	}
	return DropRequestPacket{
		Header:                 h,
		FirstPacketSequenceNum: getUint32BE(body[0:4]) & 0x7FFFFFFF,
		LastPacketSequenceNum:  getUint32BE(body[4:8]) & 0x7FFFFFFF,
	}, nil
}
