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

// ackBodySize is the full-ACK body: last-acked sequence, rtt, rtt variance,
// available buffer size, packet receiving rate, estimated link capacity,
// and receiving rate, each a 4-byte big-endian field.
const ackBodySize = 28

// AckPacket is a full ACK control packet. The acknowledgement number that
// the peer echoes back in ACKACK is carried in the header's Seg1, not the
// body.
type AckPacket struct {
	Header                       Header
	LastAcknowledgedPacketSeqNum uint32
	RTT                          uint32
	RTTVariance                  uint32
	AvailableBufferSize          uint32
	PacketsReceivingRate         uint32
	EstimatedLinkCapacity        uint32
	ReceivingRate                uint32
}

// NewAckPacket returns a zero-value ACK with the control header pre-filled.
func NewAckPacket() AckPacket {
	return AckPacket{Header: newControlHeader(ControlTypeAck)}
}

// AcknowledgementNumber returns the ACK's own sequence number, echoed back
// by the peer's ACKACK.
func (a AckPacket) AcknowledgementNumber() uint32 {
	return a.Header.Seg1
}

// SetAcknowledgementNumber sets the ACK's own sequence number.
func (a *AckPacket) SetAcknowledgementNumber(n uint32) {
	a.Header.Seg1 = n
}

// Encode serializes the ACK to a newly allocated byte slice.
func (a AckPacket) Encode() []byte {
	buf := make([]byte, HeaderSize+ackBodySize)
	marshalHeaderTo(buf, a.Header)
	body := buf[HeaderSize:]
	binary.BigEndian.PutUint32(body[0:4], a.LastAcknowledgedPacketSeqNum)
	binary.BigEndian.PutUint32(body[4:8], a.RTT)
	binary.BigEndian.PutUint32(body[8:12], a.RTTVariance)
	binary.BigEndian.PutUint32(body[12:16], a.AvailableBufferSize)
	binary.BigEndian.PutUint32(body[16:20], a.PacketsReceivingRate)
	binary.BigEndian.PutUint32(body[20:24], a.EstimatedLinkCapacity)
	binary.BigEndian.PutUint32(body[24:28], a.ReceivingRate)
	return buf
}

// DecodeAckPacket decodes a full ACK from b.
func DecodeAckPacket(b []byte) (AckPacket, error) {
	h, err := unmarshalHeader(b)
	if err != nil {
		return AckPacket{}, err
	}
	if err := requireControlType(h, ControlTypeAck); err != nil {
		return AckPacket{}, err
	}
	body := b[HeaderSize:]
	if len(body) < ackBodySize {
		return AckPacket{}, &ErrShortBuffer{Need: ackBodySize, Have: len(body)}
	}
	return AckPacket{
		Header:                       h,
		LastAcknowledgedPacketSeqNum: binary.BigEndian.Uint32(body[0:4]),
		RTT:                          binary.BigEndian.Uint32(body[4:8]),
		RTTVariance:                  binary.BigEndian.Uint32(body[8:12]),
		AvailableBufferSize:          binary.BigEndian.Uint32(body[12:16]),
		PacketsReceivingRate:         binary.BigEndian.Uint32(body[16:20]),
		EstimatedLinkCapacity:        binary.BigEndian.Uint32(body[20:24]),
		ReceivingRate:                binary.BigEndian.Uint32(body[24:28]),
	}, nil
}

// AckAckPacket acknowledges receipt of an ACK, echoing its acknowledgement
// number so the original sender can measure RTT. It carries no body.
type AckAckPacket struct {
	Header Header
}

// NewAckAckPacket returns a zero-value ACKACK with the control header
// pre-filled.
func NewAckAckPacket() AckAckPacket {
	return AckAckPacket{Header: newControlHeader(ControlTypeAckAck)}
}

// AcknowledgementNumber returns the echoed ACK sequence number.
func (a AckAckPacket) AcknowledgementNumber() uint32 {
	return a.Header.Seg1
}

// SetAcknowledgementNumber sets the echoed ACK sequence number.
func (a *AckAckPacket) SetAcknowledgementNumber(n uint32) {
	a.Header.Seg1 = n
}

// Encode serializes the ACKACK to a newly allocated byte slice.
func (a AckAckPacket) Encode() []byte {
	buf := make([]byte, HeaderSize)
	marshalHeaderTo(buf, a.Header)
	return buf
}

// DecodeAckAckPacket decodes an ACKACK from b.
func DecodeAckAckPacket(b []byte) (AckAckPacket, error) {
	h, err := unmarshalHeader(b)
	if err != nil {
		return AckAckPacket{}, err
	}
	if err := requireControlType(h, ControlTypeAckAck); err != nil {
		return AckAckPacket{}, err
	}
	return AckAckPacket{Header: h}, nil
}
