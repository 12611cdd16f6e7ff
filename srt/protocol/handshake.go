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

import (
	"encoding/binary"
	"net"
)

// HandshakeType names the handshake-type field of a HandshakePacket: one of
// the two-phase listener-handshake markers, or (when >= 1000) a rejection
// reason.
type HandshakeType uint32

// Handshake type values. Rejection codes occupy 1000..1015; any value in
// that range is a rejection, not a phase marker.
const (
	HandshakeTypeWaveHand   HandshakeType = 0x00000000
	HandshakeTypeInduction  HandshakeType = 0x00000001
	HandshakeTypeDone       HandshakeType = 0xFFFFFFFD
	HandshakeTypeAgreement  HandshakeType = 0xFFFFFFFE
	HandshakeTypeConclusion HandshakeType = 0xFFFFFFFF
)

// Rejection reason codes, a subset of the draft's REJ_* space, carried in
// the handshake-type field of a rejection response.
const (
	RejectionUnknown      HandshakeType = 1000
	RejectionSystem       HandshakeType = 1001
	RejectionPeer         HandshakeType = 1002
	RejectionResource     HandshakeType = 1004
	RejectionBadSecret    HandshakeType = 1010
	RejectionUnauthSecret HandshakeType = 1011
)

// IsRejection reports whether t names a rejection reason rather than a
// handshake phase.
func (t HandshakeType) IsRejection() bool {
	return t >= 1000 && t <= 1015
}

// ExtensionField is the 16-bit extension negotiation bitmask carried in a
// handshake, or the magic value 0x4A17 marking an induction response.
type ExtensionField uint16

// Extension field bits and the SRT magic value.
const (
	ExtensionFieldNone   ExtensionField = 0
	ExtensionFieldHSREQ  ExtensionField = 1
	ExtensionFieldKMREQ  ExtensionField = 1 << 1
	ExtensionFieldConfig ExtensionField = 1 << 2
	ExtensionFieldMagic  ExtensionField = 0x4A17
)

// IsMagic reports whether f is the induction-response magic value rather
// than a request bitmask.
func (f ExtensionField) IsMagic() bool { return f == ExtensionFieldMagic }

// HasHSREQ reports whether the HSREQ bit is set.
func (f ExtensionField) HasHSREQ() bool { return f&ExtensionFieldHSREQ != 0 }

// HasKMREQ reports whether the KMREQ bit is set.
func (f ExtensionField) HasKMREQ() bool { return f&ExtensionFieldKMREQ != 0 }

// HasConfig reports whether the CONFIG bit is set.
func (f ExtensionField) HasConfig() bool { return f&ExtensionFieldConfig != 0 }

const handshakeBodySize = 48

// HandshakePacket is the two-phase listener handshake: induction
// establishes a SYN cookie, conclusion authenticates and negotiates
// extensions.
type HandshakePacket struct {
	Header Header

	Version                     uint32
	EncryptionField             uint16
	ExtensionField              ExtensionField
	InitialPacketSequenceNumber uint32
	MTU                         uint32
	FlowWindowSize              uint32
	HandshakeType               HandshakeType
	SRTSocketID                 uint32
	SynCookie                   uint32
	PeerIP                      net.IP // 16 bytes, IPv4-mapped acceptable

	Extensions []Extension
}

// NewHandshakePacket returns a zero-value handshake with the control header
// pre-filled.
func NewHandshakePacket() HandshakePacket {
	return HandshakePacket{Header: newControlHeader(ControlTypeHandshake), PeerIP: make(net.IP, 16)}
}

// Encode serializes the handshake packet, including its extension chain,
// to a newly allocated byte slice.
func (h HandshakePacket) Encode() []byte {
	var extBody []byte
	for _, e := range h.Extensions {
		extBody = e.appendTo(extBody)
	}
	buf := make([]byte, HeaderSize+handshakeBodySize+len(extBody))
	marshalHeaderTo(buf, h.Header)
	body := buf[HeaderSize:]
	binary.BigEndian.PutUint32(body[0:4], h.Version)
	binary.BigEndian.PutUint16(body[4:6], h.EncryptionField)
	binary.BigEndian.PutUint16(body[6:8], uint16(h.ExtensionField))
	binary.BigEndian.PutUint32(body[8:12], h.InitialPacketSequenceNumber)
	binary.BigEndian.PutUint32(body[12:16], h.MTU)
	binary.BigEndian.PutUint32(body[16:20], h.FlowWindowSize)
	binary.BigEndian.PutUint32(body[20:24], uint32(h.HandshakeType))
	binary.BigEndian.PutUint32(body[24:28], h.SRTSocketID)
	binary.BigEndian.PutUint32(body[28:32], h.SynCookie)
	ip := h.PeerIP.To16()
	if ip == nil {
		ip = make(net.IP, 16)
	}
	copy(body[32:48], ip)
	copy(body[48:], extBody)
	return buf
}

// DecodeHandshakePacket decodes a handshake packet, including its
// extension chain, from b. Unknown extension types are surfaced in
// Err (when non-nil) as *ErrUnsupportedExtension but the handshake itself
// is still returned so the caller can decide whether to proceed — per the
// wire format, an unrecognized extension is non-fatal as long as the
// mandatory ones (HSREQ and, when present, StreamId) parsed.
func DecodeHandshakePacket(b []byte) (HandshakePacket, error) {
	h, err := unmarshalHeader(b)
	if err != nil {
		return HandshakePacket{}, err
	}
	if err := requireControlType(h, ControlTypeHandshake); err != nil {
		return HandshakePacket{}, err
	}
	if len(b) < HeaderSize+handshakeBodySize {
		return HandshakePacket{}, &ErrShortBuffer{Need: HeaderSize + handshakeBodySize, Have: len(b)}
	}
	body := b[HeaderSize:]
	hp := HandshakePacket{
		Header:                      h,
		Version:                     binary.BigEndian.Uint32(body[0:4]),
		EncryptionField:             binary.BigEndian.Uint16(body[4:6]),
		ExtensionField:              ExtensionField(binary.BigEndian.Uint16(body[6:8])),
		InitialPacketSequenceNumber: binary.BigEndian.Uint32(body[8:12]),
		MTU:                         binary.BigEndian.Uint32(body[12:16]),
		FlowWindowSize:              binary.BigEndian.Uint32(body[16:20]),
		HandshakeType:               HandshakeType(binary.BigEndian.Uint32(body[20:24])),
		SRTSocketID:                 binary.BigEndian.Uint32(body[24:28]),
		SynCookie:                   binary.BigEndian.Uint32(body[28:32]),
		PeerIP:                      append(net.IP(nil), body[32:48]...),
	}
	extBody := body[handshakeBodySize:]
	var unsupported error
	for len(extBody) > 0 {
		ext, n, err := decodeExtension(extBody)
		if err != nil {
			if u, ok := err.(*ErrUnsupportedExtension); ok {
				unsupported = u
				extBody = extBody[n:]
				continue
			}
			return HandshakePacket{}, err
		}
		hp.Extensions = append(hp.Extensions, ext)
		extBody = extBody[n:]
	}
	return hp, unsupported
}
