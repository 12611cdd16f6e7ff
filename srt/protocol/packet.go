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

// Packet is satisfied by every decoded packet variant. Callers switch on
// the concrete type to get at type-specific fields; HeaderOf gives access
// to the common 16-byte shell without a type switch.
type Packet interface {
	Encode() []byte
}

// HeaderOf extracts the common header from any decoded packet via a type
// switch, so callers that only need routing information (destination
// socket id, timestamp, control-vs-data) never need to know the concrete
// packet type.
func HeaderOf(p Packet) Header {
	switch v := p.(type) {
	case DataPacket:
		return v.Header
	case HandshakePacket:
		return v.Header
	case AckPacket:
		return v.Header
	case AckAckPacket:
		return v.Header
	case NakPacket:
		return v.Header
	case DropRequestPacket:
		return v.Header
	case ShutdownPacket:
		return v.Header
	case KeepalivePacket:
		return v.Header
	default:
		return Header{}
	}
}

// DecodePacket provides a single entry point to decode any received UDP
// payload into a typed SRT packet. Callers switch on the returned Packet's
// concrete type, or inspect HeaderOf(p) for routing information alone.
func DecodePacket(b []byte) (Packet, error) {
	h, err := unmarshalHeader(b)
	if err != nil {
		return nil, err
	}

	if !h.IsControl() {
		return DecodeDataPacket(b)
	}

	switch ControlPacketType(h.ControlType()) {
	case ControlTypeHandshake:
		return DecodeHandshakePacket(b)
	case ControlTypeKeepalive:
		return DecodeKeepalivePacket(b)
	case ControlTypeAck:
		return DecodeAckPacket(b)
	case ControlTypeAckAck:
		return DecodeAckAckPacket(b)
	case ControlTypeNak:
		return DecodeNakPacket(b)
	case ControlTypeDropRequest:
		return DecodeDropRequestPacket(b)
	case ControlTypeShutdown:
		return DecodeShutdownPacket(b)
	default:
		return nil, &ErrInvalidControlType{Type: h.ControlType()}
	}
}
