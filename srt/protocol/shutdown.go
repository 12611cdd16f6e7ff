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

// ShutdownPacket tears down a connection. It carries no body.
type ShutdownPacket struct {
	Header Header
}

// NewShutdownPacket returns a zero-value Shutdown with the control header
// pre-filled.
func NewShutdownPacket() ShutdownPacket {
	return ShutdownPacket{Header: newControlHeader(ControlTypeShutdown)}
}

// Encode serializes the Shutdown packet to a newly allocated byte slice.
func (s ShutdownPacket) Encode() []byte {
	buf := make([]byte, HeaderSize)
	marshalHeaderTo(buf, s.Header)
	return buf
}

// DecodeShutdownPacket decodes a Shutdown packet from b.
func DecodeShutdownPacket(b []byte) (ShutdownPacket, error) {
	h, err := unmarshalHeader(b)
	if err != nil {
		return ShutdownPacket{}, err
	}
	if err := requireControlType(h, ControlTypeShutdown); err != nil {
		return ShutdownPacket{}, err
	}
	return ShutdownPacket{Header: h}, nil
}

// KeepalivePacket is a no-op liveness probe. It carries no body.
type KeepalivePacket struct {
	Header Header
}

// NewKeepalivePacket returns a zero-value Keepalive with the control header
// pre-filled.
func NewKeepalivePacket() KeepalivePacket {
	return KeepalivePacket{Header: newControlHeader(ControlTypeKeepalive)}
}

// Encode serializes the Keepalive packet to a newly allocated byte slice.
func (k KeepalivePacket) Encode() []byte {
	buf := make([]byte, HeaderSize)
	marshalHeaderTo(buf, k.Header)
	return buf
}

// DecodeKeepalivePacket decodes a Keepalive packet from b.
func DecodeKeepalivePacket(b []byte) (KeepalivePacket, error) {
	h, err := unmarshalHeader(b)
	if err != nil {
		return KeepalivePacket{}, err
	}
	if err := requireControlType(h, ControlTypeKeepalive); err != nil {
		return KeepalivePacket{}, err
	}
	return KeepalivePacket{Header: h}, nil
}
