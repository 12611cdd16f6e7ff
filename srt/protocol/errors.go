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

import "fmt"

// ErrShortBuffer is returned whenever a decode reads past the end of the
// supplied byte slice.
type ErrShortBuffer struct {
	Need int
	Have int
}

func (e *ErrShortBuffer) Error() string {
	return fmt.Sprintf("srt: short buffer: need %d bytes, have %d", e.Need, e.Have)
}

// ErrInvalidPacketType is returned when the control/data discriminator bit
// does not match the decoder being used.
type ErrInvalidPacketType struct{}

func (e *ErrInvalidPacketType) Error() string { return "srt: invalid packet type" }

// ErrInvalidHandshakeType is returned when a handshake packet's
// handshake-type field is not a recognized value.
type ErrInvalidHandshakeType struct {
	Type uint32
}

func (e *ErrInvalidHandshakeType) Error() string {
	return fmt.Sprintf("srt: invalid handshake type %d", e.Type)
}

// ErrInvalidControlType is returned when a control packet's type field does
// not match any known ControlPacketType.
type ErrInvalidControlType struct {
	Type uint16
}

func (e *ErrInvalidControlType) Error() string {
	return fmt.Sprintf("srt: invalid control type %d", e.Type)
}

// ErrInvalidExtensionType is returned when a handshake extension header
// names a length that would overrun the packet body.
type ErrInvalidExtensionType struct {
	Type uint16
}

func (e *ErrInvalidExtensionType) Error() string {
	return fmt.Sprintf("srt: invalid extension type %d", e.Type)
}

// ErrUnsupportedExtension is returned for a structurally valid but
// unrecognized extension type. The caller may treat this as non-fatal.
type ErrUnsupportedExtension struct {
	Type ExtensionType
}

func (e *ErrUnsupportedExtension) Error() string {
	return fmt.Sprintf("srt: unsupported extension type %d", e.Type)
}
