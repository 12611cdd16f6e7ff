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

// ExtensionType names a handshake extension's wire type.
type ExtensionType uint16

// Extension type codes.
const (
	ExtensionTypeHSReq          ExtensionType = 1
	ExtensionTypeHSResp         ExtensionType = 2
	ExtensionTypeKMReq          ExtensionType = 3
	ExtensionTypeKMResp         ExtensionType = 4
	ExtensionTypeConfigStreamID ExtensionType = 5
	ExtensionTypeConfigGroup    ExtensionType = 6
)

// HSFlags is the capability bitmask carried in an HS extension.
type HSFlags uint32

// HS extension flag bits.
const (
	HSFlagTSBPDSnd     HSFlags = 1 << 0
	HSFlagTSBPDRcv     HSFlags = 1 << 1
	HSFlagCrypt        HSFlags = 1 << 2
	HSFlagTLPktDrop    HSFlags = 1 << 3
	HSFlagPeriodicNAK  HSFlags = 1 << 4
	HSFlagRexmitFlag   HSFlags = 1 << 5
	HSFlagStream       HSFlags = 1 << 6
	HSFlagPacketFilter HSFlags = 1 << 7
)

// Extension is one {type, length, content} entry in a handshake's
// extension chain.
type Extension struct {
	Type    ExtensionType
	Content ExtensionContent
}

// ExtensionContent is implemented by each recognized extension payload.
type ExtensionContent interface {
	// encodedWords returns the content's length in 32-bit words, as
	// carried in the extension header's length field.
	encodedWords() uint16
	// appendBody appends the raw content bytes (no header) to dst.
	appendBody(dst []byte) []byte
}

// appendTo appends e's full wire encoding (type, length, content) to dst.
func (e Extension) appendTo(dst []byte) []byte {
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[0:2], uint16(e.Type))
	binary.BigEndian.PutUint16(hdr[2:4], e.Content.encodedWords())
	dst = append(dst, hdr[:]...)
	return e.Content.appendBody(dst)
}

// decodeExtension reads one extension entry from the front of b, returning
// it along with the number of bytes consumed (header + content, rounded to
// whole 32-bit words per the declared length).
func decodeExtension(b []byte) (Extension, int, error) {
	if len(b) < 4 {
		return Extension{}, 0, &ErrShortBuffer{Need: 4, Have: len(b)}
	}
	typ := ExtensionType(binary.BigEndian.Uint16(b[0:2]))
	words := binary.BigEndian.Uint16(b[2:4])
	contentLen := int(words) * 4
	if len(b) < 4+contentLen {
		return Extension{}, 0, &ErrInvalidExtensionType{Type: uint16(typ)}
	}
	content := b[4 : 4+contentLen]
	total := 4 + contentLen

	switch typ {
	case ExtensionTypeHSReq, ExtensionTypeHSResp:
		c, err := decodeHSExtension(content)
		if err != nil {
			return Extension{}, 0, err
		}
		return Extension{Type: typ, Content: c}, total, nil
	case ExtensionTypeConfigStreamID:
		return Extension{Type: typ, Content: StreamIDContent{Value: DecodeStreamID(content)}}, total, nil
	case ExtensionTypeKMReq, ExtensionTypeKMResp:
		return Extension{Type: typ, Content: RawContent{Bytes: append([]byte(nil), content...)}}, total, nil
	case ExtensionTypeConfigGroup:
		return Extension{Type: typ, Content: RawContent{Bytes: append([]byte(nil), content...)}}, total, nil
	default:
		return Extension{}, total, &ErrUnsupportedExtension{Type: typ}
	}
}

// HSExtension carries the negotiated capability flags and TSBPD delays.
type HSExtension struct {
	Version        uint32
	Flags          HSFlags
	TSBPDDelayRecv uint16
	TSBPDDelaySend uint16
}

func (h HSExtension) encodedWords() uint16 { return 3 }

func (h HSExtension) appendBody(dst []byte) []byte {
	var w [12]byte
	binary.BigEndian.PutUint32(w[0:4], h.Version)
	binary.BigEndian.PutUint32(w[4:8], uint32(h.Flags))
	binary.BigEndian.PutUint16(w[8:10], h.TSBPDDelayRecv)
	binary.BigEndian.PutUint16(w[10:12], h.TSBPDDelaySend)
	return append(dst, w[:]...)
}

func decodeHSExtension(b []byte) (HSExtension, error) {
	if len(b) < 12 {
		return HSExtension{}, &ErrShortBuffer{Need: 12, Have: len(b)}
	}
	return HSExtension{
		Version:        binary.BigEndian.Uint32(b[0:4]),
		Flags:          HSFlags(binary.BigEndian.Uint32(b[4:8])),
		TSBPDDelayRecv: binary.BigEndian.Uint16(b[8:10]),
		TSBPDDelaySend: binary.BigEndian.Uint16(b[10:12]),
	}, nil
}

// StreamIDContent carries the StreamId string, encoded on the wire with
// per-4-byte-group byte reversal (see streamid.go).
type StreamIDContent struct {
	Value string
}

func (s StreamIDContent) encodedWords() uint16 {
	return uint16(EncodedStreamIDWords(s.Value))
}

func (s StreamIDContent) appendBody(dst []byte) []byte {
	return append(dst, EncodeStreamID(s.Value)...)
}

// RawContent passes an extension's content through unparsed: used for
// KeyMaterial and Group extensions, whose negotiation this engine does not
// implement but whose bytes it must still be able to carry and re-emit
// byte-for-byte.
type RawContent struct {
	Bytes []byte
}

func (r RawContent) encodedWords() uint16 {
	return uint16((len(r.Bytes) + 3) / 4)
}

func (r RawContent) appendBody(dst []byte) []byte {
	padded := make([]byte, int(r.encodedWords())*4)
	copy(padded, r.Bytes)
	return append(dst, padded...)
}
