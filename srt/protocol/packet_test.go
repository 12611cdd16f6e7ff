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
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDataPacketRoundTrip(t *testing.T) {
	var d DataPacket
	d.Header.DestinationSocketID = 0xCAFEBABE
	d.Header.Timestamp = 123456
	d.SetPacketSequenceNumber(100)
	d.SetPacketPositionFlag(PacketPositionFull)
	d.SetOrderFlag(true)
	d.SetRetransmissionFlag(false)
	d.SetMessageNumber(7)
	d.Data = []byte("hello world")

	wire := d.Encode()
	require.False(t, wire[0]&0x80 != 0, "data packets must have the control bit clear")

	got, err := DecodeDataPacket(wire)
	require.NoError(t, err)
	require.Equal(t, d, got)
	require.Equal(t, uint32(100), got.PacketSequenceNumber())
	require.Equal(t, PacketPositionFull, got.PacketPositionFlag())
	require.True(t, got.OrderFlag())
	require.False(t, got.RetransmissionFlag())
	require.Equal(t, uint32(7), got.MessageNumber())
}

func TestAckAckAckRoundTrip(t *testing.T) {
	ack := NewAckPacket()
	ack.SetAcknowledgementNumber(55)
	ack.LastAcknowledgedPacketSeqNum = 110
	ack.RTT = 93750
	ack.RTTVariance = 50000
	ack.AvailableBufferSize = 5000

	wire := ack.Encode()
	got, err := DecodeAckPacket(wire)
	require.NoError(t, err)
	require.Equal(t, ack, got)

	ackack := NewAckAckPacket()
	ackack.SetAcknowledgementNumber(55)
	wire2 := ackack.Encode()
	got2, err := DecodeAckAckPacket(wire2)
	require.NoError(t, err)
	require.Equal(t, uint32(55), got2.AcknowledgementNumber())
}

func TestNakRoundTrip(t *testing.T) {
	n := NewNakPacket()
	n.Lost = []SequenceNumbers{SingleSequenceNumber(5), SequenceNumberRange(10, 20)}
	wire := n.Encode()
	got, err := DecodeNakPacket(wire)
	require.NoError(t, err)
	require.Len(t, got.Lost, 2)
	require.Equal(t, uint32(5), got.Lost[0].First())
	require.True(t, got.Lost[1].IsRange())
}

func TestDropRequestRoundTrip(t *testing.T) {
	dr := NewDropRequestPacket()
	dr.SetMessageNumber(3)
	dr.FirstPacketSequenceNum = 10
	dr.LastPacketSequenceNum = 20
	wire := dr.Encode()
	got, err := DecodeDropRequestPacket(wire)
	require.NoError(t, err)
	require.Equal(t, uint32(3), got.MessageNumber())
	require.Equal(t, uint32(10), got.FirstPacketSequenceNum)
	require.Equal(t, uint32(20), got.LastPacketSequenceNum)
}

func TestShutdownAndKeepaliveRoundTrip(t *testing.T) {
	s := NewShutdownPacket()
	gotS, err := DecodeShutdownPacket(s.Encode())
	require.NoError(t, err)
	require.Equal(t, s, gotS)

	k := NewKeepalivePacket()
	gotK, err := DecodeKeepalivePacket(k.Encode())
	require.NoError(t, err)
	require.Equal(t, k, gotK)
}

func TestControlTypeMismatchRejected(t *testing.T) {
	ack := NewAckPacket()
	wire := ack.Encode()
	_, err := DecodeNakPacket(wire)
	require.Error(t, err)
	require.IsType(t, &ErrInvalidControlType{}, err)
}

func TestInductionHandshakeScenario(t *testing.T) {
	hs := NewHandshakePacket()
	hs.Version = 4
	hs.EncryptionField = 0
	hs.ExtensionField = 2
	hs.HandshakeType = HandshakeTypeInduction
	hs.SynCookie = 0
	hs.SRTSocketID = 0xDEADBEEF
	hs.InitialPacketSequenceNumber = 0x11111111

	wire := hs.Encode()
	require.Equal(t, HeaderSize+handshakeBodySize, len(wire))

	got, err := DecodeHandshakePacket(wire)
	require.NoError(t, err)
	require.Equal(t, uint32(4), got.Version)
	require.Equal(t, ExtensionField(2), got.ExtensionField)
	require.Equal(t, HandshakeTypeInduction, got.HandshakeType)
	require.Equal(t, uint32(0xDEADBEEF), got.SRTSocketID)
	require.Equal(t, uint32(0x11111111), got.InitialPacketSequenceNumber)
}

func TestConclusionHandshakeWithStreamID(t *testing.T) {
	hs := NewHandshakePacket()
	hs.Version = 5
	hs.HandshakeType = HandshakeTypeConclusion
	hs.SynCookie = 0xABCDEF
	hs.PeerIP = net.ParseIP("10.0.0.1")
	hs.Extensions = []Extension{
		{Type: ExtensionTypeConfigStreamID, Content: StreamIDContent{Value: "#!::m=request,r=1235"}},
	}

	wire := hs.Encode()
	got, err := DecodeHandshakePacket(wire)
	require.NoError(t, err)
	require.Equal(t, HandshakeTypeConclusion, got.HandshakeType)
	require.Len(t, got.Extensions, 1)
	sidContent, ok := got.Extensions[0].Content.(StreamIDContent)
	require.True(t, ok)

	sid, err := ParseStandardStreamID(sidContent.Value)
	require.NoError(t, err)
	require.Equal(t, "request", sid.Mode())
	require.Equal(t, "1235", sid.Resource())
}
