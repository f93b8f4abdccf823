package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	data, err := NewStateReport(StateReport{
		X: 1234.5, Y: 678.9, ClientTimeMs: 100000, Sprinting: true, Facing: 3,
	})
	require.NoError(t, err)

	pkt, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, TypeStateReport, pkt.Type)

	var report StateReport
	require.NoError(t, pkt.Decode(&report))
	assert.Equal(t, 1234.5, report.X)
	assert.Equal(t, 678.9, report.Y)
	assert.True(t, report.Sprinting)
	assert.EqualValues(t, 3, report.Facing)
}

func TestUnmarshalRejectsMissingType(t *testing.T) {
	_, err := Unmarshal([]byte(`{"payload":{}}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	data, err := NewSnapshot(Snapshot{
		Seq: 42, PlayerID: 7, X: 2800, Y: 1000,
		Crouching: true, OnWater: true, JumpStartMs: 99500, ServerTimeMs: 100000,
	})
	require.NoError(t, err)

	pkt, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, TypeSnapshot, pkt.Type)

	var snap Snapshot
	require.NoError(t, pkt.Decode(&snap))
	assert.EqualValues(t, 42, snap.Seq)
	assert.EqualValues(t, 7, snap.PlayerID)
	assert.True(t, snap.OnWater)
	assert.EqualValues(t, 99500, snap.JumpStartMs)
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"type":"ping","payload":{}}`)

	require.NoError(t, WriteFrame(&buf, payload))
	require.NoError(t, WriteFrame(&buf, []byte("second")))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	got, err = ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestFrameRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteFrame(&buf, make([]byte, MaxPacketSize+1)))

	// 读侧同样防御伪造的超大长度头
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	_, err := ReadFrame(&buf)
	assert.Error(t, err)
}
