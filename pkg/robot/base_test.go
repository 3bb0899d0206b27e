package robot

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dturobocup/raubot/pkg/maneuver"
)

// syncWrite is one decoded sync write packet.
type syncWrite struct {
	addr byte
	data map[int][]byte
}

// decodeSyncWrites splits the bytes written to the bus into sync write packets.
func decodeSyncWrites(t *testing.T, raw []byte) []syncWrite {
	t.Helper()
	var out []syncWrite
	for len(raw) > 0 {
		require.GreaterOrEqual(t, len(raw), 6, "short packet")
		require.Equal(t, []byte{0xFF, 0xFF}, raw[:2], "packet header")
		require.Equal(t, byte(feetech.BroadcastID), raw[2])
		length := int(raw[3])
		require.Equal(t, feetech.InstSyncWrite, raw[4])

		params := raw[5 : 3+length]
		sw := syncWrite{addr: params[0], data: make(map[int][]byte)}
		size := int(params[1])
		for rest := params[2:]; len(rest) > 0; rest = rest[1+size:] {
			sw.data[int(rest[0])] = rest[1 : 1+size]
		}
		out = append(out, sw)
		raw = raw[4+length:]
	}
	return out
}

func newMockBase(t *testing.T) (*Base, *feetech.MockTransport) {
	t.Helper()
	mock := &feetech.MockTransport{}
	bus, err := feetech.NewBus(feetech.BusConfig{Transport: mock})
	require.NoError(t, err)
	t.Cleanup(func() { bus.Close() })
	return newBase(bus, DefaultCalibration()), mock
}

func speedOf(word []byte) int {
	v := int(binary.LittleEndian.Uint16(word))
	if v&0x8000 != 0 {
		return -(v &^ 0x8000)
	}
	return v
}

func TestBaseEnableSetsWheelMode(t *testing.T) {
	base, mock := newMockBase(t)
	require.NoError(t, base.Enable(context.Background()))

	writes := decodeSyncWrites(t, mock.WriteData)
	require.Len(t, writes, 4)

	assert.Equal(t, feetech.RegTorqueEnable.Address, writes[0].addr)
	assert.Equal(t, map[int][]byte{1: {0}, 2: {0}}, writes[0].data)

	assert.Equal(t, feetech.RegOperatingMode.Address, writes[1].addr)
	assert.Equal(t, map[int][]byte{1: {feetech.ModeVelocity}, 2: {feetech.ModeVelocity}}, writes[1].data)

	assert.Equal(t, feetech.RegGoalVelocity.Address, writes[2].addr)
	assert.Equal(t, map[int][]byte{1: {0, 0}, 2: {0, 0}}, writes[2].data)

	assert.Equal(t, feetech.RegTorqueEnable.Address, writes[3].addr)
	assert.Equal(t, map[int][]byte{1: {1}, 2: {1}}, writes[3].data)
}

func TestHardwareDriveWritesVelocities(t *testing.T) {
	base, mock := newMockBase(t)
	cfg := DefaultConfig().Base
	p := NewHardwarePlatform(base, NewOdometry(cfg.TrackWidth), cfg)

	// Encoders right at the seam must not matter in wheel mode.
	p.last = map[WheelName]int{LeftWheel: 4090, RightWheel: 5}

	require.NoError(t, p.Drive(context.Background(), maneuver.Command{Linear: 0.2}))

	writes := decodeSyncWrites(t, mock.WriteData)
	require.Len(t, writes, 1)
	assert.Equal(t, feetech.RegGoalVelocity.Address, writes[0].addr)

	want := DefaultCalibration()[LeftWheel].MetersToTicks(0.2)
	assert.Greater(t, want, 3000)
	assert.Equal(t, want, speedOf(writes[0].data[1]), "left wheel forward")
	assert.Equal(t, -want, speedOf(writes[0].data[2]), "mirrored right wheel")

	for _, w := range writes {
		assert.NotEqual(t, feetech.RegGoalPosition.Address, w.addr, "no position targets in wheel mode")
	}
}

func TestHardwareTurnAndStop(t *testing.T) {
	base, mock := newMockBase(t)
	cfg := DefaultConfig().Base
	p := NewHardwarePlatform(base, NewOdometry(cfg.TrackWidth), cfg)
	ctx := context.Background()

	require.NoError(t, p.Drive(ctx, maneuver.Command{Angular: math.Pi / 2}))
	require.NoError(t, p.Stop(ctx))

	writes := decodeSyncWrites(t, mock.WriteData)
	require.Len(t, writes, 2)

	// Turning left in place: the left wheel rolls backwards, the right one
	// forwards, which the mirrored servo sees as a negative speed too.
	left, right := speedOf(writes[0].data[1]), speedOf(writes[0].data[2])
	assert.Less(t, left, 0)
	assert.Equal(t, left, right)

	assert.Equal(t, map[int][]byte{1: {0, 0}, 2: {0, 0}}, writes[1].data)
}

func TestEncodeSpeed(t *testing.T) {
	tests := []struct {
		in   int
		want uint16
	}{
		{0, 0},
		{500, 500},
		{-500, 0x8000 | 500},
		{40000, 0x7FFF},
		{-40000, 0xFFFF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, encodeSpeed(tt.in), "encodeSpeed(%d)", tt.in)
	}
}
