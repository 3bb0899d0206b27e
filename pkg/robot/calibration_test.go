package robot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWheelCalibration_Delta(t *testing.T) {
	cal := WheelCalibration{TicksPerRev: 4096}

	tests := []struct {
		prev, cur int
		expected  int
	}{
		{100, 200, 100},   // forward
		{200, 100, -100},  // backward
		{4000, 50, 146},   // forward across wrap
		{50, 4000, -146},  // backward across wrap
		{0, 2048, 2048},   // half turn stays positive
		{1000, 1000, 0},   // idle
	}

	for _, tt := range tests {
		got := cal.Delta(tt.prev, tt.cur)
		if got != tt.expected {
			t.Errorf("Delta(%d, %d) = %d, want %d", tt.prev, tt.cur, got, tt.expected)
		}
	}
}

func TestWheelCalibration_TicksToMeters(t *testing.T) {
	cal := WheelCalibration{TicksPerRev: 4096, RadiusM: 0.035}
	circumference := 2 * math.Pi * 0.035

	tests := []struct {
		ticks    int
		expected float64
	}{
		{4096, circumference},       // one revolution
		{-4096, -circumference},     // one revolution backwards
		{2048, circumference / 2},   // half
		{0, 0},
	}

	for _, tt := range tests {
		got := cal.TicksToMeters(tt.ticks)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("TicksToMeters(%d) = %f, want %f", tt.ticks, got, tt.expected)
		}
	}

	mirrored := cal
	mirrored.DriveMode = 1
	if got := mirrored.TicksToMeters(4096); math.Abs(got+circumference) > 1e-9 {
		t.Errorf("mirrored TicksToMeters(4096) = %f, want %f", got, -circumference)
	}
}

func TestWheelCalibration_RoundTrip(t *testing.T) {
	for _, mode := range []int{0, 1} {
		cal := WheelCalibration{TicksPerRev: 4096, RadiusM: 0.035, DriveMode: mode}

		// Test round-trip: ticks -> meters -> ticks
		for ticks := -3000; ticks <= 3000; ticks += 250 {
			m := cal.TicksToMeters(ticks)
			back := cal.MetersToTicks(m)
			if back != ticks {
				t.Errorf("Round-trip failed (mode %d): %d -> %f -> %d", mode, ticks, m, back)
			}
		}
	}
}

func TestCalibration_WheelIDs(t *testing.T) {
	cal := Calibration{
		RightWheel: WheelCalibration{ID: 7},
		LeftWheel:  WheelCalibration{ID: 3},
	}

	ids := cal.WheelIDs()
	expected := []int{3, 7}

	if len(ids) != len(expected) {
		t.Fatalf("WheelIDs returned %d IDs, want %d", len(ids), len(expected))
	}

	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("WheelIDs()[%d] = %d, want %d", i, id, expected[i])
		}
	}
}

func TestCalibration_ByID(t *testing.T) {
	cal := DefaultCalibration()

	name, wc, ok := cal.ByID(2)
	if !ok {
		t.Fatal("ByID(2) returned false")
	}
	if name != RightWheel {
		t.Errorf("ByID(2) returned name %s, want right", name)
	}
	if wc.DriveMode != 1 {
		t.Errorf("ByID(2) returned wrong calibration: %+v", wc)
	}

	_, _, ok = cal.ByID(99)
	if ok {
		t.Error("ByID(99) should return false")
	}
}

func TestCalibration_Validate(t *testing.T) {
	if err := DefaultCalibration().Validate(); err != nil {
		t.Fatalf("default calibration invalid: %v", err)
	}

	dup := DefaultCalibration()
	right := dup[RightWheel]
	right.ID = 1
	dup[RightWheel] = right
	if err := dup.Validate(); err == nil {
		t.Error("expected error for shared servo ID")
	}

	missing := Calibration{LeftWheel: DefaultCalibration()[LeftWheel]}
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing wheel")
	}
}

func TestLoadCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	data := `{"left": {"id": 4, "ticks_per_rev": 4096, "radius_m": 0.04}, "right": {"id": 5, "drive_mode": 1, "ticks_per_rev": 4096, "radius_m": 0.04}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cal, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}
	if cal[LeftWheel].ID != 4 || cal[RightWheel].DriveMode != 1 {
		t.Errorf("unexpected calibration: %+v", cal)
	}
}
