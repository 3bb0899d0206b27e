package robot

import (
	"context"
	"strings"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"
)

// FoundBase describes a serial port with both wheel servos answering.
type FoundBase struct {
	Port   string
	Servos []feetech.FoundServo
}

// FindBases scans every serial port for a bus with all wheel servos of cal.
func FindBases(ctx context.Context, cal Calibration, baudRate int) ([]FoundBase, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	if baudRate == 0 {
		baudRate = 1_000_000
	}

	ids := cal.WheelIDs()
	lo, hi := IDRange(ids)

	var bases []FoundBase
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: baudRate,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			continue
		}

		scanCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		servos, err := bus.Scan(scanCtx, lo, hi)
		cancel()
		bus.Close()
		if err != nil {
			continue
		}

		if hasAll(servos, ids) {
			bases = append(bases, FoundBase{Port: port, Servos: servos})
		}
	}
	return bases, nil
}

// IDRange returns the smallest and largest ID in ids, for bus scans.
// An empty list gives the stock wheel IDs 1 and 2.
func IDRange(ids []int) (lo, hi int) {
	if len(ids) == 0 {
		return 1, 2
	}
	lo, hi = ids[0], ids[0]
	for _, id := range ids[1:] {
		lo = min(lo, id)
		hi = max(hi, id)
	}
	return lo, hi
}

func hasAll(servos []feetech.FoundServo, ids []int) bool {
	found := make(map[int]bool, len(servos))
	for _, s := range servos {
		found[s.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return false
		}
	}
	return len(ids) > 0
}
