package battery

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Status is the charge state reported next to a dashboard run.
type Status struct {
	// Percent is 0–100, or -1 when unknown.
	Percent   int `json:"percent"`
	VoltageMv int `json:"voltage_mv"`
}

// Unknown is returned by readers without hardware.
var Unknown = Status{Percent: -1}

// ErrUnavailable means no battery controller can be reached on this host.
var ErrUnavailable = errors.New("battery: reader unavailable on this platform")

// Reader returns the current battery status.
type Reader interface {
	Read(ctx context.Context) (Status, error)
}

// Static always reports the same status. It is used when the battery is
// disabled in the config.
type Static Status

func (s Static) Read(context.Context) (Status, error) {
	return Status(s), nil
}

// PiSugar controller registers.
const (
	regVoltageHigh = 0x22
	regVoltageLow  = 0x23
	regPercent     = 0x2A
)

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// I2C reads a PiSugar style controller.
type I2C struct {
	bus  string
	addr uint16
}

// NewI2C returns a reader for the controller at addr on bus ("" picks
// the default bus).
func NewI2C(bus string, addr uint16) *I2C {
	return &I2C{bus: bus, addr: addr}
}

func (r *I2C) Read(_ context.Context) (Status, error) {
	if runtime.GOOS != "linux" {
		return Unknown, ErrUnavailable
	}
	if err := hostInit(); err != nil {
		return Unknown, fmt.Errorf("battery: periph init: %w", err)
	}

	bus, err := i2creg.Open(r.bus)
	if err != nil {
		return Unknown, fmt.Errorf("battery: open i2c bus %q: %w", r.bus, err)
	}
	defer bus.Close()

	dev := &i2c.Dev{Bus: bus, Addr: r.addr}
	reg := func(addr byte) (byte, error) {
		buf := []byte{0}
		if err := dev.Tx([]byte{addr}, buf); err != nil {
			return 0, fmt.Errorf("battery: read reg 0x%02x: %w", addr, err)
		}
		return buf[0], nil
	}

	high, err := reg(regVoltageHigh)
	if err != nil {
		return Unknown, err
	}
	low, err := reg(regVoltageLow)
	if err != nil {
		return Unknown, err
	}
	pct, err := reg(regPercent)
	if err != nil {
		return Unknown, err
	}

	return Status{
		Percent:   min(int(pct), 100),
		VoltageMv: int(uint16(high)<<8 | uint16(low)),
	}, nil
}

// New returns the I2C reader when enabled, otherwise a Static Unknown.
func New(enabled bool, bus string, addr uint16) Reader {
	if !enabled {
		return Static(Unknown)
	}
	return NewI2C(bus, addr)
}
