// Package as5048a controls an AMS AS5048A 14-bit magnetic absolute rotary
// encoder over SPI.
//
// The driver validates every exchange (even parity plus the device error
// bit) and exposes the result as a sticky error flag rather than a failure:
// a corrupted frame degrades one sample, it never faults the caller. The
// angle surface unwraps the bounded 14-bit reading into a continuous signed
// multi-turn position, see Unwrapper for the tracking bound.
package as5048a

import (
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Opts holds configuration options for the encoder.
type Opts struct {
	// SettleDelay is inserted between the data phase of a register write
	// and the verification read. Slow hosts need up to 50ms here; most
	// boards are fine with zero.
	SettleDelay time.Duration
	// ZeroOffset is subtracted from every angle reading, in raw counts
	// [0, 16384).
	ZeroOffset uint16
	// Debug, when non-nil, receives a line per SPI exchange.
	Debug *log.Logger
}

func DefaultOpts() *Opts {
	return &Opts{}
}

// New opens the encoder on the given SPI port.
//
// The port must be wired as the device's exclusive chip-select line: the
// driver assumes every chip-select frame on it belongs to one of its own
// exchanges.
func New(p spi.Port, opts *Opts) (*Dev, error) {
	// 1MHz clock (AMS should be able to accept up to 10MHz)
	c, err := p.Connect(physic.MegaHertz, spi.Mode1, 8)
	if err != nil {
		return nil, fmt.Errorf("as5048a: %v", err)
	}

	if opts == nil {
		opts = DefaultOpts()
	}

	d := &Dev{
		d:    c,
		opts: *opts,
		name: p.String(),
	}
	d.unwrap.SetZero(opts.ZeroOffset)

	return d, nil
}

// Dev is a handle to one AS5048A.
type Dev struct {
	d    conn.Conn
	opts Opts
	name string

	mu        sync.Mutex
	errorFlag bool
	unwrap    Unwrapper
	ocf       ocfState
	stop      chan struct{}
	wg        sync.WaitGroup
}

func (d *Dev) String() string {
	return fmt.Sprintf("AS5048A{%s}", d.name)
}

// Read performs a pipelined register read and returns the low 14 bits of
// the response.
//
// The response to a command arrives during the following 16-bit transfer,
// so a read is two chip-select frames: the command word, then a NOP frame
// that clocks the addressed register out. A parity mismatch or a set device
// error bit marks the reading suspect via ErrorFlag; the data bits are
// returned either way and the fallback policy is the caller's.
//
// The returned error covers transport failures only, never frame
// corruption.
func (d *Dev) Read(reg uint16) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read(reg)
}

func (d *Dev) read(reg uint16) (uint16, error) {
	cmd := cmdRead | reg&addrMask
	cmd |= evenParity(cmd) << 15
	d.debugf("read %#04x: command %#04x", reg, cmd)

	// Command phase. The word clocked back here answers the previous
	// exchange and is discarded.
	if _, err := d.xfer16(cmd); err != nil {
		d.errorFlag = true
		return 0, d.wrap(err)
	}
	// Response phase.
	resp, err := d.xfer16(0x0000)
	if err != nil {
		d.errorFlag = true
		return 0, d.wrap(err)
	}
	d.debugf("read %#04x: response %#04x", reg, resp)

	d.errorFlag = resp&respError != 0 || !checkParity(resp)
	return resp & dataMask, nil
}

// Write writes a 14-bit value to a register and returns the register value
// reported back by the device for write verification.
//
// The exchange is three frames: address word, parity-protected data word,
// then a readback frame, with Opts.SettleDelay between the last two.
func (d *Dev) Write(reg, data uint16) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmd := reg & addrMask
	cmd |= evenParity(cmd) << 15
	d.debugf("write %#04x: command %#04x", reg, cmd)
	if _, err := d.xfer16(cmd); err != nil {
		d.errorFlag = true
		return 0, d.wrap(err)
	}

	word := data & dataMask
	word |= evenParity(word) << 15
	d.debugf("write %#04x: data %#04x", reg, word)
	if _, err := d.xfer16(word); err != nil {
		d.errorFlag = true
		return 0, d.wrap(err)
	}

	if d.opts.SettleDelay > 0 {
		time.Sleep(d.opts.SettleDelay)
	}

	resp, err := d.xfer16(0x0000)
	if err != nil {
		d.errorFlag = true
		return 0, d.wrap(err)
	}
	return resp & dataMask, nil
}

// xfer16 runs one chip-select frame carrying a single 16-bit word, MSB
// first.
func (d *Dev) xfer16(w uint16) (uint16, error) {
	tx := [2]byte{byte(w >> 8), byte(w)}
	var rx [2]byte
	if err := d.d.Tx(tx[:], rx[:]); err != nil {
		return 0, err
	}
	return uint16(rx[0])<<8 | uint16(rx[1]), nil
}

// ErrorFlag reports whether the most recent exchange failed validation.
func (d *Dev) ErrorFlag() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errorFlag
}

// State mirrors the diagnostic register.
type State struct {
	// AGC is the automatic gain control value; 0 is the strongest magnetic
	// field, 255 the weakest.
	AGC                uint8
	CompHigh           bool
	CompLow            bool
	CordicOverflow     bool
	OffsetCompFinished bool
}

// State reads the diagnostic register.
func (d *Dev) State() (State, error) {
	v, err := d.Read(RegDiagAGC)
	if err != nil {
		return State{}, err
	}
	return State{
		AGC:                uint8(v & agcMask),
		CompHigh:           v&diagCompHigh != 0,
		CompLow:            v&diagCompLow != 0,
		CordicOverflow:     v&diagCOF != 0,
		OffsetCompFinished: v&diagOCF != 0,
	}, nil
}

// Gain returns the automatic gain control value from the diagnostic
// register.
func (d *Dev) Gain() (uint8, error) {
	s, err := d.State()
	if err != nil {
		return 0, err
	}
	return s.AGC, nil
}

// Magnitude reads the CORDIC magnitude register.
func (d *Dev) Magnitude() (uint16, error) {
	return d.Read(RegMagnitude)
}

// Diagnostic identifies one advisory condition from the diagnostic
// register.
type Diagnostic int

const (
	DiagNone Diagnostic = iota
	DiagCompHigh
	DiagCompLow
	DiagCordicOverflow
	DiagOffsetCompFinished
)

func (g Diagnostic) String() string {
	switch g {
	case DiagCompHigh:
		return "COMP high"
	case DiagCompLow:
		return "COMP low"
	case DiagCordicOverflow:
		return "CORDIC overflow"
	case DiagOffsetCompFinished:
		return "offset compensation finished"
	}
	return "none"
}

// The offset-compensation-finished bit stays set for the life of the
// device, so it is reported exactly once and then suppressed.
type ocfState uint8

const (
	ocfUnacknowledged ocfState = iota
	ocfReported
)

// Diagnostic reads the diagnostic register and returns the most significant
// advisory condition, or DiagNone. Offset-compensation-finished is a
// one-shot: it is latched as reported after the first return.
func (d *Dev) Diagnostic() (Diagnostic, error) {
	s, err := d.State()
	if err != nil {
		return DiagNone, err
	}
	switch {
	case s.CompHigh:
		return DiagCompHigh, nil
	case s.CompLow:
		return DiagCompLow, nil
	case s.CordicOverflow:
		return DiagCordicOverflow, nil
	case s.OffsetCompFinished:
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.ocf == ocfUnacknowledged {
			d.ocf = ocfReported
			return DiagOffsetCompFinished, nil
		}
	}
	return DiagNone, nil
}

// ErrorFlags reports the device's communication error register.
type ErrorFlags struct {
	Parity         bool
	CommandInvalid bool
	Framing        bool
}

// Any reports whether any error bit is set.
func (e ErrorFlags) Any() bool {
	return e.Parity || e.CommandInvalid || e.Framing
}

func (e ErrorFlags) String() string {
	var s []string
	if e.Parity {
		s = append(s, "parity error")
	}
	if e.CommandInvalid {
		s = append(s, "command invalid")
	}
	if e.Framing {
		s = append(s, "framing error")
	}
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}

// Errors reads the error register. The read clears it on the device, so
// the flags report everything accumulated since the previous call.
func (d *Dev) Errors() (ErrorFlags, error) {
	v, err := d.Read(RegClearErrorFlag)
	if err != nil {
		return ErrorFlags{}, err
	}
	return ErrorFlags{
		Parity:         v&errParity != 0,
		CommandInvalid: v&errCommandInvalid != 0,
		Framing:        v&errFraming != 0,
	}, nil
}

// RawRotation reads the angle register without unwrapping or zero
// referencing. Check ErrorFlag for the reading's validity.
func (d *Dev) RawRotation() (uint16, error) {
	return d.Read(RegAngle)
}

// RotationUnwrapped reads the angle register and returns the continuous
// multi-turn position in raw counts, referenced to the zero offset.
//
// The unwrapper disambiguates at most half a revolution of travel per
// sample: motion faster than that between two reads aliases into the wrong
// revolution count with no detection. Callers must poll faster than the
// mechanism's top speed requires.
func (d *Dev) RotationUnwrapped() (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.read(RegAngle)
	if err != nil {
		return 0, err
	}
	return d.unwrap.Update(raw, !d.errorFlag), nil
}

// Rotation reads the angle register and returns the single-turn position
// relative to the zero offset, in raw counts between -2^13 and 2^13.
func (d *Dev) Rotation() (int16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.read(RegAngle)
	if err != nil {
		return 0, err
	}
	d.unwrap.Update(raw, !d.errorFlag)
	return d.unwrap.Rotation(), nil
}

// RotationDegrees returns the single-turn position in degrees, between 0
// and 360.
func (d *Dev) RotationDegrees() (float64, error) {
	r, err := d.Rotation()
	if err != nil {
		return 0, err
	}
	return 360.0 * (float64(r) + maxValue) / (maxValue * 2.0), nil
}

// RotationRadians returns the single-turn position in radians, between 0
// and 2π.
func (d *Dev) RotationRadians() (float64, error) {
	r, err := d.Rotation()
	if err != nil {
		return 0, err
	}
	return rotationRadians(r), nil
}

// RotationUnwrappedRadians returns the multi-turn position in radians.
func (d *Dev) RotationUnwrappedRadians() (float64, error) {
	u, err := d.RotationUnwrapped()
	if err != nil {
		return 0, err
	}
	return math.Pi * (float64(u) + maxValue) / maxValue, nil
}

// Angle returns the single-turn position as a physic.Angle.
func (d *Dev) Angle() (physic.Angle, error) {
	r, err := d.Rotation()
	if err != nil {
		return 0, err
	}
	return rotationAngle(r), nil
}

// SetZeroPosition sets the subtracted reference position, in raw counts.
// Values are folded into [0, 16384).
func (d *Dev) SetZeroPosition(pos uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unwrap.SetZero(pos)
}

// ZeroPosition returns the current zero offset.
func (d *Dev) ZeroPosition() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unwrap.Zero()
}

// Halt stops continuous reading as initiated by ReadContinuous.
//
// It is recommended to call this function before terminating the process to
// avoid a goroutine leak.
func (d *Dev) Halt() error {
	d.mu.Lock()
	if d.stop == nil {
		d.mu.Unlock()
		return nil
	}
	close(d.stop)
	d.stop = nil
	// Wait with the mutex released: the sampling goroutine takes it for
	// every exchange and may be blocked on it right now.
	d.mu.Unlock()
	d.wg.Wait()

	return nil
}

func rotationRadians(r int16) float64 {
	return math.Pi * (float64(r) + maxValue) / maxValue
}

func rotationAngle(r int16) physic.Angle {
	return physic.Angle(rotationRadians(r) * float64(physic.Radian))
}

func (d *Dev) debugf(format string, args ...interface{}) {
	if d.opts.Debug != nil {
		d.opts.Debug.Printf(format, args...)
	}
}

func (d *Dev) wrap(err error) error {
	return fmt.Errorf("%s: %v", strings.ToLower(d.name), err)
}

var _ conn.Resource = &Dev{}
