package as5048a

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Sample is one conditioned encoder reading.
type Sample struct {
	// Raw is the 14-bit angle register value as received.
	Raw uint16
	// Rotation is the single-turn zero-referenced position in raw counts.
	Rotation int16
	// Unwrapped is the continuous multi-turn position in raw counts.
	Unwrapped int32
	// Angle is the single-turn position as an angle.
	Angle physic.Angle
	// Faulted reports that the exchange failed validation and the previous
	// reading was substituted.
	Faulted bool
}

// ReadContinuous returns angle samples at the given interval.
//
// The application must call Halt() to stop the sampling when done, which
// also closes the channel.
//
// It's the responsibility of the caller to drain the channel as fast as
// possible, otherwise the interval may not be respected.
func (d *Dev) ReadContinuous(interval time.Duration) (<-chan Sample, error) {
	d.mu.Lock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
		// Wait outside the mutex, the sampling goroutine needs it to
		// finish its current exchange.
		d.mu.Unlock()
		d.wg.Wait()
		d.mu.Lock()
	}
	defer d.mu.Unlock()

	sensing := make(chan Sample)
	d.stop = make(chan struct{})
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(sensing)
		d.readContinuous(interval, sensing, d.stop)
	}()
	return sensing, nil
}

func (d *Dev) readContinuous(interval time.Duration, sensing chan<- Sample, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		// Take one sample right away.
		var s Sample
		d.mu.Lock()
		raw, err := d.read(RegAngle)
		if err != nil {
			// Transport failure: leave the unwrap history alone and
			// report the sample as faulted.
			s.Faulted = true
		} else {
			s.Raw = raw
			s.Unwrapped = d.unwrap.Update(raw, !d.errorFlag)
			s.Rotation = d.unwrap.Rotation()
			s.Angle = rotationAngle(s.Rotation)
			s.Faulted = d.errorFlag
		}
		d.mu.Unlock()

		select {
		case sensing <- s:
		case <-stop:
			return
		}
		select {
		case <-stop:
			return
		case <-t.C:
		}
	}
}
