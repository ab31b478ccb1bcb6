// anglemon polls an AS5048A encoder and prints the raw, unwrapped and
// low-pass filtered angle.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/mechsense/motioncore/as5048a"
	"github.com/mechsense/motioncore/filter"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

func main() {
	bus := flag.String("bus", "", "Name of the SPI bus")
	interval := flag.Duration("interval", time.Millisecond, "Sample interval")
	zero := flag.Uint("zero", 0, "Zero position offset in raw counts [0,16384)")
	cutoff := flag.Float64("cutoff", 1000.0, "Low-pass cutoff in rad/s (0 disables filtering)")
	order := flag.Int("order", 3, "Low-pass filter order")
	flag.Parse()

	_, err := host.Init()
	if err != nil {
		log.Fatal(err)
	}

	sb, err := spireg.Open(*bus)
	if err != nil {
		log.Fatal(err)
	}
	defer sb.Close()

	opts := as5048a.DefaultOpts()
	opts.ZeroOffset = uint16(*zero)
	dev, err := as5048a.New(sb, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()

	var lp *filter.Discrete
	if *cutoff > 0 {
		coe := filter.Butterworth(*order, filter.Lowpass, *cutoff, 0, (*interval).Seconds())
		lp, err = filter.NewDiscrete(coe)
		if err != nil {
			log.Fatal(err)
		}
	}

	samples, err := dev.ReadContinuous(*interval)
	if err != nil {
		log.Fatal(err)
	}
	for s := range samples {
		if s.Faulted {
			if errs, err := dev.Errors(); err == nil && errs.Any() {
				log.Printf("encoder fault: %v", errs)
			}
		}
		out := float64(s.Unwrapped)
		if lp != nil {
			out = lp.FilterData(out)
		}
		if diag, err := dev.Diagnostic(); err == nil && diag != as5048a.DiagNone {
			log.Printf("diagnostic: %v", diag)
		}
		log.Printf("raw=%5d rot=%6d unwrapped=%9d filtered=%12.1f angle=%v",
			s.Raw, s.Rotation, s.Unwrapped, out, s.Angle)
	}
}
