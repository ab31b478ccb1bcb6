package filter

import "fmt"

// Coefficients holds the two coefficient vectors of a discrete recursive
// filter, stored with index 0 as the leading (highest-order) term. Natural
// holds the denominator "a" terms driving the natural response, Forced the
// numerator "b" terms driving the forced response. Natural[0] is the a₀
// normalizing divisor and must be nonzero.
type Coefficients struct {
	Natural []float64
	Forced  []float64
}

// Discrete applies the difference equation
//
//	y[n] = (1/a₀)·(Σₖ bₖ·x[n−k] − Σ_{k≥1} aₖ·y[n−k])
//
// sample by sample, holding the last N inputs and outputs in fixed-size
// shift registers sized at construction.
//
// A Discrete is owned by a single caller context; it is not safe for
// concurrent use without external synchronization.
type Discrete struct {
	coeffs  Coefficients
	forced  []float64 // input history, newest first
	natural []float64 // output history, newest first
}

// NewDiscrete returns a filter running the given coefficients with all
// history zeroed.
func NewDiscrete(c Coefficients) (*Discrete, error) {
	f := &Discrete{}
	if err := f.SetCoefficients(c); err != nil {
		return nil, err
	}
	f.forced = make([]float64, len(c.Natural))
	f.natural = make([]float64, len(c.Natural))
	return f, nil
}

// FilterData folds one input sample through the difference equation and
// returns the new output.
func (f *Discrete) FilterData(x float64) float64 {
	n := len(f.forced)

	for i := n - 1; i > 0; i-- {
		f.forced[i] = f.forced[i-1]
	}
	f.forced[0] = x

	var sum float64
	for i := 0; i < n; i++ {
		sum += f.coeffs.Forced[i] * f.forced[i]
	}
	// Prior outputs, weighted by the natural coefficients past the leading
	// term.
	for i := 0; i < n-1; i++ {
		sum -= f.coeffs.Natural[i+1] * f.natural[i]
	}
	sum /= f.coeffs.Natural[0]

	for i := n - 1; i > 0; i-- {
		f.natural[i] = f.natural[i-1]
	}
	f.natural[0] = sum

	return sum
}

// LastFiltered returns the most recent output without advancing the
// filter.
func (f *Discrete) LastFiltered() float64 {
	return f.natural[0]
}

// Reset zeroes all history, keeping the coefficients.
func (f *Discrete) Reset() float64 {
	for i := range f.forced {
		f.forced[i] = 0
		f.natural[i] = 0
	}
	return 0
}

// Fill sets every history entry to v. For a unity-DC-gain filter this
// seeds a steady state, avoiding the startup transient.
func (f *Discrete) Fill(v float64) float64 {
	for i := range f.forced {
		f.forced[i] = v
		f.natural[i] = v
	}
	return v
}

// SetCoefficients swaps in new coefficients without resetting history, so
// a filter can be re-tuned mid-stream. The vectors must match each other
// and, once the filter exists, its size.
func (f *Discrete) SetCoefficients(c Coefficients) error {
	if len(c.Natural) == 0 || len(c.Natural) != len(c.Forced) {
		return fmt.Errorf("filter: mismatched coefficient vectors (%d natural, %d forced)", len(c.Natural), len(c.Forced))
	}
	if f.forced != nil && len(c.Natural) != len(f.forced) {
		return fmt.Errorf("filter: coefficient length %d does not match filter size %d", len(c.Natural), len(f.forced))
	}
	f.coeffs = c
	return nil
}
