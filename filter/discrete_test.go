package filter

import (
	"math"
	"testing"
)

// passthrough returns coefficients that leave the signal untouched.
func passthrough() Coefficients {
	return Coefficients{
		Natural: []float64{1, 0},
		Forced:  []float64{1, 0},
	}
}

func TestDiscreteZeroInZeroOut(t *testing.T) {
	f, err := NewDiscrete(Butterworth(3, Lowpass, 1000, 0, 1.0/1000.0))
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Reset(); got != 0 {
		t.Errorf("Reset() = %v, want 0", got)
	}
	for i := 0; i < 100; i++ {
		if got := f.FilterData(0); got != 0 {
			t.Fatalf("sample %d: FilterData(0) = %v, want 0", i, got)
		}
	}
}

func TestDiscretePassthrough(t *testing.T) {
	f, err := NewDiscrete(passthrough())
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range []float64{1, -2.5, 0, 42, 1e-9} {
		if got := f.FilterData(x); got != x {
			t.Errorf("FilterData(%v) = %v", x, got)
		}
		if got := f.LastFiltered(); got != x {
			t.Errorf("LastFiltered() = %v, want %v", got, x)
		}
	}
}

func TestDiscreteLeadingTermDivision(t *testing.T) {
	// a0 = 2 halves the forced sum.
	f, err := NewDiscrete(Coefficients{
		Natural: []float64{2, 0},
		Forced:  []float64{1, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.FilterData(10); got != 5 {
		t.Errorf("FilterData(10) = %v, want 5", got)
	}
}

func TestDiscreteMovingAverage(t *testing.T) {
	// y[n] = (x[n] + x[n-1]) / 2.
	f, err := NewDiscrete(Coefficients{
		Natural: []float64{1, 0},
		Forced:  []float64{0.5, 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	in := []float64{2, 4, 6, 8}
	want := []float64{1, 3, 5, 7}
	for i, x := range in {
		if got := f.FilterData(x); got != want[i] {
			t.Errorf("sample %d: got %v, want %v", i, got, want[i])
		}
	}
}

func TestDiscreteStepResponseSettles(t *testing.T) {
	// A unity-DC-gain low-pass must settle to the step level.
	f, err := NewDiscrete(Butterworth(1, Lowpass, 2*math.Pi*10, 0, 1.0/1000.0))
	if err != nil {
		t.Fatal(err)
	}
	var y float64
	for i := 0; i < 5000; i++ {
		y = f.FilterData(1)
	}
	if math.Abs(y-1) > 1e-6 {
		t.Errorf("settled output = %v, want 1", y)
	}
}

func TestDiscreteFillSeedsSteadyState(t *testing.T) {
	f, err := NewDiscrete(Butterworth(1, Lowpass, 2*math.Pi*10, 0, 1.0/1000.0))
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Fill(5); got != 5 {
		t.Errorf("Fill(5) = %v, want 5", got)
	}
	// With unity DC gain the filled state is already steady.
	if got := f.FilterData(5); math.Abs(got-5) > 1e-9 {
		t.Errorf("FilterData(5) after Fill = %v, want 5", got)
	}
}

func TestDiscreteSetCoefficients(t *testing.T) {
	f, err := NewDiscrete(passthrough())
	if err != nil {
		t.Fatal(err)
	}
	f.FilterData(8)

	// Swapping coefficients keeps history: the old input still feeds the
	// moving average.
	if err := f.SetCoefficients(Coefficients{
		Natural: []float64{1, 0},
		Forced:  []float64{0.5, 0.5},
	}); err != nil {
		t.Fatal(err)
	}
	if got := f.FilterData(2); got != 5 {
		t.Errorf("FilterData(2) after swap = %v, want 5", got)
	}

	if err := f.SetCoefficients(Coefficients{Natural: []float64{1, 0, 0}, Forced: []float64{1, 0, 0}}); err == nil {
		t.Error("size change accepted")
	}
	if err := f.SetCoefficients(Coefficients{Natural: []float64{1}, Forced: []float64{1, 0}}); err == nil {
		t.Error("mismatched vectors accepted")
	}
	if _, err := NewDiscrete(Coefficients{}); err == nil {
		t.Error("empty coefficients accepted")
	}
}

func TestDiscreteReset(t *testing.T) {
	f, err := NewDiscrete(passthrough())
	if err != nil {
		t.Fatal(err)
	}
	f.FilterData(123)
	f.Reset()
	if got := f.LastFiltered(); got != 0 {
		t.Errorf("LastFiltered() after Reset = %v, want 0", got)
	}
	if got := f.FilterData(0); got != 0 {
		t.Errorf("FilterData(0) after Reset = %v, want 0", got)
	}
}
