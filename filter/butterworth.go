// Package filter designs and runs discrete recursive filters.
//
// Butterworth synthesizes coefficients for a maximally flat low-pass,
// high-pass, band-pass or band-stop filter; Discrete applies any set of
// coefficients to a sample stream in real time. The two halves are
// independent: Discrete will run coefficients from any source.
package filter

import (
	"math"
	"math/cmplx"
)

// Type selects the passband shape of a designed filter.
type Type uint8

const (
	Lowpass Type = iota
	Highpass
	Bandpass
	Bandstop
)

func (t Type) String() string {
	switch t {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	case Bandstop:
		return "bandstop"
	}
	return "unknown"
}

// isBand reports whether the type doubles the pole count: the band
// transforms map every prototype pole to a pole pair.
func (t Type) isBand() bool {
	return t == Bandpass || t == Bandstop
}

// NumCoefficients returns the coefficient vector length produced by
// Butterworth for a filter of the given order and type.
func NumCoefficients(order int, typ Type) int {
	if typ.isBand() {
		return 2*order + 1
	}
	return order + 1
}

// Butterworth designs a discrete Butterworth filter of the given order.
//
// low is the cutoff frequency in rad/s; for Bandpass and Bandstop it is the
// lower band edge and high the upper band edge (high is ignored for the
// other types). ts is the sample period in seconds.
//
// Inputs are not validated: the caller must keep 0 < cutoff < π/ts.
// Degenerate parameters propagate through as NaN or Inf coefficients
// rather than an error.
func Butterworth(order int, typ Type, low, high, ts float64) Coefficients {
	n := NumCoefficients(order, typ)

	// Pre-warp the band edges for the bilinear transform.
	wl := 2.0 / ts * math.Tan(low*ts/2.0)
	wh := 2.0 / ts * math.Tan(high*ts/2.0)

	// Prototype poles, uniformly spaced on the unit circle in the stable
	// half-plane.
	proto := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi*(2.0*float64(k)+1.0)/(2.0*float64(order)) + math.Pi/2.0
		proto[k] = cmplx.Rect(1, theta)
	}

	sPoles := make([]complex128, 0, n-1)
	switch typ {
	case Lowpass:
		// s → s/Ωc: scale every pole to the cutoff.
		for _, p := range proto {
			sPoles = append(sPoles, p*complex(wl, 0))
		}
	case Highpass:
		// s → Ωc/s: the inverse transform.
		for _, p := range proto {
			sPoles = append(sPoles, complex(wl, 0)/p)
		}
	case Bandpass:
		// s → (s² + Ω₀²)/(Bs) with Ω₀² = ΩlΩh and B = Ωh−Ωl. Each
		// prototype pole p becomes the two roots of s² − pBs + Ω₀² = 0.
		b := wh - wl
		w0sq := wh * wl
		for _, p := range proto {
			pb := p * complex(b, 0)
			root := cmplx.Sqrt(pb*pb - complex(4.0*w0sq, 0))
			sPoles = append(sPoles, (pb+root)/2, (pb-root)/2)
		}
	case Bandstop:
		// s → Bs/(s² + Ω₀²), the reciprocal form.
		b := wh - wl
		w0sq := wh * wl
		for _, p := range proto {
			root := cmplx.Sqrt(complex(b*b, 0) + 4.0*p*complex(w0sq, 0))
			sPoles = append(sPoles, (complex(b, 0)+root)/(2*p), (complex(b, 0)-root)/(2*p))
		}
	}

	// Map every analog pole into the z-plane.
	zPoles := make([]complex128, len(sPoles))
	for i, s := range sPoles {
		zPoles[i] = s2z(s, ts)
	}

	// Zeros land in the z-plane directly, placed by type.
	zZeros := make([]complex128, n-1)
	switch typ {
	case Lowpass:
		for i := range zZeros {
			zZeros[i] = complex(-1, 0)
		}
	case Highpass:
		for i := range zZeros {
			zZeros[i] = complex(1, 0)
		}
	case Bandpass:
		for i := range zZeros {
			if i%2 == 0 {
				zZeros[i] = complex(1, 0)
			} else {
				zZeros[i] = complex(-1, 0)
			}
		}
	case Bandstop:
		// Conjugate zero pairs on the unit circle at the notch frequency,
		// in radians per sample.
		omega0 := math.Sqrt(wl*wh) * ts
		zp := cmplx.Rect(1, omega0)
		zm := cmplx.Conj(zp)
		for i := 0; i < len(zZeros); i += 2 {
			zZeros[i] = zp
			if i+1 < len(zZeros) {
				zZeros[i+1] = zm
			}
		}
	}

	b := expandPolynomial(zZeros)
	a := expandPolynomial(zPoles)

	// Scale the numerator so the response magnitude is exactly 1 at the
	// type's reference frequency: DC for Lowpass and Bandstop, Nyquist for
	// Highpass, the center frequency for Bandpass.
	var ref float64
	switch typ {
	case Lowpass, Bandstop:
		ref = 0
	case Highpass:
		ref = math.Pi / ts
	case Bandpass:
		ref = math.Sqrt(wl * wh)
	}
	scale := 1 / cmplx.Abs(response(b, a, ref, ts))
	for i := range b {
		b[i] *= scale
	}

	// Store reversed so index 0 holds the leading term, the order Discrete
	// consumes.
	c := Coefficients{
		Natural: make([]float64, n),
		Forced:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		c.Natural[n-i-1] = a[i]
		c.Forced[n-i-1] = b[i]
	}
	return c
}

// s2z maps an analog pole or zero into the z-plane via the bilinear
// transform z = (1 + sT/2)/(1 − sT/2).
func s2z(s complex128, ts float64) complex128 {
	half := complex(ts/2.0, 0)
	return (1 + half*s) / (1 - half*s)
}

// expandPolynomial multiplies out (x−r₀)(x−r₁)⋯(x−rₙ₋₁) into coefficients
// indexed by ascending power. The imaginary residue left by conjugate-pair
// rounding is discarded.
func expandPolynomial(roots []complex128) []float64 {
	coeffs := make([]complex128, len(roots)+1)
	coeffs[0] = 1
	for i, r := range roots {
		next := make([]complex128, len(coeffs))
		for j := 0; j <= i; j++ {
			next[j] -= coeffs[j] * r
			next[j+1] += coeffs[j]
		}
		coeffs = next
	}
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c)
	}
	return out
}

// response evaluates Σ bₖe^(−jωTsk) / Σ aₖe^(−jωTsk) at w rad/s.
func response(b, a []float64, w, ts float64) complex128 {
	omega := w * ts
	var num, den complex128
	for k, c := range b {
		num += complex(c, 0) * cmplx.Exp(complex(0, -omega*float64(k)))
	}
	for k, c := range a {
		den += complex(c, 0) * cmplx.Exp(complex(0, -omega*float64(k)))
	}
	return num / den
}

// Response evaluates the filter's frequency response at w rad/s for the
// sample period ts. The magnitude at a designed filter's reference
// frequency is 1.
func (c Coefficients) Response(w, ts float64) complex128 {
	return response(c.Forced, c.Natural, w, ts)
}
