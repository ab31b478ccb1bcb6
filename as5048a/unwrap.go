package as5048a

// Unwrapper folds a stream of bounded 14-bit angle readings into a
// continuous signed position by counting crossings of the wrap boundary.
//
// The tracking bound: the wrap detector can only disambiguate motion of
// less than half a revolution between consecutive samples. A faster slew
// aliases into the wrong revolution count and is not detectable after the
// fact, so the sampling interval sets the maximum angular velocity the
// position output can follow.
//
// An Unwrapper is not safe for concurrent use.
type Unwrapper struct {
	zero    uint16
	prevRaw uint16
	seeded  bool
	revs    int32
	last    int32
}

// Update folds the next raw reading into the continuous position and
// returns it.
//
// valid is false when the exchange that produced raw failed validation; the
// previous reading is substituted so a single corrupted frame cannot
// disturb the revolution count. Readings of zero or outside the 14-bit
// range get the same substitution: on the wire a legitimate zero is
// indistinguishable from a dropped frame, which biases the output near the
// zero crossing but keeps glitches out. The very first reading seeds the
// history and starts the revolution count at -1.
func (u *Unwrapper) Update(raw uint16, valid bool) int32 {
	if !valid {
		raw = u.prevRaw
	} else if raw == 0 {
		raw = u.prevRaw
	} else if raw >= uint16(fullScale) {
		raw = u.prevRaw
	}

	if !u.seeded {
		u.seeded = true
		u.prevRaw = raw
		u.revs = -1
	}

	delta := int16(raw - u.prevRaw)
	if int32(delta) > halfScale {
		// The counter jumped far forward, so continuous backward motion
		// wrapped down through zero.
		u.revs--
	} else if int32(delta) < -halfScale {
		u.revs++
	}
	u.prevRaw = raw

	continuous := u.revs*fullScale + int32(raw)
	u.last = continuous - int32(u.zero) - halfScale
	return u.last
}

// Unwrapped returns the continuous position from the most recent Update.
func (u *Unwrapper) Unwrapped() int32 {
	return u.last
}

// Rotation returns the single-turn position from the most recent Update,
// the unwrapped value folded back into one revolution.
func (u *Unwrapper) Rotation() int16 {
	return int16(u.last - u.revs*fullScale)
}

// Revolutions returns the signed revolution count relative to the first
// sample.
func (u *Unwrapper) Revolutions() int32 {
	return u.revs
}

// SetZero sets the subtracted reference position, folded into [0, 16384).
func (u *Unwrapper) SetZero(pos uint16) {
	u.zero = pos % uint16(fullScale)
}

// Zero returns the current reference position.
func (u *Unwrapper) Zero() uint16 {
	return u.zero
}
