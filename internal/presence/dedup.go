package presence

import "github.com/corona10/goimagehash"

// Deduper skips detection for frames that are perceptually identical to the
// last analysed one and reuses its verdict, at most maxReuse times in a row.
type Deduper struct {
	detector    Detector
	maxDistance int
	maxReuse    int

	last        *goimagehash.ImageHash
	lastVerdict bool
	reused      int
}

// NewDeduper wraps d. A maxReuse of zero disables reuse.
func NewDeduper(d Detector, maxDistance, maxReuse int) *Deduper {
	return &Deduper{detector: d, maxDistance: maxDistance, maxReuse: maxReuse}
}

func (d *Deduper) Name() string { return d.detector.Name() }

func (d *Deduper) Detect(f Frame) bool {
	if !f.Valid() {
		return false
	}

	hash, err := goimagehash.DifferenceHash(f.Image())
	if err != nil {
		d.last = nil
		return SafeDetect(d.detector, f)
	}

	if d.last != nil && d.reused < d.maxReuse {
		if dist, err := d.last.Distance(hash); err == nil && dist <= d.maxDistance {
			d.reused++
			return d.lastVerdict
		}
	}

	verdict := SafeDetect(d.detector, f)
	d.last = hash
	d.lastVerdict = verdict
	d.reused = 0
	return verdict
}
