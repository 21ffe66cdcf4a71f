package presence

// SafeDetect runs d and turns a malformed frame or a detector panic into an
// absent sample.
func SafeDetect(d Detector, f Frame) (present bool) {
	if !f.Valid() {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			present = false
		}
	}()
	return d.Detect(f)
}
