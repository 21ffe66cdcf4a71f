package presence

import (
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// LandmarkDetector requires a face whose two pupils both localize inside
// the face box, which rejects most profile views and false positives.
type LandmarkDetector struct {
	faces  *faceFinder
	pupils *pigo.PuplocCascade
}

func newLandmarkDetector(faces *faceFinder, puplocPath string) (*LandmarkDetector, error) {
	data, err := os.ReadFile(puplocPath)
	if err != nil {
		return nil, fmt.Errorf("read pupil cascade: %w", err)
	}
	plc, err := pigo.NewPuplocCascade().UnpackCascade(data)
	if err != nil {
		return nil, fmt.Errorf("unpack pupil cascade: %w", err)
	}
	return &LandmarkDetector{faces: faces, pupils: plc}, nil
}

func (d *LandmarkDetector) Name() string { return "landmark" }

func (d *LandmarkDetector) Detect(f Frame) bool {
	img := imageParams(f)
	for _, face := range d.faces.find(img) {
		scale := float32(face.Scale)

		left := d.pupils.RunDetector(pigo.Puploc{
			Row:      face.Row - int(0.075*scale),
			Col:      face.Col - int(0.175*scale),
			Scale:    scale * 0.25,
			Perturbs: 50,
		}, img, 0.0, false)

		right := d.pupils.RunDetector(pigo.Puploc{
			Row:      face.Row - int(0.075*scale),
			Col:      face.Col + int(0.185*scale),
			Scale:    scale * 0.25,
			Perturbs: 50,
		}, img, 0.0, false)

		if insideFace(left, face) && insideFace(right, face) {
			return true
		}
	}
	return false
}

func insideFace(p *pigo.Puploc, face pigo.Detection) bool {
	if p == nil || p.Row <= 0 || p.Col <= 0 {
		return false
	}
	half := face.Scale / 2
	return p.Row >= face.Row-half && p.Row <= face.Row+half &&
		p.Col >= face.Col-half && p.Col <= face.Col+half
}
