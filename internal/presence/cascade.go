package presence

import (
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// faceFinder runs the pigo face cascade and keeps clustered detections
// above the quality floor.
type faceFinder struct {
	classifier *pigo.Pigo
	minSize    int
	minQuality float32
}

func loadFaceFinder(path string, minSize int, minQuality float64) (*faceFinder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read face cascade: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack face cascade: %w", err)
	}
	return &faceFinder{
		classifier: classifier,
		minSize:    minSize,
		minQuality: float32(minQuality),
	}, nil
}

func (ff *faceFinder) find(img pigo.ImageParams) []pigo.Detection {
	maxSize := img.Rows
	if img.Cols < maxSize {
		maxSize = img.Cols
	}
	params := pigo.CascadeParams{
		MinSize:     ff.minSize,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: img,
	}

	dets := ff.classifier.RunCascade(params, 0.0)
	dets = ff.classifier.ClusterDetections(dets, 0.2)

	faces := dets[:0]
	for _, d := range dets {
		if d.Q >= ff.minQuality {
			faces = append(faces, d)
		}
	}
	return faces
}

func imageParams(f Frame) pigo.ImageParams {
	return pigo.ImageParams{
		Pixels: f.Pixels,
		Rows:   f.Height,
		Cols:   f.Width,
		Dim:    f.Width,
	}
}

// CascadeDetector reports presence when any face is found. Lower precision
// than LandmarkDetector but needs only the face cascade.
type CascadeDetector struct {
	faces *faceFinder
}

func (d *CascadeDetector) Name() string { return "cascade" }

func (d *CascadeDetector) Detect(f Frame) bool {
	return len(d.faces.find(imageParams(f))) > 0
}
