package presence

import (
	"context"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/config"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
)

// Select builds the detector once at startup: the landmark detector when its
// pupil cascade loads, otherwise the plain face cascade.
func Select(ctx context.Context, cfg config.PresenceConfig, log logger.Logger) (Detector, error) {
	faces, err := loadFaceFinder(cfg.FaceCascade, cfg.MinFaceSize, cfg.MinQuality)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrConfigInvalid, "recorder.presence.face_cascade", cfg.FaceCascade, err)
	}

	if cfg.PuplocCascade != "" {
		lm, err := newLandmarkDetector(faces, cfg.PuplocCascade)
		if err == nil {
			log.Info(ctx, "Presence detector: landmark (%s)", cfg.PuplocCascade)
			return lm, nil
		}
		log.Warn(ctx, "Landmark detector unavailable, falling back to face cascade: %v", err)
	}

	log.Info(ctx, "Presence detector: cascade (%s)", cfg.FaceCascade)
	return &CascadeDetector{faces: faces}, nil
}
