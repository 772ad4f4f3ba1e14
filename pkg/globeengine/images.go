package globeengine

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
)

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// LoadImages loads the target marker and the center icon. Empty paths are
// skipped; without a marker the engine draws a glowing dot instead.
func (e *Engine) LoadImages(markerPath, centerIconPath string) error {
	if markerPath != "" {
		img, err := decodeImageFile(markerPath)
		if err != nil {
			return fmt.Errorf("failed to load marker: %w", err)
		}
		e.marker = ebiten.NewImageFromImage(img)
	}
	if centerIconPath != "" {
		img, err := decodeImageFile(centerIconPath)
		if err != nil {
			return fmt.Errorf("failed to load center icon: %w", err)
		}
		e.centerIcon = ebiten.NewImageFromImage(img)
	}
	return nil
}
