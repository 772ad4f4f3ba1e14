package globeengine

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
)

// captureName numbers frames so an encoder can read them as a sequence.
func captureName(run, frame int) string {
	return fmt.Sprintf("globe-%03d-%06d.png", run, frame)
}

// captureFrame writes img to FrameCaptureDir. Pixels are read on the game
// goroutine; encoding happens in the background.
func (e *Engine) captureFrame(img *ebiten.Image) {
	if e.FrameCaptureDir == "" {
		return
	}
	if err := os.MkdirAll(e.FrameCaptureDir, 0o755); err != nil {
		log.Printf("Error creating capture directory: %v", err)
		e.FrameCaptureDir = ""
		return
	}

	path := filepath.Join(e.FrameCaptureDir, captureName(e.captureRun, e.captureFrameNo))
	e.captureFrameNo++

	rgba := image.NewRGBA(img.Bounds())
	img.ReadPixels(rgba.Pix)

	go func() {
		f, err := os.Create(path)
		if err != nil {
			log.Printf("Error creating capture file: %v", err)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("Error closing capture file: %v", err)
			}
		}()
		if err := png.Encode(f, rgba); err != nil {
			log.Printf("Error encoding capture: %v", err)
		}
	}()
}
