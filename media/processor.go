package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
)

const (
	PhotoJpegQuality   = 90
	PhotoFileExtension = ".jpg"

	defaultPhotoMaxSize = 1024
)

// ErrUndecodableImage wraps decode failures of uploaded photo bytes.
var ErrUndecodableImage = errors.New("photo is not a decodable image")

// Processor normalizes participant photos and saves them through a Store.
type Processor struct {
	store   Store
	maxSize int
}

func NewProcessor(store Store, maxSize int) *Processor {
	if maxSize <= 0 {
		maxSize = defaultPhotoMaxSize
	}
	return &Processor{store: store, maxSize: maxSize}
}

// PhotoFilename builds "<safeName>_<unix>.jpg". The timestamp suffix is what
// analytics later reads back as the registration time.
func PhotoFilename(name string, now time.Time) string {
	return fmt.Sprintf("%s_%d%s", SafeName(name), now.Unix(), PhotoFileExtension)
}

// SafeName turns a participant name into a filename stem: spaces become
// underscores and anything outside letters, digits, '-' and '.' does too.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	safe := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	safe = strings.TrimLeft(safe, ".")
	if safe == "" {
		return "user"
	}
	return safe
}

// SavePhoto decodes raw image bytes, fixes orientation, bounds the size and
// stores a JPEG named after the participant. Returns the relative path.
func (p *Processor) SavePhoto(name string, raw []byte, now time.Time) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}
	return p.SaveImage(name, img, now)
}

// SaveImage stores an already decoded image, e.g. a camera frame.
func (p *Processor) SaveImage(name string, img image.Image, now time.Time) (string, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return "", fmt.Errorf("%w: empty image", ErrUndecodableImage)
	}
	if bounds.Dx() > p.maxSize || bounds.Dy() > p.maxSize {
		img = imaging.Fit(img, p.maxSize, p.maxSize, imaging.Lanczos)
	}

	reader, writer := io.Pipe()
	go func() {
		err := imaging.Encode(writer, img, imaging.JPEG, imaging.JPEGQuality(PhotoJpegQuality))
		if err != nil {
			log.Printf("processor: Failed to encode photo: %v", err)
			writer.CloseWithError(fmt.Errorf("photo encoding failed: %w", err))
			return
		}
		writer.Close()
	}()

	relPath, err := p.store.Save(PhotoFilename(name, now), reader)
	reader.Close()
	if err != nil {
		return "", fmt.Errorf("failed to save photo via store: %w", err)
	}

	log.Printf("processor: Saved photo for %q at %s", name, relPath)
	return relPath, nil
}
