// Package clipboard copies generated images to the system clipboard.
package clipboard

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"golang.design/x/clipboard"

	"github.com/comigor/atelier-go/internal/logger"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init initializes the clipboard driver. Safe to call multiple times; the
// first error is sticky because the underlying library cannot be retried.
func Init() error {
	initOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			initErr = fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	})
	return initErr
}

// WriteImage places image bytes on the system clipboard as PNG. Whatever
// format the bytes arrive in, they are re-encoded to PNG first so paste
// targets get a consistent format.
func WriteImage(data []byte) error {
	if err := Init(); err != nil {
		return err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	if format != "png" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("failed to encode image as PNG: %w", err)
		}
		data = buf.Bytes()
	}

	clipboard.Write(clipboard.FmtImage, data)
	logger.L.Debug("copied image to clipboard", "bytes", len(data), "source_format", format)
	return nil
}

// WriteText places text on the system clipboard.
func WriteText(text string) error {
	if err := Init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
