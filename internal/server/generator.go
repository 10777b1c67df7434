package server

import (
	"context"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// mintID returns a short hex id, used for both sessions and messages.
func mintID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:8]
}

// Generator produces an image for a prompt and returns the URL path the
// client fetches it from.
type Generator interface {
	Generate(ctx context.Context, prompt string) (imageURL string, err error)
}

const (
	imageSize = 512
	cellSize  = 64
)

// LocalGenerator renders a deterministic placeholder image per prompt and
// writes it under dir. The same prompt always yields the same picture, which
// keeps regeneration and tests predictable.
type LocalGenerator struct {
	dir string
}

// NewLocalGenerator ensures dir exists and returns a generator writing into it.
func NewLocalGenerator(dir string) (*LocalGenerator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}
	return &LocalGenerator{dir: dir}, nil
}

func (g *LocalGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img := renderPrompt(prompt)
	name := mintID() + ".png"
	f, err := os.Create(filepath.Join(g.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return "/static/generated/" + name, nil
}

// renderPrompt hashes the prompt into a seed and paints a grid of tinted
// cells from it. Purely a stand-in for a real diffusion backend.
func renderPrompt(prompt string) image.Image {
	h := fnv.New64a()
	h.Write([]byte(prompt))
	seed := h.Sum64()

	img := image.NewRGBA(image.Rect(0, 0, imageSize, imageSize))
	base := color.RGBA{
		R: uint8(seed >> 16),
		G: uint8(seed >> 32),
		B: uint8(seed >> 48),
		A: 255,
	}
	for y := 0; y < imageSize; y++ {
		for x := 0; x < imageSize; x++ {
			cell := uint64(x/cellSize) + uint64(y/cellSize)*(imageSize/cellSize)
			mix := seed*(cell+1) ^ seed>>1
			img.SetRGBA(x, y, color.RGBA{
				R: base.R + uint8(mix),
				G: base.G + uint8(mix>>8),
				B: base.B + uint8(mix>>16),
				A: 255,
			})
		}
	}
	return img
}
