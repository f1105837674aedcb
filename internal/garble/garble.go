// Package garble turns downloaded images into unrecognizable stand-ins of the
// same size: JPEG pixels become blowfish noise, PNGs a flat orange fill and
// GIFs random palette entries.
package garble

import (
	"bytes"
	"crypto/cipher"
	crand "crypto/rand"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand/v2"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/crypto/blowfish"
)

// ErrUnsupportedFormat is returned for files that are not JPEG, PNG or GIF.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Orange fills garbled PNG images.
var Orange = color.RGBA{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}

// Garbler rewrites images in place. Rand drives GIF noise; a nil Rand uses a
// randomly seeded source.
type Garbler struct {
	Rand *rand.Rand
}

func (g *Garbler) rng() *rand.Rand {
	if g.Rand == nil {
		g.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g.Rand
}

// File garbles the image at path, detecting the format from its content.
func (g *Garbler) File(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("image/jpeg"):
		err = g.JPEG(bytes.NewReader(data), &out)
	case mt.Is("image/png"):
		err = PNG(bytes.NewReader(data), &out)
	case mt.Is("image/gif"):
		err = g.GIF(bytes.NewReader(data), &out)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
	}
	if err != nil {
		return fmt.Errorf("garble %s: %w", path, err)
	}
	return os.WriteFile(path, out.Bytes(), 0o644)
}

// JPEG replaces every pixel with blowfish-CBC ciphertext of the original RGB
// values under a throwaway key.
func (g *Garbler) JPEG(r io.Reader, w io.Writer) error {
	src, err := jpeg.Decode(r)
	if err != nil {
		return err
	}
	b := src.Bounds()
	plain := make([]byte, 0, b.Dx()*b.Dy()*3+blowfish.BlockSize)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, _ := src.At(x, y).RGBA()
			plain = append(plain, byte(cr>>8), byte(cg>>8), byte(cb>>8))
		}
	}
	n := len(plain)
	if pad := len(plain) % blowfish.BlockSize; pad != 0 {
		plain = append(plain, make([]byte, blowfish.BlockSize-pad)...)
	}
	noise, err := encrypt(plain)
	if err != nil {
		return err
	}
	noise = noise[:n]

	dst := image.NewRGBA(b)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetRGBA(x, y, color.RGBA{R: noise[i], G: noise[i+1], B: noise[i+2], A: 0xff})
			i += 3
		}
	}
	return jpeg.Encode(w, dst, nil)
}

func encrypt(plain []byte) ([]byte, error) {
	key := make([]byte, 8)
	iv := make([]byte, blowfish.BlockSize)
	if _, err := crand.Read(key); err != nil {
		return nil, err
	}
	if _, err := crand.Read(iv); err != nil {
		return nil, err
	}
	block, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plain)
	return out, nil
}

// PNG writes a flat orange image with the dimensions of the input.
func PNG(r io.Reader, w io.Writer) error {
	cfg, err := png.DecodeConfig(r)
	if err != nil {
		return err
	}
	dst := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: Orange}, image.Point{}, draw.Src)
	return png.Encode(w, dst)
}

// GIF keeps the palette and frame layout and fills every frame with random
// palette indices.
func (g *Garbler) GIF(r io.Reader, w io.Writer) error {
	anim, err := gif.DecodeAll(r)
	if err != nil {
		return err
	}
	rng := g.rng()
	for _, frame := range anim.Image {
		if len(frame.Palette) == 0 {
			continue
		}
		for i := range frame.Pix {
			frame.Pix[i] = uint8(rng.IntN(len(frame.Palette)))
		}
	}
	return gif.EncodeAll(w, anim)
}
