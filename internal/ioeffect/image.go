package ioeffect

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"ua/internal/array"
	uerrors "ua/internal/errors"
)

// InvalidImageChannelsError is raised when an array's last dimension
// isn't 1 (gray), 3 (RGB), or 4 (RGBA).
type InvalidImageChannelsError struct {
	N int
}

func (e *InvalidImageChannelsError) Error() string {
	return fmt.Sprintf("invalid image channel count: %d", e.N)
}

// readImage decodes any supported image format into a rank-3 RGBA byte
// array [H,W,4], the runtime's one image representation regardless of
// source format.
func readImage(path string) (array.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return array.Value{}, uerrors.NewIOError(uerrors.Span{}, err, "opening "+path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return array.Value{}, uerrors.NewIOError(uerrors.Span{}, err, "decoding "+path)
	}
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	data := make([]byte, h*w*4)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			data[i] = byte(r >> 8)
			data[i+1] = byte(g >> 8)
			data[i+2] = byte(bl >> 8)
			data[i+3] = byte(a >> 8)
			i += 4
		}
	}
	v, err := array.NewBytes([]int{h, w, 4}, data)
	if err != nil {
		return array.Value{}, uerrors.NewIOError(uerrors.Span{}, err, "building image array")
	}
	return v, nil
}

// writeImage encodes a rank-3 array into the format implied by path's
// extension: jpg/jpeg -> JPEG(100), png -> PNG, bmp/gif/tiff -> their
// codec, ico/tga -> PNG (no encoder in this stack; matches the source
// behavior of silently defaulting unknown/unsupported extensions to
// PNG). Numeric arrays are scaled floor(x*255) and clamped; byte arrays
// pass through.
func writeImage(path string, v array.Value) error {
	img, err := toImage(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && filepath.Dir(path) != "." {
		return uerrors.NewIOError(uerrors.Span{}, err, "creating directory for "+path)
	}
	f, err := os.Create(path)
	if err != nil {
		return uerrors.NewIOError(uerrors.Span{}, err, "creating "+path)
	}
	defer f.Close()

	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "jpg", "jpeg":
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 100})
	case "bmp":
		return bmp.Encode(f, img)
	case "gif":
		return gif.Encode(f, img, nil)
	case "tiff":
		return tiff.Encode(f, img, nil)
	default: // png, ico, tga, and anything unrecognized
		return png.Encode(f, img)
	}
}

func toImage(v array.Value) (image.Image, error) {
	shape := v.Shape()
	if len(shape) != 3 {
		return nil, &array.RankTooLowError{Want: 3, Got: len(shape)}
	}
	h, w, ch := shape[0], shape[1], shape[2]
	if ch != 1 && ch != 3 && ch != 4 {
		return nil, &InvalidImageChannelsError{N: ch}
	}
	bytes_, err := channelBytes(v)
	if err != nil {
		return nil, err
	}
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := (y*w + x) * ch
			var c color.NRGBA
			switch ch {
			case 1:
				g := bytes_[idx]
				c = color.NRGBA{R: g, G: g, B: g, A: 255}
			case 3:
				c = color.NRGBA{R: bytes_[idx], G: bytes_[idx+1], B: bytes_[idx+2], A: 255}
			case 4:
				c = color.NRGBA{R: bytes_[idx], G: bytes_[idx+1], B: bytes_[idx+2], A: bytes_[idx+3]}
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out, nil
}

func channelBytes(v array.Value) ([]byte, error) {
	if v.IsBytes() {
		return v.Bytes()
	}
	if v.IsNums() {
		nums, _ := v.Nums()
		out := make([]byte, len(nums))
		for i, n := range nums {
			out[i] = array.ClampByte(n * 255)
		}
		return out, nil
	}
	return nil, &array.TypeMismatchError{Want: array.Byte, Got: v.Kind()}
}

// decodeInMemoryImage mirrors readImage for backends that hold image
// bytes in memory rather than on disk (SilentBackend's file map).
func decodeInMemoryImage(data []byte) (array.Value, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return array.Value{}, uerrors.NewIOError(uerrors.Span{}, err, "decoding in-memory image")
	}
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	out := make([]byte, h*w*4)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			out[i] = byte(r >> 8)
			out[i+1] = byte(g >> 8)
			out[i+2] = byte(bl >> 8)
			out[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return array.NewBytes([]int{h, w, 4}, out)
}

// encodePNG is used by DevPreviewBackend to push a browser-displayable
// snapshot over the wire without touching disk.
func encodePNG(v array.Value) ([]byte, error) {
	img, err := toImage(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
