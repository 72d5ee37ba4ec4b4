package pubsite

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"

	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
)

// scalable lists the formats that are re-encoded after downscaling. Other
// bundle files, GIFs included, are copied byte for byte.
var scalable = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// processImage downscales an image wider than maxImageWidth to that width,
// keeping its format. It returns nil when the image can be copied as is.
func processImage(src io.ReadSeeker, ext string) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= maxImageWidth {
		return nil, nil
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	newH := max(h*maxImageWidth/w, 1)
	dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch ext {
	case ".png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ext, err)
	}
	return buf.Bytes(), nil
}

// copyBundle copies the non-Markdown files sitting next to a bundle's
// index.md into dstDir, downscaling wide images. It returns how many images
// it wrote.
func copyBundle(srcDir, dstDir string) (int, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, err
	}
	images := 0
	for _, e := range entries {
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !e.Type().IsRegular() || ext == ".md" || strings.HasPrefix(name, ".") {
			continue
		}
		src, dst := filepath.Join(srcDir, name), filepath.Join(dstDir, name)
		if !scalable[ext] && ext != ".gif" {
			if err := copyFile(dst, src); err != nil {
				return images, err
			}
			continue
		}
		if err := copyImage(dst, src, ext); err != nil {
			return images, fmt.Errorf("%s: %w", src, err)
		}
		images++
	}
	return images, nil
}

func copyImage(dst, src, ext string) error {
	if !scalable[ext] {
		return copyFile(dst, src)
	}
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	data, err := processImage(f, ext)
	f.Close()
	if err != nil {
		return err
	}
	if data == nil {
		return copyFile(dst, src)
	}
	return writeFile(dst, data)
}
