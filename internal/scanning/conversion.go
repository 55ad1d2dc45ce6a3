package scanning

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// pdfToPNG renders the first page of a PDF as PNG
func pdfToPNG(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Receipts are single page
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	return encodePNG(img)
}

// heicToPNG decodes a HEIC/HEIF photo (common on iPhones) and re-encodes it as PNG
func heicToPNG(data []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// prepareImage converts formats vision endpoints reject (HEIC/HEIF, PDF) to PNG.
// PNG, WEBP and JPEG pass through untouched.
func prepareImage(img Image) (Image, error) {
	var (
		data []byte
		err  error
	)
	switch img.MediaType {
	case "image/heic":
		data, err = heicToPNG(img.Data)
	case "application/pdf":
		data, err = pdfToPNG(img.Data)
	default:
		return img, nil
	}
	if err != nil {
		return Image{}, fmt.Errorf("converting %s to PNG: %w", img.MediaType, err)
	}
	return Image{MediaType: "image/png", Data: data}, nil
}
