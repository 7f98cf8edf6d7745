package emision

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ApplyTextStampToPdf stamps text on a PDF at an offset from the top-left
// corner. pdfcpu measures y upward, so the offset is inverted here.
func ApplyTextStampToPdf(inFile, outFile string, selectedPages []string, text string, posX, posY float64, fontSize int) error {
	description := fmt.Sprintf("pos: tl, off:%.1f %.1f, scale:1 abs, rotation:0, points:%d, fillcolor:#000000", posX, posY*-1, fontSize)
	onTop := true

	return api.AddTextWatermarksFile(inFile, outFile, selectedPages, onTop, text, description, nil)
}

// ApplyImageStampToPdf stamps a PNG/JPEG image, used for barcodes and logos.
func ApplyImageStampToPdf(inFile, outFile string, selectedPages []string, imageFile string, posX, posY float64) error {
	ext := filepath.Ext(imageFile)
	switch ext {
	case ".png", ".jpg", ".jpeg":
	default:
		return fmt.Errorf("unsupported stamp file type: %s", ext)
	}

	description := fmt.Sprintf("pos: tl, off:%.1f %.1f, scale:1 abs, rotation:0", posX, posY*-1)
	return api.AddImageWatermarksFile(inFile, outFile, selectedPages, true, imageFile, description, nil)
}

// OptimizePdf validates and optimizes an uploaded template PDF.
func OptimizePdf(fileHeader multipart.FileHeader, outFile string) error {
	src, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "emisor_upload_*.pdf")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	return api.OptimizeFile(tmp.Name(), outFile, nil)
}

// GetPageCount returns the page count of a PDF.
func GetPageCount(rs io.ReadSeeker) (int, error) {
	return api.PageCount(rs, nil)
}
