package emision

import (
	"fmt"
	"image/png"
	"os"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

// GenerateBarcodePNG encodes the payload as Code128 and writes it to
// outputPath scaled to the given pixel dimensions.
func GenerateBarcodePNG(payload, outputPath string, width, height int) error {
	if payload == "" {
		return fmt.Errorf("empty barcode payload")
	}

	bc, err := code128.Encode(payload)
	if err != nil {
		return fmt.Errorf("failed to encode barcode: %w", err)
	}

	scaled, err := barcode.Scale(bc, width, height)
	if err != nil {
		return fmt.Errorf("failed to scale barcode: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create barcode file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, scaled); err != nil {
		return fmt.Errorf("failed to write barcode PNG: %w", err)
	}

	return nil
}
