package emision

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PlaceholderConfig is a template's configuracion: how data fields bind to
// positions on the base PDF.
type PlaceholderConfig struct {
	Placeholders []PlaceholderBinding `json:"placeholders"`
	// BarcodeX/BarcodeY place the Code128 image; zero values omit it.
	BarcodeX    float64 `json:"barcode_x"`
	BarcodeY    float64 `json:"barcode_y"`
	BarcodePage int     `json:"barcode_page"`
	// QRX/QRY place the verification QR; zero values omit it. The QR encodes
	// the url_verificacion field when present, otherwise the barcode payload.
	QRX    float64 `json:"qr_x"`
	QRY    float64 `json:"qr_y"`
	QRPage int     `json:"qr_page"`
}

// VerifyURLField is the data key holding the document verification link.
const VerifyURLField = "url_verificacion"

type PlaceholderBinding struct {
	Campo    string  `json:"campo"`
	Pagina   int     `json:"pagina"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize int     `json:"font_size"`
}

// PageSize is a template's tamano_pagina descriptor.
type PageSize struct {
	Ancho  float64 `json:"ancho"`
	Alto   float64 `json:"alto"`
	Unidad string  `json:"unidad"`
}

// ParsePlaceholderConfig decodes and sanity-checks a template configuration.
func ParsePlaceholderConfig(raw []byte) (*PlaceholderConfig, error) {
	var cfg PlaceholderConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("malformed placeholder config: %w", err)
	}

	if len(cfg.Placeholders) == 0 {
		return nil, fmt.Errorf("placeholder config declares no bindings")
	}

	for i, p := range cfg.Placeholders {
		if p.Campo == "" {
			return nil, fmt.Errorf("placeholder %d has no campo", i)
		}
		if p.Pagina < 1 {
			cfg.Placeholders[i].Pagina = 1
		}
		if p.FontSize <= 0 {
			cfg.Placeholders[i].FontSize = 10
		}
	}

	return &cfg, nil
}

// MissingFields returns the placeholder campos that have no value in data.
// Computed fields (documento, pmo, visita, fecha_emision, codigo_barras) are
// always available, so only padron-backed fields can be missing.
func (cfg *PlaceholderConfig) MissingFields(data map[string]string) []string {
	var missing []string
	for _, p := range cfg.Placeholders {
		if _, ok := data[p.Campo]; !ok {
			missing = append(missing, p.Campo)
		}
	}
	return missing
}

// Renderer stamps one document per emission row onto a template PDF.
type Renderer struct {
	Cfg          Config
	TemplatePath string
	Placeholders *PlaceholderConfig
	SessionID    string
}

func NewRenderer(cfg Config, templatePath, sessionID string, placeholders *PlaceholderConfig) *Renderer {
	return &Renderer{
		Cfg:          cfg,
		TemplatePath: templatePath,
		Placeholders: placeholders,
		SessionID:    sessionID,
	}
}

func (r *Renderer) outputDir() (string, error) {
	dir := filepath.Join(r.Cfg.OutputDir, r.SessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}

func (r *Renderer) tempDir() (string, error) {
	dir := filepath.Join(r.Cfg.TmpDir, r.SessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create tmp directory: %w", err)
	}
	return dir, nil
}

// Render stamps every bound field of data plus the barcode payload onto a
// copy of the template, returning the path of the rendered document.
func (r *Renderer) Render(cuenta string, data map[string]string, barcodePayload string) (string, error) {
	if missing := r.Placeholders.MissingFields(data); len(missing) > 0 {
		return "", fmt.Errorf("missing placeholder fields: %v", missing)
	}

	outDir, err := r.outputDir()
	if err != nil {
		return "", err
	}
	tmpDir, err := r.tempDir()
	if err != nil {
		return "", err
	}

	currentFile := r.TemplatePath
	for _, p := range r.Placeholders.Placeholders {
		tmpOut, err := os.CreateTemp(tmpDir, "emisor_*.pdf")
		if err != nil {
			return "", err
		}
		tmpOut.Close()

		pages := []string{fmt.Sprintf("%d", p.Pagina)}
		if err := ApplyTextStampToPdf(currentFile, tmpOut.Name(), pages, data[p.Campo], p.X, p.Y, p.FontSize); err != nil {
			return "", fmt.Errorf("failed to stamp field %s: %w", p.Campo, err)
		}
		currentFile = tmpOut.Name()
	}

	if barcodePayload != "" && (r.Placeholders.BarcodeX != 0 || r.Placeholders.BarcodeY != 0) {
		barcodeFile := filepath.Join(tmpDir, fmt.Sprintf("%s_barcode.png", cuenta))
		if err := GenerateBarcodePNG(barcodePayload, barcodeFile, 300, 60); err != nil {
			return "", err
		}

		page := r.Placeholders.BarcodePage
		if page < 1 {
			page = 1
		}

		tmpOut, err := os.CreateTemp(tmpDir, "emisor_*.pdf")
		if err != nil {
			return "", err
		}
		tmpOut.Close()

		pages := []string{fmt.Sprintf("%d", page)}
		if err := ApplyImageStampToPdf(currentFile, tmpOut.Name(), pages, barcodeFile, r.Placeholders.BarcodeX, r.Placeholders.BarcodeY); err != nil {
			return "", fmt.Errorf("failed to stamp barcode: %w", err)
		}
		currentFile = tmpOut.Name()
	}

	if r.Placeholders.QRX != 0 || r.Placeholders.QRY != 0 {
		qrContent := data[VerifyURLField]
		if qrContent == "" {
			qrContent = barcodePayload
		}

		if qrContent != "" {
			qrFile := filepath.Join(tmpDir, fmt.Sprintf("%s_qr.png", cuenta))
			if err := GenerateQRCode(qrContent, qrFile, 128); err != nil {
				return "", err
			}

			page := r.Placeholders.QRPage
			if page < 1 {
				page = 1
			}

			tmpOut, err := os.CreateTemp(tmpDir, "emisor_*.pdf")
			if err != nil {
				return "", err
			}
			tmpOut.Close()

			pages := []string{fmt.Sprintf("%d", page)}
			if err := ApplyImageStampToPdf(currentFile, tmpOut.Name(), pages, qrFile, r.Placeholders.QRX, r.Placeholders.QRY); err != nil {
				return "", fmt.Errorf("failed to stamp verification qr: %w", err)
			}
			currentFile = tmpOut.Name()
		}
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("%s.pdf", cuenta))
	if err := copyFile(currentFile, outPath); err != nil {
		return "", err
	}

	return outPath, nil
}

// Cleanup removes the session's intermediate files.
func (r *Renderer) Cleanup() {
	os.RemoveAll(filepath.Join(r.Cfg.TmpDir, r.SessionID))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = out.ReadFrom(in)
	return err
}
