package emision

import (
	"fmt"
	"os"
)

type Config struct {
	// Directory where rendered documents are stored before upload
	OutputDir string
	// Directory for intermediate files during stamping, cleaned after processing
	TmpDir string
}

func NewDefaultConfig() *Config {
	cfg := Config{
		OutputDir: fmt.Sprintf("%s/emisor/render/output", os.TempDir()),
		TmpDir:    fmt.Sprintf("%s/emisor/render/tmp", os.TempDir()),
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
	}
	if err := os.MkdirAll(cfg.TmpDir, 0755); err != nil {
		fmt.Printf("Error creating tmp directory: %v\n", err)
	}

	return &cfg
}
