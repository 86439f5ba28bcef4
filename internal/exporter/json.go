package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSON writes v as indented JSON to filePath.
func (w *CSVWriter) WriteJSON(filePath string, v any) error {
	fullPath := w.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filePath, err)
	}
	if err := os.WriteFile(fullPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", filePath, err)
	}
	return nil
}
