package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"identivibe/pkg/logger"
	"identivibe/pkg/models"
)

// WritePayload writes a platform payload as indented JSON, atomically via
// a temp file in the same directory.
func WritePayload(path string, payload *models.PlatformPayload, log logger.Logger) error {
	if log == nil {
		log = logger.GetLogger()
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}

	log.InfoWithFields("payload written", map[string]interface{}{
		"path":  path,
		"users": len(payload.Users),
	})
	return nil
}

// WriteMerged writes the merged multi-platform field map.
func WriteMerged(path string, fields map[string]interface{}, log logger.Logger) error {
	if log == nil {
		log = logger.GetLogger()
	}

	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode merged output: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}

	log.InfoWithFields("merged output written", map[string]interface{}{"path": path})
	return nil
}

// ReadPayload loads a previously written payload file.
func ReadPayload(path string) (*models.PlatformPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}
	var payload models.PlatformPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse payload file: %w", err)
	}
	return &payload, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to finalize output: %w", err)
	}
	return nil
}
