package convert

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mrsinham/dicombids/internal/anonymize"
)

// DefaultModality is written to sidecars when the header has none.
const DefaultModality = "MR"

// Sidecar is the minimal JSON metadata written next to every volume.
type Sidecar struct {
	Modality    string `json:"Modality"`
	PatientName string `json:"PatientName"`
}

// NewSidecar returns the minimal sidecar for modality.
func NewSidecar(modality string) Sidecar {
	if modality == "" {
		modality = DefaultModality
	}
	return Sidecar{Modality: modality, PatientName: anonymize.AnonymousName}
}

// writeJSON writes v indented with four spaces.
func writeJSON(filename string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// sanitizeSidecar rewrites a converter-produced sidecar so that it never
// carries a patient name and always states a modality.
func sanitizeSidecar(filename, modality string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("parse sidecar %s: %w", filename, err)
	}

	fields["PatientName"] = anonymize.AnonymousName
	if m, ok := fields["Modality"].(string); !ok || m == "" {
		fields["Modality"] = NewSidecar(modality).Modality
	}
	return writeJSON(filename, fields)
}
