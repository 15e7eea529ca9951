package export

import (
	"encoding/json"
	"os"

	"github.com/mrsinham/dicombids/internal/convert"
)

// Outcome is what happened to one input file.
type Outcome string

const (
	OutcomeConverted Outcome = "converted"
	OutcomeSkipped   Outcome = "skipped"
)

// ReportFile is the name of the report written at the dataset root.
const ReportFile = "export_report.json"

// FileReport records the fate of one input file.
type FileReport struct {
	Participant string         `json:"participant,omitempty"`
	Subject     string         `json:"subject"`
	Source      string         `json:"source"`
	Outcome     Outcome        `json:"outcome"`
	Reason      string         `json:"reason,omitempty"`
	Folder      string         `json:"folder,omitempty"`
	Method      convert.Method `json:"method,omitempty"`
	Outputs     []string       `json:"outputs,omitempty"`
}

// Report lists every input file of an export with its outcome.
type Report struct {
	Name      string       `json:"name"`
	Subjects  int          `json:"subjects"`
	Converted int          `json:"converted"`
	Skipped   int          `json:"skipped"`
	Files     []FileReport `json:"files"`
}

func (r *Report) add(f FileReport) {
	switch f.Outcome {
	case OutcomeConverted:
		r.Converted++
	case OutcomeSkipped:
		r.Skipped++
	}
	r.Files = append(r.Files, f)
}

// SkippedFiles returns the reports of skipped files.
func (r *Report) SkippedFiles() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Outcome == OutcomeSkipped {
			out = append(out, f)
		}
	}
	return out
}

func (r *Report) write(filename string) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}
