// Package manifest describes an experiment to export: its participants, their
// demographics and their DICOM files.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Experiment is the export input for one experiment. Participants keep the
// order in which subject identifiers are assigned.
type Experiment struct {
	Name         string        `yaml:"name" json:"name"`
	Participants []Participant `yaml:"participants" json:"participants"`
}

// Participant is one person enrolled in an experiment. Label is free text
// used in logs only; it never reaches the exported dataset.
type Participant struct {
	Label string   `yaml:"label,omitempty" json:"label,omitempty"`
	Age   string   `yaml:"age,omitempty" json:"age,omitempty"`
	Sex   string   `yaml:"sex,omitempty" json:"sex,omitempty"`
	Group string   `yaml:"group,omitempty" json:"group,omitempty"`
	Files []string `yaml:"files" json:"files"`
}

// Load reads a YAML or JSON manifest and resolves relative file paths against
// the manifest's directory.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	exp, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	exp.ResolvePaths(base)
	return exp, nil
}

// Parse decodes a manifest. JSON documents are accepted as YAML.
func Parse(data []byte) (*Experiment, error) {
	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

// Save writes e as YAML.
func Save(path string, e *Experiment) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ResolvePaths makes every relative file path absolute against base.
func (e *Experiment) ResolvePaths(base string) {
	for i := range e.Participants {
		for j, f := range e.Participants[i].Files {
			if f != "" && !filepath.IsAbs(f) {
				e.Participants[i].Files[j] = filepath.Join(base, f)
			}
		}
	}
}

// Validate checks the manifest structure. An experiment without participants
// is valid here; exporting it fails later.
func (e *Experiment) Validate() error {
	var errs []error
	if strings.TrimSpace(e.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}

	labels := make(map[string]int)
	for i, p := range e.Participants {
		if p.Label != "" {
			if prev, ok := labels[p.Label]; ok {
				errs = append(errs, fmt.Errorf("participant %d: label %q already used by participant %d", i+1, p.Label, prev+1))
			}
			labels[p.Label] = i
		}
		for j, f := range p.Files {
			if strings.TrimSpace(f) == "" {
				errs = append(errs, fmt.Errorf("participant %d: file %d is empty", i+1, j+1))
			}
		}
	}
	return errors.Join(errs...)
}

// FileCount returns the number of files across all participants.
func (e *Experiment) FileCount() int {
	n := 0
	for _, p := range e.Participants {
		n += len(p.Files)
	}
	return n
}
