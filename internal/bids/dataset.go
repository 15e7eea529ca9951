package bids

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File names at the dataset root.
const (
	DescriptionFile  = "dataset_description.json"
	ParticipantsFile = "participants.tsv"
	IgnoreFile       = ".bidsignore"
)

// Defaults of the dataset description.
const (
	DefaultName        = "My Dataset"
	DefaultBIDSVersion = "1.8.0"
	DefaultDatasetType = "raw"
	DefaultAuthor      = "DICOM HUB User"
	DefaultLicense     = "CC-BY-4.0"
)

// Participant defaults.
const (
	NotAvailable = "n/a"
	DefaultGroup = "control"
)

// DatasetDescription is dataset_description.json.
type DatasetDescription struct {
	Name        string   `json:"Name"`
	BIDSVersion string   `json:"BIDSVersion"`
	DatasetType string   `json:"DatasetType"`
	Authors     []string `json:"Authors"`
	License     string   `json:"License"`
}

// NewDatasetDescription returns a description with every field defaulted.
func NewDatasetDescription() DatasetDescription {
	return DatasetDescription{
		Name:        DefaultName,
		BIDSVersion: DefaultBIDSVersion,
		DatasetType: DefaultDatasetType,
		Authors:     []string{DefaultAuthor},
		License:     DefaultLicense,
	}
}

// withDefaults fills empty fields.
func (d DatasetDescription) withDefaults() DatasetDescription {
	def := NewDatasetDescription()
	if d.Name == "" {
		d.Name = def.Name
	}
	if d.BIDSVersion == "" {
		d.BIDSVersion = def.BIDSVersion
	}
	if d.DatasetType == "" {
		d.DatasetType = def.DatasetType
	}
	if len(d.Authors) == 0 {
		d.Authors = def.Authors
	}
	if d.License == "" {
		d.License = def.License
	}
	return d
}

// WriteDatasetDescription writes dataset_description.json into dir.
func WriteDatasetDescription(dir string, desc DatasetDescription) error {
	data, err := json.MarshalIndent(desc.withDefaults(), "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, DescriptionFile), data, 0o644); err != nil {
		return fmt.Errorf("write dataset description: %w", err)
	}
	return nil
}

// Participant is one row of participants.tsv.
type Participant struct {
	ID    string
	Age   string
	Sex   string
	Group string
}

// NewParticipant returns the row for subject with empty metadata defaulted
// to n/a, n/a and control.
func NewParticipant(subject, age, sex, group string) Participant {
	return Participant{
		ID:    subject,
		Age:   orDefault(age, NotAvailable),
		Sex:   orDefault(sex, NotAvailable),
		Group: orDefault(group, DefaultGroup),
	}
}

// WriteParticipants writes participants.tsv into dir.
func WriteParticipants(dir string, rows []Participant) error {
	f, err := os.Create(filepath.Join(dir, ParticipantsFile))
	if err != nil {
		return fmt.Errorf("write participants: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'
	records := [][]string{{"participant_id", "age", "sex", "group"}}
	for _, r := range rows {
		r = NewParticipant(r.ID, r.Age, r.Sex, r.Group)
		records = append(records, []string{clean(r.ID), clean(r.Age), clean(r.Sex), clean(r.Group)})
	}
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("write participants: %w", err)
	}
	return f.Close()
}

// clean keeps a value on one TSV cell.
func clean(v string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ", `"`, "'").Replace(strings.TrimSpace(v))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
