// Package export assembles BIDS datasets from DICOM files and packages them
// as zip archives.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mrsinham/dicombids/internal/anonymize"
	"github.com/mrsinham/dicombids/internal/bids"
	"github.com/mrsinham/dicombids/internal/convert"
	dcm "github.com/mrsinham/dicombids/internal/dicom"
	"github.com/mrsinham/dicombids/internal/dicom/modalities"
	"github.com/mrsinham/dicombids/internal/manifest"
)

var (
	// ErrSourceNotFound is returned when the DICOM file to export does not exist.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrConversionFailed is returned when a single-file export produced no volume.
	ErrConversionFailed = errors.New("conversion failed")
	// ErrNoParticipants is returned for an experiment without participants.
	ErrNoParticipants = errors.New("experiment has no participants")
)

// DefaultFileTimeout bounds the conversion of one file.
const DefaultFileTimeout = 2 * time.Minute

// SingleArchiveName is the archive name of a single-file export.
const SingleArchiveName = "sub-01_bids.zip"

// Converter turns one anonymized record into a volume and its sidecar.
type Converter interface {
	Convert(ctx context.Context, rec *dcm.Record, outDir, base string) (convert.Result, error)
}

// Options configures an Assembler.
type Options struct {
	// ScratchDir is the parent of scratch trees and archives. Empty means the
	// system temporary directory.
	ScratchDir string
	// FileTimeout bounds each conversion. Zero means DefaultFileTimeout.
	FileTimeout time.Duration
	// Description is written as dataset_description.json; empty fields take
	// their defaults.
	Description bids.DatasetDescription
}

// Assembler runs exports. Each call owns its scratch tree and layout, so one
// Assembler may serve concurrent exports.
type Assembler struct {
	opts       Options
	anonymizer *anonymize.Anonymizer
	converter  Converter
	logger     *zap.Logger
}

// New creates an Assembler.
func New(opts Options, anonymizer *anonymize.Anonymizer, converter Converter, logger *zap.Logger) *Assembler {
	if opts.FileTimeout <= 0 {
		opts.FileTimeout = DefaultFileTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{opts: opts, anonymizer: anonymizer, converter: converter, logger: logger}
}

// ExportFile exports one DICOM file as a one-subject dataset. Any failure
// aborts the export and no archive is produced.
func (a *Assembler) ExportFile(ctx context.Context, path string) (*Archive, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}

	root, err := os.MkdirTemp(a.opts.ScratchDir, "bids-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer a.removeScratch(root)

	subject := bids.SubjectID(1)
	report := &Report{Name: filepath.Base(path), Subjects: 1}

	rec, class, err := a.prepare(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	placement := bids.Single(subject, bids.SessionID(1), class)

	res, err := a.convert(ctx, rec, root, placement)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	report.add(converted(subject, path, "", class, res, placement))

	if err := bids.WriteDatasetDescription(root, a.opts.Description); err != nil {
		return nil, err
	}
	if err := bids.WriteParticipants(root, []bids.Participant{bids.NewParticipant(subject, "", "", "")}); err != nil {
		return nil, err
	}

	archive, err := zipTree(root, a.opts.ScratchDir, SingleArchiveName)
	if err != nil {
		return nil, err
	}
	archive.Report = report
	a.logger.Info("file exported", zap.String("source", path), zap.String("archive", archive.Name),
		zap.String("method", string(res.Method)))
	return archive, nil
}

// ExportExperiment exports every file of every participant. Subjects are
// numbered from 1 in participant order. A file that is missing, unreadable or
// fails to convert is skipped and recorded in the report; the export carries
// on. Cancelling ctx aborts the export.
func (a *Assembler) ExportExperiment(ctx context.Context, exp *manifest.Experiment) (*Archive, error) {
	if exp == nil || len(exp.Participants) == 0 {
		return nil, ErrNoParticipants
	}

	root, err := os.MkdirTemp(a.opts.ScratchDir, "bids-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer a.removeScratch(root)

	layout := bids.NewLayout()
	report := &Report{Name: exp.Name, Subjects: len(exp.Participants)}
	rows := make([]bids.Participant, 0, len(exp.Participants))

	for i, p := range exp.Participants {
		subject := bids.SubjectID(i + 1)
		rows = append(rows, bids.NewParticipant(subject, p.Age, p.Sex, p.Group))

		for _, path := range p.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			fr := a.exportOne(ctx, root, layout, subject, p.Label, path)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if fr.Outcome == OutcomeSkipped {
				a.logger.Warn("file skipped",
					zap.String("subject", subject),
					zap.String("source", path),
					zap.String("reason", fr.Reason))
			}
			report.add(fr)
		}
	}

	if err := bids.WriteParticipants(root, rows); err != nil {
		return nil, err
	}
	if err := bids.WriteDatasetDescription(root, a.opts.Description); err != nil {
		return nil, err
	}
	if err := report.write(filepath.Join(root, ReportFile)); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(root, bids.IgnoreFile), []byte(ReportFile+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", bids.IgnoreFile, err)
	}

	archive, err := zipTree(root, a.opts.ScratchDir, ArchiveName(exp.Name))
	if err != nil {
		return nil, err
	}
	archive.Report = report
	a.logger.Info("experiment exported",
		zap.String("experiment", exp.Name),
		zap.Int("subjects", report.Subjects),
		zap.Int("converted", report.Converted),
		zap.Int("skipped", report.Skipped))
	return archive, nil
}

// exportOne converts one file of an experiment and reports its outcome.
func (a *Assembler) exportOne(ctx context.Context, root string, layout *bids.Layout, subject, label, path string) FileReport {
	skipped := func(reason string) FileReport {
		return FileReport{Participant: label, Subject: subject, Source: path, Outcome: OutcomeSkipped, Reason: reason}
	}

	if _, err := os.Stat(path); err != nil {
		return skipped(ErrSourceNotFound.Error())
	}
	rec, class, err := a.prepare(path)
	if err != nil {
		return skipped(err.Error())
	}

	placement := layout.Next(subject, class)
	res, err := a.convert(ctx, rec, root, placement)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return skipped(fmt.Sprintf("conversion timed out after %s", a.opts.FileTimeout))
		}
		return skipped(err.Error())
	}
	layout.Commit(placement)
	return converted(subject, path, label, class, res, placement)
}

// prepare reads, classifies and anonymizes one file.
func (a *Assembler) prepare(path string) (*dcm.Record, modalities.Classification, error) {
	rec, err := dcm.ReadFile(path)
	if err != nil {
		return nil, modalities.Default, fmt.Errorf("read: %w", err)
	}
	class := modalities.Classify(rec.Header())
	if _, err := a.anonymizer.Anonymize(&rec.Dataset); err != nil {
		return nil, modalities.Default, fmt.Errorf("anonymize: %w", err)
	}
	return rec, class, nil
}

// convert runs the converter under the per-file timeout.
func (a *Assembler) convert(ctx context.Context, rec *dcm.Record, root string, p bids.Placement) (convert.Result, error) {
	fileCtx, cancel := context.WithTimeout(ctx, a.opts.FileTimeout)
	defer cancel()
	return a.converter.Convert(fileCtx, rec, filepath.Join(root, filepath.FromSlash(p.Dir)), p.Base)
}

func (a *Assembler) removeScratch(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		a.logger.Warn("failed to remove scratch dir", zap.String("dir", dir), zap.Error(err))
	}
}

func converted(subject, path, label string, class modalities.Classification, res convert.Result, p bids.Placement) FileReport {
	return FileReport{
		Participant: label,
		Subject:     subject,
		Source:      path,
		Outcome:     OutcomeConverted,
		Folder:      string(class.Folder),
		Method:      res.Method,
		Outputs:     []string{p.Path(".nii.gz"), p.Path(".json")},
	}
}
