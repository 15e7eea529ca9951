// Package sample generates identifiable synthetic MR DICOM files, grouped by
// participant, together with the experiment manifest that exports them.
package sample

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/suyashkumar/dicom"
	"go.uber.org/zap"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
	"github.com/mrsinham/dicombids/internal/dicom/edgecases"
	"github.com/mrsinham/dicombids/internal/dicom/modalities"
	"github.com/mrsinham/dicombids/internal/dicom/privatetags"
	"github.com/mrsinham/dicombids/internal/manifest"
)

// ManifestName is the file name of the manifest written next to the files.
const ManifestName = "manifest.yaml"

var groups = []string{"control", "patient"}

// Options configures a generation run.
type Options struct {
	OutputDir    string
	Experiment   string
	Participants int
	// Sequences are acquired once per participant, in order.
	Sequences []modalities.Sequence
	Width     int
	Height    int
	Seed      uint64
	Workers   int
	// Overlay burns "<label> <sequence>" into each frame.
	Overlay     bool
	PrivateTags privatetags.Config
	EdgeCases   edgecases.Config
	// ProgressCallback is called after each written file.
	ProgressCallback func(done, total int)
}

// Validate checks the options and fills defaults.
func (o *Options) Validate() error {
	var errs []error
	if o.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if o.Participants <= 0 {
		errs = append(errs, fmt.Errorf("participants must be > 0, got %d", o.Participants))
	}
	if o.Width < 0 || o.Height < 0 {
		errs = append(errs, fmt.Errorf("invalid dimensions %dx%d", o.Width, o.Height))
	}
	if err := o.EdgeCases.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if o.Experiment == "" {
		o.Experiment = "Sample Experiment"
	}
	if len(o.Sequences) == 0 {
		o.Sequences = modalities.AllSequences()
	}
	if o.Width == 0 {
		o.Width = 64
	}
	if o.Height == 0 {
		o.Height = o.Width
	}
	return nil
}

// File is one generated DICOM file.
type File struct {
	Path        string
	Participant string
	Sequence    string
	Expected    modalities.Classification
	EdgeCase    edgecases.Kind
}

// Result lists the generated files and the manifest describing them.
type Result struct {
	Files        []File
	Experiment   *manifest.Experiment
	ManifestPath string
}

// fileTask contains everything needed to write one file.
type fileTask struct {
	index       int
	path        string
	dataset     *dicom.Dataset
	patchLength bool
}

// Generator writes sample experiments.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a generator.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// Generate builds every dataset up front, writes them with a worker pool and
// saves the manifest. Manifest file paths are relative to OutputDir.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	private := privatetags.NewApplicator(opts.PrivateTags, rng)
	edges := edgecases.NewApplicator(opts.EdgeCases, rng)
	scanners := modalities.Scanners()

	exp := &manifest.Experiment{Name: opts.Experiment}
	var files []File
	var tasks []fileTask

	// Phase 1: build datasets sequentially so that output is reproducible.
	for p := 1; p <= opts.Participants; p++ {
		label := fmt.Sprintf("P%03d", p)
		patient := NewPatient(rng)
		scanner := scanners[rng.IntN(len(scanners))]
		studyUID := UID(fmt.Sprintf("%d/%s/study", opts.Seed, label))

		dir := filepath.Join(opts.OutputDir, label)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create participant directory: %w", err)
		}

		participant := manifest.Participant{
			Label: label,
			Age:   fmt.Sprint(patient.Age),
			Sex:   patient.Sex,
			Group: groups[(p-1)%len(groups)],
		}

		for s, seq := range opts.Sequences {
			spec := SeriesSpec{
				Patient:      patient,
				Sequence:     seq,
				Scanner:      scanner,
				Width:        opts.Width,
				Height:       opts.Height,
				SeriesNumber: s + 1,
				StudyUID:     studyUID,
				Seed:         pixelSeed(opts.Seed, len(tasks)),
			}
			if opts.Overlay {
				spec.Overlay = fmt.Sprintf("%s %s", label, seq.Name)
			}

			ds, err := BuildDataset(spec, rng)
			if err != nil {
				return nil, fmt.Errorf("build %s/%s: %w", label, seq.Name, err)
			}

			ds.Elements = append(ds.Elements, private.Elements(privatetags.Acquisition{
				Manufacturer: scanner.Manufacturer,
				Sequence:     seq,
			})...)
			kind, err := edges.Apply(ds, patient.Sex)
			if err != nil {
				return nil, fmt.Errorf("build %s/%s: %w", label, seq.Name, err)
			}
			SortElements(ds)

			name := fmt.Sprintf("%02d_%s.dcm", s+1, seq.Name)
			tasks = append(tasks, fileTask{
				index:       len(tasks),
				path:        filepath.Join(dir, name),
				dataset:     ds,
				patchLength: private.HasMalformedLengths(),
			})
			files = append(files, File{
				Path:        filepath.Join(dir, name),
				Participant: label,
				Sequence:    seq.Name,
				Expected:    seq.Expected,
				EdgeCase:    kind,
			})
			participant.Files = append(participant.Files, filepath.Join(label, name))
		}
		exp.Participants = append(exp.Participants, participant)
	}

	// Phase 2: write files in parallel.
	if err := g.writeAll(ctx, tasks, opts); err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := manifest.Save(manifestPath, exp); err != nil {
		return nil, err
	}

	g.logger.Info("sample experiment generated",
		zap.String("dir", opts.OutputDir),
		zap.Int("participants", opts.Participants),
		zap.Int("files", len(files)))

	return &Result{Files: files, Experiment: exp, ManifestPath: manifestPath}, nil
}

func (g *Generator) writeAll(ctx context.Context, tasks []fileTask, opts Options) error {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = max(min(numWorkers, len(tasks)), 1)

	taskChan := make(chan fileTask, len(tasks))
	resultChan := make(chan struct {
		index int
		err   error
	}, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				err := ctx.Err()
				if err == nil {
					err = writeTask(task)
				}
				resultChan <- struct {
					index int
					err   error
				}{task.index, err}
			}
		}()
	}

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed := 0
	var firstErr error
	for result := range resultChan {
		if result.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("write file %d: %w", result.index, result.err)
		}
		completed++
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(completed, len(tasks))
		}
	}
	return firstErr
}

func writeTask(task fileTask) error {
	if err := dcm.WriteFile(task.path, *task.dataset); err != nil {
		return err
	}
	if task.patchLength {
		if err := privatetags.PatchMalformedLengths(task.path); err != nil {
			return fmt.Errorf("patch malformed lengths: %w", err)
		}
	}
	return nil
}

// pixelSeed derives the deterministic pixel seed of the index-th file.
func pixelSeed(seed uint64, index int) uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d_pixel_%d", seed, index)
	return h.Sum64()
}
