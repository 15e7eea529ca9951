// Package convert turns anonymized DICOM records into compressed NIfTI volumes
// with a JSON sidecar.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
	"github.com/mrsinham/dicombids/internal/nifti"
)

var (
	// ErrNoPixelData is returned by the fallback path for records without pixels.
	ErrNoPixelData = dcm.ErrNoPixelData
	// ErrTooFewDimensions is returned by the fallback path for 1-D payloads.
	ErrTooFewDimensions = nifti.ErrTooFewDimensions
	// ErrNoOutput wraps every failure to produce a volume.
	ErrNoOutput = errors.New("no volume produced")
)

// Method names the path that produced a volume.
type Method string

const (
	MethodPrimary  Method = "dcm2niix"
	MethodFallback Method = "fallback"
)

// Placeholders expanded in Options.Args.
const (
	PlaceholderBase   = "{base}"
	PlaceholderOutput = "{out}"
	PlaceholderInput  = "{in}"
)

// DefaultCommand is the external converter looked up on PATH.
const DefaultCommand = "dcm2niix"

// DefaultArgs asks for gzip output, a BIDS sidecar and anonymized sidecar fields.
var DefaultArgs = []string{
	"-z", "y", "-b", "y", "-ba", "y",
	"-f", PlaceholderBase, "-o", PlaceholderOutput, PlaceholderInput,
}

// scratchFile is the name of the anonymized copy handed to the external tool.
const scratchFile = "image.dcm"

// Options configures a Converter.
type Options struct {
	// Command is the external converter. Empty means DefaultCommand.
	Command string
	// Args are the converter arguments. Empty means DefaultArgs.
	Args []string
	// Disabled skips the external converter and always uses the fallback.
	Disabled bool
	// ScratchDir is the parent of the per-call scratch directories. Empty
	// means the system temporary directory.
	ScratchDir string
}

// Result describes the files a conversion produced.
type Result struct {
	NiftiPath   string
	SidecarPath string
	Method      Method
}

// Converter converts one record at a time. It is safe for concurrent use as
// long as callers pass distinct output names.
type Converter struct {
	opts    Options
	builder CommandBuilder
	logger  *zap.Logger
}

// New creates a Converter. A nil builder runs real processes.
func New(opts Options, builder CommandBuilder, logger *zap.Logger) *Converter {
	if opts.Command == "" {
		opts.Command = DefaultCommand
	}
	if len(opts.Args) == 0 {
		opts.Args = DefaultArgs
	}
	if builder == nil {
		builder = NewRealCommandBuilder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{opts: opts, builder: builder, logger: logger}
}

// PrimaryAvailable reports whether the external converter can be used.
func (c *Converter) PrimaryAvailable() bool {
	if c.opts.Disabled {
		return false
	}
	_, err := c.builder.LookPath(c.opts.Command)
	return err == nil
}

// Convert writes <outDir>/<base>.nii.gz and <outDir>/<base>.json from rec,
// which must already be anonymized. The external converter is tried first;
// when it produces nothing the pixel payload is written directly with an
// identity transform. Scratch directories are removed on every return path.
//
// Any failure, panics included, is returned wrapped in ErrNoOutput with no
// volume left in outDir. Cancellation of ctx is returned as ctx.Err().
func (c *Converter) Convert(ctx context.Context, rec *dcm.Record, outDir, base string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("%w: panic: %v", ErrNoOutput, r)
		}
	}()

	if rec == nil {
		return Result{}, fmt.Errorf("%w: nil record", ErrNoOutput)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	inDir, err := os.MkdirTemp(c.opts.ScratchDir, "dicom-")
	if err != nil {
		return Result{}, fmt.Errorf("create scratch dir: %w", err)
	}
	defer c.removeScratch(inDir)

	convDir, err := os.MkdirTemp(c.opts.ScratchDir, "convert-")
	if err != nil {
		return Result{}, fmt.Errorf("create scratch dir: %w", err)
	}
	defer c.removeScratch(convDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	modality := rec.Header().Modality()
	res = Result{
		NiftiPath:   filepath.Join(outDir, base+".nii.gz"),
		SidecarPath: filepath.Join(outDir, base+".json"),
	}

	if c.PrimaryAvailable() {
		if err := c.runPrimary(ctx, rec, inDir, convDir, base); err != nil {
			c.logger.Warn("primary conversion failed",
				zap.String("source", rec.Path), zap.String("command", c.opts.Command), zap.Error(err))
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		volume, sidecar, err := scanOutput(convDir)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrNoOutput, err)
		}
		if volume != "" {
			return c.adoptPrimary(res, volume, sidecar, modality)
		}
		c.logger.Info("primary conversion produced no volume, using fallback", zap.String("source", rec.Path))
	}

	if err := c.fallback(rec, res.NiftiPath); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNoOutput, err)
	}
	if err := writeJSON(res.SidecarPath, NewSidecar(modality)); err != nil {
		_ = os.Remove(res.NiftiPath)
		return Result{}, fmt.Errorf("%w: write sidecar: %v", ErrNoOutput, err)
	}
	res.Method = MethodFallback
	return res, nil
}

func (c *Converter) runPrimary(ctx context.Context, rec *dcm.Record, inDir, convDir, base string) error {
	if err := dcm.WriteFile(filepath.Join(inDir, scratchFile), rec.Dataset); err != nil {
		return err
	}

	args := expandArgs(c.opts.Args, map[string]string{
		PlaceholderBase:   base,
		PlaceholderOutput: convDir,
		PlaceholderInput:  inDir,
	})
	out, err := c.builder.BuildCommand(ctx, c.opts.Command, args...).Run()
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%s not installed: %w", c.opts.Command, err)
		}
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	c.logger.Debug("primary conversion done", zap.String("source", rec.Path), zap.ByteString("output", out))
	return nil
}

func (c *Converter) adoptPrimary(res Result, volume, sidecar, modality string) (Result, error) {
	if err := moveFile(volume, res.NiftiPath); err != nil {
		return Result{}, fmt.Errorf("%w: move volume: %v", ErrNoOutput, err)
	}

	var err error
	if sidecar != "" {
		err = moveFile(sidecar, res.SidecarPath)
		if err == nil {
			err = sanitizeSidecar(res.SidecarPath, modality)
		}
	} else {
		err = writeJSON(res.SidecarPath, NewSidecar(modality))
	}
	if err != nil {
		_ = os.Remove(res.NiftiPath)
		_ = os.Remove(res.SidecarPath)
		return Result{}, fmt.Errorf("%w: sidecar: %v", ErrNoOutput, err)
	}

	res.Method = MethodPrimary
	return res, nil
}

// fallback writes the pixel payload of rec as a single volume.
func (c *Converter) fallback(rec *dcm.Record, filename string) error {
	if rec.Partial {
		return ErrNoPixelData
	}
	pixels, err := dcm.ExtractPixels(&rec.Dataset)
	if err != nil {
		return err
	}
	vol, err := nifti.FromPixels(pixels)
	if err != nil {
		return err
	}
	vol.Description = "dicombids identity fallback"
	return nifti.WriteFile(filename, vol)
}

func (c *Converter) removeScratch(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		c.logger.Warn("failed to remove scratch dir", zap.String("dir", dir), zap.Error(err))
	}
}

// scanOutput returns the first compressed volume and the first JSON file
// found in dir, in lexical order.
func scanOutput(dir string) (string, string, error) {
	volumes, err := filepath.Glob(filepath.Join(dir, "*.nii.gz"))
	if err != nil {
		return "", "", err
	}
	sidecars, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return "", "", err
	}
	sort.Strings(volumes)
	sort.Strings(sidecars)

	var volume, sidecar string
	if len(volumes) > 0 {
		volume = volumes[0]
	}
	if len(sidecars) > 0 {
		sidecar = sidecars[0]
	}
	return volume, sidecar, nil
}

func expandArgs(args []string, values map[string]string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		for k, v := range values {
			a = strings.ReplaceAll(a, k, v)
		}
		out[i] = a
	}
	return out
}

// moveFile renames src to dst, copying when they sit on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
