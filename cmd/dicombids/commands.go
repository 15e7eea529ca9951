package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrsinham/dicombids/internal/dicom/edgecases"
	"github.com/mrsinham/dicombids/internal/dicom/modalities"
	"github.com/mrsinham/dicombids/internal/dicom/privatetags"
	"github.com/mrsinham/dicombids/internal/dicom/sample"
	"github.com/mrsinham/dicombids/internal/export"
	"github.com/mrsinham/dicombids/internal/manifest"
	"github.com/mrsinham/dicombids/internal/server"
)

// exportFlags are shared by the file and experiment commands.
type exportFlags struct {
	configFile   string
	output       string
	fallbackOnly bool
	publish      bool
}

func newExportFlagSet(name, usage string, stdout io.Writer) (*flag.FlagSet, *exportFlags) {
	ef := &exportFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.StringVar(&ef.configFile, "config", "", "Load configuration from YAML file")
	fs.StringVar(&ef.output, "output", ".", "Directory receiving the archive")
	fs.BoolVar(&ef.fallbackOnly, "fallback-only", false, "Skip dcm2niix and always use the built-in converter")
	fs.BoolVar(&ef.publish, "publish", false, "Upload the archive through the configured publisher instead of writing it to --output")
	fs.Usage = func() {
		fmt.Fprintf(stdout, "Usage:\n  dicombids %s [options] %s\n\nOptions:\n", name, usage)
		fs.PrintDefaults()
	}
	return fs, ef
}

// parse handles --help as success and requires exactly one argument.
func parse(fs *flag.FlagSet, args []string) (string, bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", true, nil
		}
		return "", false, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", false, fmt.Errorf("%s expects exactly one argument, got %d", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), false, nil
}

func runFile(args []string, stdout io.Writer) error {
	fs, ef := newExportFlagSet("file", "<file.dcm>", stdout)
	path, help, err := parse(fs, args)
	if err != nil || help {
		return err
	}

	app, err := newApp(ef.configFile, ef.fallbackOnly)
	if err != nil {
		return err
	}
	defer func() { _ = app.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(stdout, "dicombids")
	fmt.Fprintln(stdout, "=========")
	fmt.Fprintf(stdout, "Exporting %s\n", path)

	archive, err := app.assembler.ExportFile(ctx, path)
	if err != nil {
		return err
	}
	return app.deliver(ctx, archive, ef, stdout)
}

func runExperiment(args []string, stdout io.Writer) error {
	fs, ef := newExportFlagSet("experiment", "<manifest.yaml>", stdout)
	path, help, err := parse(fs, args)
	if err != nil || help {
		return err
	}

	exp, err := manifest.Load(path)
	if err != nil {
		return err
	}
	if err := exp.Validate(); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}

	app, err := newApp(ef.configFile, ef.fallbackOnly)
	if err != nil {
		return err
	}
	defer func() { _ = app.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(stdout, "dicombids")
	fmt.Fprintln(stdout, "=========")
	fmt.Fprintf(stdout, "Experiment: %s (%d participants, %d files)\n", exp.Name, len(exp.Participants), exp.FileCount())

	archive, err := app.assembler.ExportExperiment(ctx, exp)
	if err != nil {
		return err
	}

	if skipped := archive.Report.SkippedFiles(); len(skipped) > 0 {
		fmt.Fprintf(stdout, "\nSkipped %d file(s):\n", len(skipped))
		for _, f := range skipped {
			fmt.Fprintf(stdout, "  %s %s: %s\n", f.Subject, f.Source, f.Reason)
		}
	}
	return app.deliver(ctx, archive, ef, stdout)
}

func runSample(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	fs.SetOutput(stdout)
	output := fs.String("output", "sample_experiment", "Output directory")
	name := fs.String("name", "Sample Experiment", "Experiment name written to the manifest")
	participants := fs.Int("participants", 2, "Number of participants")
	sequences := fs.String("sequences", "all", fmt.Sprintf("Comma-separated sequences: %s (or 'all')", strings.Join(modalities.SequenceNames(), ",")))
	width := fs.Int("width", 64, "Image width in pixels")
	height := fs.Int("height", 64, "Image height in pixels")
	seed := fs.Uint64("seed", 1, "Seed for reproducibility")
	workers := fs.Int("workers", 0, fmt.Sprintf("Number of parallel workers (default: %d = CPU cores)", runtime.NumCPU()))
	overlay := fs.Bool("overlay", true, "Burn participant and sequence into the pixels")
	privateKinds := fs.String("private-tags", "", "Inject vendor private elements: siemens-csa,ge-private,philips-private,malformed-lengths (or 'all')")
	edgePercentage := fs.Int("edge-cases", 0, "Percentage of files with PHI edge cases (0-100)")
	edgeKinds := fs.String("edge-case-types", "all", "Comma-separated edge case types to enable")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	seqs, err := modalities.ParseSequences(*sequences)
	if err != nil {
		return err
	}

	var privateConfig privatetags.Config
	if *privateKinds != "" {
		kinds, err := privatetags.ParseKinds(*privateKinds)
		if err != nil {
			return err
		}
		privateConfig.Kinds = kinds
		fmt.Fprintf(stdout, "Private tags: injecting %v\n", kinds)
	}

	var edgeConfig edgecases.Config
	if *edgePercentage > 0 {
		kinds, err := edgecases.ParseKinds(*edgeKinds)
		if err != nil {
			return err
		}
		edgeConfig = edgecases.Config{Percentage: *edgePercentage, Kinds: kinds}
		if err := edgeConfig.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Edge cases: %d%% of files with types %v\n", *edgePercentage, kinds)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(stdout, "dicombids sample")
	fmt.Fprintln(stdout, "================")

	res, err := sample.NewGenerator(nil).Generate(ctx, sample.Options{
		OutputDir:    *output,
		Experiment:   *name,
		Participants: *participants,
		Sequences:    seqs,
		Width:        *width,
		Height:       *height,
		Seed:         *seed,
		Workers:      *workers,
		Overlay:      *overlay,
		PrivateTags:  privateConfig,
		EdgeCases:    edgeConfig,
		ProgressCallback: func(done, total int) {
			fmt.Fprintf(stdout, "\r  Writing files %d/%d", done, total)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "\n✓ Sample experiment generated!")
	fmt.Fprintf(stdout, "  Files:    %d\n", len(res.Files))
	fmt.Fprintf(stdout, "  Manifest: %s\n", res.ManifestPath)
	return nil
}

func runServe(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configFile := fs.String("config", "", "Load configuration from YAML file")
	addr := fs.String("addr", "", "Listen address (overrides server.addr)")
	dataRoot := fs.String("data-root", "", "Directory experiment manifests may reference (overrides server.data_root)")
	fallbackOnly := fs.Bool("fallback-only", false, "Skip dcm2niix and always use the built-in converter")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	app, err := newApp(*configFile, *fallbackOnly)
	if err != nil {
		return err
	}
	defer func() { _ = app.logger.Sync() }()

	if *addr != "" {
		app.cfg.Server.Addr = *addr
	}
	if *dataRoot != "" {
		app.cfg.Server.DataRoot = *dataRoot
	}
	if app.cfg.Server.DataRoot != "" {
		abs, err := filepath.Abs(app.cfg.Server.DataRoot)
		if err != nil {
			return err
		}
		app.cfg.Server.DataRoot = abs
	}

	if !app.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(server.Options{
		DataRoot:       app.cfg.Server.DataRoot,
		ScratchDir:     app.cfg.Export.ScratchDir,
		MaxUploadBytes: app.cfg.Server.MaxUploadMB << 20,
		CORSOrigins:    app.cfg.Server.CORSOrigins,
	}, app.assembler, app.publisher, app.logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "dicombids %s listening on %s\n", version, app.cfg.Server.Addr)
	return srv.Run(ctx, app.cfg.Server.Addr)
}

// deliver publishes the archive or moves it into the output directory.
func (a *app) deliver(ctx context.Context, archive *export.Archive, ef *exportFlags, stdout io.Writer) error {
	defer func() {
		if err := archive.Remove(); err != nil {
			a.logger.Warn("failed to remove archive", zap.String("path", archive.Path), zap.Error(err))
		}
	}()

	report := archive.Report
	if ef.publish {
		if a.publisher == nil {
			return errors.New("--publish needs publish.kind set to local or minio")
		}
		object, err := a.publisher.Publish(ctx, archive.Name, archive.Path)
		if err != nil {
			return fmt.Errorf("publish archive: %w", err)
		}
		fmt.Fprintln(stdout, "\n✓ Export complete!")
		fmt.Fprintf(stdout, "  Published: %s (%s)\n", object, humanize.Bytes(uint64(archive.Size)))
		fmt.Fprintf(stdout, "  Converted: %d, skipped: %d\n", report.Converted, report.Skipped)
		return nil
	}

	if err := os.MkdirAll(ef.output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	dst := filepath.Join(ef.output, archive.Name)
	if err := moveFile(archive.Path, dst); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	fmt.Fprintln(stdout, "\n✓ Export complete!")
	fmt.Fprintf(stdout, "  Archive:   %s (%s)\n", dst, humanize.Bytes(uint64(archive.Size)))
	fmt.Fprintf(stdout, "  Converted: %d, skipped: %d\n", report.Converted, report.Skipped)
	return nil
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
		return err
	}
	return out.Close()
}
