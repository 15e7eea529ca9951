package main

import (
	"fmt"
	"io"
	"os"
)

// version is set at build time via -ldflags
var version = "dev"

type command struct {
	name    string
	summary string
	run     func(args []string, stdout io.Writer) error
}

var commands = []command{
	{"file", "Export one DICOM file as a single-subject BIDS archive", runFile},
	{"experiment", "Export every file listed in an experiment manifest", runExperiment},
	{"sample", "Generate a synthetic MR experiment and its manifest", runSample},
	{"serve", "Serve the export pipeline over HTTP", runServe},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "--version", "-version", "version":
		fmt.Fprintf(stdout, "dicombids %s\n", version)
		return 0
	case "--help", "-help", "-h", "help":
		printUsage(stdout)
		return 0
	}

	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		if err := c.run(args[1:], stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stderr, "Error: unknown command %q\n", args[0])
	printUsage(stderr)
	return 1
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "dicombids - export DICOM acquisitions as anonymized BIDS datasets")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  dicombids <command> [options] [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'dicombids <command> --help' for the options of a command.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration is read from --config and DICOMBIDS_* environment variables,")
	fmt.Fprintln(w, "for example DICOMBIDS_EXPORT__FILE_TIMEOUT=90s.")
}
