package export

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Archive is a finished export. The file lives outside any scratch tree and
// belongs to the caller, who must call Remove once it has been delivered.
type Archive struct {
	Path   string
	Name   string
	Size   int64
	Report *Report
}

// Open opens the archive for reading.
func (a *Archive) Open() (*os.File, error) {
	return os.Open(a.Path)
}

// Remove deletes the archive file.
func (a *Archive) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ArchiveName derives "<name>_bids.zip" from an experiment name: lower case,
// spaces to underscores, accents folded, other path-hostile characters
// dropped. An empty result becomes "experiment".
func ArchiveName(experiment string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), experiment)
	if err != nil {
		folded = experiment
	}

	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		switch {
		case r == ' ':
			sb.WriteByte('_')
		case r == '-' || r == '_' || r == '.':
			sb.WriteRune(r)
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(r)
		}
	}

	name := strings.Trim(sb.String(), ".")
	if name == "" {
		name = "experiment"
	}
	return name + "_bids.zip"
}

// zipTree writes every regular file below root into a new temporary zip file
// in tmpDir. Entry names are slash-separated paths relative to root.
func zipTree(root, tmpDir, name string) (*Archive, error) {
	f, err := os.CreateTemp(tmpDir, "dicombids-*.zip")
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	fail := func(err error) (*Archive, error) {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("write archive: %w", err)
	}

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return addFile(zw, path, filepath.ToSlash(rel))
	})
	if err != nil {
		return fail(err)
	}
	if err := zw.Close(); err != nil {
		return fail(err)
	}

	info, err := f.Stat()
	if err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("write archive: %w", err)
	}
	return &Archive{Path: f.Name(), Name: name, Size: info.Size()}, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	// .nii.gz volumes are already compressed.
	if strings.HasSuffix(name, ".gz") {
		hdr.Method = zip.Store
	}

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
