// Package bids names and places converted volumes in a BIDS dataset tree and
// writes the dataset-level metadata files.
package bids

import (
	"fmt"
	"path"
	"strings"

	"github.com/mrsinham/dicombids/internal/dicom/modalities"
)

// SubjectID formats the 1-based subject number n as sub-NN.
func SubjectID(n int) string {
	return fmt.Sprintf("sub-%02d", n)
}

// SessionID formats the 1-based session number n as ses-NN.
func SessionID(n int) string {
	return fmt.Sprintf("ses-%02d", n)
}

// Placement is where one volume goes, relative to the dataset root.
type Placement struct {
	// Dir is the slash-separated folder, e.g. "sub-01/anat".
	Dir string
	// Base is the file name without extension.
	Base string
	// Index is the run or acquisition number encoded in Base; 0 for single
	// exports.
	Index int

	key layoutKey
}

// Path returns Dir/Base+ext.
func (p Placement) Path(ext string) string {
	return path.Join(p.Dir, p.Base+ext)
}

type layoutKey struct {
	subject string
	folder  modalities.Folder
	suffix  string
}

// Layout assigns run and acquisition indices within one export. Indices only
// advance on Commit, so a file that fails to convert leaves no gap. A Layout
// is not safe for concurrent use.
type Layout struct {
	counts map[layoutKey]int
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{counts: make(map[layoutKey]int)}
}

// Next returns the placement of the next file of class for subject without
// consuming its index.
//
// Functional series are named <sub>_task-rest_run-NN_bold, or
// <sub>_run-NN_<suffix> when the suffix is not a resting-state one, and share
// one run counter per subject. Anatomical and diffusion series are named
// <sub>_acq-NN_<suffix>, counted per suffix.
func (l *Layout) Next(subject string, class modalities.Classification) Placement {
	key := layoutKey{subject: subject, folder: class.Folder, suffix: class.Suffix}
	if class.Folder == modalities.Func && strings.HasSuffix(class.Suffix, "bold") {
		key.suffix = "bold"
	}
	index := l.counts[key] + 1

	var base string
	switch {
	case class.Folder != modalities.Func:
		base = fmt.Sprintf("%s_acq-%02d_%s", subject, index, class.Suffix)
	case strings.Contains(class.Suffix, "task-rest"):
		base = fmt.Sprintf("%s_task-rest_run-%02d_bold", subject, index)
	default:
		base = fmt.Sprintf("%s_run-%02d_%s", subject, index, class.Suffix)
	}

	return Placement{
		Dir:   path.Join(subject, string(class.Folder)),
		Base:  base,
		Index: index,
		key:   key,
	}
}

// Commit consumes the index of p. Committing the same placement twice has no
// further effect.
func (l *Layout) Commit(p Placement) {
	if p.Index > l.counts[p.key] {
		l.counts[p.key] = p.Index
	}
}

// Count returns how many files of class were committed for subject.
func (l *Layout) Count(subject string, class modalities.Classification) int {
	return l.Next(subject, class).Index - 1
}

// Single returns the placement used when a lone file is exported:
// <subject>/<session>/<folder>/<subject>_<suffix>.
func Single(subject, session string, class modalities.Classification) Placement {
	return Placement{
		Dir:  path.Join(subject, session, string(class.Folder)),
		Base: fmt.Sprintf("%s_%s", subject, class.Suffix),
	}
}
