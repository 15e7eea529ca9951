// Package anonymize removes protected health information from DICOM datasets
// before anything derived from them leaves the process.
package anonymize

import (
	"errors"
	"fmt"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/zap"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
	"github.com/mrsinham/dicombids/internal/util"
)

// AnonymousName replaces every person name.
const AnonymousName = "anonymous"

// personNameVR is the value representation of person name elements.
const personNameVR = "PN"

// ErrNilDataset is returned when Anonymize is given no dataset.
var ErrNilDataset = errors.New("nil dataset")

// Summary describes what a call to Anonymize changed.
type Summary struct {
	// Changed counts rewritten elements per category. Person-name elements
	// found through their VR are counted under CategoryPersonName.
	Changed        map[util.TagCategory]int
	PrivateRemoved int

	StudyInstanceUID  string
	SeriesInstanceUID string
	SOPInstanceUID    string
}

// Anonymizer de-identifies datasets in place. It holds no per-call state and
// is safe for concurrent use.
type Anonymizer struct {
	fields map[tag.Tag]util.TagCategory
	logger *zap.Logger
	newUID func() string
}

// New returns an Anonymizer handling the default tags plus extraFields, given
// by keyword (for example "OperatorsName").
func New(extraFields []string, logger *zap.Logger) (*Anonymizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	extra, err := util.ParseTagNames(extraFields)
	if err != nil {
		return nil, fmt.Errorf("anonymize extra fields: %w", err)
	}

	fields := make(map[tag.Tag]util.TagCategory)
	for _, info := range util.DefaultTags() {
		fields[info.Tag] = info.Category
	}
	for _, info := range extra {
		fields[info.Tag] = info.Category
	}

	return &Anonymizer{fields: fields, logger: logger, newUID: NewUID}, nil
}

// Anonymize rewrites ds in a single pass over every element, nested sequence
// items included:
//   - person names, listed or found through the PN VR, become "anonymous";
//   - identifiers and free text are blanked;
//   - UIDs are replaced, the same old value always mapping to the same new one
//     within a call.
//
// Study, series and SOP instance UIDs are inserted when missing, and the file
// meta MediaStorageSOPInstanceUID follows SOPInstanceUID. Private elements at
// the top level are then dropped.
func (a *Anonymizer) Anonymize(ds *dicom.Dataset) (Summary, error) {
	if ds == nil {
		return Summary{}, ErrNilDataset
	}

	s := Summary{Changed: make(map[util.TagCategory]int)}
	remapped := make(map[string]string)

	it := ds.FlatStatefulIterator()
	for it.HasNext() {
		elem := it.Next()
		if elem == nil || elem.Value == nil || elem.Value.ValueType() != dicom.Strings {
			continue
		}

		category, listed := a.fields[elem.Tag]
		if elem.RawValueRepresentation == personNameVR {
			category, listed = util.CategoryPersonName, true
		}
		if !listed {
			continue
		}

		replacement := a.replacement(category, elem, remapped)
		v, err := dicom.NewValue(replacement)
		if err != nil {
			return s, fmt.Errorf("rewrite %v: %w", elem.Tag, err)
		}
		elem.Value = v
		s.Changed[category]++
	}

	for _, t := range []tag.Tag{tag.StudyInstanceUID, tag.SeriesInstanceUID, tag.SOPInstanceUID} {
		if dcm.NewHeader(ds).Has(t) {
			continue
		}
		if err := dcm.SetString(ds, t, a.newUID()); err != nil {
			return s, err
		}
		s.Changed[util.CategoryUID]++
	}

	h := dcm.NewHeader(ds)
	s.StudyInstanceUID = h.String(tag.StudyInstanceUID)
	s.SeriesInstanceUID = h.String(tag.SeriesInstanceUID)
	s.SOPInstanceUID = h.String(tag.SOPInstanceUID)

	if h.Has(tag.MediaStorageSOPInstanceUID) {
		if err := dcm.SetString(ds, tag.MediaStorageSOPInstanceUID, s.SOPInstanceUID); err != nil {
			return s, err
		}
	}

	s.PrivateRemoved = removePrivate(ds)

	a.logger.Debug("dataset anonymized",
		zap.Int("person_names", s.Changed[util.CategoryPersonName]),
		zap.Int("identifiers", s.Changed[util.CategoryIdentifier]),
		zap.Int("free_text", s.Changed[util.CategoryFreeText]),
		zap.Int("uids", s.Changed[util.CategoryUID]),
		zap.Int("private_removed", s.PrivateRemoved),
	)
	return s, nil
}

func (a *Anonymizer) replacement(category util.TagCategory, elem *dicom.Element, remapped map[string]string) []string {
	switch category {
	case util.CategoryPersonName:
		return []string{AnonymousName}
	case util.CategoryUID:
		old, _ := elem.Value.GetValue().([]string)
		out := make([]string, 0, max(len(old), 1))
		for _, v := range old {
			if v == "" {
				out = append(out, a.newUID())
				continue
			}
			if _, ok := remapped[v]; !ok {
				remapped[v] = a.newUID()
			}
			out = append(out, remapped[v])
		}
		if len(out) == 0 {
			out = append(out, a.newUID())
		}
		return out
	default:
		return []string{""}
	}
}

// removePrivate drops odd-group elements at the top level of ds and returns
// how many were removed. Private elements nested in sequences are kept.
func removePrivate(ds *dicom.Dataset) int {
	kept := ds.Elements[:0]
	removed := 0
	for _, elem := range ds.Elements {
		if elem != nil && dcm.IsPrivate(elem.Tag) {
			removed++
			continue
		}
		kept = append(kept, elem)
	}
	for i := len(kept); i < len(ds.Elements); i++ {
		ds.Elements[i] = nil
	}
	ds.Elements = kept
	return removed
}
