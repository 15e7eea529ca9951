package anonymize

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
	"github.com/mrsinham/dicombids/internal/util"
)

var privateTag = tag.Tag{Group: 0x0029, Element: 0x1010}

func identifiableDataset() *dicom.Dataset {
	return &dicom.Dataset{Elements: []*dicom.Element{
		dcm.MustNewElement(tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		dcm.MustNewElement(tag.MediaStorageSOPInstanceUID, []string{"1.2.826.0.1.3680043.2.1125.3"}),
		dcm.MustNewElement(tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		dcm.MustNewElement(tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		dcm.MustNewElement(tag.SOPInstanceUID, []string{"1.2.826.0.1.3680043.2.1125.3"}),
		dcm.MustNewElement(tag.AccessionNumber, []string{"ACC0042"}),
		dcm.MustNewElement(tag.Modality, []string{"MR"}),
		dcm.MustNewElement(tag.InstitutionName, []string{"Hopital Saint-Louis"}),
		dcm.MustNewElement(tag.ReferringPhysicianName, []string{"House^Gregory"}),
		dcm.MustNewElement(tag.StationName, []string{"MRC40512"}),
		dcm.MustNewElement(tag.SeriesDescription, []string{"t1_mprage_sag"}),
		dcm.MustNewElement(tag.OperatorsName, []string{"Doe^Jane"}),
		dcm.MustNewElement(tag.ReferencedImageSequence, [][]*dicom.Element{{
			dcm.MustNewElement(tag.PerformingPhysicianName, []string{"Grey^Meredith"}),
		}}),
		dcm.MustNewElement(tag.PatientName, []string{"Dupont^Marie"}),
		dcm.MustNewElement(tag.PatientID, []string{"PID-123456"}),
		dcm.MustNewElement(tag.PatientBirthDate, []string{"19800101"}),
		dcm.MustNewElement(tag.PatientSex, []string{"F"}),
		dcm.MustNewElement(tag.StudyInstanceUID, []string{"1.2.826.0.1.3680043.2.1125.1"}),
		dcm.MustNewElement(tag.SeriesInstanceUID, []string{"1.2.826.0.1.3680043.2.1125.2"}),
		dcm.MustNewPrivateElement(privateTag, "OB", []byte("SV10")),
	}}
}

func newTestAnonymizer(t *testing.T, extra ...string) *Anonymizer {
	t.Helper()
	a, err := New(extra, nil)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return a
}

func TestAnonymizeBlanksAndRenames(t *testing.T) {
	ds := identifiableDataset()
	a := newTestAnonymizer(t)

	if _, err := a.Anonymize(ds); err != nil {
		t.Fatalf("Anonymize() returned error: %v", err)
	}

	h := dcm.NewHeader(ds)
	tests := []struct {
		name string
		tag  tag.Tag
		want string
	}{
		{"PatientName", tag.PatientName, AnonymousName},
		{"ReferringPhysicianName", tag.ReferringPhysicianName, AnonymousName},
		{"OperatorsName", tag.OperatorsName, AnonymousName},
		{"PatientID", tag.PatientID, ""},
		{"PatientBirthDate", tag.PatientBirthDate, ""},
		{"PatientSex", tag.PatientSex, ""},
		{"AccessionNumber", tag.AccessionNumber, ""},
		{"InstitutionName", tag.InstitutionName, ""},
		{"StationName kept", tag.StationName, "MRC40512"},
		{"Modality kept", tag.Modality, "MR"},
		{"SeriesDescription kept", tag.SeriesDescription, "t1_mprage_sag"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := h.Lookup(tc.tag)
			if !ok {
				t.Fatalf("%s missing after anonymization", tc.name)
			}
			if got != tc.want {
				t.Errorf("%s = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}

func TestAnonymizeNestedPersonName(t *testing.T) {
	ds := identifiableDataset()
	if _, err := newTestAnonymizer(t).Anonymize(ds); err != nil {
		t.Fatalf("Anonymize() returned error: %v", err)
	}

	it := ds.FlatStatefulIterator()
	found := false
	for it.HasNext() {
		elem := it.Next()
		if elem.Tag != tag.PerformingPhysicianName {
			continue
		}
		found = true
		values, _ := elem.Value.GetValue().([]string)
		if len(values) != 1 || values[0] != AnonymousName {
			t.Errorf("nested PerformingPhysicianName = %v, want [%s]", values, AnonymousName)
		}
	}
	if !found {
		t.Fatal("nested PerformingPhysicianName not found")
	}
}

func TestAnonymizeRegeneratesUIDs(t *testing.T) {
	ds := identifiableDataset()
	a := newTestAnonymizer(t)

	first, err := a.Anonymize(ds)
	if err != nil {
		t.Fatalf("Anonymize() returned error: %v", err)
	}

	originals := map[string]bool{
		"1.2.826.0.1.3680043.2.1125.1": true,
		"1.2.826.0.1.3680043.2.1125.2": true,
		"1.2.826.0.1.3680043.2.1125.3": true,
	}
	for _, uid := range []string{first.StudyInstanceUID, first.SeriesInstanceUID, first.SOPInstanceUID} {
		if originals[uid] {
			t.Errorf("UID %q was not regenerated", uid)
		}
		if !strings.HasPrefix(uid, uidRoot) {
			t.Errorf("UID %q does not start with %q", uid, uidRoot)
		}
	}
	if first.StudyInstanceUID == first.SeriesInstanceUID || first.SeriesInstanceUID == first.SOPInstanceUID {
		t.Error("study, series and instance UIDs must differ")
	}

	h := dcm.NewHeader(ds)
	if got := h.String(tag.MediaStorageSOPInstanceUID); got != first.SOPInstanceUID {
		t.Errorf("MediaStorageSOPInstanceUID = %q, want %q", got, first.SOPInstanceUID)
	}
	if got := h.String(tag.SOPClassUID); got != "1.2.840.10008.5.1.4.1.1.4" {
		t.Errorf("SOPClassUID changed to %q", got)
	}

	second, err := a.Anonymize(ds)
	if err != nil {
		t.Fatalf("second Anonymize() returned error: %v", err)
	}
	if second.StudyInstanceUID == first.StudyInstanceUID ||
		second.SeriesInstanceUID == first.SeriesInstanceUID ||
		second.SOPInstanceUID == first.SOPInstanceUID {
		t.Error("a second pass must produce fresh UIDs")
	}
}

func TestAnonymizeIsIdempotentOnBlankedFields(t *testing.T) {
	ds := identifiableDataset()
	a := newTestAnonymizer(t)

	for i := 0; i < 2; i++ {
		if _, err := a.Anonymize(ds); err != nil {
			t.Fatalf("Anonymize() pass %d returned error: %v", i+1, err)
		}
		h := dcm.NewHeader(ds)
		for _, tg := range []tag.Tag{tag.PatientID, tag.PatientBirthDate, tag.PatientSex, tag.AccessionNumber, tag.InstitutionName} {
			if got := h.String(tg); got != "" {
				t.Errorf("pass %d: %v = %q, want blank", i+1, tg, got)
			}
		}
		if got := h.String(tag.PatientName); got != AnonymousName {
			t.Errorf("pass %d: PatientName = %q", i+1, got)
		}
	}
}

func TestAnonymizeInsertsMissingUIDs(t *testing.T) {
	ds := &dicom.Dataset{Elements: []*dicom.Element{
		dcm.MustNewElement(tag.Modality, []string{"MR"}),
	}}

	s, err := newTestAnonymizer(t).Anonymize(ds)
	if err != nil {
		t.Fatalf("Anonymize() returned error: %v", err)
	}

	h := dcm.NewHeader(ds)
	for _, tg := range []tag.Tag{tag.StudyInstanceUID, tag.SeriesInstanceUID, tag.SOPInstanceUID} {
		if !strings.HasPrefix(h.String(tg), uidRoot) {
			t.Errorf("%v = %q, want a generated UID", tg, h.String(tg))
		}
	}
	if s.Changed[util.CategoryUID] != 3 {
		t.Errorf("Changed[uid] = %d, want 3", s.Changed[util.CategoryUID])
	}
	if h.Has(tag.PatientName) {
		t.Error("absent fields must stay absent")
	}
}

func TestAnonymizeRemovesPrivateElements(t *testing.T) {
	ds := identifiableDataset()

	s, err := newTestAnonymizer(t).Anonymize(ds)
	if err != nil {
		t.Fatalf("Anonymize() returned error: %v", err)
	}
	if s.PrivateRemoved != 1 {
		t.Errorf("PrivateRemoved = %d, want 1", s.PrivateRemoved)
	}
	for _, elem := range ds.Elements {
		if dcm.IsPrivate(elem.Tag) {
			t.Errorf("private element %v left in dataset", elem.Tag)
		}
	}
}

func TestAnonymizeExtraFields(t *testing.T) {
	ds := identifiableDataset()
	a := newTestAnonymizer(t, "StationName")

	s, err := a.Anonymize(ds)
	if err != nil {
		t.Fatalf("Anonymize() returned error: %v", err)
	}
	if got := dcm.NewHeader(ds).String(tag.StationName); got != "" {
		t.Errorf("StationName = %q, want blank", got)
	}
	if s.Changed[util.CategoryFreeText] != 2 {
		t.Errorf("Changed[free-text] = %d, want 2", s.Changed[util.CategoryFreeText])
	}
}

func TestNewRejectsUnknownExtraField(t *testing.T) {
	_, err := New([]string{"StationNmae"}, nil)
	if err == nil {
		t.Fatal("New() should reject an unknown field")
	}
	if !strings.Contains(err.Error(), "StationName") {
		t.Errorf("error should suggest StationName, got: %v", err)
	}
}

func TestAnonymizeNilDataset(t *testing.T) {
	if _, err := newTestAnonymizer(t).Anonymize(nil); err != ErrNilDataset {
		t.Errorf("Anonymize(nil) error = %v, want %v", err, ErrNilDataset)
	}
}

func TestAnonymizedFileReparses(t *testing.T) {
	ds := identifiableDataset()
	if _, err := newTestAnonymizer(t).Anonymize(ds); err != nil {
		t.Fatalf("Anonymize() returned error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "anon.dcm")
	if err := dcm.WriteFile(path, *ds); err != nil {
		t.Fatalf("WriteFile() returned error: %v", err)
	}

	rec, err := dcm.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() returned error: %v", err)
	}
	if got := rec.Header().String(tag.PatientName); got != AnonymousName {
		t.Errorf("re-read PatientName = %q, want %q", got, AnonymousName)
	}
}

func TestNewUID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		uid := NewUID()
		if len(uid) > 64 {
			t.Fatalf("UID %q longer than 64 characters", uid)
		}
		if seen[uid] {
			t.Fatalf("duplicate UID %q", uid)
		}
		seen[uid] = true
	}
}
