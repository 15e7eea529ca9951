package modalities

import "strings"

// rule matches a series description against a set of lowercase keywords.
type rule struct {
	Keywords       []string
	Classification Classification
}

func (r rule) matches(description string) bool {
	for _, k := range r.Keywords {
		if strings.Contains(description, k) {
			return true
		}
	}
	return false
}

// rules are checked in order. Diffusion comes first so that "dti_t1_ref"
// stays a diffusion series.
var rules = []rule{
	{Keywords: []string{"diff", "dwi", "dti"}, Classification: Classification{Folder: DWI, Suffix: "dwi"}},
	{Keywords: []string{"bold", "func", "fmri", "rest"}, Classification: Classification{Folder: Func, Suffix: "task-rest_bold"}},
	{Keywords: []string{"t1", "mprage"}, Classification: Classification{Folder: Anat, Suffix: "T1w"}},
	{Keywords: []string{"t2"}, Classification: Classification{Folder: Anat, Suffix: "T2w"}},
	{Keywords: []string{"flair"}, Classification: Classification{Folder: Anat, Suffix: "FLAIR"}},
}
