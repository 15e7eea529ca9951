package edgecases

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// OptionalTags lists tags a file may lack without becoming unusable. Fields
// the classifier reads are deliberately absent from the list.
var OptionalTags = []tag.Tag{
	tag.BodyPartExamined,
	tag.StudyDescription,
	tag.InstitutionName,
	tag.ReferringPhysicianName,
	tag.PerformingPhysicianName,
	tag.OperatorsName,
	tag.StationName,
	tag.AccessionNumber,
}

// SelectTagsToOmit picks count distinct optional tags.
func SelectTagsToOmit(rng *rand.Rand, count int) []tag.Tag {
	if count >= len(OptionalTags) {
		out := make([]tag.Tag, len(OptionalTags))
		copy(out, OptionalTags)
		return out
	}
	indices := rng.Perm(len(OptionalTags))
	result := make([]tag.Tag, count)
	for i := 0; i < count; i++ {
		result[i] = OptionalTags[indices[i]]
	}
	return result
}
