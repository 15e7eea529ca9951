// Package util provides the PHI tag registry and small helpers shared by the
// export pipeline and the sample generator.
package util

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// TagCategory describes what kind of protected information a tag holds and
// therefore how it is de-identified.
type TagCategory int

const (
	// CategoryIdentifier holds direct identifiers and demographics. Blanked.
	CategoryIdentifier TagCategory = iota
	// CategoryPersonName holds person names. Replaced by a fixed literal.
	CategoryPersonName
	// CategoryFreeText holds free text that may name people or places. Blanked.
	CategoryFreeText
	// CategoryUID holds instance UIDs that link files together. Regenerated.
	CategoryUID
)

// String returns the string representation of a TagCategory.
func (c TagCategory) String() string {
	switch c {
	case CategoryIdentifier:
		return "identifier"
	case CategoryPersonName:
		return "person-name"
	case CategoryFreeText:
		return "free-text"
	case CategoryUID:
		return "uid"
	default:
		return "unknown"
	}
}

// TagInfo contains information about a de-identifiable DICOM tag.
type TagInfo struct {
	Name     string
	Tag      tag.Tag
	Category TagCategory
	// Default marks the tags de-identified on every export.
	Default bool
}

// tagRegistry maps lowercase tag names to their TagInfo.
var tagRegistry = map[string]TagInfo{
	// Always de-identified
	"patientname":                {Name: "PatientName", Tag: tag.PatientName, Category: CategoryPersonName, Default: true},
	"patientid":                  {Name: "PatientID", Tag: tag.PatientID, Category: CategoryIdentifier, Default: true},
	"patientbirthdate":           {Name: "PatientBirthDate", Tag: tag.PatientBirthDate, Category: CategoryIdentifier, Default: true},
	"patientsex":                 {Name: "PatientSex", Tag: tag.PatientSex, Category: CategoryIdentifier, Default: true},
	"institutionname":            {Name: "InstitutionName", Tag: tag.InstitutionName, Category: CategoryFreeText, Default: true},
	"referringphysicianname":     {Name: "ReferringPhysicianName", Tag: tag.ReferringPhysicianName, Category: CategoryPersonName, Default: true},
	"accessionnumber":            {Name: "AccessionNumber", Tag: tag.AccessionNumber, Category: CategoryIdentifier, Default: true},
	"studyinstanceuid":           {Name: "StudyInstanceUID", Tag: tag.StudyInstanceUID, Category: CategoryUID, Default: true},
	"seriesinstanceuid":          {Name: "SeriesInstanceUID", Tag: tag.SeriesInstanceUID, Category: CategoryUID, Default: true},
	"sopinstanceuid":             {Name: "SOPInstanceUID", Tag: tag.SOPInstanceUID, Category: CategoryUID, Default: true},
	"mediastoragesopinstanceuid": {Name: "MediaStorageSOPInstanceUID", Tag: tag.MediaStorageSOPInstanceUID, Category: CategoryUID, Default: true},

	// Opt-in
	"patientage":                    {Name: "PatientAge", Tag: tag.PatientAge, Category: CategoryIdentifier},
	"patientaddress":                {Name: "PatientAddress", Tag: tag.PatientAddress, Category: CategoryFreeText},
	"institutionaddress":            {Name: "InstitutionAddress", Tag: tag.InstitutionAddress, Category: CategoryFreeText},
	"institutionaldepartmentname":   {Name: "InstitutionalDepartmentName", Tag: tag.InstitutionalDepartmentName, Category: CategoryFreeText},
	"stationname":                   {Name: "StationName", Tag: tag.StationName, Category: CategoryFreeText},
	"studydescription":              {Name: "StudyDescription", Tag: tag.StudyDescription, Category: CategoryFreeText},
	"requestedproceduredescription": {Name: "RequestedProcedureDescription", Tag: tag.RequestedProcedureDescription, Category: CategoryFreeText},
	"studyid":                       {Name: "StudyID", Tag: tag.StudyID, Category: CategoryIdentifier},
	"studydate":                     {Name: "StudyDate", Tag: tag.StudyDate, Category: CategoryIdentifier},
	"deviceserialnumber":            {Name: "DeviceSerialNumber", Tag: tag.DeviceSerialNumber, Category: CategoryIdentifier},
	"performingphysicianname":       {Name: "PerformingPhysicianName", Tag: tag.PerformingPhysicianName, Category: CategoryPersonName},
	"operatorsname":                 {Name: "OperatorsName", Tag: tag.OperatorsName, Category: CategoryPersonName},
	"frameofreferenceuid":           {Name: "FrameOfReferenceUID", Tag: tag.FrameOfReferenceUID, Category: CategoryUID},
}

// GetTagByName returns TagInfo for a given tag name.
// The lookup is case-insensitive. If the tag is not found, an error is returned
// with a suggestion for the closest matching tag name (using Levenshtein distance).
func GetTagByName(name string) (TagInfo, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(name))

	if info, ok := tagRegistry[normalizedName]; ok {
		return info, nil
	}

	suggestion := findClosestTagName(normalizedName)
	if suggestion != "" {
		return TagInfo{}, fmt.Errorf("unknown tag %q, did you mean %q?", name, suggestion)
	}

	return TagInfo{}, fmt.Errorf("unknown tag %q", name)
}

// DefaultTags returns the tags de-identified on every export, sorted by name.
func DefaultTags() []TagInfo {
	var out []TagInfo
	for _, info := range tagRegistry {
		if info.Default {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ParseTagNames resolves a list of tag names, reporting the first unknown one.
func ParseTagNames(names []string) ([]TagInfo, error) {
	out := make([]TagInfo, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		info, err := GetTagByName(n)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// findClosestTagName finds the closest matching tag name using Levenshtein distance.
// Returns empty string if no close match is found (distance > 5).
func findClosestTagName(input string) string {
	const maxDistance = 5
	bestDistance := maxDistance + 1
	var bestMatch string

	for key, info := range tagRegistry {
		distance := levenshteinDistance(input, key)
		if distance < bestDistance || (distance == bestDistance && info.Name < bestMatch) {
			bestDistance = distance
			bestMatch = info.Name
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshteinDistance calculates the minimum number of single-character edits
// needed to turn a into b.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
