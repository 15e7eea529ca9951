package edgecases

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// OldBirthDate returns a birth date between 1900 and 1950.
func OldBirthDate(rng *rand.Rand) string {
	year := 1900 + rng.IntN(51)
	return fmt.Sprintf("%04d%02d%02d", year, 1+rng.IntN(12), 1+rng.IntN(28))
}

// PartialDate returns a truncated date, YYYY or YYYYMM.
func PartialDate(rng *rand.Rand) string {
	year := 1950 + rng.IntN(50)
	if rng.IntN(2) == 0 {
		return fmt.Sprintf("%04d", year)
	}
	return fmt.Sprintf("%04d%02d", year, 1+rng.IntN(12))
}

// FutureStudyDate returns a study date one to five years after now.
func FutureStudyDate(now time.Time, rng *rand.Rand) string {
	year := now.Year() + 1 + rng.IntN(5)
	return fmt.Sprintf("%04d%02d%02d", year, 1+rng.IntN(12), 1+rng.IntN(28))
}
