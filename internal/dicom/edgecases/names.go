package edgecases

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// MaxLOLength is the longest value a LO or PN component group may carry.
const MaxLOLength = 64

// accented holds names that exercise PN character set handling: accents,
// apostrophes, hyphens and non-Latin-1 letters.
var accented = struct {
	male, female, last []string
}{
	male: []string{
		"Jean-Baptiste", "Gaël", "Anaël", "Joaquín", "Øyvind",
		"Håkon", "Mikołaj", "Dúnán", "Ignác", "D'Artagnan",
	},
	female: []string{
		"Anne-Sophie", "Gwenaëlle", "Ségolène", "Begoña", "Åsa",
		"Małgorzata", "Aoibhín", "Dóra", "Bénédicte", "N'Dèye",
	},
	last: []string{
		"Lévêque-Duchâteau", "O'Sullivan", "Dell'Acqua", "Muñoz-Ibáñez",
		"Þórðarson", "Kjærsgaard", "Öztürk", "Dvořáková",
		"Ní Bhriain", "Grünewald",
	},
}

// oversized components join into names longer than a LO value allows.
var oversized = struct {
	first, last []string
}{
	first: []string{
		"MAXIMILIANFERDINANDALOYSIUS",
		"ANASTASIAKONSTANTINAHELENE",
		"BARTHOLOMEWAUGUSTUSCORNELIUS",
		"GWENDOLYNPERSEPHONEMARGUERITE",
	},
	last: []string{
		"PAPADOPOULOSKARAGIANNIDIS",
		"WOLFESCHLEGELSTEINHAUSEN",
		"VANDERWESTHUIZENDUPLESSIS",
		"HAMILTONFITZGERALDWORTHINGTON",
	},
}

func pick(list []string, rng *rand.Rand) string {
	return list[rng.IntN(len(list))]
}

// SpecialCharName returns a name with accents, apostrophes or hyphens.
func SpecialCharName(sex string, rng *rand.Rand) string {
	first := accented.female
	if sex == "M" {
		first = accented.male
	}
	return pick(accented.last, rng) + "^" + pick(first, rng)
}

// LongPatientName returns a name truncated to MaxLOLength.
func LongPatientName(rng *rand.Rand) string {
	name := pick(oversized.last, rng) + "^" + pick(oversized.first, rng)
	return name[:min(len(name), MaxLOLength)]
}

// LongPatientID returns an ID of exactly MaxLOLength characters.
func LongPatientID(rng *rand.Rand) string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var sb strings.Builder
	for i := 0; i < MaxLOLength; i++ {
		sb.WriteByte(chars[rng.IntN(len(chars))])
	}
	return sb.String()
}

// VariedPatientID returns an ID in one of the formats hospitals actually use:
// dashes, interleaved letters, embedded spaces, maximum length or a mix.
func VariedPatientID(rng *rand.Rand) string {
	switch rng.IntN(5) {
	case 0:
		return fmt.Sprintf("%03d-%03d-%03d", rng.IntN(1000), rng.IntN(1000), rng.IntN(1000))
	case 1:
		const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		var sb strings.Builder
		for i := 0; i < 10; i++ {
			if i%2 == 0 {
				sb.WriteByte(letters[rng.IntN(len(letters))])
			} else {
				sb.WriteByte('0' + byte(rng.IntN(10)))
			}
		}
		return sb.String()
	case 2:
		return fmt.Sprintf("PAT %05d %02d", rng.IntN(100000), rng.IntN(100))
	case 3:
		return LongPatientID(rng)
	default:
		return fmt.Sprintf("PT-%04d-%c%c%c %03d",
			rng.IntN(10000),
			'A'+byte(rng.IntN(26)),
			'A'+byte(rng.IntN(26)),
			'A'+byte(rng.IntN(26)),
			rng.IntN(1000))
	}
}
