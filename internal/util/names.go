package util

import (
	"math/rand/v2"
	"strings"
)

// namePool is one locale's first and last names.
type namePool struct {
	male   []string
	female []string
	last   []string
	weight float64
}

// pools are drawn by weight; the weights sum to 1.
var pools = []namePool{
	{
		weight: 0.6,
		male: []string{
			"James", "John", "Robert", "Michael", "William", "David", "Thomas", "Daniel",
			"Matthew", "Andrew", "Kevin", "Brian", "George", "Edward", "Ryan", "Nathan",
			"Samuel", "Henry", "Peter", "Owen", "Isaac", "Caleb", "Ian", "Connor",
		},
		female: []string{
			"Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Susan", "Jessica", "Sarah",
			"Karen", "Emily", "Laura", "Rachel", "Hannah", "Olivia", "Grace", "Chloe",
			"Abigail", "Megan", "Julia", "Alice", "Ruth", "Fiona", "Helen", "Claire",
		},
		last: []string{
			"SMITH", "JOHNSON", "WILLIAMS", "BROWN", "JONES", "MILLER", "DAVIS", "WILSON",
			"ANDERSON", "TAYLOR", "MOORE", "JACKSON", "WHITE", "HARRIS", "CLARK", "LEWIS",
			"WALKER", "HALL", "ALLEN", "YOUNG", "KING", "WRIGHT", "SCOTT", "GREEN",
		},
	},
	{
		weight: 0.25,
		male: []string{
			"Lucas", "Hugo", "Louis", "Gabriel", "Arthur", "Jules", "Mathis", "Théo",
			"Raphaël", "Étienne", "Antoine", "Baptiste", "Mathéo", "Clément", "Rémi", "Loïc",
		},
		female: []string{
			"Camille", "Léa", "Manon", "Chloé", "Inès", "Jade", "Louise", "Zoé",
			"Anaïs", "Élise", "Margaux", "Océane", "Clémence", "Juliette", "Noémie", "Maëlle",
		},
		last: []string{
			"MARTIN", "BERNARD", "DUBOIS", "THOMAS", "ROBERT", "RICHARD", "PETIT", "DURAND",
			"LEROY", "MOREAU", "SIMON", "LAURENT", "LEFEBVRE", "MICHEL", "FOURNIER", "GIRARD",
		},
	},
	{
		weight: 0.15,
		male: []string{
			"Lars", "Jonas", "Felix", "Matteo", "Luca", "Pablo", "Javier", "Mikkel",
		},
		female: []string{
			"Ingrid", "Freya", "Sofia", "Giulia", "Lucía", "Carmen", "Astrid", "Elena",
		},
		last: []string{
			"HANSEN", "JENSEN", "ROSSI", "BIANCHI", "GARCIA", "FERNANDEZ", "SCHNEIDER", "FISCHER",
		},
	},
}

// PersonName returns a random "LAST^First" person name. Sex "M" draws male
// first names; anything else draws female ones.
func PersonName(sex string, rng *rand.Rand) string {
	p := pickPool(rng)
	first := p.female
	if strings.EqualFold(strings.TrimSpace(sex), "M") {
		first = p.male
	}
	return p.last[rng.IntN(len(p.last))] + "^" + first[rng.IntN(len(first))]
}

// PhysicianName returns a person name with the "Dr" prefix component.
func PhysicianName(rng *rand.Rand) string {
	sex := "F"
	if rng.IntN(2) == 0 {
		sex = "M"
	}
	return PersonName(sex, rng) + "^^Dr"
}

func pickPool(rng *rand.Rand) namePool {
	x := rng.Float64()
	for _, p := range pools {
		if x < p.weight {
			return p
		}
		x -= p.weight
	}
	return pools[0]
}
