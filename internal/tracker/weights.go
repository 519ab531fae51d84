package tracker

import "strings"

// The two people whose weights are logged.
const (
	UserAndy      = "Andy"
	UserPetronela = "Petronela"
)

// WeightPair holds the last logged weight of each person for one exercise.
// Values are digit strings as typed by the user, e.g. "22.5".
type WeightPair struct {
	Andy      string `json:"Andy"`
	Petronela string `json:"Petronela"`
}

// SanitizeWeight drops every character that is not an ASCII digit or a dot.
// It does not check that the result is a valid decimal: "1.2.3" is kept.
func SanitizeWeight(v string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, v)
}

func (p WeightPair) Sanitized() WeightPair {
	return WeightPair{
		Andy:      SanitizeWeight(p.Andy),
		Petronela: SanitizeWeight(p.Petronela),
	}
}
