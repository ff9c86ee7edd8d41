package matching

import "strings"

// Location is a (county, district) pair compared by normalised key.
type Location struct {
	County   string
	District string
}

// NewLocation trims both parts and folds the 台/臺 variant so user input
// written either way lands on the same node key.
func NewLocation(county, district string) Location {
	return Location{County: normalize(county), District: normalize(district)}
}

// Valid reports whether both parts are present.
func (l Location) Valid() bool {
	return l.County != "" && l.District != ""
}

func (l Location) key() string {
	return l.County + "\x1f" + l.District
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "台", "臺")
}
