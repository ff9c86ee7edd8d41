package models

// County groups the districts of one county or municipality.
type County struct {
	County    string   `yaml:"county" json:"county"`
	Districts []string `yaml:"districts" json:"districts"`
}
