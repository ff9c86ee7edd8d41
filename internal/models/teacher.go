package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Teacher is one registration of a teacher's current post and ranked
// transfer wishes for a single matching year. Target lists are parallel
// arrays: index i of TargetCounties pairs with index i of TargetDistricts,
// and the index is the preference rank.
type Teacher struct {
	ID              int64          `db:"id" json:"id"`
	GoogleID        string         `db:"google_id" json:"google_id"`
	Email           string         `db:"email" json:"email"`
	Year            int            `db:"year" json:"year"`
	CurrentCounty   string         `db:"current_county" json:"current_county"`
	CurrentDistrict string         `db:"current_district" json:"current_district"`
	CurrentSchool   string         `db:"current_school" json:"current_school"`
	Subject         string         `db:"subject" json:"subject"`
	TargetCounties  pq.StringArray `db:"target_counties" json:"target_counties"`
	TargetDistricts pq.StringArray `db:"target_districts" json:"target_districts"`
	DisplayID       string         `db:"-" json:"display_id"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// DisplayID renders the de-identified label shown instead of contact details.
func DisplayID(county, district string, id int64) string {
	return fmt.Sprintf("%s%s#%d", county, district, id)
}

// Finalize fills derived fields after a load or insert.
func (t *Teacher) Finalize() {
	if t.TargetCounties == nil {
		t.TargetCounties = pq.StringArray{}
	}
	if t.TargetDistricts == nil {
		t.TargetDistricts = pq.StringArray{}
	}
	t.DisplayID = DisplayID(t.CurrentCounty, t.CurrentDistrict, t.ID)
}

// Public strips owner identity and contact details.
func (t Teacher) Public() PublicTeacher {
	return PublicTeacher{
		ID:              t.ID,
		DisplayID:       DisplayID(t.CurrentCounty, t.CurrentDistrict, t.ID),
		Year:            t.Year,
		CurrentCounty:   t.CurrentCounty,
		CurrentDistrict: t.CurrentDistrict,
		CurrentSchool:   t.CurrentSchool,
		Subject:         t.Subject,
		TargetCounties:  append([]string{}, t.TargetCounties...),
		TargetDistricts: append([]string{}, t.TargetDistricts...),
	}
}

// PublicTeacher is the teacher profile embedded in match results.
type PublicTeacher struct {
	ID              int64    `json:"id"`
	DisplayID       string   `json:"display_id"`
	Year            int      `json:"year"`
	CurrentCounty   string   `json:"current_county"`
	CurrentDistrict string   `json:"current_district"`
	CurrentSchool   string   `json:"current_school"`
	Subject         string   `json:"subject"`
	TargetCounties  []string `json:"target_counties"`
	TargetDistricts []string `json:"target_districts"`
}

// TeacherContact is returned by the explicit contact lookup only.
type TeacherContact struct {
	ID        int64  `json:"id"`
	DisplayID string `json:"display_id"`
	Email     string `json:"email"`
}

// RegistrySnapshot is a consistent read of one year of the registry.
type RegistrySnapshot struct {
	Year     int
	Version  int64
	Teachers []Teacher
}
