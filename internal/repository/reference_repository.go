package repository

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/circlematch-api/internal/models"
)

//go:embed data/districts.yaml data/subjects.yaml
var referenceFS embed.FS

// ReferenceRepository serves the static county, district and subject lists.
type ReferenceRepository struct {
	counties []models.County
	subjects []string
}

// NewReferenceRepository decodes the embedded reference data.
func NewReferenceRepository() (*ReferenceRepository, error) {
	var districts struct {
		Counties []models.County `yaml:"counties"`
	}
	if err := decodeEmbedded("data/districts.yaml", &districts); err != nil {
		return nil, err
	}
	var subjects struct {
		Subjects []string `yaml:"subjects"`
	}
	if err := decodeEmbedded("data/subjects.yaml", &subjects); err != nil {
		return nil, err
	}
	return &ReferenceRepository{counties: districts.Counties, subjects: subjects.Subjects}, nil
}

func decodeEmbedded(name string, dest interface{}) error {
	raw, err := referenceFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Counties returns a copy of the county list in display order.
func (r *ReferenceRepository) Counties() []models.County {
	out := make([]models.County, len(r.counties))
	for i, c := range r.counties {
		out[i] = models.County{County: c.County, Districts: append([]string{}, c.Districts...)}
	}
	return out
}

// Subjects returns a copy of the subject list.
func (r *ReferenceRepository) Subjects() []string {
	return append([]string{}, r.subjects...)
}
