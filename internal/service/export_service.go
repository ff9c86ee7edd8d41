package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/circlematch-api/internal/models"
	appErrors "github.com/noah-isme/circlematch-api/pkg/errors"
	"github.com/noah-isme/circlematch-api/pkg/export"
)

type matchReader interface {
	Current(ctx context.Context, year int) (*models.MatchSet, string, error)
	ActiveYear() int
}

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

var matchExportHeaders = []string{"Match ID", "Type", "Teachers", "Rank Score", "Chain", "Locations"}

// ExportService renders the caller's transfer cycles as CSV or PDF.
type ExportService struct {
	teachers  ownerLister
	matches   matchReader
	renderers map[string]Renderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Without renderers it falls
// back to CSV and a PDF exporter using core fonts.
func NewExportService(teachers ownerLister, matches matchReader, logger *zap.Logger, renderers ...Renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(renderers) == 0 {
		renderers = []Renderer{export.NewCSVExporter(), export.NewPDFExporter("")}
	}
	byFormat := make(map[string]Renderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Extension()] = r
	}
	return &ExportService{teachers: teachers, matches: matches, renderers: byFormat, logger: logger}
}

// ExportMatches renders every cycle of the year that involves one of the
// caller's registrations. Only display ids are rendered.
func (s *ExportService) ExportMatches(ctx context.Context, actor models.Actor, year int, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if year <= 0 {
		year = s.matches.ActiveYear()
	}

	owned, err := s.teachers.ListByOwner(ctx, actor.GoogleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	mine := make(map[int64]struct{}, len(owned))
	for _, t := range owned {
		if t.Year == year {
			mine[t.ID] = struct{}{}
		}
	}

	set, _, err := s.matches.Current(ctx, year)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0)
	for _, result := range set.Results {
		if !involvesAny(result, mine) {
			continue
		}
		rows = append(rows, matchRow(result))
	}

	title := fmt.Sprintf("CircleMatch %d (registry v%d)", year, set.Version)
	body, err := renderer.Render(export.Dataset{Headers: matchExportHeaders, Rows: rows}, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Sugar().Infow("matches exported", "google_id", actor.GoogleID, "year", year, "format", format, "rows", len(rows))
	return &ExportFile{
		Filename:    fmt.Sprintf("matches_%d_%s.%s", year, time.Now().UTC().Format("20060102_150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func involvesAny(result models.MatchResult, ids map[int64]struct{}) bool {
	for _, t := range result.Teachers {
		if _, ok := ids[t.ID]; ok {
			return true
		}
	}
	return false
}

func matchRow(result models.MatchResult) map[string]string {
	chain := make([]string, 0, len(result.Teachers)+1)
	locations := make([]string, 0, len(result.Teachers)+1)
	for _, t := range result.Teachers {
		chain = append(chain, t.DisplayID)
		locations = append(locations, t.CurrentCounty+t.CurrentDistrict)
	}
	if len(result.Teachers) > 0 {
		chain = append(chain, result.Teachers[0].DisplayID)
		locations = append(locations, locations[0])
	}
	return map[string]string{
		"Match ID":   result.ID,
		"Type":       result.MatchType,
		"Teachers":   strconv.Itoa(result.CycleLength),
		"Rank Score": strconv.Itoa(result.RankScore),
		"Chain":      strings.Join(chain, " -> "),
		"Locations":  strings.Join(locations, " -> "),
	}
}
