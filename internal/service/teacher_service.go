package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/circlematch-api/internal/models"
	appErrors "github.com/noah-isme/circlematch-api/pkg/errors"
)

type teacherRepository interface {
	ListByOwner(ctx context.Context, googleID string) ([]models.Teacher, error)
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher, previousYear int) error
	Delete(ctx context.Context, id int64) (int, error)
}

// matchDirectory is the slice of MatchService the registry depends on.
type matchDirectory interface {
	Current(ctx context.Context, year int) (*models.MatchSet, string, error)
	RegistryChanged(ctx context.Context, years ...int)
}

// TeacherRequest is the payload of create and update. Target lists are
// parallel and ordered by preference.
type TeacherRequest struct {
	Year            int      `json:"year" validate:"omitempty,min=1,max=999"`
	CurrentCounty   string   `json:"current_county" validate:"required,max=16"`
	CurrentDistrict string   `json:"current_district" validate:"required,max=16"`
	CurrentSchool   string   `json:"current_school" validate:"max=128"`
	Subject         string   `json:"subject" validate:"max=64"`
	TargetCounties  []string `json:"target_counties" validate:"max=50,dive,required,max=16"`
	TargetDistricts []string `json:"target_districts" validate:"max=50,dive,required,max=16"`
}

func (r *TeacherRequest) normalize() {
	r.CurrentCounty = strings.TrimSpace(r.CurrentCounty)
	r.CurrentDistrict = strings.TrimSpace(r.CurrentDistrict)
	r.CurrentSchool = strings.TrimSpace(r.CurrentSchool)
	r.Subject = strings.TrimSpace(r.Subject)
	for i := range r.TargetCounties {
		r.TargetCounties[i] = strings.TrimSpace(r.TargetCounties[i])
	}
	for i := range r.TargetDistricts {
		r.TargetDistricts[i] = strings.TrimSpace(r.TargetDistricts[i])
	}
}

// TeacherService manages teacher registrations on behalf of their owners.
type TeacherService struct {
	repo       teacherRepository
	matches    matchDirectory
	validator  *validator.Validate
	logger     *zap.Logger
	activeYear int
}

// NewTeacherService constructs the service.
func NewTeacherService(repo teacherRepository, matches matchDirectory, validate *validator.Validate, logger *zap.Logger, activeYear int) *TeacherService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, matches: matches, validator: validate, logger: logger, activeYear: activeYear}
}

// ListByOwner returns the registrations of googleID. Owners may only list
// their own records; an empty googleID means the caller.
func (s *TeacherService) ListByOwner(ctx context.Context, actor models.Actor, googleID string) ([]models.Teacher, error) {
	googleID = strings.TrimSpace(googleID)
	if googleID == "" {
		googleID = actor.GoogleID
	}
	if googleID != actor.GoogleID && !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot list another owner's teachers")
	}
	teachers, err := s.repo.ListByOwner(ctx, googleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return teachers, nil
}

// Create registers a teacher owned by the caller.
func (s *TeacherService) Create(ctx context.Context, actor models.Actor, req TeacherRequest) (*models.Teacher, error) {
	if actor.GoogleID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing identity")
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		GoogleID: actor.GoogleID,
		Email:    actor.Email,
		Year:     s.yearOrActive(req.Year),
	}
	applyRequest(teacher, req)

	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.logger.Sugar().Infow("teacher registered", "teacher_id", teacher.ID, "year", teacher.Year, "targets", len(teacher.TargetCounties))
	s.notify(ctx, teacher.Year)
	return teacher, nil
}

// Update replaces the location, subject, targets and year of a teacher.
func (s *TeacherService) Update(ctx context.Context, actor models.Actor, id int64, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	teacher, err := s.ownedTeacher(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	previousYear := teacher.Year
	if req.Year > 0 {
		teacher.Year = req.Year
	}
	applyRequest(teacher, req)

	if err := s.repo.Update(ctx, teacher, previousYear); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	s.notify(ctx, teacher.Year, previousYear)
	return teacher, nil
}

// Delete removes a teacher owned by the caller.
func (s *TeacherService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if _, err := s.ownedTeacher(ctx, actor, id); err != nil {
		return err
	}
	year, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	s.logger.Sugar().Infow("teacher deleted", "teacher_id", id, "year", year)
	s.notify(ctx, year)
	return nil
}

// Contact reveals a teacher's email to the owner of a registration that
// shares a transfer cycle with it in the current match set.
func (s *TeacherService) Contact(ctx context.Context, actor models.Actor, id int64) (*models.TeacherContact, error) {
	target, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	contact := &models.TeacherContact{ID: target.ID, DisplayID: target.DisplayID, Email: target.Email}
	if target.GoogleID == actor.GoogleID || actor.IsAdmin() {
		return contact, nil
	}

	owned, err := s.repo.ListByOwner(ctx, actor.GoogleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	mine := make(map[int64]struct{}, len(owned))
	for _, t := range owned {
		if t.Year == target.Year {
			mine[t.ID] = struct{}{}
		}
	}
	if len(mine) == 0 || s.matches == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "contact is only shared between cycle partners")
	}

	set, _, err := s.matches.Current(ctx, target.Year)
	if err != nil {
		return nil, err
	}
	for _, result := range set.Results {
		if !result.Involves(target.ID) {
			continue
		}
		for _, member := range result.Teachers {
			if _, ok := mine[member.ID]; ok {
				return contact, nil
			}
		}
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "contact is only shared between cycle partners")
}

func (s *TeacherService) validate(req *TeacherRequest) error {
	req.normalize()
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	if req.Year > 0 && !yearInWindow(s.activeYear, req.Year) {
		return yearOutOfWindow(s.activeYear)
	}
	if len(req.TargetCounties) != len(req.TargetDistricts) {
		return appErrors.Clone(appErrors.ErrValidation, "target_counties and target_districts must have the same length")
	}
	return nil
}

func (s *TeacherService) ownedTeacher(ctx context.Context, actor models.Actor, id int64) (*models.Teacher, error) {
	teacher, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if teacher.GoogleID != actor.GoogleID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher belongs to another account")
	}
	return teacher, nil
}

func (s *TeacherService) find(ctx context.Context, id int64) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func (s *TeacherService) notify(ctx context.Context, years ...int) {
	if s.matches != nil {
		s.matches.RegistryChanged(ctx, years...)
	}
}

func (s *TeacherService) yearOrActive(year int) int {
	if year > 0 {
		return year
	}
	return s.activeYear
}

func applyRequest(teacher *models.Teacher, req TeacherRequest) {
	teacher.CurrentCounty = req.CurrentCounty
	teacher.CurrentDistrict = req.CurrentDistrict
	teacher.CurrentSchool = req.CurrentSchool
	teacher.Subject = req.Subject
	teacher.TargetCounties = append(pq.StringArray{}, req.TargetCounties...)
	teacher.TargetDistricts = append(pq.StringArray{}, req.TargetDistricts...)
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "max":
			return fe.Field() + " is too long"
		}
		return fe.Field() + " is invalid"
	}
	return "invalid teacher payload"
}
