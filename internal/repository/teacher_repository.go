package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/circlematch-api/internal/models"
)

const teacherColumns = "id, google_id, email, year, current_county, current_district, current_school, subject, target_counties, target_districts, created_at, updated_at"

// QueryObserver receives database query timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// TeacherRepository manages persistence for teacher registrations. Every
// mutation bumps the registry version of the affected year inside the same
// transaction.
type TeacherRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewTeacherRepository constructs a TeacherRepository. observer may be nil.
func NewTeacherRepository(db *sqlx.DB, observer QueryObserver) *TeacherRepository {
	return &TeacherRepository{db: db, observer: observer}
}

func (r *TeacherRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// ListByOwner returns every registration owned by the Google account.
func (r *TeacherRepository) ListByOwner(ctx context.Context, googleID string) ([]models.Teacher, error) {
	defer r.observe("teachers.list_by_owner", time.Now())

	query := "SELECT " + teacherColumns + " FROM teachers WHERE google_id = $1 ORDER BY year DESC, id ASC"
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, googleID); err != nil {
		return nil, fmt.Errorf("list teachers by owner: %w", err)
	}
	for i := range teachers {
		teachers[i].Finalize()
	}
	return teachers, nil
}

// FindByID fetches a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	defer r.observe("teachers.find_by_id", time.Now())

	var teacher models.Teacher
	query := "SELECT " + teacherColumns + " FROM teachers WHERE id = $1"
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	teacher.Finalize()
	return &teacher, nil
}

// Create inserts a registration and assigns its id.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	defer r.observe("teachers.create", time.Now())

	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `INSERT INTO teachers (google_id, email, year, current_county, current_district, current_school, subject, target_counties, target_districts, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
		if err := tx.QueryRowxContext(ctx, query,
			teacher.GoogleID, teacher.Email, teacher.Year,
			teacher.CurrentCounty, teacher.CurrentDistrict, teacher.CurrentSchool, teacher.Subject,
			teacher.TargetCounties, teacher.TargetDistricts,
			teacher.CreatedAt, teacher.UpdatedAt,
		).Scan(&teacher.ID); err != nil {
			return fmt.Errorf("insert teacher: %w", err)
		}
		teacher.Finalize()
		return bumpVersion(ctx, tx, teacher.Year)
	})
}

// Update replaces the mutable fields of a registration. When the year
// changed, both the previous and the new year are bumped. Returns
// sql.ErrNoRows when the record vanished.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher, previousYear int) error {
	defer r.observe("teachers.update", time.Now())

	teacher.UpdatedAt = time.Now().UTC()

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `UPDATE teachers SET year = $1, current_county = $2, current_district = $3, current_school = $4, subject = $5,
target_counties = $6, target_districts = $7, updated_at = $8 WHERE id = $9`
		res, err := tx.ExecContext(ctx, query,
			teacher.Year, teacher.CurrentCounty, teacher.CurrentDistrict, teacher.CurrentSchool, teacher.Subject,
			teacher.TargetCounties, teacher.TargetDistricts, teacher.UpdatedAt, teacher.ID,
		)
		if err != nil {
			return fmt.Errorf("update teacher: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return sql.ErrNoRows
		}
		teacher.Finalize()
		if err := bumpVersion(ctx, tx, teacher.Year); err != nil {
			return err
		}
		if previousYear != 0 && previousYear != teacher.Year {
			return bumpVersion(ctx, tx, previousYear)
		}
		return nil
	})
}

// Delete removes a registration and returns the year it belonged to.
func (r *TeacherRepository) Delete(ctx context.Context, id int64) (int, error) {
	defer r.observe("teachers.delete", time.Now())

	var year int
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, "DELETE FROM teachers WHERE id = $1 RETURNING year", id).Scan(&year); err != nil {
			return err
		}
		return bumpVersion(ctx, tx, year)
	})
	if err != nil {
		return 0, err
	}
	return year, nil
}

// CurrentVersion returns the registry version of a year, zero when the
// year has never been written.
func (r *TeacherRepository) CurrentVersion(ctx context.Context, year int) (int64, error) {
	defer r.observe("registry_versions.current", time.Now())

	var version int64
	err := r.db.GetContext(ctx, &version, "SELECT version FROM registry_versions WHERE year = $1", year)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read registry version: %w", err)
	}
	return version, nil
}

// Snapshot reads the version and all registrations of a year inside one
// read-only repeatable-read transaction.
func (r *TeacherRepository) Snapshot(ctx context.Context, year int) (*models.RegistrySnapshot, error) {
	defer r.observe("teachers.snapshot", time.Now())

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	snapshot := &models.RegistrySnapshot{Year: year}
	if err := tx.GetContext(ctx, &snapshot.Version, "SELECT version FROM registry_versions WHERE year = $1", year); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("snapshot version: %w", err)
		}
		snapshot.Version = 0
	}

	query := "SELECT " + teacherColumns + " FROM teachers WHERE year = $1 ORDER BY id ASC"
	if err := tx.SelectContext(ctx, &snapshot.Teachers, query, year); err != nil {
		return nil, fmt.Errorf("snapshot teachers: %w", err)
	}
	for i := range snapshot.Teachers {
		snapshot.Teachers[i].Finalize()
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}
	return snapshot, nil
}

// Ping verifies the database connection for readiness checks.
func (r *TeacherRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *TeacherRepository) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func bumpVersion(ctx context.Context, tx *sqlx.Tx, year int) error {
	query := `INSERT INTO registry_versions (year, version, updated_at) VALUES ($1, 1, NOW())
ON CONFLICT (year) DO UPDATE SET version = registry_versions.version + 1, updated_at = NOW()`
	if _, err := tx.ExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("bump registry version: %w", err)
	}
	return nil
}
