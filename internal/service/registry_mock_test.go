package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/circlematch-api/internal/models"
)

// fakeRegistry is an in-memory teacher registry with per-year versions.
type fakeRegistry struct {
	mu            sync.Mutex
	nextID        int64
	teachers      map[int64]models.Teacher
	versions      map[int]int64
	snapshotDelay time.Duration
	snapshotErr   error
	snapshots     int32
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{teachers: map[int64]models.Teacher{}, versions: map[int]int64{}}
}

func (f *fakeRegistry) add(googleID string, year int, county, district string, targets ...string) models.Teacher {
	var counties, districts pq.StringArray
	for i := 0; i+1 < len(targets); i += 2 {
		counties = append(counties, targets[i])
		districts = append(districts, targets[i+1])
	}
	teacher := models.Teacher{
		GoogleID:        googleID,
		Email:           googleID + "@example.com",
		Year:            year,
		CurrentCounty:   county,
		CurrentDistrict: district,
		TargetCounties:  counties,
		TargetDistricts: districts,
	}
	_ = f.Create(context.Background(), &teacher)
	return teacher
}

func (f *fakeRegistry) ListByOwner(ctx context.Context, googleID string) ([]models.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Teacher
	for _, t := range f.teachers {
		if t.GoogleID == googleID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRegistry) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (f *fakeRegistry) Create(ctx context.Context, teacher *models.Teacher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	teacher.ID = f.nextID
	teacher.CreatedAt = time.Now().UTC()
	teacher.UpdatedAt = teacher.CreatedAt
	teacher.Finalize()
	f.teachers[teacher.ID] = *teacher
	f.versions[teacher.Year]++
	return nil
}

func (f *fakeRegistry) Update(ctx context.Context, teacher *models.Teacher, previousYear int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teachers[teacher.ID]; !ok {
		return sql.ErrNoRows
	}
	teacher.UpdatedAt = time.Now().UTC()
	teacher.Finalize()
	f.teachers[teacher.ID] = *teacher
	f.versions[teacher.Year]++
	if previousYear != teacher.Year {
		f.versions[previousYear]++
	}
	return nil
}

func (f *fakeRegistry) Delete(ctx context.Context, id int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teachers[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	delete(f.teachers, id)
	f.versions[t.Year]++
	return t.Year, nil
}

func (f *fakeRegistry) CurrentVersion(ctx context.Context, year int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versions[year], nil
}

func (f *fakeRegistry) Snapshot(ctx context.Context, year int) (*models.RegistrySnapshot, error) {
	atomic.AddInt32(&f.snapshots, 1)
	if f.snapshotDelay > 0 {
		time.Sleep(f.snapshotDelay)
	}
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := &models.RegistrySnapshot{Year: year, Version: f.versions[year]}
	for _, t := range f.teachers {
		if t.Year == year {
			snapshot.Teachers = append(snapshot.Teachers, t)
		}
	}
	sort.Slice(snapshot.Teachers, func(i, j int) bool { return snapshot.Teachers[i].ID < snapshot.Teachers[j].ID })
	return snapshot, nil
}

func (f *fakeRegistry) snapshotCount() int {
	return int(atomic.LoadInt32(&f.snapshots))
}
