package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/circlematch-api/internal/matching"
	"github.com/noah-isme/circlematch-api/internal/models"
	appErrors "github.com/noah-isme/circlematch-api/pkg/errors"
	"github.com/noah-isme/circlematch-api/pkg/jobs"
)

// Sources reported through the X-Cache header.
const (
	MatchSourceMemory   = "HIT-MEMORY"
	MatchSourceRedis    = "HIT-REDIS"
	MatchSourceComputed = "MISS"
)

const recomputeJobType = "match.recompute"

// yearWindow bounds how far from the active year a match set may be
// computed, keeping per-year state and metric series finite.
const yearWindow = 5

func yearInWindow(activeYear, year int) bool {
	return year > 0 && year >= activeYear-yearWindow && year <= activeYear+yearWindow
}

func yearOutOfWindow(activeYear int) error {
	return appErrors.Clone(appErrors.ErrValidation,
		fmt.Sprintf("year must be between %d and %d", max(activeYear-yearWindow, 1), activeYear+yearWindow))
}

type matchRegistry interface {
	CurrentVersion(ctx context.Context, year int) (int64, error)
	Snapshot(ctx context.Context, year int) (*models.RegistrySnapshot, error)
}

// MatchServiceConfig tunes result caching and background recomputation.
type MatchServiceConfig struct {
	ActiveYear        int
	CacheTTL          time.Duration
	RecomputeInterval time.Duration
	Workers           int
}

// MatchListing is a filtered read of one year's match set.
type MatchListing struct {
	Year            int
	Version         int64
	Results         []models.MatchResult
	Truncated       bool
	TruncatedReason string
	Source          string
}

// MatchService computes transfer cycles from registry snapshots and keeps
// the latest result per year in process and in Redis. Results are keyed by
// the registry version they were computed from, so a mutation makes every
// older result unreachable.
type MatchService struct {
	repo    matchRegistry
	matcher *matching.Matcher
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     MatchServiceConfig

	group singleflight.Group
	store *matchStore
	queue *jobs.Queue

	stopMu  sync.Mutex
	stopTic context.CancelFunc
	tickWG  sync.WaitGroup
}

// NewMatchService wires the matcher to the registry. cache and metrics may be nil.
func NewMatchService(repo matchRegistry, matcher *matching.Matcher, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg MatchServiceConfig) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if matcher == nil {
		matcher = matching.New(matching.Options{})
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	svc := &MatchService{
		repo:    repo,
		matcher: matcher,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		store:   newMatchStore(),
	}
	svc.queue = jobs.NewQueue("match-recompute", svc.handleRecompute, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
		OnResult: func(job jobs.Job, err error) {
			metrics.RecordRecomputeJob(err)
		},
	})
	return svc
}

// ActiveYear returns the year served when a request names none.
func (s *MatchService) ActiveYear() int {
	return s.cfg.ActiveYear
}

// Start launches the recompute workers and, when configured, the periodic
// refresh of the active year.
func (s *MatchService) Start(ctx context.Context) {
	s.queue.Start(ctx)

	if s.cfg.RecomputeInterval <= 0 {
		return
	}
	tickCtx, cancel := context.WithCancel(ctx)
	s.stopMu.Lock()
	s.stopTic = cancel
	s.stopMu.Unlock()

	s.tickWG.Add(1)
	go func() {
		defer s.tickWG.Done()
		ticker := time.NewTicker(s.cfg.RecomputeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				if err := s.ScheduleRecompute(s.cfg.ActiveYear); err != nil {
					s.logger.Sugar().Warnw("periodic recompute not scheduled", "year", s.cfg.ActiveYear, "error", err)
				}
			}
		}
	}()
}

// Stop halts the ticker and waits for in-flight jobs.
func (s *MatchService) Stop() {
	s.stopMu.Lock()
	if s.stopTic != nil {
		s.stopTic()
		s.stopTic = nil
	}
	s.stopMu.Unlock()
	s.tickWG.Wait()
	s.queue.Stop()
}

// List returns the match results of a year, optionally only those involving
// one teacher, in rank order.
func (s *MatchService) List(ctx context.Context, query models.MatchQuery) (*MatchListing, error) {
	set, source, err := s.Current(ctx, s.resolveYear(query.Year))
	if err != nil {
		return nil, err
	}

	results := set.Results
	if query.TeacherID > 0 {
		filtered := make([]models.MatchResult, 0)
		for _, result := range set.Results {
			if result.Involves(query.TeacherID) {
				filtered = append(filtered, result)
			}
		}
		results = filtered
	}

	return &MatchListing{
		Year:            set.Year,
		Version:         set.Version,
		Results:         results,
		Truncated:       set.Truncated,
		TruncatedReason: set.TruncatedReason,
		Source:          source,
	}, nil
}

// Current returns the match set of the year's current registry version,
// computing it when neither the process store nor Redis holds it.
func (s *MatchService) Current(ctx context.Context, year int) (*models.MatchSet, string, error) {
	if !yearInWindow(s.cfg.ActiveYear, year) {
		return nil, "", yearOutOfWindow(s.cfg.ActiveYear)
	}
	version, err := s.repo.CurrentVersion(ctx, year)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read registry version")
	}

	if set, ok := s.store.get(year, version); ok {
		return set, MatchSourceMemory, nil
	}

	var cached models.MatchSet
	if hit, _ := s.cache.Get(ctx, matchCacheKey(year, version), &cached); hit && cached.Version == version {
		s.store.put(&cached)
		return &cached, MatchSourceRedis, nil
	}

	key := matchCacheKey(year, version)
	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.compute(context.WithoutCancel(ctx), year)
	})
	if err != nil {
		return nil, "", err
	}
	return value.(*models.MatchSet), MatchSourceComputed, nil
}

// Recompute forces a fresh computation of a year from a new snapshot.
func (s *MatchService) Recompute(ctx context.Context, year int) (*models.MatchSet, error) {
	year = s.resolveYear(year)
	if !yearInWindow(s.cfg.ActiveYear, year) {
		return nil, yearOutOfWindow(s.cfg.ActiveYear)
	}
	return s.compute(ctx, year)
}

// ScheduleRecompute queues a background computation for the year. Requests
// for a year that is already queued are coalesced.
func (s *MatchService) ScheduleRecompute(year int) error {
	year = s.resolveYear(year)
	if !yearInWindow(s.cfg.ActiveYear, year) {
		return yearOutOfWindow(s.cfg.ActiveYear)
	}
	err := s.queue.Enqueue(jobs.Job{
		Type:    recomputeJobType,
		Key:     fmt.Sprintf("year:%d", year),
		Payload: year,
	})
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			return appErrors.Wrap(err, appErrors.ErrTooManyRequests.Code, appErrors.ErrTooManyRequests.Status, "recompute queue is full")
		}
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "recompute queue unavailable")
	}
	return nil
}

// RegistryChanged drops results of the given years and schedules their
// recomputation. Cache failures are logged only; version keys already keep
// stale entries from being served.
func (s *MatchService) RegistryChanged(ctx context.Context, years ...int) {
	seen := make(map[int]struct{}, len(years))
	for _, year := range years {
		if year <= 0 {
			continue
		}
		if _, dup := seen[year]; dup {
			continue
		}
		seen[year] = struct{}{}

		s.store.drop(year)
		_ = s.cache.Invalidate(ctx, fmt.Sprintf("matches:%d:*", year))
		if err := s.ScheduleRecompute(year); err != nil {
			s.logger.Sugar().Warnw("recompute not scheduled", "year", year, "error", err)
		}
	}
}

func (s *MatchService) compute(ctx context.Context, year int) (*models.MatchSet, error) {
	snapshot, err := s.repo.Snapshot(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read registry snapshot")
	}

	set := BuildMatchSet(ctx, s.matcher, snapshot)
	s.metrics.ObserveMatchComputation(year, len(set.Results), time.Duration(set.Stats.DurationMs)*time.Millisecond, set.TruncatedReason)

	if set.Truncated {
		s.logger.Sugar().Warnw("match computation truncated",
			"year", year, "version", set.Version, "reason", set.TruncatedReason, "cycles", len(set.Results))
	} else {
		s.logger.Sugar().Infow("match computation finished",
			"year", year, "version", set.Version, "cycles", len(set.Results), "duration_ms", set.Stats.DurationMs)
	}

	// A search cut short by time says nothing about the registry; the next
	// read or job retries it instead of serving the partial set.
	if set.TruncatedReason == matching.ReasonDeadline || set.TruncatedReason == matching.ReasonCanceled {
		return set, nil
	}

	s.store.put(set)
	_ = s.cache.Set(ctx, matchCacheKey(set.Year, set.Version), set, s.cfg.CacheTTL)
	return set, nil
}

func (s *MatchService) handleRecompute(ctx context.Context, job jobs.Job) error {
	year, ok := job.Payload.(int)
	if !ok {
		return fmt.Errorf("recompute job %s: unexpected payload %T", job.ID, job.Payload)
	}
	_, err := s.Recompute(ctx, year)
	return err
}

func (s *MatchService) resolveYear(year int) int {
	if year > 0 {
		return year
	}
	return s.cfg.ActiveYear
}

func matchCacheKey(year int, version int64) string {
	return fmt.Sprintf("matches:%d:%d", year, version)
}

// BuildMatchSet runs the matcher over a registry snapshot and renders the
// ranked cycles with public teacher profiles.
func BuildMatchSet(ctx context.Context, matcher *matching.Matcher, snapshot *models.RegistrySnapshot) *models.MatchSet {
	byID := make(map[int64]models.Teacher, len(snapshot.Teachers))
	participants := make([]matching.Participant, 0, len(snapshot.Teachers))
	for _, teacher := range snapshot.Teachers {
		// BuildGraph admits the first teacher of a repeated id; resolve
		// members the same way.
		if _, dup := byID[teacher.ID]; dup {
			continue
		}
		byID[teacher.ID] = teacher
		participants = append(participants, ParticipantFromTeacher(teacher))
	}

	outcome := matcher.Match(ctx, participants)

	results := make([]models.MatchResult, 0, len(outcome.Cycles))
	for _, cycle := range outcome.Cycles {
		members := make([]models.PublicTeacher, 0, cycle.Len())
		for _, id := range cycle.Members {
			members = append(members, byID[id].Public())
		}
		results = append(results, models.MatchResult{
			ID:          cycle.ID,
			MatchType:   models.MatchTypeLabel(cycle.Len()),
			CycleLength: cycle.Len(),
			RankScore:   cycle.Score,
			Teachers:    members,
		})
	}

	return &models.MatchSet{
		Year:            snapshot.Year,
		Version:         snapshot.Version,
		Results:         results,
		Truncated:       outcome.Truncated,
		TruncatedReason: outcome.Reason,
		ComputedAt:      time.Now().UTC(),
		Stats: models.MatchStats{
			Teachers:     len(snapshot.Teachers),
			Participants: outcome.Participants,
			Edges:        outcome.Edges,
			Cycles:       len(results),
			DurationMs:   outcome.Duration.Milliseconds(),
		},
	}
}

// ParticipantFromTeacher maps a registration onto the matcher's view.
// Unpaired trailing targets are ignored.
func ParticipantFromTeacher(t models.Teacher) matching.Participant {
	n := len(t.TargetCounties)
	if len(t.TargetDistricts) < n {
		n = len(t.TargetDistricts)
	}
	targets := make([]matching.Location, 0, n)
	for i := 0; i < n; i++ {
		targets = append(targets, matching.NewLocation(t.TargetCounties[i], t.TargetDistricts[i]))
	}
	return matching.Participant{
		ID:      t.ID,
		Current: matching.NewLocation(t.CurrentCounty, t.CurrentDistrict),
		Targets: targets,
	}
}

// matchStore keeps the newest match set per year.
type matchStore struct {
	mu   sync.RWMutex
	sets map[int]*models.MatchSet
}

func newMatchStore() *matchStore {
	return &matchStore{sets: make(map[int]*models.MatchSet)}
}

func (m *matchStore) get(year int, version int64) (*models.MatchSet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.sets[year]
	if !ok || set.Version != version {
		return nil, false
	}
	return set, true
}

func (m *matchStore) put(set *models.MatchSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sets[set.Year]; ok && existing.Version > set.Version {
		return
	}
	m.sets[set.Year] = set
}

func (m *matchStore) drop(year int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets, year)
}
