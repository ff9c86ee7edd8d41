package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/circlematch-api/internal/models"
	appErrors "github.com/noah-isme/circlematch-api/pkg/errors"
)

type recordingDirectory struct {
	set     *models.MatchSet
	changed [][]int
}

func (r *recordingDirectory) Current(ctx context.Context, year int) (*models.MatchSet, string, error) {
	if r.set == nil {
		return &models.MatchSet{Year: year}, MatchSourceComputed, nil
	}
	return r.set, MatchSourceMemory, nil
}

func (r *recordingDirectory) RegistryChanged(ctx context.Context, years ...int) {
	r.changed = append(r.changed, years)
}

var owner = models.Actor{GoogleID: "g-owner", Email: "owner@example.com", Role: models.RoleTeacher}

func validRequest() TeacherRequest {
	return TeacherRequest{
		CurrentCounty:   " 臺北市 ",
		CurrentDistrict: "大安區",
		CurrentSchool:   "大安國中",
		Subject:         "數學",
		TargetCounties:  []string{"新北市", "桃園市"},
		TargetDistricts: []string{"板橋區", "中壢區"},
	}
}

func statusOf(err error) int {
	return appErrors.FromError(err).Status
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := newFakeRegistry()
	dir := &recordingDirectory{}
	svc := NewTeacherService(repo, dir, nil, nil, testYear)

	teacher, err := svc.Create(context.Background(), owner, validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), teacher.ID)
	assert.Equal(t, "臺北市", teacher.CurrentCounty)
	assert.Equal(t, "g-owner", teacher.GoogleID)
	assert.Equal(t, "owner@example.com", teacher.Email)
	assert.Equal(t, testYear, teacher.Year)
	assert.Equal(t, "臺北市大安區#1", teacher.DisplayID)
	assert.Equal(t, [][]int{{testYear}}, dir.changed)
}

func TestTeacherServiceCreateValidation(t *testing.T) {
	svc := NewTeacherService(newFakeRegistry(), nil, nil, nil, testYear)

	missing := validRequest()
	missing.CurrentDistrict = "   "
	_, err := svc.Create(context.Background(), owner, missing)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Contains(t, appErrors.FromError(err).Message, "current_district")

	mismatched := validRequest()
	mismatched.TargetDistricts = []string{"板橋區"}
	_, err = svc.Create(context.Background(), owner, mismatched)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	farYear := validRequest()
	farYear.Year = testYear + 50
	_, err = svc.Create(context.Background(), owner, farYear)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = svc.Create(context.Background(), models.Actor{}, validRequest())
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestTeacherServiceCreateAllowsEmptyTargets(t *testing.T) {
	svc := NewTeacherService(newFakeRegistry(), nil, nil, nil, testYear)

	req := validRequest()
	req.TargetCounties = nil
	req.TargetDistricts = nil
	teacher, err := svc.Create(context.Background(), owner, req)
	require.NoError(t, err)
	assert.Empty(t, teacher.TargetCounties)
	assert.NotNil(t, teacher.TargetCounties)
}

func TestTeacherServiceListByOwner(t *testing.T) {
	repo := newFakeRegistry()
	repo.add("g-owner", testYear, "臺北市", "大安區")
	repo.add("g-other", testYear, "新北市", "板橋區")
	svc := NewTeacherService(repo, nil, nil, nil, testYear)

	teachers, err := svc.ListByOwner(context.Background(), owner, "")
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "g-owner", teachers[0].GoogleID)

	_, err = svc.ListByOwner(context.Background(), owner, "g-other")
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	none, err := svc.ListByOwner(context.Background(), models.Actor{GoogleID: "g-new"}, "g-new")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTeacherServiceUpdate(t *testing.T) {
	repo := newFakeRegistry()
	existing := repo.add("g-owner", testYear, "臺北市", "大安區", "新北市", "板橋區")
	dir := &recordingDirectory{}
	svc := NewTeacherService(repo, dir, nil, nil, testYear)

	req := validRequest()
	req.Year = testYear + 1
	req.CurrentCounty = "臺中市"
	req.CurrentDistrict = "西屯區"
	updated, err := svc.Update(context.Background(), owner, existing.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "臺中市西屯區#1", updated.DisplayID)
	assert.Equal(t, testYear+1, updated.Year)
	assert.Equal(t, [][]int{{testYear + 1, testYear}}, dir.changed)

	stored, err := repo.FindByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "臺中市", stored.CurrentCounty)
}

func TestTeacherServiceUpdateOwnershipAndMissing(t *testing.T) {
	repo := newFakeRegistry()
	existing := repo.add("g-other", testYear, "臺北市", "大安區")
	svc := NewTeacherService(repo, nil, nil, nil, testYear)

	_, err := svc.Update(context.Background(), owner, existing.ID, validRequest())
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = svc.Update(context.Background(), owner, 404, validRequest())
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	stored, _ := repo.FindByID(context.Background(), existing.ID)
	assert.Equal(t, "臺北市", stored.CurrentCounty)
}

func TestTeacherServiceDelete(t *testing.T) {
	repo := newFakeRegistry()
	mine := repo.add("g-owner", testYear, "臺北市", "大安區")
	theirs := repo.add("g-other", testYear, "新北市", "板橋區")
	dir := &recordingDirectory{}
	svc := NewTeacherService(repo, dir, nil, nil, testYear)

	err := svc.Delete(context.Background(), owner, theirs.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	require.NoError(t, svc.Delete(context.Background(), owner, mine.ID))
	_, err = repo.FindByID(context.Background(), mine.ID)
	assert.Error(t, err)
	assert.Equal(t, [][]int{{testYear}}, dir.changed)

	err = svc.Delete(context.Background(), owner, mine.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestTeacherServiceContactRequiresSharedCycle(t *testing.T) {
	repo := newFakeRegistry()
	mine := repo.add("g-owner", testYear, "臺北市", "大安區", "新北市", "板橋區")
	partner := repo.add("g-partner", testYear, "新北市", "板橋區", "臺北市", "大安區")
	stranger := repo.add("g-stranger", testYear, "高雄市", "前鎮區", "臺南市", "東區")

	matches := newTestMatchService(repo, nil)
	svc := NewTeacherService(repo, matches, nil, nil, testYear)

	contact, err := svc.Contact(context.Background(), owner, partner.ID)
	require.NoError(t, err)
	assert.Equal(t, "g-partner@example.com", contact.Email)
	assert.Equal(t, partner.DisplayID, contact.DisplayID)

	_, err = svc.Contact(context.Background(), owner, stranger.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	self, err := svc.Contact(context.Background(), owner, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "g-owner@example.com", self.Email)

	_, err = svc.Contact(context.Background(), owner, 999)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}
