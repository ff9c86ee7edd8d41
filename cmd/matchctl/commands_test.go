package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simulationYAML = `
year: 114
teachers:
  - id: 1
    current_county: 臺北市
    current_district: 大安區
    target_counties: [新北市]
    target_districts: [板橋區]
  - id: 2
    current_county: 新北市
    current_district: 板橋區
    target_counties: [臺北市]
    target_districts: [大安區]
  - id: 3
    current_county: 高雄市
    current_district: 前鎮區
    target_counties: [臺南市]
    target_districts: [東區]
`

func TestLoadSimulationAcceptsJSON(t *testing.T) {
	snapshot, err := loadSimulation(strings.NewReader(`{"year": 114, "teachers": [{"current_county": "臺北市", "current_district": "大安區"}]}`))
	require.NoError(t, err)
	require.Len(t, snapshot.Teachers, 1)
	assert.Equal(t, int64(1), snapshot.Teachers[0].ID)
	assert.Equal(t, "臺北市大安區#1", snapshot.Teachers[0].DisplayID)
}

func TestSimulateCommandPrintsCycles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teachers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(simulationYAML), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"simulate", "--file", path})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "2角調")
	assert.Contains(t, text, "臺北市大安區#1 -> 新北市板橋區#2")
	assert.Contains(t, text, "cycles=1")
	assert.NotContains(t, text, "前鎮區#3 ->")
}

func TestSimulateCommandRequiresFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"simulate"})
	assert.Error(t, cmd.Execute())
}

func TestLoadSimulationImplicitIDsSkipExplicitOnes(t *testing.T) {
	snapshot, err := loadSimulation(strings.NewReader(`
year: 114
teachers:
  - current_county: 臺北市
    current_district: 大安區
  - id: 1
    current_county: 高雄市
    current_district: 前鎮區
    target_counties: [臺中市]
    target_districts: [西屯區]
  - current_county: 新北市
    current_district: 板橋區
    target_counties: [臺北市]
    target_districts: [大安區]
`))
	require.NoError(t, err)
	ids := []int64{snapshot.Teachers[0].ID, snapshot.Teachers[1].ID, snapshot.Teachers[2].ID}
	assert.Equal(t, []int64{2, 1, 3}, ids)
}

func TestLoadSimulationRejectsDuplicateIDs(t *testing.T) {
	_, err := loadSimulation(strings.NewReader(`{"year": 114, "teachers": [{"id": 4, "current_county": "臺北市", "current_district": "大安區"}, {"id": 4, "current_county": "高雄市", "current_district": "前鎮區"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share id 4")
}
