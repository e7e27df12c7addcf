package simcore

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/planner"
)

func TestWriteCDPRowOneLinePerAgent(t *testing.T) {
	log := zap.NewNop()
	cfg := DefaultConfig()
	cfg.NumAgents = 2
	cfg.AddtlData = "note"
	mgr := NewCDPManager(cfg, log)
	mgr.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "agents.csv")
	w, err := OpenCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteCDPRow(cfg, 0, 0, mgr.Agents()))
	require.NoError(t, w.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	require.Equal(t, cdpHeader, rows[0])
	require.Equal(t, "note", rows[1][9])
}

func TestWriteLRCRowOneRowPerSensedEntryWhenStopped(t *testing.T) {
	log := zap.NewNop()
	cfg := DefaultConfig()
	cfg.Regime = RegimeLRC
	cfg.NumAgents = 2
	cfg.SensingRange = 100
	cfg.SensingAngle = 2 * 3.14159
	cfg.AddtlData = "note"
	mgr := NewLRCManager(cfg, log)
	mgr.Agents()[0].CurPos.X, mgr.Agents()[0].CurPos.Y = 0, 0
	mgr.Agents()[1].CurPos.X, mgr.Agents()[1].CurPos.Y = 1, 0
	mgr.Update()

	dir := t.TempDir()
	path := filepath.Join(dir, "agents.csv")
	w, err := OpenCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteLRCRow(cfg, 0, mgr.SimTime(), mgr.Agents()))
	require.NoError(t, w.Close())

	rows := readCSV(t, path)
	require.True(t, len(rows) > 1)
	require.Equal(t, lrcHeader, rows[0])
	for _, row := range rows[1:] {
		require.Equal(t, "note", row[len(row)-1])
	}

	// A stopped agent gets one row per sensed neighbor; any other agent gets
	// exactly one row.
	for _, a := range mgr.Agents() {
		want := 1
		if a.Stop && len(a.Sensed) > 0 {
			want = len(a.Sensed)
		}
		got := 0
		for _, row := range rows[1:] {
			if row[6] == strconv.Itoa(a.ID) {
				got++
			}
		}
		require.Equal(t, want, got, "rows for robot %d", a.ID)
	}
}

func TestWriteTrialsRowIncludesCounters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trials.csv")
	w, err := OpenCSVWriter(path)
	require.NoError(t, err)

	stats := planner.Stats{SearchCalls: 3, SearchNodes: 40, ReplanCalls: 1}
	require.NoError(t, w.WriteTrialsRow(0, 12.5, stats, time.Now()))
	require.NoError(t, w.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	require.Equal(t, trialsHeader, rows[0])
	require.Equal(t, []string{"0", "12.50", "3", "40", "1"}, rows[1][:5])
}

func TestWriteProvenanceRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	cfg := DefaultConfig()
	cfg.NumAgents = 5

	require.NoError(t, WriteProvenance(path, cfg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var roundTripped Config
	require.NoError(t, yaml.Unmarshal(data, &roundTripped))
	require.Equal(t, cfg.NumAgents, roundTripped.NumAgents)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
