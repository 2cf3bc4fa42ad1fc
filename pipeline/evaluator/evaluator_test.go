package evaluator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/slot"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labeled.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSamples(t *testing.T) {
	path := writeCSV(t, `query,true_intent,true_slots
show me footfall for branch B12,kpi_query,"{""branch_id"": ""B12"", ""kpi_type"": ""traffic""}"
hello there,chitchat,
`)

	samples, err := LoadSamples(path)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	require.Equal(t, "kpi_query", samples[0].TrueIntent)
	require.Equal(t, "B12", samples[0].TrueSlots[slot.KeyBranchID])
	require.Empty(t, samples[1].TrueSlots)
}

func TestLoadSamplesMissingColumn(t *testing.T) {
	path := writeCSV(t, "query,label\nhi,chitchat\n")

	_, err := LoadSamples(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "true_intent")
}

func TestRun(t *testing.T) {
	evaluator := New(
		intent.NewService(intent.NewRuleClassifier(), nil, intent.NewKeywordClassifier(0.3)),
		slot.NewService(slot.NewRuleFiller(), nil),
	)

	samples := []Sample{
		{
			Query:      "show me footfall for branch B12 yesterday",
			TrueIntent: "kpi_query",
			TrueSlots:  slot.Slots{slot.KeyBranchID: "B12", slot.KeyTimeRange: "yesterday", slot.KeyKPIType: "traffic"},
		},
		{
			Query:      "how crowded is branch B3",
			TrueIntent: "branch_status",
			TrueSlots:  slot.Slots{slot.KeyBranchID: "B3"},
		},
		{
			Query:      "hello",
			TrueIntent: "chitchat",
			TrueSlots:  slot.Slots{},
		},
		{
			Query:      "tell me about quantum physics",
			TrueIntent: "unknown",
			TrueSlots:  slot.Slots{},
		},
	}

	report, err := evaluator.Run(context.Background(), samples)
	require.NoError(t, err)
	require.Equal(t, 4, report.DatasetSize)
	require.Equal(t, 1.0, report.Metrics.IntentAccuracy)
	require.Greater(t, report.Metrics.SlotF1, 0.5)
	require.InDelta(t, 0.25, report.Metrics.RejectionRate, 0.001)
	require.Equal(t, 1.0, report.PerIntent["kpi_query"])
	require.Equal(t, 1.0, report.PerIntent["unknown"])
}

func TestRunEmpty(t *testing.T) {
	evaluator := New(
		intent.NewService(intent.NewRuleClassifier(), nil, intent.NewKeywordClassifier(0.3)),
		slot.NewService(slot.NewRuleFiller(), nil),
	)
	_, err := evaluator.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteReport(&Report{DatasetSize: 3}, path))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(buf), `"dataset_size": 3`)
}

func TestCalibrationECE(t *testing.T) {
	// Perfectly calibrated: 0.95 confidence, all correct within the
	// top bin gives ECE = |1.0 - 0.95| = 0.05.
	ece := calibrationECE([]float64{0.95, 0.95}, []bool{true, true})
	require.InDelta(t, 0.05, ece, 0.001)

	// Overconfident: high confidence, all wrong.
	ece = calibrationECE([]float64{0.9, 0.9}, []bool{false, false})
	require.InDelta(t, 0.9, ece, 0.001)
}
