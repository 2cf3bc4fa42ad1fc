// Package evaluator runs the offline quality evaluation over a labeled
// query set.
package evaluator

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/slot"
)

// Sample is one labeled evaluation query.
type Sample struct {
	Query      string
	TrueIntent string
	TrueSlots  slot.Slots
}

// Report is the evaluation result.
type Report struct {
	EvaluationDate string             `json:"evaluation_date"`
	DatasetSize    int                `json:"dataset_size"`
	Metrics        Metrics            `json:"metrics"`
	PerIntent      map[string]float64 `json:"per_intent_accuracy"`
}

// Metrics are the aggregate quality numbers.
type Metrics struct {
	IntentAccuracy float64 `json:"intent_accuracy"`
	SlotF1         float64 `json:"slot_f1"`
	CalibrationECE float64 `json:"confidence_calibration_ece"`
	RejectionRate  float64 `json:"rejection_rate"`
	ResolutionRate float64 `json:"query_resolution_rate"`
}

// IntentClassifier produces the query intent.
type IntentClassifier interface {
	Classify(ctx context.Context, query string) (intent.Result, error)
}

// SlotFiller extracts entities from the query.
type SlotFiller interface {
	Extract(ctx context.Context, query string, intent string) (slot.Slots, error)
}

// Evaluator runs labeled samples through the classifier and filler.
type Evaluator struct {
	intents IntentClassifier
	slots   SlotFiller
}

func New(intents IntentClassifier, slots SlotFiller) *Evaluator {
	return &Evaluator{intents: intents, slots: slots}
}

// LoadSamples reads a labeled CSV with a header row of
// query,true_intent,true_slots where true_slots is a JSON object and
// may be empty.
func LoadSamples(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[name] = i
	}
	for _, required := range []string{"query", "true_intent"} {
		if _, ok := columns[required]; !ok {
			return nil, errors.Errorf("CSV is missing the %q column", required)
		}
	}

	var samples []Sample
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read CSV row")
		}

		sample := Sample{
			Query:      row[columns["query"]],
			TrueIntent: row[columns["true_intent"]],
			TrueSlots:  slot.Slots{},
		}
		if idx, ok := columns["true_slots"]; ok && row[idx] != "" {
			if err := json.Unmarshal([]byte(row[idx]), &sample.TrueSlots); err != nil {
				return nil, errors.Wrapf(err, "invalid true_slots for query %q", sample.Query)
			}
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// Run evaluates the samples and computes the report.
func (e *Evaluator) Run(ctx context.Context, samples []Sample) (*Report, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples to evaluate")
	}

	predictedIntents := make([]string, len(samples))
	predictedSlots := make([]slot.Slots, len(samples))
	confidences := make([]float64, len(samples))

	for i, sample := range samples {
		classified, err := e.intents.Classify(ctx, sample.Query)
		if err != nil {
			return nil, errors.Wrapf(err, "classification failed for %q", sample.Query)
		}
		predictedIntents[i] = string(classified.Intent)
		confidences[i] = classified.Confidence

		slots, err := e.slots.Extract(ctx, sample.Query, predictedIntents[i])
		if err != nil {
			return nil, errors.Wrapf(err, "slot extraction failed for %q", sample.Query)
		}
		predictedSlots[i] = slots
	}

	correct := make([]bool, len(samples))
	for i, sample := range samples {
		correct[i] = predictedIntents[i] == sample.TrueIntent
	}

	report := &Report{
		EvaluationDate: time.Now().UTC().Format("2006-01-02"),
		DatasetSize:    len(samples),
		Metrics: Metrics{
			IntentAccuracy: round4(intentAccuracy(predictedIntents, samples)),
			SlotF1:         round4(slotF1(predictedSlots, samples)),
			CalibrationECE: round4(calibrationECE(confidences, correct)),
			RejectionRate:  round4(rejectionRate(predictedIntents)),
			ResolutionRate: round4(resolutionRate(predictedIntents, predictedSlots)),
		},
		PerIntent: perIntentAccuracy(predictedIntents, samples),
	}

	slog.Info("evaluation completed",
		slog.Int("samples", report.DatasetSize),
		slog.Float64("intent_accuracy", report.Metrics.IntentAccuracy),
		slog.Float64("slot_f1", report.Metrics.SlotF1),
		slog.Float64("ece", report.Metrics.CalibrationECE))
	return report, nil
}

// WriteReport saves the report as indented JSON.
func WriteReport(report *Report, path string) error {
	buf, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode report")
	}
	return errors.Wrapf(os.WriteFile(path, buf, 0o644), "failed to write %s", path)
}

func intentAccuracy(predicted []string, samples []Sample) float64 {
	correct := 0
	for i, sample := range samples {
		if predicted[i] == sample.TrueIntent {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}

// slotF1 is the macro-averaged F1 over slot keys: per sample the
// predicted key set is compared against the labeled key set.
func slotF1(predicted []slot.Slots, samples []Sample) float64 {
	var totalPrecision, totalRecall float64
	for i, sample := range samples {
		predKeys := predicted[i]
		trueKeys := sample.TrueSlots

		switch {
		case len(predKeys) == 0 && len(trueKeys) == 0:
			totalPrecision++
			totalRecall++
		case len(predKeys) == 0 || len(trueKeys) == 0:
			// one side empty, zero credit
		default:
			tp := 0
			for key := range predKeys {
				if _, ok := trueKeys[key]; ok {
					tp++
				}
			}
			totalPrecision += float64(tp) / float64(len(predKeys))
			totalRecall += float64(tp) / float64(len(trueKeys))
		}
	}

	n := float64(len(samples))
	avgPrecision := totalPrecision / n
	avgRecall := totalRecall / n
	if avgPrecision+avgRecall == 0 {
		return 0
	}
	return 2 * avgPrecision * avgRecall / (avgPrecision + avgRecall)
}

// calibrationECE computes the expected calibration error over 10
// equal-width confidence bins.
func calibrationECE(confidences []float64, correct []bool) float64 {
	const bins = 10

	counts := make([]int, bins)
	sumConfidence := make([]float64, bins)
	sumCorrect := make([]float64, bins)

	for i, conf := range confidences {
		bin := int(conf * bins)
		if bin >= bins {
			bin = bins - 1
		}
		counts[bin]++
		sumConfidence[bin] += conf
		if correct[i] {
			sumCorrect[bin]++
		}
	}

	total := float64(len(confidences))
	ece := 0.0
	for bin := 0; bin < bins; bin++ {
		if counts[bin] == 0 {
			continue
		}
		n := float64(counts[bin])
		accuracy := sumCorrect[bin] / n
		avgConfidence := sumConfidence[bin] / n
		ece += (n / total) * math.Abs(accuracy-avgConfidence)
	}
	return ece
}

func rejectionRate(predicted []string) float64 {
	unknown := 0
	for _, p := range predicted {
		if p == string(intent.Unknown) {
			unknown++
		}
	}
	return float64(unknown) / float64(len(predicted))
}

// resolutionRate is the share of queries that produced a known intent
// with its required slots filled.
func resolutionRate(predicted []string, slots []slot.Slots) float64 {
	resolved := 0
	for i, p := range predicted {
		if p == string(intent.Unknown) {
			continue
		}
		if slot.Validate(slots[i], p) {
			resolved++
		}
	}
	return float64(resolved) / float64(len(predicted))
}

func perIntentAccuracy(predicted []string, samples []Sample) map[string]float64 {
	counts := map[string]int{}
	hits := map[string]int{}
	for i, sample := range samples {
		counts[sample.TrueIntent]++
		if predicted[i] == sample.TrueIntent {
			hits[sample.TrueIntent]++
		}
	}

	result := make(map[string]float64, len(counts))
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		result[label] = round4(float64(hits[label]) / float64(counts[label]))
	}
	return result
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
