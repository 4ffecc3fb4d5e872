package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNaive(t *testing.T) {
	fc, err := (&Naive{}).Forecast([]float64{1, 2, 4}, 3)
	if err != nil {
		t.Fatal(err)
	}
	// residuals 1, 2 -> rms sqrt(2.5)
	sigma := math.Sqrt(2.5)
	for h := 1; h <= 3; h++ {
		if fc.Mean[h-1] != 4 {
			t.Errorf("mean[%d] = %v", h, fc.Mean[h-1])
		}
		if !approx(fc.Sigma[h-1], sigma*math.Sqrt(float64(h))) {
			t.Errorf("sigma[%d] = %v", h, fc.Sigma[h-1])
		}
	}
}

func TestSeasonalNaive(t *testing.T) {
	history := []float64{1, 2, 3, 1, 2, 3, 1, 2, 4}
	fc, err := (&SeasonalNaive{SeasonLength: 3}).Forecast(history, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 4, 1}
	for i, w := range want {
		if fc.Mean[i] != w {
			t.Errorf("mean[%d] = %v, want %v", i, fc.Mean[i], w)
		}
	}
	if !(fc.Sigma[3] > fc.Sigma[2]) {
		t.Error("sigma should grow after one full season")
	}

	// shorter than one season falls back to naive
	fc, err = (&SeasonalNaive{SeasonLength: 24}).Forecast([]float64{5, 6}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if fc.Mean[0] != 6 || fc.Mean[1] != 6 {
		t.Errorf("fallback mean = %v", fc.Mean)
	}
}

func TestSES(t *testing.T) {
	m := &SES{Alpha: 0.5}
	fc, err := m.Forecast([]float64{2, 4, 4}, 2)
	if err != nil {
		t.Fatal(err)
	}
	// level: 2 -> 3 -> 3.5
	if !approx(fc.Mean[0], 3.5) || !approx(fc.Mean[1], 3.5) {
		t.Errorf("mean = %v", fc.Mean)
	}
	// residuals 2, 1 -> rms sqrt(2.5)
	sigma := math.Sqrt(2.5)
	if !approx(fc.Sigma[0], sigma) {
		t.Errorf("sigma[0] = %v", fc.Sigma[0])
	}
	if !approx(fc.Sigma[1], sigma*math.Sqrt(1.25)) {
		t.Errorf("sigma[1] = %v", fc.Sigma[1])
	}
}

func TestARIMA(t *testing.T) {
	tests := []struct {
		name    string
		model   *ARIMA
		history []float64
		want    []float64
	}{
		{
			name:    "random walk with drift",
			model:   &ARIMA{D: 1, Intercept: 1},
			history: []float64{1, 2, 3, 4},
			want:    []float64{5, 6, 7},
		},
		{
			name:    "ar1 mean reversion",
			model:   &ARIMA{AR: []float64{0.5}, Intercept: 10},
			history: []float64{10, 14},
			want:    []float64{12, 11, 10.5},
		},
		{
			name:    "second difference",
			model:   &ARIMA{D: 2},
			history: []float64{1, 4, 9, 16},
			want:    []float64{23, 30, 37},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := tt.model.Forecast(tt.history, len(tt.want))
			if err != nil {
				t.Fatal(err)
			}
			for i, w := range tt.want {
				if !approx(fc.Mean[i], w) {
					t.Errorf("mean[%d] = %v, want %v", i, fc.Mean[i], w)
				}
			}
		})
	}

	if _, err := (&ARIMA{D: 2}).Forecast([]float64{1, 2}, 1); err == nil {
		t.Error("expected error for too short history")
	}
}

func TestARIMAMovingAverage(t *testing.T) {
	// w = [0, 1]; e0 = 0, e1 = 1 - 0.5*0 = 1 -> forecast = 0.5*1, then 0
	fc, err := (&ARIMA{MA: []float64{0.5}}).Forecast([]float64{0, 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(fc.Mean[0], 0.5) || !approx(fc.Mean[1], 0) {
		t.Errorf("mean = %v", fc.Mean)
	}
}

func TestForecastInputErrors(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			f, err := New(&Artifact{Kind: kind, Params: Params{SeasonLength: 2}})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := f.Forecast(nil, 1); err == nil {
				t.Error("expected error for empty history")
			}
			if _, err := f.Forecast([]float64{1, 2, 3}, 0); err == nil {
				t.Error("expected error for zero horizon")
			}
		})
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		a    *Artifact
	}{
		{"unknown kind", &Artifact{Kind: "prophet"}},
		{"seasonal without season", &Artifact{Kind: "seasonal_naive"}},
		{"ses alpha", &Artifact{Kind: "ses", Params: Params{Alpha: 1.5}}},
		{"arima negative d", &Artifact{Kind: "arima", Params: Params{D: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.a); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestQuantiles(t *testing.T) {
	fc := Forecast{Mean: []float64{10, 5}, Sigma: []float64{2, 0}}
	q := Quantiles(fc, []float64{0.1, 0.5, 0.9})

	if !approx(q[0][1], 10) {
		t.Errorf("median = %v", q[0][1])
	}
	// z(0.9) = 1.2815515655446004
	if math.Abs(q[0][2]-(10+2*1.2815515655446004)) > 1e-6 {
		t.Errorf("q90 = %v", q[0][2])
	}
	if !approx(q[0][0]+q[0][2], 20) {
		t.Errorf("quantiles should be symmetric: %v", q[0])
	}
	for _, v := range q[1] {
		if v != 5 {
			t.Errorf("zero sigma quantile = %v", v)
		}
	}
	if QuantileName(0.1) != "0.1" || QuantileName(0.25) != "0.25" {
		t.Error("unexpected quantile column name")
	}
}

func writeArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, ArtifactFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "hourly", `
kind: arima
prediction_length: 24
freq: H
ar: [0.6]
d: 1
`)
	writeArtifact(t, dir, "broken", `
kind: naive
prediction_length: 0
`)
	writeArtifact(t, dir, "typo", `
kind: naive
prediction_lenght: 3
`)
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	a, err := Load(dir, "hourly")
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "hourly" || a.PredictionLength != 24 || a.D != 1 || len(a.AR) != 1 {
		t.Errorf("unexpected artifact: %+v", a)
	}
	if a.IDColumn != "item_id" || a.TimestampColumn != "timestamp" || a.Target != "EC[g/l]" {
		t.Errorf("defaults not applied: %+v", a)
	}
	if len(a.QuantileLevels) != 9 {
		t.Errorf("quantile levels = %v", a.QuantileLevels)
	}
	if step, err := a.Step(); err != nil || step != time.Hour {
		t.Errorf("step = %v, %v", step, err)
	}

	tests := []struct {
		name   string
		model  string
		target error
	}{
		{"empty name", "", types.ErrArgument},
		{"path traversal", "../hourly", types.ErrArgument},
		{"unknown", "daily", types.ErrLookup},
		{"no artifact file", "empty", types.ErrLookup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(dir, tt.model)
			if !errors.Is(err, tt.target) {
				t.Fatalf("error %v is not %v", err, tt.target)
			}
		})
	}

	_, err = Load(dir, "daily")
	var le *types.LookupError
	if !errors.As(err, &le) {
		t.Fatalf("expected LookupError, got %T", err)
	}
	if strings.Join(le.Available, ",") != "broken,hourly,typo" {
		t.Errorf("Available = %v", le.Available)
	}
	if !strings.Contains(err.Error(), "unknown model: daily") {
		t.Errorf("message = %s", err)
	}

	if _, err := Load(dir, "broken"); err == nil || errors.Is(err, types.ErrLookup) {
		t.Errorf("expected validation failure, got %v", err)
	}
	if _, err := Load(dir, "typo"); err == nil {
		t.Error("unknown fields should be rejected")
	}
}

func TestShippedModel(t *testing.T) {
	a, err := Load("../../models", "ec-hourly")
	if err != nil {
		t.Fatal(err)
	}
	f, err := New(a)
	if err != nil {
		t.Fatal(err)
	}
	fc, err := f.Forecast([]float64{0.42, 0.47, 0.51, 0.49, 0.55, 0.60}, a.PredictionLength)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Mean) != 24 || len(Quantiles(fc, a.QuantileLevels)[0]) != 9 {
		t.Errorf("unexpected forecast shape: %d", len(fc.Mean))
	}
	for _, v := range fc.Mean {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("forecast not finite: %v", fc.Mean)
		}
	}
}
