package datetime

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		wantAware bool
		wantUTC   string
	}{
		{"2024-01-01 07:00:00", true, false, "2024-01-01T07:00:00Z"},
		{"2024-01-01T07:00:00", true, false, "2024-01-01T07:00:00Z"},
		{"2024-01-01", true, false, "2024-01-01T00:00:00Z"},
		{"2024/01/01 07:30", true, false, "2024-01-01T07:30:00Z"},
		{"2024-01-01T07:00:00Z", true, true, "2024-01-01T07:00:00Z"},
		{"2024-01-01 07:00:00+07:00", true, true, "2024-01-01T00:00:00Z"},
		{"2024-01-01T07:00:00.250-0500", true, true, "2024-01-01T12:00:00.25Z"},
		{"", false, false, ""},
		{"NaT", false, false, ""},
		{"NaN", false, false, ""},
		{"not a date", false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Parse(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("Parse(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if !got.Valid {
				return
			}
			if got.Aware != tt.wantAware {
				t.Errorf("Parse(%q).Aware = %v, want %v", tt.input, got.Aware, tt.wantAware)
			}
			if s := got.Time.UTC().Format(time.RFC3339Nano); s != tt.wantUTC {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, s, tt.wantUTC)
			}
		})
	}
}

func TestToLayout(t *testing.T) {
	if got := ToLayout("%Y-%m-%d %H:%M:%S"); got != "2006-01-02 15:04:05" {
		t.Errorf("ToLayout = %q", got)
	}
	if got := ToLayout("2006-01-02"); got != "2006-01-02" {
		t.Errorf("Go layouts should pass through, got %q", got)
	}
	if got := ToLayout("%d/%m/%y 100%%"); got != "02/01/06 100%" {
		t.Errorf("ToLayout = %q", got)
	}
}

func TestNormalizeMixedAwareAndNaive(t *testing.T) {
	values := ParseAll([]string{
		"2024-01-01 07:00:00",       // naive, Bangkok wall clock
		"2024-01-01T07:00:00+07:00", // aware, same instant
		"2024-01-01T00:00:00Z",      // aware UTC
		"garbage",
	})

	got, err := Normalize(values, Options{DropTZ: true})
	if err != nil {
		t.Fatal(err)
	}

	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if !got[i].Valid || got[i].Aware {
			t.Errorf("value %d: want naive, got %+v", i, got[i])
			continue
		}
		if !got[i].Time.Equal(want) {
			t.Errorf("value %d = %v, want %v", i, got[i].Time, want)
		}
	}
	if got[3].Valid {
		t.Errorf("unparseable value should stay NaT, got %v", got[3])
	}
}

func TestNormalizeKeepsTimezone(t *testing.T) {
	got, err := Normalize(ParseAll([]string{"2024-06-01 12:00:00", ""}), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !got[0].Aware {
		t.Fatal("without DropTZ the result should be aware")
	}
	if got[0].Time.Location() != time.UTC || got[0].Time.Hour() != 5 {
		t.Errorf("got %v, want 05:00 UTC", got[0].Time)
	}
	if got[1].Valid {
		t.Error("NaT should stay NaT")
	}
}

func TestNormalizeSourceTZ(t *testing.T) {
	values := ParseAll([]string{"2024-01-01 12:00:00"})

	tests := []struct {
		tz       string
		wantHour int
	}{
		{"UTC", 12},
		{"Asia/Bangkok", 5},
		{"Europe/Amsterdam", 11},
	}
	for _, tt := range tests {
		t.Run(tt.tz, func(t *testing.T) {
			got, err := Normalize(values, Options{SourceTZ: tt.tz, DropTZ: true})
			if err != nil {
				t.Fatal(err)
			}
			if got[0].Time.Hour() != tt.wantHour {
				t.Errorf("hour = %d, want %d", got[0].Time.Hour(), tt.wantHour)
			}
		})
	}

	if _, err := Normalize(values, Options{SourceTZ: "Mars/Olympus"}); !errors.Is(err, types.ErrArgument) {
		t.Errorf("unknown zone should be an argument error, got %v", err)
	}
}

// Wall times skipped by spring-forward land after the jump; repeated wall
// times in autumn resolve to the second (standard time) occurrence.
func TestNormalizeDSTTransitions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"before spring gap", "2024-03-31 01:30:00", "2024-03-31 00:30:00"},
		{"inside spring gap", "2024-03-31 02:30:00", "2024-03-31 01:30:00"},
		{"after spring gap", "2024-03-31 04:00:00", "2024-03-31 02:00:00"},
		{"inside autumn overlap", "2024-10-27 02:30:00", "2024-10-27 01:30:00"},
		{"after autumn overlap", "2024-10-27 03:30:00", "2024-10-27 02:30:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(ParseAll([]string{tt.input}), Options{SourceTZ: "Europe/Amsterdam", DropTZ: true})
			if err != nil {
				t.Fatal(err)
			}
			if s := got[0].Time.Format(DefaultLayout); s != tt.want {
				t.Errorf("Normalize(%s) = %s, want %s", tt.input, s, tt.want)
			}
			if got[0].Aware {
				t.Error("DropTZ output should be naive")
			}
		})
	}
}

// Re-normalizing tz-naive UTC output is only stable when the assumed source
// zone is UTC; with the default zone the naive values are shifted again.
func TestNormalizeIdempotence(t *testing.T) {
	first, err := Normalize(ParseAll([]string{"2024-01-01 07:00:00", "NaT"}), Options{DropTZ: true})
	if err != nil {
		t.Fatal(err)
	}

	again, err := Normalize(first, Options{SourceTZ: "UTC", DropTZ: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if !again[i].Equal(first[i]) {
			t.Errorf("value %d changed: %v -> %v", i, first[i], again[i])
		}
	}

	shifted, err := Normalize(first, Options{DropTZ: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := first[0].Time.Sub(shifted[0].Time); diff != 7*time.Hour {
		t.Errorf("default zone should shift by 7h, got %v", diff)
	}
	if shifted[1].Valid {
		t.Error("NaT should stay NaT")
	}
}

func TestEnsureDatetimeUTC(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"2024-01-01 07:00:00", "2024-01-01T09:30:00+07:00", "NaN"}, series.String, "ds"),
		series.New([]float64{1, 2, 3}, series.Float, "EC[g/l]"),
	)

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "aware",
			opts: Options{},
			want: []string{"2024-01-01T00:00:00Z", "2024-01-01T02:30:00Z", "NaN"},
		},
		{
			name: "drop tz",
			opts: Options{DropTZ: true},
			want: []string{"2024-01-01 00:00:00", "2024-01-01 02:30:00", "NaN"},
		},
		{
			name: "as string",
			opts: Options{DropTZ: true, AsString: true, Layout: "%d.%m.%Y %H:%M"},
			want: []string{"01.01.2024 00:00", "01.01.2024 02:30", "NaN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EnsureDatetimeUTC(df, "ds", tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			got := out.Col("ds").Records()
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("row %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
			if !out.Col("ds").Elem(2).IsNA() {
				t.Error("NaT row should be NA")
			}
			if out.Nrow() != df.Nrow() {
				t.Errorf("rows = %d, want %d", out.Nrow(), df.Nrow())
			}
		})
	}

	// the input frame is left untouched
	if df.Col("ds").Records()[0] != "2024-01-01 07:00:00" {
		t.Error("input DataFrame was modified")
	}

	if _, err := EnsureDatetimeUTC(df, "missing", Options{}); !errors.Is(err, types.ErrArgument) {
		t.Errorf("missing column should be an argument error, got %v", err)
	}
}
