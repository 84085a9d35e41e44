package profile

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

func quietProfiler() *Profiler {
	return New(rules.DefaultLayout(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	rows := [][]dataset.Cell{
		{dataset.Text("HR"), dataset.Text("3")},
		{dataset.Text("HR"), dataset.Text("1")},
		{dataset.Text("HR"), dataset.Text("n/a")},
		{dataset.Text("HR"), dataset.Text("5")},
		{dataset.Text("HR"), dataset.Text("2")},
		{dataset.Text("HR"), dataset.Null()},
		{dataset.Text("HR"), dataset.Number(4)},
		{dataset.Text("W"), dataset.Text("20")},
		{dataset.Text("W"), dataset.Text("10")},
		{dataset.Text("Note"), dataset.Text("see chart")},
	}
	tbl, err := dataset.New([]string{"Variable Name", "Value"}, rows)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		p    float64
		want float64
	}{
		{"single value", []float64{7}, 0.25, 7},
		{"odd median", []float64{1, 2, 3, 4, 5}, 0.5, 3},
		{"even median", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"first quartile", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"third quartile", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"maximum", []float64{1, 2, 3, 4}, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quantile(tt.xs, tt.p); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("quantile(%v, %v) = %v, want %v", tt.xs, tt.p, got, tt.want)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	summaries, err := quietProfiler().Profile(sampleTable(t), nil)
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2 (Note has no numbers)", len(summaries))
	}

	hr := summaries[0]
	if hr.Variable != "HR" || hr.Count != 5 || hr.Skipped != 2 {
		t.Errorf("HR summary = %+v", hr)
	}
	if hr.Params != (rules.NormParams{Median: 3, Quartile1: 2, Quartile3: 4}) {
		t.Errorf("HR params = %+v", hr.Params)
	}
	if hr.Mean != 3 {
		t.Errorf("HR mean = %v, want 3", hr.Mean)
	}

	w := summaries[1]
	if w.Params != (rules.NormParams{Median: 15, Quartile1: 12.5, Quartile3: 17.5}) {
		t.Errorf("W params = %+v", w.Params)
	}
}

func TestProfile_SelectedVariables(t *testing.T) {
	summaries, err := quietProfiler().Profile(sampleTable(t), []string{"W", "Missing"})
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if len(summaries) != 1 || summaries[0].Variable != "W" {
		t.Errorf("summaries = %+v, want only W", summaries)
	}
	if summaries[0].StdDev == 0 {
		t.Error("expected a spread for two distinct values")
	}
}

func TestProfile_MissingColumn(t *testing.T) {
	tbl, _ := dataset.FromStrings([]string{"Variable Name"}, [][]string{{"HR"}})
	_, err := quietProfiler().Profile(tbl, nil)
	if err == nil || !strings.Contains(err.Error(), `"Value"`) {
		t.Errorf("expected missing Value column error, got %v", err)
	}
}

func TestWriteYAML(t *testing.T) {
	summaries, err := quietProfiler().Profile(sampleTable(t), nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteYAML(&buf, summaries); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}

	var doc struct {
		Variables map[string]rules.NormParams `yaml:"variables"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if doc.Variables["W"] != (rules.NormParams{Median: 15, Quartile1: 12.5, Quartile3: 17.5}) {
		t.Errorf("W = %+v", doc.Variables["W"])
	}
	if !strings.Contains(buf.String(), "quartile_1:") {
		t.Errorf("expected settings key names, got:\n%s", buf.String())
	}
}
