package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vpclean/preprocess/internal/cli"
)

const testSettings = `variables:
  HR:
    alphaMask: '[a-zA-Z]'
    min: 0
    max: 300
    dropAbove: 500
    include:
  Weight:
    unitConversionDict: {g: 1000, kg: 1}
    include:
  Cough:
    encoding: {"yes": 1, "no": 0}
`

const testData = `patient_id_encounter,Variable Name,Value,Unit
1,HR,abc,bpm
1,HR,80,bpm
1,HR,,bpm
1,HR,900,bpm
1,Weight,2000,g
1,Cough,yes,
1,HR,400,bpm
`

// testFixturePath returns the path to the settings test fixtures
func testFixturePath(filename string) string {
	return filepath.Join("..", "..", "internal", "config", "testdata", filename)
}

// writeFile writes content to name in a fresh temp directory.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runCLI runs the CLI in-process and returns stdout, stderr, and exit code
func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = execute(args, &stdoutBuf, &stderrBuf)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

func TestCLI_Help(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "--help")

	if exitCode != cli.ExitSuccess {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	for _, want := range []string{"vpclean", "clean", "validate", "profile", "version"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestCLI_Validate(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"valid YAML", []string{"validate", testFixturePath("valid-settings.yaml")}, cli.ExitSuccess, "format: yaml", ""},
		{"valid JSON", []string{"validate", testFixturePath("valid-settings.json")}, cli.ExitSuccess, "format: json", ""},
		{"invalid JSON", []string{"validate", testFixturePath("invalid-json.json")}, cli.ExitParseError, "", "Parse errors"},
		{"invalid YAML", []string{"validate", testFixturePath("invalid-yaml.yaml")}, cli.ExitParseError, "", "Parse errors"},
		{"schema violation", []string{"validate", testFixturePath("invalid-schema.yaml")}, cli.ExitValidationError, "", "Validation errors"},
		{"missing file", []string{"validate", "nonexistent.yaml"}, cli.ExitIOError, "", "Parse errors"},
		{"verbose", []string{"validate", "--verbose", testFixturePath("valid-settings.yaml")}, cli.ExitSuccess, "Heart rate (bpm)", ""},
		{"missing argument", []string{"validate"}, cli.ExitDataError, "", "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, exitCode := runCLI(t, tt.args...)
			if exitCode != tt.wantCode {
				t.Errorf("expected exit code %d, got %d\nstderr: %s", tt.wantCode, exitCode, stderr)
			}
			if !strings.Contains(stdout, tt.wantStdout) {
				t.Errorf("expected stdout to contain %q, got: %s", tt.wantStdout, stdout)
			}
			if !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("expected stderr to contain %q, got: %s", tt.wantStderr, stderr)
			}
		})
	}
}

func TestCLI_ValidateQuiet(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "validate", "--quiet", testFixturePath("valid-settings.yaml"))

	if exitCode != cli.ExitSuccess {
		t.Errorf("expected exit code %d, got %d", cli.ExitSuccess, exitCode)
	}
	if stdout != "" {
		t.Errorf("expected quiet mode to suppress output, got: %s", stdout)
	}
}

func TestCLI_CleanToStdout(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "settings.yaml", testSettings)
	data := writeFile(t, dir, "data.csv", testData)

	stdout, stderr, exitCode := runCLI(t, "clean", data, "--settings", settings, "--restrict")
	if exitCode != cli.ExitSuccess {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got:\n%s", stdout)
	}
	if lines[0] != "patient_id_encounter,Variable Name,Value,Unit" {
		t.Errorf("unexpected header %q", lines[0])
	}
	for _, dropped := range []string{"abc", "900", "Cough"} {
		if strings.Contains(stdout, dropped) {
			t.Errorf("expected %q to be removed, got:\n%s", dropped, stdout)
		}
	}
	if !strings.Contains(stdout, "1,HR,300") {
		t.Errorf("expected 400 clipped to 300, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "Cleaning completed") {
		t.Errorf("expected a run summary on stderr, got: %s", stderr)
	}
}

func TestCLI_CleanToFile(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "settings.yaml", testSettings)
	data := writeFile(t, dir, "data.tsv", strings.ReplaceAll(testData, ",", "\t"))
	output := filepath.Join(dir, "clean.tsv")

	stdout, stderr, exitCode := runCLI(t, "clean", data,
		"--settings", settings,
		"--delimiter", "\t",
		"--skip-stage", "clip",
		"--output", output,
		"--quiet",
	)
	if exitCode != cli.ExitSuccess {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	if stdout != "" {
		t.Errorf("expected nothing on stdout, got: %s", stdout)
	}

	written, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(written), "1\tHR\t400") {
		t.Errorf("expected 400 kept with clip skipped, got:\n%s", written)
	}
}

func TestCLI_CleanSettingsFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envSettings, writeFile(t, dir, "settings.yaml", testSettings))
	data := writeFile(t, dir, "data.csv", testData)

	_, stderr, exitCode := runCLI(t, "clean", data, "--quiet")
	if exitCode != cli.ExitSuccess {
		t.Errorf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
}

func TestCLI_CleanKeepsEmptyValues(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "settings.yaml", testSettings)
	data := writeFile(t, dir, "data.csv", "Variable Name,Value,Unit\nComment,,\nComment,hello,\nHR,,bpm\nHR,70,bpm\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "empty fields are text",
			args: []string{"clean", data, "--settings", settings, "-q"},
			want: "Variable Name,Value,Unit\nComment,,\nComment,hello,\nHR,70.0,bpm\n",
		},
		{
			name: "empty marker reads them as missing",
			args: []string{"clean", data, "--settings", settings, "-q", "--null-marker", ""},
			want: "Variable Name,Value,Unit\nComment,hello,\nHR,70.0,bpm\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, exitCode := runCLI(t, tt.args...)
			if exitCode != cli.ExitSuccess {
				t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
			}
			if stdout != tt.want {
				t.Errorf("unexpected output:\n%q\nwant:\n%q", stdout, tt.want)
			}
		})
	}
}

func TestCLI_CleanErrors(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "settings.yaml", testSettings)
	data := writeFile(t, dir, "data.csv", testData)
	unmapped := writeFile(t, dir, "unmapped.csv", testData+"1,Cough,maybe,\n")
	ragged := writeFile(t, dir, "ragged.csv", testData+"1,HR\n")

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{"no settings", []string{"clean", data}, cli.ExitValidationError, "no settings file"},
		{"unmapped value", []string{"clean", unmapped, "--settings", settings}, cli.ExitDataError, "maybe"},
		{"ragged row", []string{"clean", ragged, "--settings", settings}, cli.ExitParseError, "line 9"},
		{"missing data file", []string{"clean", filepath.Join(dir, "missing.csv"), "--settings", settings}, cli.ExitIOError, "missing.csv"},
		{"output overwrites input", []string{"clean", data, "--settings", settings, "--output", data}, cli.ExitIOError, "overwrite"},
		{"bad log format", []string{"clean", data, "--settings", settings, "--log-format", "xml"}, cli.ExitDataError, "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envSettings, "")
			_, stderr, exitCode := runCLI(t, tt.args...)
			if exitCode != tt.wantCode {
				t.Errorf("expected exit code %d, got %d\nstderr: %s", tt.wantCode, exitCode, stderr)
			}
			if !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("expected stderr to contain %q, got: %s", tt.wantStderr, stderr)
			}
		})
	}
}

func TestCLI_Profile(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.csv", "Variable Name,Value\nHR,1\nHR,2\nHR,3\nHR,x\nW,10\n")

	stdout, stderr, exitCode := runCLI(t, "profile", data, "--variable", "HR")
	if exitCode != cli.ExitSuccess {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	for _, want := range []string{"variables:", "HR:", "median: 2", "quartile_1: 1.5", "quartile_3: 2.5"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected profile output to contain %q, got:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "W:") {
		t.Errorf("expected only the selected variable, got:\n%s", stdout)
	}
}

func TestCLI_Version(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "version")

	if exitCode != cli.ExitSuccess {
		t.Errorf("expected exit code %d, got %d\nstderr: %s", cli.ExitSuccess, exitCode, stderr)
	}
	for _, want := range []string{"Version: dev", "Commit:", "Build Date:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got: %s", want, stdout)
		}
	}
}
