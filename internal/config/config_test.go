package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{
	  "input_glob":  "/tmp/raw/*.csv",
	  "curated_dir": "/tmp/curated",
	  "report_path": "/tmp/report.json",
	  "batch_size":  1000,
	  "storage":     { "kind": "postgres", "dsn": "postgres://localhost/etl" }
	}`)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Run{
		InputGlob:  "/tmp/raw/*.csv",
		CuratedDir: "/tmp/curated",
		ReportPath: "/tmp/report.json",
		BatchSize:  1000,
		Storage:    Storage{Kind: "postgres", DSN: "postgres://localhost/etl"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Load = %#v, want %#v", got, want)
	}
}

// TestLoad_AppliesDefaults verifies every field absent from the file ends up
// with its default.
func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	got, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Run{
		InputGlob:  DefaultInputGlob,
		CuratedDir: DefaultCuratedDir,
		ReportPath: DefaultReportPath,
		BatchSize:  DefaultBatchSize,
		Storage:    Storage{Kind: DefaultStorage},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Load = %#v, want %#v", got, want)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	if _, err := Load(writeConfig(t, `{"batchsize": 10}`)); err == nil {
		t.Fatal("unknown field: want error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("missing file: want error")
	}
}

func TestWithDefaults_NormalizesBatchSize(t *testing.T) {
	t.Parallel()

	for _, bad := range []int{0, -1} {
		r := Run{BatchSize: bad}.WithDefaults()
		if r.BatchSize != DefaultBatchSize {
			t.Fatalf("BatchSize %d normalized to %d, want %d", bad, r.BatchSize, DefaultBatchSize)
		}
	}
}

// TestWithDefaults_KeepsExplicitValues verifies defaults never overwrite
// values that were set.
func TestWithDefaults_KeepsExplicitValues(t *testing.T) {
	t.Parallel()

	in := Run{
		InputGlob:  "x/*.csv",
		CuratedDir: "y",
		ReportPath: "z.json",
		BatchSize:  7,
		Storage:    Storage{Kind: "postgres", DSN: "dsn", Table: "t"},
	}
	if got := in.WithDefaults(); !reflect.DeepEqual(got, in) {
		t.Fatalf("WithDefaults = %#v, want unchanged %#v", got, in)
	}
}
