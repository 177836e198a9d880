package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/dfanalyzer/internal/server"
	"github.com/me/dfanalyzer/internal/store"
	"github.com/me/dfanalyzer/pkg/provenance"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// captureServer starts an in-process capture server and returns its URL and store.
func captureServer(t *testing.T) (string, store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ts := httptest.NewServer(server.New(st, logger))
	t.Cleanup(func() {
		ts.Close()
		st.Close()
	})
	return ts.URL, st
}

func TestValidate(t *testing.T) {
	out, err := runCLI(t, "validate", "testdata/etl.yaml")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, want := range []string{"Dataflow: etl", "extract", "load", "oextract", "source:FILE", "Declaration is valid."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateResolvesExtractorFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"out/a.csv", "out/2024/b.csv", "out/notes.txt"} {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := runCLI(t, "validate", "--root", root, "testdata/etl.yaml")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, want := range []string{"Extractor table_csv (oload): 2 files", "out/2024/b.csv", "out/a.csv"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "notes.txt") {
		t.Errorf("non-matching file listed:\n%s", out)
	}
}

func TestValidateRejectsBadType(t *testing.T) {
	_, err := runCLI(t, "validate", "testdata/broken.yaml")
	if err == nil {
		t.Fatal("expected error for unknown attribute type")
	}
}

func TestDataflowDryRun(t *testing.T) {
	url, st := captureServer(t)
	out, err := runCLI(t, "--url", url, "dataflow", "--dry-run", "testdata/etl.yaml")
	if err != nil {
		t.Fatalf("dataflow: %v", err)
	}
	if !strings.Contains(out, "Dry-run") {
		t.Errorf("output = %q", out)
	}
	docs, err := st.List(context.Background(), store.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("dry run recorded %d documents", len(docs))
	}
}

func TestDataflowSend(t *testing.T) {
	url, st := captureServer(t)
	out, err := runCLI(t, "--url", url, "dataflow", "testdata/etl.yaml")
	if err != nil {
		t.Fatalf("dataflow: %v", err)
	}
	if !strings.Contains(out, "Dataflow etl sent") {
		t.Errorf("output = %q", out)
	}

	docs, err := st.List(context.Background(), store.Filter{Kind: store.KindDataflow})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d dataflow documents, want 1", len(docs))
	}
	var spec provenance.DataflowSpec
	if err := json.Unmarshal(docs[0].Body, &spec); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if spec.Tag != "etl" || len(spec.Transformations) != 2 {
		t.Errorf("spec = %+v", spec)
	}
}

func TestTask(t *testing.T) {
	url, st := captureServer(t)
	out, err := runCLI(t, "--url", url, "task",
		"--dataflow", "etl", "--transformation", "extract", "--id", "1",
		"--in", "data.csv", "--out", "42",
		"--depends-on", "seed:0")
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	if !strings.Contains(out, "Task 1 (etl/extract) FINISHED") {
		t.Errorf("output = %q", out)
	}

	docs, err := st.List(context.Background(), store.Filter{Kind: store.KindTask, TaskID: "1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d task documents, want 2", len(docs))
	}
	if docs[0].Status != "RUNNING" || docs[1].Status != "FINISHED" {
		t.Errorf("statuses = %s, %s", docs[0].Status, docs[1].Status)
	}

	var spec provenance.TaskSpec
	if err := json.Unmarshal(docs[1].Body, &spec); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if spec.Dependency == nil || spec.Dependency.Tags[0] != "seed" || spec.Dependency.IDs[0] != "0" {
		t.Errorf("dependency = %+v", spec.Dependency)
	}
	if len(spec.Sets) != 2 {
		t.Fatalf("sets = %+v", spec.Sets)
	}
	if spec.Sets[1].Tag != "oextract" || spec.Sets[1].Elements[0][0] != float64(42) {
		t.Errorf("output set = %+v", spec.Sets[1])
	}
}

func TestTaskNonFiniteValuesStayText(t *testing.T) {
	url, st := captureServer(t)
	_, err := runCLI(t, "--url", url, "task",
		"--dataflow", "etl", "--transformation", "extract", "--id", "7",
		"--in", "NaN", "--out", "inf")
	if err != nil {
		t.Fatalf("task: %v", err)
	}

	docs, err := st.List(context.Background(), store.Filter{Kind: store.KindTask, TaskID: "7"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d task documents, want 2", len(docs))
	}
	var spec provenance.TaskSpec
	if err := json.Unmarshal(docs[1].Body, &spec); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got := spec.Sets[0].Elements[0][0]; got != "NaN" {
		t.Errorf("input value = %#v, want \"NaN\"", got)
	}
	if got := spec.Sets[1].Elements[0][0]; got != "inf" {
		t.Errorf("output value = %#v, want \"inf\"", got)
	}
}

func TestTaskBadDependency(t *testing.T) {
	url, _ := captureServer(t)
	_, err := runCLI(t, "--url", url, "task",
		"--dataflow", "etl", "--transformation", "extract", "--id", "1",
		"--depends-on", "seed")
	if err == nil || !strings.Contains(err.Error(), "--depends-on") {
		t.Fatalf("err = %v", err)
	}
}

func TestTaskUnreachableStore(t *testing.T) {
	_, err := runCLI(t, "--url", "http://127.0.0.1:1", "task",
		"--dataflow", "etl", "--transformation", "extract", "--id", "1")
	if err == nil {
		t.Fatal("expected error when the store is unreachable")
	}
}

func TestDocuments(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "capture.db")
	st, err := store.NewSQLiteStore(dbPath, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	df, _ := provenance.NewDataflow("Montage")
	spec := df.Specification()
	body, _ := json.Marshal(spec)
	doc := store.NewDataflowDocument(spec, body)
	if err := st.Record(context.Background(), doc); err != nil {
		t.Fatalf("Record: %v", err)
	}
	st.Close()

	out, err := runCLI(t, "documents", "--db", dbPath)
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if !strings.Contains(out, doc.ID) || !strings.Contains(out, "montage") {
		t.Errorf("output missing document:\n%s", out)
	}

	out, err = runCLI(t, "documents", "--db", dbPath, "--kind", "task")
	if err != nil {
		t.Fatalf("documents --kind task: %v", err)
	}
	if !strings.Contains(out, "No documents found.") {
		t.Errorf("output = %q", out)
	}

	if _, err := runCLI(t, "documents", "--db", dbPath, "--kind", "bogus"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", int64(42)},
		{"-3", int64(-3)},
		{"2.5", 2.5},
		{"image.fits", "image.fits"},
		{"NaN", "NaN"},
		{"inf", "inf"},
		{"-Infinity", "-Infinity"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}
