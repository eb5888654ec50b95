package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestComponentWritesPrefixedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "firewatch.log")
	f, err := Setup(Options{File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer f.Close()

	f.Component("store").Printf("painted %d records", 7)
	f.Component("daemon").Printf("tick")

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	got := string(body)
	if !strings.Contains(got, "[store] ") || !strings.Contains(got, "painted 7 records") {
		t.Errorf("log file missing store line, got:\n%s", got)
	}
	if !strings.Contains(got, "[daemon] ") {
		t.Errorf("log file missing daemon prefix, got:\n%s", got)
	}
}

func TestSetupCreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "fw.log")
	f, err := Setup(Options{File: path})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer f.Close()

	f.Component("test").Println("hello")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file was not created: %v", err)
	}
}

func TestSilentWithoutFileOrVerbose(t *testing.T) {
	f, err := Setup(Options{})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer f.Close()

	// Must not panic and must not write anywhere observable.
	f.Component("quiet").Println("dropped")
	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
