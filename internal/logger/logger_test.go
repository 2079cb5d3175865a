package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigureWritesToSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create log file: %v", err)
	}

	Configure("debug", f)
	defer Discard()

	Debugf("debug %s", "line")
	Infof("info line")
	Sync()
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "debug line") {
		t.Errorf("expected debug line in output, got %q", out)
	}
	if !strings.Contains(out, "info line") {
		t.Errorf("expected info line in output, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create log file: %v", err)
	}

	Configure("warn", f)
	defer Discard()

	Infof("filtered out")
	Warnf("kept")
	Sync()
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "filtered out") {
		t.Errorf("info line should be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("expected warn line in output, got %q", out)
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create log file: %v", err)
	}

	Configure("nonsense", f)
	defer Discard()

	Debugf("hidden")
	Infof("visible")
	Sync()
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered at info level, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("expected info line in output, got %q", out)
	}
}
