package logging

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		" WARN ":  "warn",
		"error":   "error",
		"info":    "info",
		"":        "info",
		"verbose": "info",
	}
	for in, want := range cases {
		if got := ParseLevel(in).String(); got != want {
			t.Fatalf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "arbox.log")

	logger, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("booked", zap.Int("schedule_id", 42))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"booked"`) || !strings.Contains(line, `"schedule_id":42`) {
		t.Fatalf("log line = %q, want JSON with msg and field", line)
	}
}

func TestNew_LevelFiltersOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbox.log")

	logger, err := New(Options{Level: "warn", File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(data), "quiet") || !strings.Contains(string(data), "loud") {
		t.Fatalf("log = %q, want only warn output", data)
	}
}

func TestBuildConfig_Destinations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbox.log")

	cfg, err := buildConfig(Options{File: path})
	if err != nil {
		t.Fatalf("buildConfig returned error: %v", err)
	}
	if !reflect.DeepEqual(cfg.OutputPaths, []string{path}) {
		t.Fatalf("OutputPaths = %v, want only the log file", cfg.OutputPaths)
	}
	if !reflect.DeepEqual(cfg.ErrorOutputPaths, []string{"stderr"}) {
		t.Fatalf("ErrorOutputPaths = %v, want stderr", cfg.ErrorOutputPaths)
	}

	cfg, err = buildConfig(Options{})
	if err != nil {
		t.Fatalf("buildConfig returned error: %v", err)
	}
	if !reflect.DeepEqual(cfg.OutputPaths, []string{"stderr"}) {
		t.Fatalf("OutputPaths without file = %v, want stderr", cfg.OutputPaths)
	}
}
