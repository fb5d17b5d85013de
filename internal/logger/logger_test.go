package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func initFileLogger(t *testing.T, level, path string) {
	t.Helper()
	cfg := FileConfig{
		Path:       path,
		MaxSizeMB:  10,
		MaxBackups: 1,
		MaxAgeDays: 1,
	}
	if err := InitWithFileConfig(level, cfg, false); err != nil {
		t.Fatalf("InitWithFileConfig() error = %v", err)
	}
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	return string(data)
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{
			level:    "error",
			expected: []string{"ERROR"},
			excluded: []string{"WARN", "INFO", "DEBUG"},
		},
		{
			level:    "warn",
			expected: []string{"ERROR", "WARN"},
			excluded: []string{"INFO", "DEBUG"},
		},
		{
			level:    "info",
			expected: []string{"ERROR", "WARN", "INFO"},
			excluded: []string{"DEBUG"},
		},
		{
			level:    "debug",
			expected: []string{"ERROR", "WARN", "INFO", "DEBUG"},
		},
		{
			// unknown strings fall back to info
			level:    "chatty",
			expected: []string{"INFO"},
			excluded: []string{"DEBUG"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.log")
			initFileLogger(t, tt.level, path)

			Debug("debug probe")
			Info("info probe")
			Warn("warn probe")
			Error("error probe")

			content := readLog(t, path)
			for _, want := range tt.expected {
				if !strings.Contains(content, want) {
					t.Errorf("level %s: output is missing %s lines", tt.level, want)
				}
			}
			for _, unwanted := range tt.excluded {
				if strings.Contains(content, unwanted) {
					t.Errorf("level %s: output has unexpected %s lines", tt.level, unwanted)
				}
			}
		})
	}
}

func TestStructuredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	initFileLogger(t, "info", path)

	Warn("bone not on target skeleton",
		zap.String("sequence", "Walk"),
		zap.String("bone", "Bip01 Tail"))

	content := readLog(t, path)
	for _, want := range []string{"bone not on target skeleton", "sequence", "Walk", "Bip01 Tail"} {
		if !strings.Contains(content, want) {
			t.Errorf("log line is missing %q: %s", want, content)
		}
	}
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	cfg := FileConfig{
		Path:       filepath.Join(dir, "conv.log"),
		MaxSizeMB:  1, // smallest lumberjack allows
		MaxBackups: 2,
		MaxAgeDays: 1,
	}
	if err := InitWithFileConfig("info", cfg, false); err != nil {
		t.Fatalf("InitWithFileConfig() error = %v", err)
	}

	// Roughly 2MB against a 1MB cap forces at least one rotation.
	padding := strings.Repeat("x", 200)
	for i := 0; i < 9000; i++ {
		Sugar.Infow("rotation probe", "seq", i, "pad", padding)
	}
	Sync()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading log dir: %v", err)
	}
	var logs []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "conv") && strings.HasSuffix(e.Name(), ".log") {
			logs = append(logs, e.Name())
		}
	}

	if len(logs) < 2 {
		t.Fatalf("log files = %v, want the live file plus at least one rotated", logs)
	}
	for _, name := range logs {
		if name == "conv.log" {
			continue
		}
		// Rotated names carry a timestamp: conv-YYYY-MM-DD....log
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s has no timestamp", name)
		}
	}
}

func TestNoSinkInitIsUsable(t *testing.T) {
	// Tests elsewhere run with neither console nor file output; the
	// package helpers must still be callable in that state.
	if err := InitWithFileConfig("debug", FileConfig{}, false); err != nil {
		t.Fatalf("InitWithFileConfig() error = %v", err)
	}
	if Log == nil || Sugar == nil {
		t.Fatal("Log or Sugar is nil after init")
	}

	Debug("dropped")
	Info("dropped", zap.Int("frames", 3))
	Warn("dropped")
	Error("dropped")
	Sync()
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/conv.log")

	if cfg.Path != "/tmp/conv.log" {
		t.Errorf("Path = %q, want /tmp/conv.log", cfg.Path)
	}
	if cfg.MaxSizeMB != 10 || cfg.MaxBackups != 3 || cfg.MaxAgeDays != 14 {
		t.Errorf("limits = %d MB, %d backups, %d days; want 10, 3, 14",
			cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("Compress = false, want true")
	}
}
