package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestShared(t *testing.T) {
	t.Run("GenerateID", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == b {
			t.Error("expected distinct IDs")
		}
		if _, err := uuid.Parse(a); err != nil {
			t.Errorf("expected a valid UUID, got %q: %v", a, err)
		}
	})

	t.Run("SetLogLevel", func(t *testing.T) {
		tc := []struct {
			level string
			want  log.Level
		}{
			{"debug", log.DebugLevel},
			{"warn", log.WarnLevel},
			{"error", log.ErrorLevel},
			{"nonsense", log.InfoLevel},
		}

		for _, tt := range tc {
			t.Run(tt.level, func(t *testing.T) {
				l := NewLogger(&bytes.Buffer{})
				SetLogLevel(l, tt.level)
				if got := l.GetLevel(); got != tt.want {
					t.Errorf("SetLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
				}
			})
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := WithLogger(NewLogger(buf), "component", "queue")
		l.Info("hello")
		if !strings.Contains(buf.String(), "component=queue") {
			t.Errorf("expected key-value pair in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "app.log")
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		l.Info("written to file")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "written to file") {
			t.Errorf("expected message in log file, got %q", string(data))
		}
	})
}
