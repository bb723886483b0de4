package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "info", "json")
		if err != nil {
			t.Fatalf("failed to build logger: %v", err)
		}

		logger.Debug().Msg("hidden")
		logger.Info().Str("path", "/").Msg("request")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
		}
		if entry["message"] != "request" || entry["path"] != "/" {
			t.Errorf("unexpected entry: %v", entry)
		}
	})

	t.Run("Console", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "debug", "console")
		if err != nil {
			t.Fatalf("failed to build logger: %v", err)
		}

		logger.Debug().Msg("visible")
		if !bytes.Contains(buf.Bytes(), []byte("visible")) {
			t.Errorf("expected console output, got %q", buf.String())
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		if _, err := New(&bytes.Buffer{}, "loud", "json"); err == nil {
			t.Error("expected error for unknown level")
		}
		if _, err := New(&bytes.Buffer{}, "info", "xml"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
