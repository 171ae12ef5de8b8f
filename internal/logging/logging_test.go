package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braamfashionweek/formmail"
	"github.com/braamfashionweek/formmail/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := logging.ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWithWriter_JSONWithRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, "json", slog.LevelInfo, logging.RequestID, nil)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	log.InfoContext(ctx, "submission sent", slog.String("form", "contact"))
	log.DebugContext(ctx, "dropped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "submission sent", rec["msg"])
	assert.Equal(t, "contact", rec["form"])
	assert.Equal(t, "req-42", rec["request_id"])
	assert.Equal(t, "formmail", rec["service"])
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNewWithWriter_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, "text", slog.LevelDebug)
	log.Debug("hello", slog.String("form", "designer"))

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "form=designer")
}

func TestNew_FileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "formmail.log")
	log, closer, err := logging.New(formmail.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("written")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	t.Parallel()

	_, _, err := logging.New(formmail.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
