package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHandlerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, Options{Level: slog.LevelInfo, Format: "json"}))
	logger.Info("profile launched", "profile_id", "p1")
	assert.Contains(t, buf.String(), `"profile_id":"p1"`)

	buf.Reset()
	logger = slog.New(newHandler(&buf, Options{Level: slog.LevelInfo, Format: "text"}))
	logger.Debug("hidden")
	logger.Warn("visible")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=visible")
}
