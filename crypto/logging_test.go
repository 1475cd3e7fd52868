package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("Engine.Sign")
	assert.Equal(t, "Engine.Sign", logger.function)
	assert.Equal(t, "Engine.Sign", logger.fields["function"])
	assert.Equal(t, "crypto", logger.fields["package"])
}

func TestLoggerHelper_WithError(t *testing.T) {
	logger := NewLogger("Engine.Decrypt").WithError(errors.New("boom"), "decrypt")
	assert.Equal(t, "boom", logger.fields["error"])
	assert.Equal(t, "decrypt", logger.fields["operation"])
}

func TestLoggerHelper_Output(t *testing.T) {
	var buf bytes.Buffer
	original := logrus.StandardLogger().Out
	level := logrus.GetLevel()
	logrus.SetOutput(&buf)
	logrus.SetLevel(logrus.DebugLevel)
	defer func() {
		logrus.SetOutput(original)
		logrus.SetLevel(level)
	}()

	NewLogger("Test").WithField("key_size", 16).Info("loaded")
	assert.Contains(t, buf.String(), "loaded")
	assert.Contains(t, buf.String(), "key_size=16")
	assert.Contains(t, buf.String(), "package=crypto")
}

func TestPreviewFields(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		preview string
		size    int
	}{
		{name: "Nil", data: nil, preview: "nil", size: 0},
		{name: "Short", data: []byte{1, 2}, preview: "0102", size: 2},
		{name: "Truncated", data: []byte{1, 2, 3, 4, 5, 6}, preview: "01020304...", size: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := PreviewFields(tt.data, "iv")
			assert.Equal(t, tt.preview, fields["iv_preview"])
			assert.Equal(t, tt.size, fields["iv_size"])
		})
	}
}
