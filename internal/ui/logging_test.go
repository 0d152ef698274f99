package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, false)

	log.Debugf("hidden %d", 1)
	log.Infof("navigating to %s", "/new")
	log.Warnf("no guest button")
	log.Errorf("failed: %v\n", "boom")

	assert.Equal(t, "[INFO] navigating to /new\n[WARN] no guest button\n[ERROR] failed: boom\n", buf.String())
}

func TestLogger_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, true)

	log.Debugf("selector %q", "[data-testid=x]")
	log.Println("=====")

	assert.Equal(t, "[DEBUG] selector \"[data-testid=x]\"\n=====\n", buf.String())
}
