package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	SetTestOutput(&buf)
	defer UnsetTestOutput()

	InitLogger("info", true)
	Debugf("hidden %s", "debug")
	Infof("resolving %s", "dummy-bash")
	Warnf("%s: package not found", "dummy-missing")

	out := buf.String()
	assert.NotContains(t, out, "hidden debug")
	assert.Contains(t, out, "resolving dummy-bash")
	assert.Contains(t, out, "dummy-missing: package not found")
}

func TestDebugLevelEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	SetTestOutput(&buf)
	defer UnsetTestOutput()

	InitLogger("debug", true)
	Debugf("added %s", "dummy-bash-4.2.24-2.x86_64")
	assert.Contains(t, buf.String(), "added dummy-bash-4.2.24-2.x86_64")
}

func TestFields(t *testing.T) {
	var buf bytes.Buffer
	SetTestOutput(&buf)
	defer UnsetTestOutput()

	InitLogger("info", true)
	Info("request solved", Fields{"request": "dummy-bash"})
	assert.Contains(t, buf.String(), "request=dummy-bash")
}
