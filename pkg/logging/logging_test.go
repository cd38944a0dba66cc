package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigureTextOutput(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf})

	Info("cycle started", "mode", "auto")

	out := buf.String()
	if !strings.Contains(out, "cycle started") || !strings.Contains(out, "mode=auto") {
		t.Errorf("Unexpected log output: %q", out)
	}
}

func TestConfigureJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf, JSON: true})

	Warn("marker save failed", "path", "/tmp/x")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if entry["msg"] != "marker save failed" {
		t.Errorf("Unexpected msg: %v", entry["msg"])
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf})
	Debug("hidden")
	if buf.Len() != 0 {
		t.Error("Debug output should be suppressed by default")
	}

	Configure(Options{Output: &buf, Verbose: true})
	Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("Debug output should appear in verbose mode")
	}
}
