package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

type bufferWriteCloser struct {
	sync.Mutex
	bytes.Buffer
	closed bool
}

func (b *bufferWriteCloser) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	return b.Buffer.Write(p)
}

func (b *bufferWriteCloser) Close() error {
	b.Lock()
	defer b.Unlock()
	b.closed = true
	return nil
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		ok       bool
	}{
		{"trace", LevelTrace, true},
		{"DBG", LevelDebug, true},
		{"info", LevelInfo, true},
		{"wrn", LevelWarn, true},
		{"error", LevelError, true},
		{"critical", LevelCritical, true},
		{"off", LevelOff, true},
		{"verbose", LevelInfo, false},
	}
	for _, test := range tests {
		level, ok := LevelFromString(test.input)
		if level != test.expected || ok != test.ok {
			t.Errorf("LevelFromString(%q): expected (%s, %t) but got (%s, %t)",
				test.input, test.expected, test.ok, level, ok)
		}
	}
}

func TestBackendFiltersByLevel(t *testing.T) {
	backend := NewBackendWithFlags(0)
	infoWriter := &bufferWriteCloser{}
	errorWriter := &bufferWriteCloser{}
	if err := backend.AddLogWriter(infoWriter, LevelInfo); err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	if err := backend.AddLogWriter(errorWriter, LevelError); err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	if err := backend.Run(); err != nil {
		t.Fatalf("Run: %+v", err)
	}
	if err := backend.AddLogWriter(&bufferWriteCloser{}, LevelInfo); err == nil {
		t.Fatalf("AddLogWriter unexpectedly succeeded on a running backend")
	}

	log := backend.Logger("TEST")
	log.SetLevel(LevelDebug)
	log.Tracef("filtered by logger level")
	log.Debugf("debug %d", 1)
	log.Errorf("error %d", 2)
	backend.Close()

	if !infoWriter.closed || !errorWriter.closed {
		t.Fatalf("writers were not closed by Backend.Close")
	}
	infoOutput := infoWriter.String()
	if strings.Contains(infoOutput, "filtered by logger level") {
		t.Fatalf("trace entry leaked to output: %s", infoOutput)
	}
	if strings.Contains(infoOutput, "debug 1") {
		t.Fatalf("debug entry leaked to the info writer: %s", infoOutput)
	}
	if !strings.Contains(infoOutput, "[ERR] TEST: error 2") {
		t.Fatalf("error entry missing from the info writer: %s", infoOutput)
	}
	if !strings.Contains(errorWriter.String(), "error 2") {
		t.Fatalf("error entry missing from the error writer: %s", errorWriter.String())
	}
}

func TestParseAndSetLogLevels(t *testing.T) {
	log := RegisterSubSystem("TSTA")
	if err := ParseAndSetLogLevels("TSTA=debug"); err != nil {
		t.Fatalf("ParseAndSetLogLevels: %+v", err)
	}
	if log.Level() != LevelDebug {
		t.Fatalf("expected level %s but got %s", LevelDebug, log.Level())
	}
	if err := ParseAndSetLogLevels("NOPE=debug"); err == nil {
		t.Fatalf("expected an error for an unknown subsystem")
	}
	if err := ParseAndSetLogLevels("loud"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

func TestLogAndMeasureSlowExecution(t *testing.T) {
	backend := NewBackendWithFlags(0)
	writer := &bufferWriteCloser{}
	if err := backend.AddLogWriter(writer, LevelDebug); err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	if err := backend.Run(); err != nil {
		t.Fatalf("Run: %+v", err)
	}
	log := backend.Logger("TEST")
	log.SetLevel(LevelDebug)

	LogAndMeasureExecutionTime(log, "fast")()
	onEnd := LogAndMeasureSlowExecution(log, "slow", time.Nanosecond)
	time.Sleep(time.Millisecond)
	onEnd()
	backend.Close()

	output := writer.String()
	if !strings.Contains(output, "[DBG] TEST: fast end. Took:") {
		t.Fatalf("missing end line of fast call in %q", output)
	}
	if !strings.Contains(output, "[WRN] TEST: slow took") {
		t.Fatalf("slow call was not escalated to a warning in %q", output)
	}
}
