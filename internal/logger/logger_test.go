package logger

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestNew_LevelParsing(t *testing.T) {
	log, err := New("debug", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", log.GetLevel())
	}

	// 非法级别降级为 info 而不是报错
	fallback, err := New("not-a-level", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if fallback.GetLevel() != logrus.InfoLevel {
		t.Errorf("fallback level = %v, want info", fallback.GetLevel())
	}
}

func TestLineFormatter(t *testing.T) {
	f := &lineFormatter{}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "pipeline started",
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	line := string(out)
	if !strings.Contains(line, "[INFO") {
		t.Errorf("missing level tag: %q", line)
	}
	if !strings.Contains(line, "pipeline started") {
		t.Errorf("missing message: %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("missing trailing newline: %q", line)
	}
}
