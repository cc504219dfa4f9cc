package log

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestInitDefaultsToStdout(t *testing.T) {
	once = sync.Once{}
	Init(&LoggerConfig{Pattern: "%level %msg", Time: "15:04:05", Level: "info"})
	if GetLogger() == nil {
		t.Fatal("expected logger to be initialized")
	}
}

func TestInitWithFileAppenderCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")

	once = sync.Once{}
	Init(&LoggerConfig{
		Pattern:  "%level %msg",
		Time:     "15:04:05",
		Level:    "debug",
		Appender: "file",
		FilePath: path,
	})
	GetLogger().Info("hello")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected log file at %s", path)
	}
}

func TestLogrusAdapterWithFieldReturnsDistinctLogger(t *testing.T) {
	once = sync.Once{}
	Init(&LoggerConfig{Pattern: "%level %msg %field", Time: "15:04:05", Level: "info"})
	base := GetLogger()
	child := base.WithField("run", 1)
	if child == base {
		t.Fatal("expected WithField to return a distinct logger")
	}
	if !child.IsInfoEnabled() {
		t.Fatal("expected info level enabled")
	}
}
