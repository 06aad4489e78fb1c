// Package logging provides the host's log plumbing: one global log stream
// for the supervisor itself, and one rotated, per-plugin log file handed
// out through a Sink each plugin record owns for its lifetime.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
)

const backupCount = 3

// Manager owns the global logger and mints per-plugin Sinks.
type Manager struct {
	root      hclog.Logger
	globalLog *rotateFile
	pluginDir string

	mu    sync.Mutex
	sinks []*Sink
}

// NewManager creates the log directory tree and the global logger.
func NewManager(logDir string, level hclog.Level, jsonFormat bool) (*Manager, error) {
	pluginDir := filepath.Join(logDir, "plugins")
	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create plugin log directory %s: %w", pluginDir, err)
	}

	globalLog, err := newRotateFile(filepath.Join(logDir, "core.log"), backupCount)
	if err != nil {
		return nil, fmt.Errorf("could not open global log file: %w", err)
	}

	root := hclog.New(&hclog.LoggerOptions{
		Name:       "aigis",
		Level:      level,
		Output:     globalLog,
		JSONFormat: jsonFormat,
	})

	return &Manager{root: root, globalLog: globalLog, pluginDir: pluginDir}, nil
}

// Global returns the host's own logger.
func (m *Manager) Global() hclog.Logger { return m.root }

// Hook mints a Sink for a newly registered plugin record.
func (m *Manager) Hook(pluginName, id string) (*Sink, error) {
	path := filepath.Join(m.pluginDir, fmt.Sprintf("%s_%s.log", pluginName, id))
	file, err := newRotateFile(path, backupCount)
	if err != nil {
		return nil, fmt.Errorf("could not open log file for plugin %s: %w", pluginName, err)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   pluginName,
		Level:  m.root.GetLevel(),
		Output: file,
	})

	sink := &Sink{Logger: logger, file: file}

	m.mu.Lock()
	m.sinks = append(m.sinks, sink)
	m.mu.Unlock()

	return sink, nil
}

// Close flushes the global log file and releases any per-plugin sinks a
// caller never buried (e.g. plugins still live at host shutdown, once
// Registry.Cleanup has asked their loaders to stop but before this runs).
// Sink.Close is safe to call again on an already-closed sink; its error
// is discarded here since Manager.Close is a best-effort final sweep.
func (m *Manager) Close() error {
	m.mu.Lock()
	for _, sink := range m.sinks {
		sink.Close()
	}
	m.mu.Unlock()

	return m.globalLog.Close()
}
