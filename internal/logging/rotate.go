package logging

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"
)

// rotateFile is an io.Writer over a single log file that rolls onto a new
// file once the calendar day changes, keeping a bounded number of numbered
// backups (path.1 newest, up to path.<backups>). hclog only needs an io.Writer, so this sits underneath it
// without hclog needing to know rotation happened.
type rotateFile struct {
	mu      sync.Mutex
	path    string
	backups int
	f       *os.File
	day     string
}

func newRotateFile(path string, backups int) (*rotateFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &rotateFile{path: path, backups: backups, f: f, day: time.Now().Format("2006-01-02")}, nil
}

func (r *rotateFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := time.Now().Format("2006-01-02")
	if today != r.day {
		if err := r.rotateLocked(); err != nil {
			return 0, err
		}
		r.day = today
	}
	return r.f.Write(p)
}

func (r *rotateFile) rotateLocked() error {
	if err := r.f.Close(); err != nil {
		return err
	}
	for i := r.backups; i >= 1; i-- {
		dst := backupName(r.path, i)
		if i == r.backups {
			os.Remove(dst)
		}
		src := backupName(r.path, i-1)
		if _, err := os.Stat(src); err == nil {
			os.Rename(src, dst)
		}
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	r.f = f
	return nil
}

func backupName(path string, n int) string {
	if n == 0 {
		return path
	}
	return fmt.Sprintf("%s.%d", path, n)
}

// Tail returns up to the last n lines currently in the active log file.
func (r *rotateFile) Tail(n int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *rotateFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}
