package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"ai-travel-planner/internal/observability/logging"
	"ai-travel-planner/internal/observability/metrics"
)

// Job is the set of temporary files owned by one pipeline invocation.
// Release it through the Workspace that created it.
type Job struct {
	ID             string
	RawPath        string
	NormalizedPath string
	CreatedAt      time.Time

	release sync.Once
}

// Workspace hands out uniquely named job files in a directory and removes
// them on release.
type Workspace struct {
	dir     string
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewWorkspace creates dir if needed. A nil m uses metrics.DefaultMetrics.
func NewWorkspace(dir string, m *metrics.Metrics) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Workspace{
		dir:     dir,
		metrics: m,
		logger:  logging.WithComponent("workspace"),
	}, nil
}

// Dir returns the work directory.
func (w *Workspace) Dir() string { return w.dir }

// NewJob allocates paths for a new upload. ext is the raw file extension,
// with or without the leading dot. No file is created.
func (w *Workspace) NewJob(ext string) *Job {
	id := xid.New().String()
	ext = sanitizeExt(ext)
	return &Job{
		ID:             id,
		RawPath:        filepath.Join(w.dir, id+ext),
		NormalizedPath: w.normalizedPath(id),
		CreatedAt:      time.Now(),
	}
}

// Adopt takes ownership of an existing raw file. The raw file is deleted on
// release like any other job file.
func (w *Workspace) Adopt(rawPath string) *Job {
	id := xid.New().String()
	return &Job{
		ID:             id,
		RawPath:        rawPath,
		NormalizedPath: w.normalizedPath(id),
		CreatedAt:      time.Now(),
	}
}

// Release removes both job files. It is safe to call more than once and never
// fails: missing files are ignored, other errors are logged and counted.
func (w *Workspace) Release(job *Job) {
	if job == nil {
		return
	}
	job.release.Do(func() {
		for _, path := range []string{job.RawPath, job.NormalizedPath} {
			if path == "" {
				continue
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				w.metrics.RecordCleanupFailure()
				w.logger.Warn().Err(err).Str("jobId", job.ID).Str("path", path).Msg("Failed to remove job file")
			}
		}
	})
}

func (w *Workspace) normalizedPath(id string) string {
	return filepath.Join(w.dir, id+"_16k.wav")
}

// sanitizeExt keeps a short alphanumeric extension or falls back to ".bin".
func sanitizeExt(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" || len(ext) > 8 {
		return ".bin"
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ".bin"
		}
	}
	return "." + ext
}
