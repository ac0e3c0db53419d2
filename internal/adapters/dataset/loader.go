package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/okian/trendcast/pkg/logger"
	"github.com/okian/trendcast/pkg/metrics"
)

// Loader parses the dataset file once and hands out copies.
type Loader struct {
	path        string
	indexColumn string
	log         logger.Logger

	mu    sync.RWMutex
	table *Table
}

// NewLoader returns a loader for the CSV at path. Nothing is read until Load.
func NewLoader(path string, opts ...Option) *Loader {
	l := &Loader{
		path:        path,
		indexColumn: DefaultIndexColumn,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the dataset file path.
func (l *Loader) Path() string { return l.path }

// Loaded reports whether the table is cached.
func (l *Loader) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.table != nil
}

// Load returns a copy of the cached table, parsing the file on first use.
// Concurrent first callers share one parse. A failed parse is not cached.
func (l *Loader) Load(ctx context.Context) (*Table, error) {
	l.mu.RLock()
	t := l.table
	l.mu.RUnlock()
	if t != nil {
		return t.Copy(), nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.table != nil {
		return l.table.Copy(), nil
	}

	start := time.Now()
	t, err := l.read()
	if err != nil {
		metrics.RecordDatasetLoad("failure")
		l.logger().Error(ctx, "dataset load failed", logger.String("path", l.path), logger.Error(err))
		return nil, err
	}
	l.table = t
	metrics.RecordDatasetLoad("success")
	metrics.UpdateDatasetRows(t.Len())
	l.logger().Info(ctx, "dataset loaded",
		logger.String("path", l.path),
		logger.Int("rows", t.Len()),
		logger.Any("columns", t.Columns()),
		logger.Duration("took", time.Since(start)))
	return t.Copy(), nil
}

func (l *Loader) read() (*Table, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, l.path)
	}
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", l.path, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f, l.indexColumn)
}

func (l *Loader) logger() logger.Logger {
	if l.log == nil {
		l.log = logger.Named("dataset")
	}
	return l.log
}
