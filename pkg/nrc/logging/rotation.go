package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nappgui/nrc/pkg/nrc/config"
)

// RotationConfig bounds the shared log file and its backups.
type RotationConfig struct {
	// MaxSize is the size in bytes past which the file is rotated before
	// the next write. Zero uses the default.
	MaxSize int64

	// MaxAge is the number of days a backup is kept. Zero keeps backups
	// regardless of age.
	MaxAge int

	// MaxBackups is the number of backups kept. Zero keeps them all.
	MaxBackups int
}

// DefaultRotationConfig returns the rotation used when nothing is configured.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    5 * 1000 * 1000,
		MaxAge:     14,
		MaxBackups: 3,
	}
}

// ParseRotation converts the configured rotation, whose size is a human
// readable string such as "5MB" or "10MiB".
func ParseRotation(c config.RotationConfig) (RotationConfig, error) {
	cfg := RotationConfig{
		MaxAge:     c.MaxAge,
		MaxBackups: c.MaxBackups,
	}
	if c.MaxSize != "" {
		size, err := humanize.ParseBytes(c.MaxSize)
		if err != nil {
			return RotationConfig{}, fmt.Errorf("parsing rotation max_size %q: %w", c.MaxSize, err)
		}
		cfg.MaxSize = int64(size)
	}
	return cfg, nil
}

// backupLayout stamps rotated files; lexical order is chronological.
const backupLayout = "2006-01-02-150405.000"

// maxReopen bounds how often one write chases a file rotated away by
// another process.
const maxReopen = 3

// RotatingWriter appends to a log file that every nrc process on the
// machine shares; a parallel build may run many of them at once. Each
// write locks the file and measures it on disk, so the size limit holds
// across processes and a rotation done by one is picked up by the others
// on their next write.
type RotatingWriter struct {
	path string
	cfg  RotationConfig

	mu   sync.Mutex
	file *os.File
}

// NewRotatingWriter opens path for appending, creating parent directories,
// and prunes stale backups.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultRotationConfig().MaxSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{path: path, cfg: cfg}
	if err := w.reopen(); err != nil {
		return nil, err
	}
	w.prune(time.Now())
	return w, nil
}

// Write appends p, rotating first when p would push the file past
// MaxSize. A record larger than MaxSize still goes into a fresh file whole.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}

	size, err := w.lock()
	if err != nil {
		return 0, err
	}
	if size > 0 && size+int64(len(p)) > w.cfg.MaxSize {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotating log file: %w", err)
		}
		if _, err := w.lock(); err != nil {
			return 0, err
		}
	}
	defer unlockFile(w.file)

	n, err := w.file.Write(p)
	if err != nil {
		return n, fmt.Errorf("writing to log file: %w", err)
	}
	return n, nil
}

// Close closes the log file. Closing twice is a no-op.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	w.file = nil
	if syncErr != nil {
		return fmt.Errorf("syncing log file: %w", syncErr)
	}
	return closeErr
}

// lock takes the advisory lock on the open file and returns its size. When
// the path no longer names that file, another process rotated it, and the
// path is reopened before trying again.
func (w *RotatingWriter) lock() (int64, error) {
	for attempt := 0; ; attempt++ {
		if err := lockFile(w.file); err != nil {
			return 0, fmt.Errorf("acquiring file lock: %w", err)
		}

		held, err := w.file.Stat()
		if err != nil {
			unlockFile(w.file)
			return 0, fmt.Errorf("stat log file: %w", err)
		}
		current, err := os.Stat(w.path)
		if (err == nil && os.SameFile(held, current)) || attempt == maxReopen {
			return held.Size(), nil
		}

		unlockFile(w.file)
		if err := w.reopen(); err != nil {
			return 0, err
		}
	}
}

// reopen replaces the open file with the one currently at the path.
func (w *RotatingWriter) reopen() error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	w.file = file
	return nil
}

// rotate moves the locked file aside and opens a fresh one. It is called
// with the lock held and returns with it released.
func (w *RotatingWriter) rotate() error {
	now := time.Now()
	renameErr := os.Rename(w.path, w.backupName(now))

	unlockFile(w.file)
	if err := w.reopen(); err != nil {
		return err
	}
	if renameErr != nil {
		return fmt.Errorf("renaming log file: %w", renameErr)
	}

	w.prune(now)
	return nil
}

// backupName returns an unused name of the form nrc.<stamp>.log.
func (w *RotatingWriter) backupName(now time.Time) string {
	ext := filepath.Ext(w.path)
	base := strings.TrimSuffix(w.path, ext) + "." + now.Format(backupLayout)

	name := base + ext
	for i := 1; ; i++ {
		if _, err := os.Lstat(name); os.IsNotExist(err) {
			return name
		}
		name = base + "-" + strconv.Itoa(i) + ext
	}
}

type backup struct {
	path    string
	modTime time.Time
}

// backups lists rotated siblings of the log file, newest first.
func (w *RotatingWriter) backups() []backup {
	dir, file := filepath.Split(w.path)
	ext := filepath.Ext(file)
	prefix := strings.TrimSuffix(file, ext) + "."

	entries, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return nil
	}

	var out []backup
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == file || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, backup{path: filepath.Join(dir, name), modTime: info.ModTime()})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].modTime.After(out[j].modTime)
	})
	return out
}

// prune deletes backups beyond MaxBackups or older than MaxAge. Failures
// are ignored; another process may be pruning the same directory.
func (w *RotatingWriter) prune(now time.Time) {
	maxAge := time.Duration(w.cfg.MaxAge) * 24 * time.Hour
	for i, b := range w.backups() {
		tooMany := w.cfg.MaxBackups > 0 && i >= w.cfg.MaxBackups
		tooOld := w.cfg.MaxAge > 0 && now.Sub(b.modTime) > maxAge
		if tooMany || tooOld {
			_ = os.Remove(b.path)
		}
	}
}
