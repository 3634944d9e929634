package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
)

// LogManager owns the log file and rotates it by size
type LogManager struct {
	config     *LogConfig
	currentLog *os.File
}

func NewLogManager(cfg *LogConfig) *LogManager {
	return &LogManager{
		config: cfg,
	}
}

// CleanupLogFile truncates the log file if it exists
func CleanupLogFile(filePath string) error {
	if filePath == "" {
		return nil
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.New(ErrLogFileOpenFailed, "failed to open log file for cleanup", err).AddContext("path", filePath)
	}
	return file.Close()
}

// GetWriter opens the log file for appending, rotating it first when it
// has outgrown MaxSize
func (lm *LogManager) GetWriter() (io.Writer, error) {
	if lm.config.FilePath == "" {
		return nil, errors.New(ErrLogFilePathRequired, "no log file path specified", nil)
	}

	logDir := filepath.Dir(lm.config.FilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, errors.New(ErrLogDirectoryCreationFailed, "failed to create log directory", err).AddContext("dir", logDir)
	}

	if err := lm.checkRotation(); err != nil {
		return nil, errors.New(ErrLogRotationCheckFailed, "failed to check log rotation", err)
	}

	file, err := os.OpenFile(lm.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.New(ErrLogFileOpenFailed, "failed to open log file", err).AddContext("path", lm.config.FilePath)
	}

	lm.currentLog = file
	return file, nil
}

func (lm *LogManager) checkRotation() error {
	if lm.config.MaxSize <= 0 {
		return nil
	}

	info, err := os.Stat(lm.config.FilePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.New(ErrLogFileStatFailed, "failed to stat log file", err)
	}

	maxSizeBytes := int64(lm.config.MaxSize) * 1024 * 1024
	if info.Size() < maxSizeBytes {
		return nil
	}

	return lm.rotateLog()
}

func (lm *LogManager) rotateLog() error {
	if lm.currentLog != nil {
		lm.currentLog.Close()
		lm.currentLog = nil
	}

	timestamp := time.Now().Format("2006-01-02-15-04-05")
	backupPath := fmt.Sprintf("%s.%s", lm.config.FilePath, timestamp)

	if err := os.Rename(lm.config.FilePath, backupPath); err != nil {
		return errors.New(ErrLogRotationFailed, "failed to rotate log file", err)
	}

	if err := lm.cleanupOldBackups(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to cleanup old log backups: %v\n", err)
	}

	return nil
}

// cleanupOldBackups removes backups beyond MaxBackups or older than MaxAge days
func (lm *LogManager) cleanupOldBackups() error {
	if lm.config.MaxBackups <= 0 && lm.config.MaxAge <= 0 {
		return nil
	}

	logDir := filepath.Dir(lm.config.FilePath)
	logBase := filepath.Base(lm.config.FilePath)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return errors.New(ErrLogBackupReadFailed, "failed to read log directory", err)
	}

	var backups []backupInfo
	for _, entry := range entries {
		if entry.IsDir() || !isBackupFile(entry.Name(), logBase) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupInfo{
			path:    filepath.Join(logDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	// Oldest first
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.Before(backups[j].modTime)
	})

	removed := make(map[string]bool)
	if lm.config.MaxBackups > 0 && len(backups) > lm.config.MaxBackups {
		for _, b := range backups[:len(backups)-lm.config.MaxBackups] {
			if err := os.Remove(b.path); err != nil {
				return errors.New(ErrLogBackupRemoveFailed, "failed to remove old backup", err).AddContext("backup_path", b.path)
			}
			removed[b.path] = true
		}
	}

	if lm.config.MaxAge > 0 {
		cutoff := time.Now().AddDate(0, 0, -lm.config.MaxAge)
		for _, b := range backups {
			if removed[b.path] || !b.modTime.Before(cutoff) {
				continue
			}
			if err := os.Remove(b.path); err != nil {
				return errors.New(ErrLogBackupRemoveFailed, "failed to remove old backup", err).AddContext("backup_path", b.path)
			}
		}
	}

	return nil
}

func (lm *LogManager) Close() error {
	if lm.currentLog != nil {
		return lm.currentLog.Close()
	}
	return nil
}

type backupInfo struct {
	path    string
	modTime time.Time
}

func isBackupFile(name, baseName string) bool {
	return strings.HasPrefix(name, baseName+".")
}

// SetupLogger creates the run logger: a console writer and/or the log file.
// The returned closer releases the log file. Only the parent process may
// call it, since it truncates and rotates the shared file.
func SetupLogger(cfg *Config) (zerolog.Logger, io.Closer, error) {
	var writers []io.Writer
	if cfg.Log.Console {
		writers = append(writers, consoleWriter(cfg.Log, os.Stderr))
	}

	logManager := NewLogManager(&cfg.Log)
	if cfg.Log.FilePath != "" {
		if cfg.Log.Cleanup {
			if err := CleanupLogFile(cfg.Log.FilePath); err != nil {
				return zerolog.Nop(), nil, errors.New(ErrLogCleanupFailed, "failed to cleanup log file", err)
			}
		}

		fileWriter, err := logManager.GetWriter()
		if err != nil {
			return zerolog.Nop(), nil, errors.New(ErrLogFileWriterSetupFailed, "failed to setup file writer", err)
		}
		writers = append(writers, fileWriter)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	return newLogger(cfg.Log, out), logManager, nil
}

// NewWorkerLogger is the logger of a worker subprocess. It writes to w
// only (stderr, which the parent forwards) and never opens the run log
// file, so sibling workers cannot truncate or rotate it under the parent.
func NewWorkerLogger(cfg *Config, w io.Writer) zerolog.Logger {
	return newLogger(cfg.Log, consoleWriter(cfg.Log, w)).With().Int("pid", os.Getpid()).Logger()
}

func consoleWriter(cfg LogConfig, w io.Writer) io.Writer {
	if cfg.Format == "json" {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
}

func newLogger(cfg LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("component", "oraport").
		Logger()
}
