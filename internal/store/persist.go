package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// ErrPersistence wraps every load/save/backup/restore I/O or parse
// failure. It is never fatal: the store keeps serving from memory.
var ErrPersistence = errors.New("persistence failure")

const fileMode = 0o644

// load reads the data file into the root. A missing or unparsable file
// leaves the empty defaults in place; startup never fails on it.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("no data file, starting empty", zap.String("file", s.path))
		} else {
			s.log.Warn("data file unreadable, starting empty",
				zap.String("file", s.path), zap.Error(err))
		}
		return
	}

	var r Root
	if err := json.Unmarshal(data, &r); err != nil {
		s.log.Warn("data file corrupt, starting empty",
			zap.String("file", s.path), zap.Error(err))
		return
	}

	r.fillDefaults()
	s.mu.Lock()
	s.root = r
	s.mu.Unlock()

	s.log.Info("data loaded", zap.String("file", s.path))
}

// markDirty schedules an async save. The channel holds at most one
// pending signal; the writer snapshots current state at write time, so
// coalesced mutations still end up on disk (last writer wins).
func (s *Store) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// writeLoop is the single goroutine allowed to write the data file,
// which serializes saves with respect to each other.
func (s *Store) writeLoop() {
	defer close(s.done)

	for {
		select {
		case <-s.dirty:
			s.save()
		case ack := <-s.flushCh:
			select {
			case <-s.dirty:
				s.save()
			default:
			}
			close(ack)
		case <-s.stopCh:
			return
		}
	}
}

// save writes the whole root to the data file, overwriting it. Errors
// are logged and absorbed.
func (s *Store) save() {
	if err := s.writeFile(s.path); err != nil {
		s.log.Warn("save failed, continuing in memory", zap.Error(err))
	}
}

func (s *Store) writeFile(path string) error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if err := os.WriteFile(path, data, fileMode); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, path, err)
	}
	return nil
}

// Flush blocks until every save scheduled before the call has reached
// the writer.
func (s *Store) Flush() {
	ack := make(chan struct{})
	select {
	case s.flushCh <- ack:
		<-ack
	case <-s.done:
	}
}

// Close stops the writer and performs a final synchronous save, so the
// on-disk state reflects the final in-memory state on shutdown.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		<-s.done
		s.save()
		s.log.Info("data saved", zap.String("file", s.path))
	})
}

// Backup writes the current root to a caller-named file, leaving the
// primary data file alone.
func (s *Store) Backup(name string) error {
	if err := s.writeFile(name); err != nil {
		s.log.Warn("backup failed", zap.String("file", name), zap.Error(err))
		return err
	}
	s.log.Info("backup created", zap.String("file", name))
	return nil
}

// Restore replaces the in-memory root with the contents of a backup
// file. On any failure the current state is left untouched and the
// error is reported to the caller.
func (s *Store) Restore(name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		s.log.Warn("restore failed", zap.String("file", name), zap.Error(err))
		return fmt.Errorf("%w: read %s: %v", ErrPersistence, name, err)
	}

	var r Root
	if err := json.Unmarshal(data, &r); err != nil {
		s.log.Warn("restore failed", zap.String("file", name), zap.Error(err))
		return fmt.Errorf("%w: parse %s: %v", ErrPersistence, name, err)
	}

	r.fillDefaults()
	s.mu.Lock()
	s.root = r
	s.mu.Unlock()

	s.log.Info("data restored from backup", zap.String("file", name))
	return nil
}

// ExportJSON returns the whole root as a pretty-printed JSON string.
func (s *Store) ExportJSON() (string, error) {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	return string(data), nil
}
