// Package history persists analysis records on local disk. Each record is
// written as its own JSON file first, then a summary line is appended to a
// JSONL index (write-then-index): an interrupted append can leave at most an
// orphaned record file, never a corrupt index entry for a half-written record.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"photosense-backend/internal/models"
	"photosense-backend/internal/services/storage"
)

const lockTimeout = 5 * time.Second

// ClearError reports which cleanup step of a clear failed. Index removal and
// asset removal are separate steps; a partial clear names the one that broke.
type ClearError struct {
	Step string
	Err  error
}

func (e *ClearError) Error() string {
	return fmt.Sprintf("history clear failed at %s: %v", e.Step, e.Err)
}

func (e *ClearError) Unwrap() error {
	return e.Err
}

// indexEntry is one line of the JSONL index: the listing summary plus the
// asset file names the record owns, so pruning and clearing can remove them.
type indexEntry struct {
	models.RecordSummary
	Assets []string `json:"assets,omitempty"`
}

// Store is the on-disk history of analysis records.
type Store struct {
	dir      string
	maxItems int
	assets   *storage.AssetStore
	logger   *zap.Logger

	mu   sync.Mutex
	lock fileLock
}

func NewStore(dir string, maxItems int, assets *storage.AssetStore, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "records"), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	return &Store{
		dir:      dir,
		maxItems: maxItems,
		assets:   assets,
		logger:   logger,
		lock:     fileLock{path: filepath.Join(dir, "index.lock")},
	}, nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, "index.log")
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dir, "records", id+".json")
}

// Append persists a record. The record file lands via temp-file + rename so
// readers never observe a partial record, then the index line is appended.
func (s *Store) Append(record *models.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.acquire(lockTimeout); err != nil {
		return err
	}
	defer s.lock.release()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	tmpPath := s.recordPath(record.ID) + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmpPath, s.recordPath(record.ID)); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}

	entry := indexEntry{
		RecordSummary: record.Summarize(),
		Assets:        recordAssets(record),
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal index entry: %w", err)
	}

	f, err := os.OpenFile(s.indexPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	// A torn append may have left the last line unterminated; heal it so the
	// new entry starts on its own line.
	if info, err := f.Stat(); err == nil && info.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err == nil && last[0] != '\n' {
			line = append([]byte{'\n'}, line...)
		}
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return fmt.Errorf("seek index: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append index: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	if s.maxItems > 0 {
		if err := s.prune(); err != nil {
			s.logger.Warn("history prune failed", zap.Error(err))
		}
	}

	return nil
}

// List returns up to limit summaries, most recent first. It reads only the
// index, never record files or image assets.
func (s *Store) List(limit int) ([]models.RecordSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	summaries := make([]models.RecordSummary, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && len(summaries) >= limit {
			break
		}
		summaries = append(summaries, entries[i].RecordSummary)
	}

	return summaries, nil
}

// Get loads one full record by id.
func (s *Store) Get(id string) (*models.AnalysisRecord, error) {
	data, err := os.ReadFile(s.recordPath(path.Base(id)))
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	var record models.AnalysisRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &record, nil
}

// Clear removes the index, all record files, and all stored assets. The
// returned count is the number of entries removed from the visible history:
// zero whenever the clear failed before the index came off, the full entry
// count once it did, even if a later step broke. A *ClearError names the
// step that failed.
func (s *Store) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.acquire(lockTimeout); err != nil {
		return 0, err
	}
	defer s.lock.release()

	entries, err := s.readIndex()
	if err != nil {
		return 0, &ClearError{Step: "index read", Err: err}
	}
	count := len(entries)

	if err := os.Remove(s.indexPath()); err != nil && !os.IsNotExist(err) {
		return 0, &ClearError{Step: "index removal", Err: err}
	}

	if err := os.RemoveAll(filepath.Join(s.dir, "records")); err != nil {
		return count, &ClearError{Step: "record removal", Err: err}
	}
	if err := os.MkdirAll(filepath.Join(s.dir, "records"), 0o755); err != nil {
		return count, &ClearError{Step: "record removal", Err: err}
	}

	if _, err := s.assets.Clear(); err != nil {
		return count, &ClearError{Step: "asset removal", Err: err}
	}

	return count, nil
}

// prune drops the oldest entries past maxItems, removing their record files
// and assets, and compacts the index via temp-file + rename.
func (s *Store) prune() error {
	entries, err := s.readIndex()
	if err != nil {
		return err
	}
	if len(entries) <= s.maxItems {
		return nil
	}

	drop := entries[:len(entries)-s.maxItems]
	keep := entries[len(entries)-s.maxItems:]

	for _, entry := range drop {
		if err := os.Remove(s.recordPath(entry.ID)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("prune record removal failed", zap.String("id", entry.ID), zap.Error(err))
		}
		for _, asset := range entry.Assets {
			if err := s.assets.Remove(asset); err != nil {
				s.logger.Warn("prune asset removal failed", zap.String("asset", asset), zap.Error(err))
			}
		}
	}

	tmpPath := s.indexPath() + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open index temp: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, entry := range keep {
		line, err := json.Marshal(entry)
		if err != nil {
			f.Close()
			return fmt.Errorf("marshal index entry: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			f.Close()
			return fmt.Errorf("write index temp: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush index temp: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close index temp: %w", err)
	}

	return os.Rename(tmpPath, s.indexPath())
}

// readIndex parses the JSONL index, oldest first. Unparseable lines are
// skipped: a torn write must not poison every later entry.
func (s *Store) readIndex() ([]indexEntry, error) {
	f, err := os.Open(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	var entries []indexEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry indexEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			s.logger.Warn("skipping corrupt index line", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	return entries, nil
}

// recordAssets lists the asset file names a record owns.
func recordAssets(record *models.AnalysisRecord) []string {
	var assets []string
	seen := map[string]struct{}{}
	for _, ref := range []string{record.OriginalImage, record.AnnotatedImage, record.Thumbnail} {
		if ref == "" {
			continue
		}
		name := path.Base(ref)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		assets = append(assets, name)
	}
	return assets
}
