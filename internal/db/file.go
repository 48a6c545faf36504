package db

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"coin-heist/internal/models"

	"github.com/klauspost/compress/zstd"
)

// FileStore keeps the whole ledger in one JSON document. Every commit
// rewrites the document into a temp file in the same directory and renames
// it over the old one, so a crash leaves either the old or the new ledger.
// Paths ending in ".zst" are zstd compressed.
type FileStore struct {
	mu     sync.Mutex
	path   string
	ledger *models.Ledger
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) compressed() bool {
	return strings.HasSuffix(s.path, ".zst")
}

// Load reads the ledger, creating an empty one on disk if none exists yet.
func (s *FileStore) Load(ctx context.Context) (*models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.read()
	if errors.Is(err, os.ErrNotExist) {
		ledger = models.NewLedger()
		if err := s.write(ledger); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	s.ledger = ledger
	return ledger.Copy(), nil
}

func (s *FileStore) Commit(ctx context.Context, change models.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger == nil {
		return errors.New("file store: commit before load")
	}
	next := s.ledger.Copy()
	next.Apply(change)
	if err := s.write(next); err != nil {
		return err
	}
	s.ledger = next
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (*models.Ledger, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if s.compressed() {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd ledger: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	ledger := models.NewLedger()
	if err := json.NewDecoder(r).Decode(ledger); err != nil {
		return nil, fmt.Errorf("failed to decode ledger %s: %w", s.path, err)
	}
	ledger.Normalize()
	return ledger, nil
}

func (s *FileStore) write(ledger *models.Ledger) (err error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger dir: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = encodeLedger(f, ledger, s.compressed()); err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

func encodeLedger(w io.Writer, ledger *models.Ledger, compress bool) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	var out io.Writer = bw
	var enc *zstd.Encoder
	if compress {
		var err error
		enc, err = zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		out = enc
	}

	je := json.NewEncoder(out)
	je.SetIndent("", "  ")
	if err := je.Encode(ledger); err != nil {
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}
