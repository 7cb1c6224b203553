package transcript

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
)

const targetAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// FileRecorder writes one JSON-lines file per session.
type FileRecorder struct {
	dir string
	mu  sync.Mutex
}

// NewFileRecorder ensures dir exists and returns a recorder rooted there.
func NewFileRecorder(dir string) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("transcript: ensure dir: %w", err)
	}
	return &FileRecorder{dir: dir}, nil
}

// NewTarget returns "<random>_<candidate>_interview.jsonl".
func (r *FileRecorder) NewTarget(_ string, candidate string) string {
	return fmt.Sprintf("%s_%s_interview.jsonl", randomString(8), sanitize(candidate))
}

// Append writes rec as a single JSON line.
func (r *FileRecorder) Append(_ context.Context, target string, rec interview.Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("transcript: encode record: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.Path(target), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("transcript: open %s: %w", target, err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("transcript: write %s: %w", target, err)
	}
	return f.Close()
}

// Path resolves a target to its file location.
func (r *FileRecorder) Path(target string) string {
	return filepath.Join(r.dir, filepath.Base(target))
}

func sanitize(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return '-'
	}, strings.TrimSpace(name))
	if cleaned == "" {
		return "candidate"
	}
	return cleaned
}

func randomString(length int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(targetAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte(targetAlphabet[i%len(targetAlphabet)])
			continue
		}
		b.WriteByte(targetAlphabet[n.Int64()])
	}
	return b.String()
}
