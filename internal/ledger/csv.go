package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/assist-by/rebalancer/internal/domain"
)

// CSVWriter는 월별 trades_YYYY-MM.csv 파일에 레코드를 추가합니다
type CSVWriter struct {
	dir string
	mu  sync.Mutex
}

// NewCSVWriter는 dir 아래에 원장 파일을 쓰는 CSVWriter를 생성합니다
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("원장 디렉토리 생성 실패: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// FileName은 레코드 시간이 속한 월의 파일 경로를 반환합니다
func (w *CSVWriter) FileName(rec domain.LedgerRecord) string {
	return filepath.Join(w.dir, rec.Time.Format("trades_2006-01.csv"))
}

// Record는 레코드를 파일에 추가하며, 새 파일이면 헤더를 먼저 씁니다
func (w *CSVWriter) Record(_ context.Context, rec domain.LedgerRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.FileName(rec)

	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("원장 파일 열기 실패: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if isNew {
		if err := cw.Write(domain.LedgerHeader); err != nil {
			return fmt.Errorf("원장 헤더 기록 실패: %w", err)
		}
	}
	if err := cw.Write(rec.Row()); err != nil {
		return fmt.Errorf("원장 기록 실패: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteRows는 헤더와 레코드들을 원장 파일 형식으로 w에 씁니다
func WriteRows(w io.Writer, recs []domain.LedgerRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.LedgerHeader); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := cw.Write(rec.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
