// Package logger는 이벤트를 콘솔과 회전 파일 로그로 기록합니다.
package logger

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/assist-by/rebalancer/internal/event"
)

// Tier는 파일 로그에 남길 이벤트 범위입니다.
// ERROR ⊂ WARNING ⊂ TRADE ⊂ INFO 순서로 넓어집니다.
type Tier int

const (
	TierError Tier = iota
	TierWarning
	TierTrade
	TierInfo
)

// ParseTier는 설정 문자열을 Tier로 변환합니다
func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return TierError, nil
	case "WARNING":
		return TierWarning, nil
	case "TRADE":
		return TierTrade, nil
	case "INFO":
		return TierInfo, nil
	default:
		return TierTrade, fmt.Errorf("잘못된 파일 로그 레벨: %q (ERROR, WARNING, TRADE, INFO)", s)
	}
}

// tradeKinds는 TRADE 단계에서 기록하는 이벤트 분류입니다
var tradeKinds = map[event.Kind]bool{
	event.KindTrade:    true,
	event.KindGTC:      true,
	event.KindStartup:  true,
	event.KindShutdown: true,
	event.KindTimeSync: true,
}

// Admits는 이벤트가 이 Tier의 파일 로그에 기록되는지 확인합니다
func (t Tier) Admits(e event.Event) bool {
	switch {
	case e.Severity >= event.Error:
		return true
	case e.Severity == event.Warning:
		return t >= TierWarning
	case e.Severity == event.Info:
		if t >= TierInfo {
			return true
		}
		return t >= TierTrade && tradeKinds[e.Kind]
	default:
		return false
	}
}

// Config는 로거 설정입니다
type Config struct {
	Level             string // 콘솔 로그 레벨: debug, info, warn, error
	FileEnabled       bool   // 파일 로그 사용 여부
	FilePath          string // 파일 로그 경로
	FileTier          Tier   // 파일 로그 범위
	RotationHours     int    // 회전 주기(시간)
	MaxBackups        int    // 보관할 이전 파일 수
	Compress          bool   // 이전 파일 압축 여부
	ConsoleOutput     io.Writer
	DisableConsoleTTY bool
	Now               func() time.Time // nil이면 time.Now
}

// Sink는 이벤트를 logrus로 기록하는 event.Sink 구현체입니다
type Sink struct {
	console *logrus.Logger
	file    *logrus.Logger
	tier    Tier
	closer  io.Closer

	// 시간 기준 회전
	mu          sync.Mutex
	rotator     *lumberjack.Logger
	rotateEvery time.Duration
	lastRotated time.Time
	now         func() time.Time
}

// New는 설정에 따라 콘솔/파일 로거를 생성합니다
func New(cfg Config) (*Sink, error) {
	console := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	console.SetLevel(level)
	console.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   cfg.DisableConsoleTTY,
	})
	if cfg.ConsoleOutput != nil {
		console.SetOutput(cfg.ConsoleOutput)
	} else {
		console.SetOutput(os.Stdout)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	s := &Sink{console: console, tier: cfg.FileTier, now: now}

	if cfg.FileEnabled && cfg.FilePath != "" {
		if dir := filepath.Dir(cfg.FilePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("로그 디렉토리 생성 실패: %w", err)
			}
		}

		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    100,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     RotationDays(cfg.RotationHours),
			Compress:   cfg.Compress,
			LocalTime:  true,
		}

		file := logrus.New()
		file.SetLevel(logrus.InfoLevel)
		file.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   true,
		})
		file.SetOutput(rotator)

		s.file = file
		s.closer = rotator
		s.rotator = rotator
		s.rotateEvery = time.Duration(cfg.RotationHours) * time.Hour
		s.lastRotated = now()
	}

	return s, nil
}

// RotationDays는 회전 주기(시간)를 lumberjack 보관 일수로 변환합니다
func RotationDays(hours int) int {
	if hours <= 0 {
		return 0
	}
	return int(math.Ceil(float64(hours) / 24))
}

// Emit은 이벤트를 기록합니다
func (s *Sink) Emit(e event.Event) {
	entry := s.console.WithFields(fields(e))
	log(entry, e)

	if s.file != nil && s.tier.Admits(e) {
		s.rotateIfDue()
		log(s.file.WithFields(fields(e)), e)
	}
}

// rotateIfDue는 회전 주기가 지났으면 현재 파일을 백업으로 넘기고 새 파일을 엽니다.
// 백업은 MaxAge가 지나면 삭제되므로 보관 기록은 회전 주기의 약 두 배까지입니다.
func (s *Sink) rotateIfDue() {
	if s.rotateEvery <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastRotated) < s.rotateEvery {
		return
	}
	if err := s.rotator.Rotate(); err != nil {
		s.console.WithError(err).Warn("로그 파일 회전 실패")
		return
	}
	s.lastRotated = now
}

// Close는 파일 로그를 닫습니다
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func fields(e event.Event) logrus.Fields {
	f := logrus.Fields{"kind": string(e.Kind)}
	for k, v := range e.Fields {
		f[k] = v
	}
	return f
}

func log(entry *logrus.Entry, e event.Event) {
	if !e.Time.IsZero() {
		entry = entry.WithTime(e.Time)
	}
	switch e.Severity {
	case event.Error:
		entry.Error(e.Message)
	case event.Warning:
		entry.Warn(e.Message)
	case event.Debug:
		entry.Debug(e.Message)
	default:
		entry.Info(e.Message)
	}
}
