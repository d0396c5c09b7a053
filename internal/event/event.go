// Package event는 컴포넌트가 로그 대신 내보내는 구조화된 이벤트를 정의합니다.
package event

import (
	"sync"
	"time"
)

// Kind는 이벤트 분류입니다
type Kind string

const (
	KindStartup   Kind = "STARTUP"
	KindShutdown  Kind = "SHUTDOWN"
	KindTimeSync  Kind = "TIME_SYNC"
	KindAccount   Kind = "ACCOUNT"
	KindPortfolio Kind = "PORTFOLIO"
	KindSafety    Kind = "SAFETY"
	KindMode      Kind = "MODE"
	KindPricing   Kind = "PRICING"
	KindTrade     Kind = "TRADE"
	KindGTC       Kind = "GTC"
	KindLedger    Kind = "LEDGER"
	KindCycle     Kind = "CYCLE"
)

// Severity는 이벤트 심각도입니다
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
)

// String은 심각도 이름을 반환합니다
func (s Severity) String() string {
	switch s {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event는 컴포넌트가 내보내는 단일 이벤트입니다
type Event struct {
	Kind     Kind
	Severity Severity
	Message  string
	Fields   map[string]interface{}
	Time     time.Time
}

// New는 새 이벤트를 생성합니다
func New(kind Kind, sev Severity, msg string) Event {
	return Event{
		Kind:     kind,
		Severity: sev,
		Message:  msg,
		Time:     time.Now(),
	}
}

// With는 필드를 추가한 이벤트 복사본을 반환합니다
func (e Event) With(key string, value interface{}) Event {
	fields := make(map[string]interface{}, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[key] = value
	e.Fields = fields
	return e
}

// Sink는 이벤트를 받는 대상입니다
type Sink interface {
	Emit(e Event)
}

// Nop은 모든 이벤트를 버리는 Sink입니다
type Nop struct{}

// Emit은 아무 작업도 하지 않습니다
func (Nop) Emit(Event) {}

// OrNop은 nil Sink를 Nop으로 대체합니다
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}

// Recorder는 받은 이벤트를 보관하는 Sink입니다
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit은 이벤트를 보관합니다
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events는 보관된 이벤트 복사본을 반환합니다
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind는 지정한 분류의 이벤트만 반환합니다
func (r *Recorder) OfKind(kind Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Has는 지정한 분류와 심각도의 이벤트가 있는지 확인합니다
func (r *Recorder) Has(kind Kind, sev Severity) bool {
	for _, e := range r.OfKind(kind) {
		if e.Severity == sev {
			return true
		}
	}
	return false
}
