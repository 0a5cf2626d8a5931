// Package store provides in-memory storage for calculator sessions and the
// calculation history.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lemonberrylabs/rpncalc/pkg/calculator"
	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// CalculationState represents the outcome of a stored calculation.
type CalculationState string

const (
	CalculationSucceeded CalculationState = "SUCCEEDED"
	CalculationFailed    CalculationState = "FAILED"
)

// DefaultHistoryLimit is the number of calculations kept when none is configured.
const DefaultHistoryLimit = 1000

// Session is a keypad calculator addressed by name.
type Session struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName,omitempty"`
	CreateTime  time.Time `json:"createTime"`
	UpdateTime  time.Time `json:"updateTime"`

	calc *calculator.Calculator
}

// SessionView is a point-in-time copy of a session's keypad state.
type SessionView struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName,omitempty"`
	Expression  string    `json:"expression"`
	Display     string    `json:"display"`
	Error       bool      `json:"error"`
	CreateTime  time.Time `json:"createTime"`
	UpdateTime  time.Time `json:"updateTime"`
}

// Calculation is a stored evaluation record.
type Calculation struct {
	Name       string           `json:"name"`
	Session    string           `json:"session,omitempty"`
	Expression string           `json:"expression"`
	Postfix    string           `json:"postfix,omitempty"`
	State      CalculationState `json:"state"`
	Result     float64          `json:"result"`
	ErrorKind  types.Kind       `json:"errorKind,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreateTime time.Time        `json:"createTime"`
}

// Store is a thread-safe in-memory storage for sessions and calculations.
type Store struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	calculations map[string]*Calculation
	order        []string // calculation names, oldest first
	historyLimit int

	// Counter for generating calculation IDs
	calcCounter int64
}

// New creates a new empty store retaining DefaultHistoryLimit calculations.
func New() *Store {
	return NewWithLimit(DefaultHistoryLimit)
}

// NewWithLimit creates a store retaining at most limit calculations; older
// records are evicted first. A limit <= 0 means DefaultHistoryLimit.
func NewWithLimit(limit int) *Store {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Store{
		sessions:     make(map[string]*Session),
		calculations: make(map[string]*Calculation),
		historyLimit: limit,
	}
}

// CreateSession creates a new keypad session with a random ID.
func (s *Store) CreateSession(displayName string) *SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sess := &Session{
		Name:        "sessions/" + uuid.NewString(),
		DisplayName: displayName,
		CreateTime:  now,
		UpdateTime:  now,
		calc:        calculator.New(),
	}
	s.sessions[sess.Name] = sess
	return sess.view()
}

// GetSession retrieves a session by its full name.
func (s *Store) GetSession(name string) (*SessionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[name]
	if !ok {
		return nil, fmt.Errorf("session '%s' not found", name)
	}
	return sess.view(), nil
}

// ListSessions returns all sessions, most recently used first.
func (s *Store) ListSessions() []*SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*SessionView, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, sess.view())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdateTime.After(result[j].UpdateTime)
	})
	return result
}

// DeleteSession removes a session. Its calculations stay in the history.
func (s *Store) DeleteSession(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[name]; !ok {
		return fmt.Errorf("session '%s' not found", name)
	}
	delete(s.sessions, name)
	return nil
}

// Press applies keys to a session in order. Every '=' records a calculation
// linked to the session. Keys after an unknown key are not applied.
func (s *Store) Press(name string, keys ...string) (*SessionView, []*Calculation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[name]
	if !ok {
		return nil, nil, fmt.Errorf("session '%s' not found", name)
	}

	var recorded []*Calculation
	for _, key := range keys {
		before := sess.calc.Last()
		if err := sess.calc.Press(key); err != nil {
			sess.UpdateTime = time.Now()
			return sess.view(), recorded, err
		}
		if out := sess.calc.Last(); out != nil && out != before {
			recorded = append(recorded, s.recordLocked(name, *out))
		}
	}
	sess.UpdateTime = time.Now()
	return sess.view(), recorded, nil
}

// RecordCalculation stores the outcome of a stateless evaluation.
func (s *Store) RecordCalculation(out calculator.Outcome) *Calculation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked("", out)
}

func (s *Store) recordLocked(session string, out calculator.Outcome) *Calculation {
	s.calcCounter++
	calc := &Calculation{
		Name:       fmt.Sprintf("calculations/calc-%d", s.calcCounter),
		Session:    session,
		Expression: out.Expression,
		Postfix:    out.Postfix,
		State:      CalculationSucceeded,
		Result:     out.Result,
		CreateTime: time.Now(),
	}
	if out.Err != nil {
		calc.State = CalculationFailed
		calc.ErrorKind = out.Err.Kind
		calc.Error = out.Err.Error()
	}

	s.calculations[calc.Name] = calc
	s.order = append(s.order, calc.Name)
	for len(s.order) > s.historyLimit {
		delete(s.calculations, s.order[0])
		s.order = s.order[1:]
	}
	return calc
}

// GetCalculation retrieves a calculation by name.
func (s *Store) GetCalculation(name string) (*Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calc, ok := s.calculations[name]
	if !ok {
		return nil, fmt.Errorf("calculation '%s' not found", name)
	}
	return calc, nil
}

// ListCalculations returns up to limit calculations, newest first. A session
// name filters the history to that session; limit <= 0 returns everything.
func (s *Store) ListCalculations(session string, limit int) []*Calculation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Calculation
	for i := len(s.order) - 1; i >= 0; i-- {
		calc := s.calculations[s.order[i]]
		if session != "" && calc.Session != session {
			continue
		}
		result = append(result, calc)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// Stats counts the calculations currently retained.
func (s *Store) Stats() (succeeded, failed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, calc := range s.calculations {
		if calc.State == CalculationSucceeded {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

func (sess *Session) view() *SessionView {
	return &SessionView{
		Name:        sess.Name,
		DisplayName: sess.DisplayName,
		Expression:  sess.calc.Expression(),
		Display:     sess.calc.Display(),
		Error:       sess.calc.Failed(),
		CreateTime:  sess.CreateTime,
		UpdateTime:  sess.UpdateTime,
	}
}
