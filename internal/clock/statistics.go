package clock

import (
	"sync"
	"time"
)

// StatisticsManager tracks the phases finished by this process.
type StatisticsManager struct {
	mu sync.RWMutex

	// Phase completion counts
	workSessions int
	shortBreaks  int
	longBreaks   int
	skipped      int

	// Timing statistics
	workTime  time.Duration
	breakTime time.Duration

	// Phase history
	history []PhaseRecord
}

// PhaseRecord represents a finished work phase or break.
type PhaseRecord struct {
	RunID     string        `json:"runId"`
	Phase     Phase         `json:"phase"`
	Session   int           `json:"session"`
	LongBreak bool          `json:"longBreak"`
	Skipped   bool          `json:"skipped"`
	Duration  time.Duration `json:"duration"`
	Completed time.Time     `json:"completed"`
}

// Statistics is a point-in-time copy of the counters.
type Statistics struct {
	WorkSessions int           `json:"workSessions"`
	ShortBreaks  int           `json:"shortBreaks"`
	LongBreaks   int           `json:"longBreaks"`
	Skipped      int           `json:"skipped"`
	WorkTime     time.Duration `json:"workTime"`
	BreakTime    time.Duration `json:"breakTime"`
}

// TotalTime is the time spent in all finished phases.
func (s Statistics) TotalTime() time.Duration {
	return s.WorkTime + s.BreakTime
}

// NewStatisticsManager creates a new statistics manager
func NewStatisticsManager() *StatisticsManager {
	return &StatisticsManager{
		history: make([]PhaseRecord, 0),
	}
}

// Record counts a PhaseCompleted event. Other event types are ignored.
func (sm *StatisticsManager) Record(e Event) {
	if e.Type != EventPhaseCompleted {
		return
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.history = append(sm.history, PhaseRecord{
		RunID:     e.RunID,
		Phase:     e.Phase,
		Session:   e.Session,
		LongBreak: e.LongBreak,
		Skipped:   e.Skipped,
		Duration:  e.Duration,
		Completed: e.At,
	})

	switch {
	case e.Phase == PhaseWorking:
		sm.workSessions++
		sm.workTime += e.Duration
	case e.LongBreak:
		sm.longBreaks++
		sm.breakTime += e.Duration
	default:
		sm.shortBreaks++
		sm.breakTime += e.Duration
	}
	if e.Skipped {
		sm.skipped++
	}
}

// Snapshot returns the current counters.
func (sm *StatisticsManager) Snapshot() Statistics {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return Statistics{
		WorkSessions: sm.workSessions,
		ShortBreaks:  sm.shortBreaks,
		LongBreaks:   sm.longBreaks,
		Skipped:      sm.skipped,
		WorkTime:     sm.workTime,
		BreakTime:    sm.breakTime,
	}
}

// History returns the phase history
func (sm *StatisticsManager) History() []PhaseRecord {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	history := make([]PhaseRecord, len(sm.history))
	copy(history, sm.history)
	return history
}

// Recent returns the most recent n records.
func (sm *StatisticsManager) Recent(n int) []PhaseRecord {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if n <= 0 {
		return []PhaseRecord{}
	}
	if n > len(sm.history) {
		n = len(sm.history)
	}

	recent := make([]PhaseRecord, n)
	copy(recent, sm.history[len(sm.history)-n:])
	return recent
}

// Since returns the records finished after t.
func (sm *StatisticsManager) Since(t time.Time) []PhaseRecord {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	var records []PhaseRecord
	for _, record := range sm.history {
		if record.Completed.After(t) {
			records = append(records, record)
		}
	}
	return records
}

// Reset resets all statistics
func (sm *StatisticsManager) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.workSessions = 0
	sm.shortBreaks = 0
	sm.longBreaks = 0
	sm.skipped = 0
	sm.workTime = 0
	sm.breakTime = 0
	sm.history = make([]PhaseRecord, 0)
}

// ProductivityScore is the share of finished phases that were work phases,
// as a percentage.
func (s Statistics) ProductivityScore() float64 {
	total := s.WorkSessions + s.ShortBreaks + s.LongBreaks
	if total == 0 {
		return 0.0
	}
	return float64(s.WorkSessions) / float64(total) * 100.0
}
