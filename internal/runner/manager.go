package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hperssn/divdrill/internal/domain"
)

var (
	ErrDrillNotFound  = errors.New("drill not found")
	ErrDrillPaused    = errors.New("drill paused for unlock")
	ErrDrillNotPaused = errors.New("drill not paused")
)

type DrillManager struct {
	mu     sync.Mutex
	drills map[string]*drillRunner

	opts Options
	log  *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewDrillManager(opts Options) *DrillManager {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	m := &DrillManager{
		drills: make(map[string]*drillRunner),
		opts:   opts,
		log:    opts.Logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go m.cleanupLoop(ctx)

	return m
}

func (m *DrillManager) cleanupLoop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanupIdleDrills()
		case <-ctx.Done():
			return
		}
	}
}

func (m *DrillManager) cleanupIdleDrills() {
	m.mu.Lock()
	cutoff := time.Now().Add(-m.opts.IdleTimeout)

	var idle []*drillRunner
	for id, r := range m.drills {
		if r.idleSince(cutoff) {
			idle = append(idle, r)
			delete(m.drills, id)
		}
	}
	m.mu.Unlock()

	for _, r := range idle {
		r.Stop()
		m.log.Info("idle drill removed", zap.String("drill", r.id))
	}
}

// StartDrill opens a drill for userID, carrying over the number of
// problems the user solved before.
func (m *DrillManager) StartDrill(ctx context.Context, userID string, timeLimit int) (DrillState, error) {
	solved, err := m.opts.Repo.CountSolved(ctx, userID)
	if err != nil {
		return DrillState{}, fmt.Errorf("load progress for %s: %w", userID, err)
	}

	r := newDrillRunner(uuid.New().String(), userID, timeLimit, solved, m.opts)

	m.mu.Lock()
	m.drills[r.id] = r
	m.mu.Unlock()

	r.start()
	m.log.Info("drill started",
		zap.String("drill", r.id),
		zap.String("user", userID),
		zap.Int("time_limit", r.timeLimit),
		zap.Int("total_solved", solved))

	return r.State(), nil
}

func (m *DrillManager) get(id string) (*drillRunner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.drills[id]
	if !ok {
		return nil, ErrDrillNotFound
	}
	return r, nil
}

func (m *DrillManager) GetDrill(id string) (DrillState, bool) {
	r, err := m.get(id)
	if err != nil {
		return DrillState{}, false
	}
	return r.State(), true
}

func (m *DrillManager) Submit(id, raw string) (domain.SubmitResult, DrillState, error) {
	r, err := m.get(id)
	if err != nil {
		return domain.SubmitResult{}, DrillState{}, err
	}

	res, err := r.Submit(raw)
	return res, r.State(), err
}

func (m *DrillManager) Skip(id string) (DrillState, error) {
	r, err := m.get(id)
	if err != nil {
		return DrillState{}, err
	}
	if err := r.Skip(); err != nil {
		return r.State(), err
	}
	return r.State(), nil
}

func (m *DrillManager) Continue(id string) (DrillState, error) {
	r, err := m.get(id)
	if err != nil {
		return DrillState{}, err
	}
	if err := r.Continue(); err != nil {
		return r.State(), err
	}
	return r.State(), nil
}

func (m *DrillManager) SetTimeLimit(id, raw string) (DrillState, error) {
	r, err := m.get(id)
	if err != nil {
		return DrillState{}, err
	}
	r.SetTimeLimit(raw)
	return r.State(), nil
}

func (m *DrillManager) StopDrill(id string) error {
	m.mu.Lock()
	r, ok := m.drills[id]
	if ok {
		delete(m.drills, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrDrillNotFound
	}

	r.Stop()
	m.log.Info("drill stopped", zap.String("drill", id))
	return nil
}

func (m *DrillManager) Events(id string) (<-chan DrillEvent, bool) {
	r, err := m.get(id)
	if err != nil {
		return nil, false
	}
	return r.Events(), true
}

// Close stops the cleanup loop and every running drill.
func (m *DrillManager) Close() {
	m.cancel()
	<-m.done

	m.mu.Lock()
	drills := m.drills
	m.drills = make(map[string]*drillRunner)
	m.mu.Unlock()

	for _, r := range drills {
		r.Stop()
	}
}
