package runner

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hperssn/divdrill/internal/domain"
	"github.com/hperssn/divdrill/internal/gallery"
	"github.com/hperssn/divdrill/internal/storage"
)

type EventType string

const (
	EventTick    EventType = "tick"
	EventProblem EventType = "problem"
	EventCorrect EventType = "correct"
	EventWrong   EventType = "wrong"
	EventSolved  EventType = "solved"
	EventTimeout EventType = "timeout"
	EventSkipped EventType = "skipped"
	EventUnlock  EventType = "unlock"
	EventStopped EventType = "stopped"
)

type DrillEvent struct {
	Type        EventType `json:"type"`
	DrillID     string    `json:"drillId"`
	ProblemID   string    `json:"problemId,omitempty"`
	TimeLeft    int       `json:"timeLeft"`
	TotalSolved int       `json:"totalSolved"`
	Image       *Picture  `json:"image,omitempty"`
}

// Picture is the reward image as shown to a player. URL carries the
// sha-versioned address the browser should load.
type Picture struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

func pictureOf(img *gallery.Image) *Picture {
	if img == nil {
		return nil
	}
	return &Picture{Name: img.Name, Path: img.Path, URL: img.URL()}
}

// Options tune drill timing and wiring. Zero fields take the defaults.
type Options struct {
	Tick       time.Duration
	SolveDelay time.Duration
	WrongFlash time.Duration

	CleanupInterval time.Duration
	IdleTimeout     time.Duration

	Ranges  domain.Ranges
	NewRand func() domain.RandSource

	Repo    storage.Repository
	Gallery *gallery.Picker
	Logger  *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Tick <= 0 {
		o.Tick = time.Second
	}
	if o.SolveDelay <= 0 {
		o.SolveDelay = 1500 * time.Millisecond
	}
	if o.WrongFlash <= 0 {
		o.WrongFlash = 500 * time.Millisecond
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 5 * time.Minute
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = time.Hour
	}
	if len(o.Ranges.DividendRanges) == 0 {
		o.Ranges = domain.DefaultRanges
	}
	if o.NewRand == nil {
		o.NewRand = func() domain.RandSource {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	if o.Repo == nil {
		o.Repo = storage.NewMemoryRepository()
	}
	if o.Gallery == nil {
		o.Gallery = &gallery.Picker{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// DrillState is what a player may see of a drill. Quotient digits of
// steps not yet answered are withheld.
type DrillState struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	ProblemID         string        `json:"problemId"`
	Divisor           int           `json:"divisor"`
	Dividend          int           `json:"dividend"`
	StepCount         int           `json:"stepCount"`
	Revealed          []domain.Step `json:"revealed"`
	Cursor            int           `json:"cursor"`
	CurrentIndex      int           `json:"currentIndex"`
	LastInputWasWrong bool          `json:"lastInputWasWrong"`
	Completed         bool          `json:"completed"`
	TimeLeft          int           `json:"timeLeft"`
	TimeLimit         int           `json:"timeLimit"`
	TotalSolved       int           `json:"totalSolved"`
	Album             int           `json:"album"`
	PiecesUnlocked    int           `json:"piecesUnlocked"`
	ToNextPiece       int           `json:"toNextPiece"`
	Paused            bool          `json:"paused"`
	Image             *Picture      `json:"image,omitempty"`
}

type drillRunner struct {
	mu sync.Mutex

	id     string
	userID string
	opts   Options
	log    *zap.Logger
	rnd    domain.RandSource

	session   *domain.Session
	progress  domain.Progress
	timeLimit int
	timeLeft  int
	paused    bool
	image     *gallery.Image
	stopped   bool
	lastSeen  time.Time

	wrongTimer *time.Timer
	nextTimer  *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	events chan DrillEvent
}

func newDrillRunner(id, userID string, timeLimit, solved int, opts Options) *drillRunner {
	ctx, cancel := context.WithCancel(context.Background())

	r := &drillRunner{
		id:        id,
		userID:    userID,
		opts:      opts,
		log:       opts.Logger.With(zap.String("drill", id), zap.String("user", userID)),
		rnd:       opts.NewRand(),
		progress:  domain.Progress{TotalSolved: solved},
		timeLimit: domain.ClampTimeLimit(timeLimit),
		lastSeen:  time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		events:    make(chan DrillEvent, 64),
	}

	if img, ok := opts.Gallery.Random(r.rnd); ok {
		r.image = &img
	}

	r.mu.Lock()
	r.nextProblemLocked()
	r.mu.Unlock()

	return r
}

func (r *drillRunner) start() {
	go r.run()
}

func (r *drillRunner) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tick()
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *drillRunner) tick() {
	r.mu.Lock()
	// the clock holds while paused and while a solved problem waits to be
	// replaced
	if r.stopped || r.paused || r.session.IsComplete() {
		r.mu.Unlock()
		return
	}

	r.timeLeft--
	if r.timeLeft > 0 {
		r.emitLocked(EventTick)
		r.mu.Unlock()
		return
	}

	rec := storage.FromDomainSession(r.session, r.id, storage.OutcomeTimeout)
	r.emitLocked(EventTimeout)
	r.nextProblemLocked()
	r.mu.Unlock()

	r.save(rec)
}

// Submit feeds one keystroke to the current problem. Anything other than
// a single digit is ignored.
func (r *drillRunner) Submit(raw string) (domain.SubmitResult, error) {
	r.mu.Lock()
	r.lastSeen = time.Now()

	if r.paused {
		r.mu.Unlock()
		return domain.SubmitResult{}, ErrDrillPaused
	}
	if r.session.IsComplete() {
		r.mu.Unlock()
		return domain.SubmitResult{}, domain.ErrSessionComplete
	}

	digit, ok := domain.ParseDigit(raw)
	if !ok {
		r.mu.Unlock()
		return domain.SubmitResult{}, nil
	}

	res, err := r.session.SubmitDigit(digit)
	if err != nil {
		r.mu.Unlock()
		return res, err
	}

	var rec *storage.ProblemRecord
	switch {
	case !res.Correct:
		r.emitLocked(EventWrong)
		r.scheduleWrongClearLocked()
	case !res.Completed:
		r.emitLocked(EventCorrect)
	default:
		rec = storage.FromDomainSession(r.session, r.id, storage.OutcomeSolved)
		r.solvedLocked()
	}
	r.mu.Unlock()

	r.save(rec)
	return res, nil
}

func (r *drillRunner) solvedLocked() {
	fullUnlock := r.progress.Record()
	r.emitLocked(EventSolved)

	if fullUnlock {
		r.paused = true
		r.emitLocked(EventUnlock)
		r.log.Info("picture unlocked", zap.Int("total_solved", r.progress.TotalSolved))
		return
	}

	s := r.session
	r.stopTimer(r.nextTimer)
	r.nextTimer = time.AfterFunc(r.opts.SolveDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.stopped || r.session != s {
			return
		}
		r.nextProblemLocked()
	})
}

func (r *drillRunner) scheduleWrongClearLocked() {
	s := r.session
	r.stopTimer(r.wrongTimer)
	r.wrongTimer = time.AfterFunc(r.opts.WrongFlash, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.session == s {
			s.ClearWrong()
		}
	})
}

// Skip abandons the current problem for a fresh one.
func (r *drillRunner) Skip() error {
	r.mu.Lock()
	r.lastSeen = time.Now()

	if r.paused {
		r.mu.Unlock()
		return ErrDrillPaused
	}

	var rec *storage.ProblemRecord
	if !r.session.IsComplete() {
		rec = storage.FromDomainSession(r.session, r.id, storage.OutcomeSkipped)
		r.emitLocked(EventSkipped)
	}
	r.nextProblemLocked()
	r.mu.Unlock()

	r.save(rec)
	return nil
}

// Continue leaves the unlock pause with the next picture and problem.
func (r *drillRunner) Continue() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeen = time.Now()

	if !r.paused {
		return ErrDrillNotPaused
	}

	current := ""
	if r.image != nil {
		current = r.image.Name
	}
	if img, ok := r.opts.Gallery.Next(r.rnd, current); ok {
		r.image = &img
	}

	r.paused = false
	r.nextProblemLocked()
	return nil
}

// SetTimeLimit applies a new per-problem limit and restarts the countdown.
func (r *drillRunner) SetTimeLimit(raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeen = time.Now()

	r.timeLimit = domain.ParseTimeLimit(raw)
	r.timeLeft = r.timeLimit
}

func (r *drillRunner) nextProblemLocked() {
	p := domain.GenerateProblemIn(r.rnd, r.opts.Ranges)
	r.session = domain.NewSession("", r.userID, p)
	r.timeLeft = r.timeLimit
	r.emitLocked(EventProblem)
}

func (r *drillRunner) Stop() {
	r.cancel()
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	r.stopTimer(r.wrongTimer)
	r.stopTimer(r.nextTimer)
	r.emitLocked(EventStopped)
	r.stopped = true
	close(r.events)
}

func (r *drillRunner) Events() <-chan DrillEvent {
	return r.events
}

func (r *drillRunner) idleSince(cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSeen.Before(cutoff)
}

func (r *drillRunner) State() DrillState {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	state := DrillState{
		ID:                r.id,
		UserID:            r.userID,
		ProblemID:         s.ID,
		Divisor:           s.Problem.Divisor,
		Dividend:          s.Problem.Dividend,
		StepCount:         len(s.Problem.Steps),
		Revealed:          s.RevealedSteps(),
		Cursor:            s.Cursor,
		CurrentIndex:      -1,
		LastInputWasWrong: s.LastInputWasWrong,
		Completed:         s.IsComplete(),
		TimeLeft:          r.timeLeft,
		TimeLimit:         r.timeLimit,
		TotalSolved:       r.progress.TotalSolved,
		Album:             r.progress.Album(),
		PiecesUnlocked:    r.progress.PiecesUnlocked(),
		ToNextPiece:       r.progress.ToNextPiece(),
		Paused:            r.paused,
		Image:             pictureOf(r.image),
	}
	if step, ok := s.CurrentStep(); ok {
		state.CurrentIndex = step.Index
	}
	return state
}

func (r *drillRunner) emitLocked(t EventType) {
	if r.stopped {
		return
	}

	ev := DrillEvent{
		Type:        t,
		DrillID:     r.id,
		ProblemID:   r.session.ID,
		TimeLeft:    r.timeLeft,
		TotalSolved: r.progress.TotalSolved,
	}
	if t == EventUnlock {
		ev.Image = pictureOf(r.image)
	}

	select {
	case r.events <- ev:
	default:
	}
}

func (r *drillRunner) stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func (r *drillRunner) save(rec *storage.ProblemRecord) {
	if rec == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.opts.Repo.SaveProblem(ctx, rec); err != nil {
		r.log.Error("failed to save problem",
			zap.String("problem", rec.ID),
			zap.String("outcome", string(rec.Outcome)),
			zap.Error(err))
		return
	}
	r.log.Debug("problem recorded",
		zap.String("problem", rec.ID),
		zap.String("outcome", string(rec.Outcome)),
		zap.Int("mistakes", rec.Mistakes))
}
