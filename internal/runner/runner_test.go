package runner

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hperssn/divdrill/internal/domain"
	"github.com/hperssn/divdrill/internal/gallery"
	"github.com/hperssn/divdrill/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const eventually = 2 * time.Second

func testOptions(repo storage.Repository) Options {
	return Options{
		Tick:       time.Hour,
		SolveDelay: 10 * time.Millisecond,
		WrongFlash: 10 * time.Millisecond,
		Repo:       repo,
		NewRand: func() domain.RandSource {
			return rand.New(rand.NewSource(1))
		},
	}
}

func currentAnswer(t *testing.T, m *DrillManager, id string) int {
	t.Helper()

	r, err := m.get(id)
	require.NoError(t, err)

	r.mu.Lock()
	defer r.mu.Unlock()

	step, ok := r.session.CurrentStep()
	require.True(t, ok, "no step awaiting an answer")
	return step.QuotientDigit
}

func solveCurrent(t *testing.T, m *DrillManager, id string) domain.SubmitResult {
	t.Helper()

	var res domain.SubmitResult
	for {
		var err error
		res, _, err = m.Submit(id, string(rune('0'+currentAnswer(t, m, id))))
		require.NoError(t, err)
		require.True(t, res.Correct)
		if res.Completed {
			return res
		}
	}
}

func TestDrillSolveFlow(t *testing.T) {
	repo := storage.NewMemoryRepository()
	m := NewDrillManager(testOptions(repo))
	defer m.Close()

	state, err := m.StartDrill(context.Background(), "alice", 60)
	require.NoError(t, err)
	assert.Equal(t, 60, state.TimeLimit)
	assert.Equal(t, 60, state.TimeLeft)
	assert.Empty(t, state.Revealed)
	assert.Greater(t, state.StepCount, 1)
	first := state.ProblemID

	wrong := (currentAnswer(t, m, state.ID) + 1) % 10
	res, got, err := m.Submit(state.ID, string(rune('0'+wrong)))
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.True(t, got.LastInputWasWrong)
	assert.Equal(t, 0, got.Cursor)

	require.Eventually(t, func() bool {
		s, _ := m.GetDrill(state.ID)
		return !s.LastInputWasWrong
	}, eventually, 5*time.Millisecond)

	res = solveCurrent(t, m, state.ID)
	assert.True(t, res.Completed)

	require.Eventually(t, func() bool {
		s, _ := m.GetDrill(state.ID)
		return s.ProblemID != first && s.Cursor == 0
	}, eventually, 5*time.Millisecond)

	after, _ := m.GetDrill(state.ID)
	assert.Equal(t, 1, after.TotalSolved)

	records, err := repo.GetProblemsByUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, storage.OutcomeSolved, records[0].Outcome)
	assert.Equal(t, 1, records[0].Mistakes)
}

func TestDrillRevealsOnlyAnsweredSteps(t *testing.T) {
	m := NewDrillManager(testOptions(nil))
	defer m.Close()

	state, err := m.StartDrill(context.Background(), "alice", 60)
	require.NoError(t, err)

	_, got, err := m.Submit(state.ID, string(rune('0'+currentAnswer(t, m, state.ID))))
	require.NoError(t, err)
	require.Len(t, got.Revealed, 1)
	assert.Equal(t, 1, got.Cursor)
	assert.Equal(t, got.Revealed[0].Index+1, got.CurrentIndex)
}

func TestDrillIgnoresInvalidInput(t *testing.T) {
	m := NewDrillManager(testOptions(nil))
	defer m.Close()

	state, err := m.StartDrill(context.Background(), "alice", 60)
	require.NoError(t, err)

	for _, raw := range []string{"", "x", "12"} {
		res, got, err := m.Submit(state.ID, raw)
		require.NoError(t, err)
		assert.Equal(t, domain.SubmitResult{}, res)
		assert.False(t, got.LastInputWasWrong)
		assert.Equal(t, 0, got.Cursor)
	}
}

func TestDrillSubmitWhileWaitingForNextProblem(t *testing.T) {
	opts := testOptions(nil)
	opts.SolveDelay = time.Hour
	m := NewDrillManager(opts)
	defer m.Close()

	state, err := m.StartDrill(context.Background(), "alice", 60)
	require.NoError(t, err)

	solveCurrent(t, m, state.ID)

	_, got, err := m.Submit(state.ID, "1")
	assert.ErrorIs(t, err, domain.ErrSessionComplete)
	assert.True(t, got.Completed)
	assert.Equal(t, got.StepCount, got.Cursor)
	assert.Equal(t, -1, got.CurrentIndex)
}

func TestDrillTimeout(t *testing.T) {
	repo := storage.NewMemoryRepository()
	opts := testOptions(repo)
	opts.Tick = 5 * time.Millisecond
	m := NewDrillManager(opts)
	defer m.Close()

	state, err := m.StartDrill(context.Background(), "bob", 2)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, _ := m.GetDrill(state.ID)
		return s.ProblemID != state.ProblemID
	}, eventually, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		stats, err := repo.GetUserStats(context.Background(), "bob")
		return err == nil && stats.TimeoutCount > 0
	}, eventually, 5*time.Millisecond)

	s, _ := m.GetDrill(state.ID)
	assert.Equal(t, 0, s.TotalSolved)
	assert.LessOrEqual(t, s.TimeLeft, 2)
}

func TestDrillClockHoldsWhileSolvedProblemWaits(t *testing.T) {
	opts := testOptions(nil)
	opts.Tick = 5 * time.Millisecond
	opts.SolveDelay = time.Hour
	m := NewDrillManager(opts)
	defer m.Close()

	state, err := m.StartDrill(context.Background(), "hana", 20)
	require.NoError(t, err)

	events, ok := m.Events(state.ID)
	require.True(t, ok)

	solveCurrent(t, m, state.ID)
	solved, _ := m.GetDrill(state.ID)

	// well past the 100ms the limit would last if the clock kept running
	time.Sleep(300 * time.Millisecond)

	after, _ := m.GetDrill(state.ID)
	assert.Equal(t, solved.ProblemID, after.ProblemID)
	assert.Equal(t, solved.TimeLeft, after.TimeLeft)
	assert.True(t, after.Completed)

	for {
		select {
		case ev := <-events:
			assert.NotEqual(t, EventTimeout, ev.Type, "solved problem reported as timed out")
		default:
			return
		}
	}
}

func TestDrillUnlockPause(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ctx := context.Background()
	for i := 0; i < domain.UnlockEvery-1; i++ {
		require.NoError(t, repo.SaveProblem(ctx, &storage.ProblemRecord{
			ID:         string(rune('a' + i)),
			UserID:     "carol",
			Outcome:    storage.OutcomeSolved,
			FinishedAt: time.Now(),
		}))
	}

	opts := testOptions(repo)
	images := []gallery.Image{
		{Name: "one.png", SHA: "aaa", DownloadURL: "https://raw.example/one.png"},
		{Name: "two.png", SHA: "bbb", DownloadURL: "https://raw.example/two.png"},
	}
	opts.Gallery = gallery.NewPicker(images)
	m := NewDrillManager(opts)
	defer m.Close()

	state, err := m.StartDrill(ctx, "carol", 60)
	require.NoError(t, err)
	assert.Equal(t, domain.UnlockEvery-1, state.TotalSolved)
	require.NotNil(t, state.Image)
	firstImage := state.Image.Name
	assert.Contains(t, []string{images[0].URL(), images[1].URL()}, state.Image.URL)
	assert.Contains(t, state.Image.URL, "?v=")

	events, ok := m.Events(state.ID)
	require.True(t, ok)

	solveCurrent(t, m, state.ID)

	paused, _ := m.GetDrill(state.ID)
	assert.True(t, paused.Paused)
	assert.Equal(t, domain.UnlockEvery, paused.TotalSolved)
	assert.Equal(t, 2, paused.Album)
	assert.Equal(t, 0, paused.PiecesUnlocked)

	_, _, err = m.Submit(paused.ID, "1")
	assert.ErrorIs(t, err, ErrDrillPaused)
	_, err = m.Skip(paused.ID)
	assert.ErrorIs(t, err, ErrDrillPaused)

	var unlock *DrillEvent
	for unlock == nil {
		select {
		case ev := <-events:
			if ev.Type == EventUnlock {
				unlock = &ev
			}
		case <-time.After(eventually):
			t.Fatal("no unlock event")
		}
	}
	require.NotNil(t, unlock.Image)
	assert.Equal(t, firstImage, unlock.Image.Name)
	assert.Equal(t, state.Image.URL, unlock.Image.URL)

	resumed, err := m.Continue(paused.ID)
	require.NoError(t, err)
	assert.False(t, resumed.Paused)
	assert.NotEqual(t, paused.ProblemID, resumed.ProblemID)
	require.NotNil(t, resumed.Image)
	assert.NotEqual(t, firstImage, resumed.Image.Name)
	assert.NotEqual(t, state.Image.URL, resumed.Image.URL)

	_, err = m.Continue(paused.ID)
	assert.ErrorIs(t, err, ErrDrillNotPaused)
}

func TestDrillSkip(t *testing.T) {
	repo := storage.NewMemoryRepository()
	m := NewDrillManager(testOptions(repo))
	defer m.Close()

	state, err := m.StartDrill(context.Background(), "dave", 60)
	require.NoError(t, err)

	skipped, err := m.Skip(state.ID)
	require.NoError(t, err)
	assert.NotEqual(t, state.ProblemID, skipped.ProblemID)

	stats, err := repo.GetUserStats(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedCount)
}

func TestDrillSetTimeLimit(t *testing.T) {
	m := NewDrillManager(testOptions(nil))
	defer m.Close()

	state, err := m.StartDrill(context.Background(), "erin", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.FallbackTimeLimit, state.TimeLimit)

	got, err := m.SetTimeLimit(state.ID, "45s")
	require.NoError(t, err)
	assert.Equal(t, 45, got.TimeLimit)
	assert.Equal(t, 45, got.TimeLeft)

	got, err = m.SetTimeLimit(state.ID, "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.FallbackTimeLimit, got.TimeLimit)
}

func TestDrillStop(t *testing.T) {
	m := NewDrillManager(testOptions(nil))
	defer m.Close()

	state, err := m.StartDrill(context.Background(), "frank", 60)
	require.NoError(t, err)

	events, ok := m.Events(state.ID)
	require.True(t, ok)

	require.NoError(t, m.StopDrill(state.ID))

	var last DrillEvent
	for ev := range events {
		last = ev
	}
	assert.Equal(t, EventStopped, last.Type)

	_, ok = m.GetDrill(state.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, m.StopDrill(state.ID), ErrDrillNotFound)

	_, _, err = m.Submit(state.ID, "1")
	assert.ErrorIs(t, err, ErrDrillNotFound)
}

func TestDrillIdleCleanup(t *testing.T) {
	opts := testOptions(nil)
	opts.CleanupInterval = 5 * time.Millisecond
	opts.IdleTimeout = time.Millisecond
	m := NewDrillManager(opts)
	defer m.Close()

	state, err := m.StartDrill(context.Background(), "gina", 60)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := m.GetDrill(state.ID)
		return !ok
	}, eventually, 5*time.Millisecond)
}
