package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arenaplay/arena/config"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// drawStep performs one auto-draw iteration and reports how long to wait
// before the next one, or done when the loop should exit
type drawStep func(ctx context.Context, gameID int64) (next time.Duration, done bool)

type drawLoop struct {
	cancel context.CancelFunc
	done   chan struct{}

	// rearm is set by Ensure while a step is in flight; guarded by the manager mutex
	rearm bool
}

// AutoDrawManager owns the auto-draw goroutines, at most one per game.
// Loops run on the manager's root context, never on a request context.
type AutoDrawManager struct {
	uowFactory UnitOfWorkFactory
	metrics    *observability.MetricsProvider

	mu    sync.Mutex
	root  context.Context
	loops map[int64]*drawLoop

	step drawStep
}

// NewAutoDrawManager creates a manager with no running loops
func NewAutoDrawManager(uowFactory UnitOfWorkFactory, metrics *observability.MetricsProvider) *AutoDrawManager {
	m := &AutoDrawManager{
		uowFactory: uowFactory,
		metrics:    metrics,
		root:       context.Background(),
		loops:      make(map[int64]*drawLoop),
	}
	m.step = m.drawOnce
	return m
}

// Start binds the manager to ctx, resumes loops for every auto-draw game and
// returns a cleanup function that stops them all
func (m *AutoDrawManager) Start(ctx context.Context) func() {
	m.mu.Lock()
	m.root = ctx
	m.mu.Unlock()

	if err := m.ResumeAll(ctx); err != nil {
		log.WithError(err).Error("Failed to resume auto-draw loops")
	}

	log.Info("Auto-draw manager started")
	return m.StopAll
}

// Ensure starts a loop for the game unless one is already running
func (m *AutoDrawManager) Ensure(gameID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if loop, running := m.loops[gameID]; running {
		// The current step may already have decided to exit
		loop.rearm = true
		return
	}

	ctx, cancel := context.WithCancel(m.root)
	loop := &drawLoop{cancel: cancel, done: make(chan struct{})}
	m.loops[gameID] = loop
	m.metrics.UpdateActiveAutoDrawLoops(1)

	go m.run(ctx, gameID, loop)

	log.WithField("game_id", gameID).Info("Auto-draw loop started")
}

// Stop cancels the game's loop and waits for it to exit
func (m *AutoDrawManager) Stop(gameID int64) {
	m.mu.Lock()
	loop, ok := m.loops[gameID]
	if ok {
		delete(m.loops, gameID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	loop.cancel()
	<-loop.done
}

// StopAll cancels every loop and waits for all of them
func (m *AutoDrawManager) StopAll() {
	m.mu.Lock()
	loops := m.loops
	m.loops = make(map[int64]*drawLoop)
	m.mu.Unlock()

	for _, loop := range loops {
		loop.cancel()
	}
	for _, loop := range loops {
		<-loop.done
	}
	log.WithField("stopped", len(loops)).Info("Auto-draw manager stopped")
}

// IsRunning reports whether a loop is active for the game
func (m *AutoDrawManager) IsRunning(gameID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loops[gameID]
	return ok
}

// ActiveCount returns the number of running loops
func (m *AutoDrawManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loops)
}

// ResumeAll ensures a loop for every started game with auto-draw enabled
func (m *AutoDrawManager) ResumeAll(ctx context.Context) error {
	uow := m.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	games, err := uow.BingoGameRepository().GetAutoDrawGames(ctx)
	uow.Rollback()
	if err != nil {
		return fmt.Errorf("failed to get auto-draw games: %w", err)
	}

	for _, game := range games {
		m.Ensure(game.ID)
	}
	if len(games) > 0 {
		log.WithField("count", len(games)).Info("Resumed auto-draw loops")
	}
	return nil
}

func (m *AutoDrawManager) run(ctx context.Context, gameID int64, loop *drawLoop) {
	defer func() {
		m.mu.Lock()
		if m.loops[gameID] == loop {
			delete(m.loops, gameID)
		}
		m.mu.Unlock()
		m.metrics.UpdateActiveAutoDrawLoops(-1)
		close(loop.done)
		log.WithField("game_id", gameID).Info("Auto-draw loop exited")
	}()

	for {
		m.mu.Lock()
		loop.rearm = false
		m.mu.Unlock()

		next, done := m.step(ctx, gameID)
		if done {
			if m.release(ctx, gameID, loop) {
				return
			}
			continue
		}

		timer := time.NewTimer(next)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// release unregisters a loop whose step reported done. It returns false when
// Ensure was called during that step, in which case the loop steps again.
func (m *AutoDrawManager) release(ctx context.Context, gameID int64, loop *drawLoop) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if loop.rearm && ctx.Err() == nil {
		return false
	}
	if m.loops[gameID] == loop {
		delete(m.loops, gameID)
	}
	return true
}

// drawOnce draws one number in its own transaction, settling when a card wins
func (m *AutoDrawManager) drawOnce(ctx context.Context, gameID int64) (time.Duration, bool) {
	interval := config.Get().DefaultDrawInterval
	if ctx.Err() != nil {
		return interval, true
	}

	result, err := inUnitOfWork(ctx, m.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.DrawResult, error) {
		game, err := svc.bingo.GetGame(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if game.DrawInterval > 0 {
			interval = game.DrawInterval
		}
		return svc.bingo.DrawNext(ctx, gameID)
	})

	logger := log.WithField("game_id", gameID)
	switch {
	case err == nil:
	case errors.Is(err, entities.ErrAlreadySettled),
		errors.Is(err, entities.ErrInvalidStateTransition),
		errors.Is(err, entities.ErrNotFound):
		logger.WithError(err).Debug("Auto-draw no longer applies")
		return interval, true
	case errors.Is(err, entities.ErrNumbersExhausted):
		logger.Warn("All numbers drawn without a winner, stopping auto-draw")
		return interval, true
	case ctx.Err() != nil:
		return interval, true
	default:
		logger.WithError(err).Error("Auto-draw step failed, retrying")
		return interval, false
	}

	logger = logger.WithFields(log.Fields{
		"number":      result.Number,
		"drawn_count": result.DrawnCount,
	})
	if result.Settlement != nil {
		logger.WithField("winners", result.WinnerIDs).Info("Auto-draw produced winners, game settled")
		return interval, true
	}
	logger.Debug("Auto-drew number")
	return interval, false
}
