package application_test

import (
	"context"
	"sync"
	"testing"

	"github.com/arenaplay/arena/application"
	"github.com/arenaplay/arena/config"
	"github.com/arenaplay/arena/database"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"
	"github.com/arenaplay/arena/infrastructure"
	"github.com/arenaplay/arena/repository/testutil"

	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every flushed event
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) OfType(eventType events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// recordingScheduler stands in for the auto-draw manager
type recordingScheduler struct {
	mu      sync.Mutex
	ensured []int64
	stopped []int64
}

func (s *recordingScheduler) Ensure(gameID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured = append(s.ensured, gameID)
}

func (s *recordingScheduler) Stop(gameID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, gameID)
}

type integrationEnv struct {
	db        *database.DB
	factory   application.UnitOfWorkFactory
	publisher *recordingPublisher
}

// setupIntegration starts a database, seeds the platform account and wires a
// unit of work factory whose flushed events are recorded
func setupIntegration(t *testing.T) *integrationEnv {
	t.Helper()
	testDB := testutil.SetupTestDatabase(t)
	testutil.SeedAccount(t, testDB.DB, config.Get().PlatformAccountID, 0)

	publisher := &recordingPublisher{}
	return &integrationEnv{
		db:        testDB.DB,
		factory:   infrastructure.NewUnitOfWorkFactory(testDB.DB, publisher),
		publisher: publisher,
	}
}

// balance reads an account's balances outside any unit of work
func (e *integrationEnv) balance(t *testing.T, userID int64) (available, blocked int64) {
	t.Helper()
	err := e.db.QueryRow(context.Background(),
		`SELECT available_balance, blocked_balance FROM accounts WHERE user_id = $1`, userID,
	).Scan(&available, &blocked)
	require.NoError(t, err)
	return available, blocked
}

// latestTicketStatus reads the status of the user's most recent matchmaking ticket
func (e *integrationEnv) latestTicketStatus(t *testing.T, userID int64) entities.TicketStatus {
	t.Helper()
	var status string
	err := e.db.QueryRow(context.Background(),
		`SELECT status FROM matchmaking_tickets WHERE user_id = $1 ORDER BY id DESC LIMIT 1`, userID,
	).Scan(&status)
	require.NoError(t, err)
	return entities.TicketStatus(status)
}

// withTestConfig applies overrides to a fresh test config for the duration of the test
func withTestConfig(t *testing.T, override func(cfg *config.Config)) {
	t.Helper()
	cfg := config.NewTestConfig()
	override(cfg)
	config.SetTestConfig(cfg)
	t.Cleanup(func() {
		config.SetTestConfig(config.NewTestConfig())
	})
}
