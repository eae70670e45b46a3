package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arenaplay/arena/application"
	"github.com/arenaplay/arena/application/dto"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"
	"github.com/arenaplay/arena/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBingoHandler_SettlementScenario(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	const organizer, buyer, bystander = int64(1), int64(2), int64(3)
	testutil.SeedAccount(t, env.db, organizer, 100)
	testutil.SeedAccount(t, env.db, buyer, 100)
	testutil.SeedAccount(t, env.db, bystander, 0)

	scheduler := &recordingScheduler{}
	handler := application.NewBingoHandler(env.factory, scheduler)

	game, err := handler.CreateGame(ctx, dto.CreateGameDTO{
		OrganizerID:  organizer,
		BasePrize:    100,
		PricePerUnit: 5,
		Pattern:      string(entities.BingoPatternFullHouse),
	})
	require.NoError(t, err)
	assert.Equal(t, entities.BingoRuleSet75, game.RuleSet)
	assert.Equal(t, int64(1000), game.CommissionRateBps, "commission captured from config")

	available, blocked := env.balance(t, organizer)
	assert.Zero(t, available)
	assert.Equal(t, int64(100), blocked)

	t.Run("organizer cannot buy", func(t *testing.T) {
		_, err := handler.PurchaseUnit(ctx, game.ID, organizer)
		assert.ErrorIs(t, err, entities.ErrForbidden)
	})

	t.Run("buyer without funds is rejected", func(t *testing.T) {
		_, err := handler.PurchaseUnit(ctx, game.ID, bystander)
		assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
	})

	for i := 0; i < 20; i++ {
		result, err := handler.PurchaseUnit(ctx, game.ID, buyer)
		require.NoError(t, err)
		assert.Equal(t, int64(100-5*(i+1)), result.NewBalance)
	}

	started, err := handler.StartGame(ctx, game.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, entities.BingoGameStateStarted, started.State)
	assert.Empty(t, scheduler.ensured, "manual games get no draw loop")

	t.Run("only the organizer draws", func(t *testing.T) {
		_, err := handler.ManualDraw(ctx, game.ID, buyer, 1)
		assert.ErrorIs(t, err, entities.ErrForbidden)
	})

	t.Run("out of range draw leaves no trace", func(t *testing.T) {
		before := len(env.publisher.OfType(events.EventTypeNumberDrawn))
		_, err := handler.ManualDraw(ctx, game.ID, organizer, 76)
		assert.ErrorIs(t, err, entities.ErrInvalidNumber)
		assert.Len(t, env.publisher.OfType(events.EventTypeNumberDrawn), before)
	})

	cards, err := handler.GetCards(ctx, game.ID, buyer)
	require.NoError(t, err)
	require.Len(t, cards, 20)

	t.Run("claim before a full house fails", func(t *testing.T) {
		_, err := handler.ClaimWin(ctx, game.ID, buyer)
		assert.ErrorIs(t, err, entities.ErrNoWinningCard)
	})

	for _, n := range cards[0].Numbers {
		if n == 0 {
			continue
		}
		current, err := handler.GetGame(ctx, game.ID)
		require.NoError(t, err)
		if current.HasDrawn(n) {
			continue
		}
		_, err = handler.ManualDraw(ctx, game.ID, organizer, n)
		require.NoError(t, err)
	}

	_, err = handler.ClaimWin(ctx, game.ID, bystander)
	assert.ErrorIs(t, err, entities.ErrNoWinningCard)

	settlement, err := handler.ClaimWin(ctx, game.ID, buyer)
	require.NoError(t, err)
	require.NotNil(t, settlement)
	assert.Equal(t, int64(100), settlement.Prize)
	assert.Equal(t, int64(10), settlement.Commission)
	assert.Equal(t, int64(90), settlement.OrganizerRevenue)
	assert.Contains(t, scheduler.stopped, game.ID)

	again, err := handler.ClaimWin(ctx, game.ID, buyer)
	require.NoError(t, err, "a second claim is a no-op")
	assert.Nil(t, again)

	available, blocked = env.balance(t, buyer)
	assert.Equal(t, int64(100), available)
	assert.Zero(t, blocked)

	available, blocked = env.balance(t, organizer)
	assert.Equal(t, int64(190), available)
	assert.Zero(t, blocked)

	available, _ = env.balance(t, 999)
	assert.Equal(t, int64(10), available)

	finished, err := handler.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, finished.IsFinished())
	assert.Zero(t, finished.HeldBalance)

	assert.Len(t, env.publisher.OfType(events.EventTypeGameFinished), 1)

	ledger := application.NewLedgerHandler(env.factory)
	for _, id := range []int64{organizer, buyer, 999} {
		report, err := ledger.Reconcile(ctx, id)
		require.NoError(t, err)
		assert.True(t, report.IsBalanced(), "account %d reconciles", id)
	}
}

func TestBingoHandler_AutoDrawPlaysToAWinner(t *testing.T) {
	env := setupIntegration(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	testutil.SeedAccount(t, env.db, 1, 100)
	testutil.SeedAccount(t, env.db, 2, 100)

	manager := application.NewAutoDrawManager(env.factory, nil)
	stop := manager.Start(ctx)
	defer stop()

	handler := application.NewBingoHandler(env.factory, manager)

	game, err := handler.CreateGame(ctx, dto.CreateGameDTO{
		OrganizerID:    1,
		BasePrize:      100,
		PricePerUnit:   5,
		Pattern:        string(entities.BingoPatternFullHouse),
		AutoDraw:       true,
		DrawIntervalMs: 5,
	})
	require.NoError(t, err)
	_, err = handler.PurchaseUnit(ctx, game.ID, 2)
	require.NoError(t, err)

	_, err = handler.StartGame(ctx, game.ID, 1)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		current, err := handler.GetGame(ctx, game.ID)
		return err == nil && current.IsFinished()
	}, 15*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return !manager.IsRunning(game.ID)
	}, 5*time.Second, 10*time.Millisecond)

	drawn := env.publisher.OfType(events.EventTypeNumberDrawn)
	seen := make(map[int64]bool)
	for _, e := range drawn {
		d := e.(events.NumberDrawnEvent)
		assert.True(t, d.Auto)
		assert.False(t, seen[d.Number], "number %d drawn twice", d.Number)
		seen[d.Number] = true
	}
	assert.GreaterOrEqual(t, len(drawn), 24, "a full house needs every number of the card")

	available, blocked := env.balance(t, 2)
	assert.Equal(t, int64(195), available)
	assert.Zero(t, blocked)

	// Revenue of 5 at 10% rounds the commission down to zero
	available, blocked = env.balance(t, 1)
	assert.Equal(t, int64(105), available)
	assert.Zero(t, blocked)
}

func TestAutoDrawManager_ResumesStartedGames(t *testing.T) {
	env := setupIntegration(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	testutil.SeedAccount(t, env.db, 1, 50)
	testutil.SeedAccount(t, env.db, 2, 50)

	// Started while no manager was running, as after a restart
	handler := application.NewBingoHandler(env.factory, &recordingScheduler{})
	game, err := handler.CreateGame(ctx, dto.CreateGameDTO{
		OrganizerID:    1,
		BasePrize:      10,
		PricePerUnit:   1,
		RuleSet:        int(entities.BingoRuleSet90),
		Pattern:        string(entities.BingoPatternOneLine),
		AutoDraw:       true,
		DrawIntervalMs: 5,
	})
	require.NoError(t, err)
	_, err = handler.PurchaseUnit(ctx, game.ID, 2)
	require.NoError(t, err)
	_, err = handler.StartGame(ctx, game.ID, 1)
	require.NoError(t, err)

	manager := application.NewAutoDrawManager(env.factory, nil)
	stop := manager.Start(ctx)
	defer stop()

	require.Eventually(t, func() bool {
		current, err := handler.GetGame(ctx, game.ID)
		return err == nil && current.IsFinished()
	}, 15*time.Second, 20*time.Millisecond)

	finished, err := handler.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, finished.WinnerIDs)
}

func TestBingoHandler_ToggleAutoDraw(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()
	testutil.SeedAccount(t, env.db, 1, 10)

	scheduler := &recordingScheduler{}
	handler := application.NewBingoHandler(env.factory, scheduler)

	game, err := handler.CreateGame(ctx, dto.CreateGameDTO{
		OrganizerID:  1,
		PricePerUnit: 1,
		Pattern:      string(entities.BingoPatternLine),
	})
	require.NoError(t, err)

	_, err = handler.ToggleAutoDraw(ctx, game.ID, 2)
	assert.ErrorIs(t, err, entities.ErrForbidden)

	// Pending games never get a loop, even with auto-draw on
	toggled, err := handler.ToggleAutoDraw(ctx, game.ID, 1)
	require.NoError(t, err)
	assert.True(t, toggled.AutoDrawEnabled)
	assert.Empty(t, scheduler.ensured)

	_, err = handler.StartGame(ctx, game.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{game.ID}, scheduler.ensured)

	_, err = handler.StartGame(ctx, game.ID, 1)
	assert.ErrorIs(t, err, entities.ErrInvalidStateTransition)

	toggled, err = handler.ToggleAutoDraw(ctx, game.ID, 1)
	require.NoError(t, err)
	assert.False(t, toggled.AutoDrawEnabled)
	assert.Contains(t, scheduler.stopped, game.ID)
}

func TestBingoHandler_AutoDrawAndClaimSettleOnce(t *testing.T) {
	env := setupIntegration(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const organizer, buyer = int64(1), int64(2)
	testutil.SeedAccount(t, env.db, organizer, 100)
	testutil.SeedAccount(t, env.db, buyer, 100)

	manager := application.NewAutoDrawManager(env.factory, nil)
	stop := manager.Start(ctx)
	defer stop()
	handler := application.NewBingoHandler(env.factory, manager)

	game, err := handler.CreateGame(ctx, dto.CreateGameDTO{
		OrganizerID:    organizer,
		BasePrize:      100,
		PricePerUnit:   5,
		Pattern:        string(entities.BingoPatternFullHouse),
		DrawIntervalMs: 1,
	})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		_, err := handler.PurchaseUnit(ctx, game.ID, buyer)
		require.NoError(t, err)
	}
	_, err = handler.StartGame(ctx, game.ID, organizer)
	require.NoError(t, err)

	// Complete a card by hand; manual draws never settle
	cards, err := handler.GetCards(ctx, game.ID, buyer)
	require.NoError(t, err)
	for _, n := range cards[0].Numbers {
		current, err := handler.GetGame(ctx, game.ID)
		require.NoError(t, err)
		if n == 0 || current.HasDrawn(n) {
			continue
		}
		_, err = handler.ManualDraw(ctx, game.ID, organizer, n)
		require.NoError(t, err)
	}

	// Turning auto-draw on races its first winning draw against several claims
	start := make(chan struct{})
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		settled  int
		claimErr []error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		_, _ = handler.ToggleAutoDraw(ctx, game.ID, organizer)
	}()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			settlement, err := handler.ClaimWin(ctx, game.ID, buyer)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				claimErr = append(claimErr, err)
			}
			if settlement != nil {
				settled++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, claimErr)
	assert.LessOrEqual(t, settled, 1)

	require.Eventually(t, func() bool {
		current, err := handler.GetGame(ctx, game.ID)
		return err == nil && current.IsFinished() && !manager.IsRunning(game.ID)
	}, 10*time.Second, 10*time.Millisecond)

	countEntries := func(kind entities.LedgerEntryKind) int {
		var n int
		err := env.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM ledger_entries WHERE related_type = $1 AND related_id = $2 AND kind = $3`,
			string(entities.RelatedTypeBingoGame), game.ID, string(kind),
		).Scan(&n)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 1, countEntries(entities.LedgerKindPrize))
	assert.Equal(t, 1, countEntries(entities.LedgerKindPlatformCommission))
	assert.Equal(t, 1, countEntries(entities.LedgerKindOrganizerRevenue))
	assert.Len(t, env.publisher.OfType(events.EventTypeGameFinished), 1)

	available, blocked := env.balance(t, buyer)
	assert.Equal(t, int64(100), available)
	assert.Zero(t, blocked)
	available, _ = env.balance(t, 999)
	assert.Equal(t, int64(10), available)
}
