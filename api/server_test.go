package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/arenaplay/arena/application/dto"
	"github.com/arenaplay/arena/domain/entities"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	bingo    *mockBingo
	dice     *mockDice
	ledger   *mockLedger
	presence *mockPresence
	sweeper  *mockSweeper
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		bingo:    new(mockBingo),
		dice:     new(mockDice),
		ledger:   new(mockLedger),
		presence: new(mockPresence),
		sweeper:  new(mockSweeper),
	}
	ts.handler = NewServer(":0", Handlers{
		Bingo:    ts.bingo,
		Dice:     ts.dice,
		Ledger:   ts.ledger,
		Presence: ts.presence,
		Sweeper:  ts.sweeper,
	}).Handler()
	return ts
}

// do sends a request as userID; zero sends no identity header
func (ts *testServer) do(t *testing.T, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(userIDHeader, fmt.Sprint(userID))
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{entities.ErrInsufficientFunds, http.StatusPaymentRequired},
		{entities.ErrNotFound, http.StatusNotFound},
		{entities.ErrForbidden, http.StatusForbidden},
		{entities.ErrNotParticipant, http.StatusForbidden},
		{entities.ErrAlreadySettled, http.StatusConflict},
		{entities.ErrAlreadyQueued, http.StatusConflict},
		{entities.ErrAlreadyRolled, http.StatusConflict},
		{entities.ErrInvalidStateTransition, http.StatusConflict},
		{entities.ErrConcurrencyConflict, http.StatusConflict},
		{entities.ErrInvalidAmount, http.StatusBadRequest},
		{entities.ErrInvalidNumber, http.StatusBadRequest},
		{entities.ErrNoWinningCard, http.StatusBadRequest},
		{fmt.Errorf("failed to lock account: %w", entities.ErrInsufficientFunds), http.StatusPaymentRequired},
		{entities.ErrRefundRequired, http.StatusInternalServerError},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestServer_RequiresIdentity(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/bingo/games/1", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/bingo/games/1", -3, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/healthz", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.bingo.AssertNotCalled(t, "GetGame", mock.Anything, mock.Anything)
}

func TestServer_CreateGameUsesCallerAsOrganizer(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.bingo.On("CreateGame", mock.Anything, mock.MatchedBy(func(req dto.CreateGameDTO) bool {
		return req.OrganizerID == 7 && req.BasePrize == 100 && req.PricePerUnit == 5 && req.AutoDraw
	})).Return(&entities.BingoGame{
		ID:              11,
		OrganizerID:     7,
		RuleSet:         entities.BingoRuleSet75,
		Pattern:         entities.BingoPatternFullHouse,
		State:           entities.BingoGameStatePending,
		BasePrize:       100,
		PricePerUnit:    5,
		AutoDrawEnabled: true,
	}, nil)

	rec := ts.do(t, http.MethodPost, "/v1/bingo/games", 7, map[string]any{
		"organizer_id":   99,
		"base_prize":     100,
		"price_per_unit": 5,
		"pattern":        "full_house",
		"auto_draw":      true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	view := decode[dto.GameViewDTO](t, rec)
	assert.Equal(t, int64(11), view.ID)
	assert.Equal(t, int64(7), view.OrganizerID)
	assert.Equal(t, int64(100), view.CurrentPrize)
	ts.bingo.AssertExpectations(t)
}

func TestServer_PurchaseMapsDomainErrors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.bingo.On("PurchaseUnit", mock.Anything, int64(3), int64(8)).
		Return(nil, fmt.Errorf("failed to debit buyer: %w", entities.ErrInsufficientFunds))
	ts.bingo.On("PurchaseUnit", mock.Anything, int64(4), int64(8)).
		Return(nil, entities.ErrInvalidStateTransition)

	rec := ts.do(t, http.MethodPost, "/v1/bingo/games/3/units", 8, nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient funds")

	rec = ts.do(t, http.MethodPost, "/v1/bingo/games/4/units", 8, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/bingo/games/abc/units", 8, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ManualDraw(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.bingo.On("ManualDraw", mock.Anything, int64(5), int64(1), int64(42)).
		Return(&entities.DrawResult{GameID: 5, Number: 42, DrawnCount: 9}, nil)

	rec := ts.do(t, http.MethodPost, "/v1/bingo/games/5/draws", 1, map[string]any{"number": 42})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	draw := decode[dto.DrawDTO](t, rec)
	assert.Equal(t, int64(42), draw.Number)
	assert.Equal(t, 9, draw.DrawnCount)

	rec = ts.do(t, http.MethodPost, "/v1/bingo/games/5/draws", 1, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "number is required")
}

func TestServer_ClaimWin(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.bingo.On("ClaimWin", mock.Anything, int64(5), int64(2)).Return(&entities.BingoSettlement{
		GameID:           5,
		Prize:            100,
		Commission:       10,
		OrganizerRevenue: 90,
		Shares:           []entities.PrizeShare{{UserID: 2, Amount: 100}},
	}, nil)
	ts.bingo.On("ClaimWin", mock.Anything, int64(6), int64(2)).Return(nil, nil)

	rec := ts.do(t, http.MethodPost, "/v1/bingo/games/5/claims", 2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settled := decode[dto.SettlementDTO](t, rec)
	assert.True(t, settled.Settled)
	assert.Equal(t, int64(90), settled.OrganizerRevenue)

	rec = ts.do(t, http.MethodPost, "/v1/bingo/games/6/claims", 2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	noop := decode[dto.SettlementDTO](t, rec)
	assert.False(t, noop.Settled, "a settled game is a no-op")
}

func TestServer_DiceQueue(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.dice.On("JoinMatchmaking", mock.Anything, int64(4), int64(10)).Return(&entities.MatchmakingTicket{
		ID: 1, UserID: 4, Stake: 10, Status: entities.TicketStatusWaiting,
	}, nil)
	ts.dice.On("JoinMatchmaking", mock.Anything, int64(5), int64(10)).Return(nil, entities.ErrAlreadyQueued)
	ts.dice.On("LeaveMatchmaking", mock.Anything, int64(4)).Return(nil)
	ts.dice.On("GetQueue", mock.Anything).Return([]entities.StakeBucket{{Stake: 10, Waiting: 2}}, nil)

	rec := ts.do(t, http.MethodPost, "/v1/dice/queue", 4, map[string]any{"stake": 10})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "waiting", decode[dto.TicketDTO](t, rec).Status)

	rec = ts.do(t, http.MethodPost, "/v1/dice/queue", 5, map[string]any{"stake": 10})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/dice/queue", 4, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []dto.QueueBucketDTO{{Stake: 10, Waiting: 2}}, decode[[]dto.QueueBucketDTO](t, rec))

	rec = ts.do(t, http.MethodDelete, "/v1/dice/queue", 4, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_SubmitRoll(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	battle := &entities.DiceBattle{
		ID:            9,
		Stake:         10,
		BasePrize:     30,
		MultiplierBps: 20000,
		State:         entities.DiceBattleStatePlaying,
		Players: []*entities.DicePlayer{
			{UserID: 1, Seat: 0, Lives: 2},
			{UserID: 2, Seat: 1, Lives: 2},
			{UserID: 3, Seat: 2, Lives: 2},
		},
	}
	ts.dice.On("SubmitRoll", mock.Anything, int64(9), int64(1)).Return(&entities.RollResult{
		Battle: battle,
		Round:  &entities.DiceRound{BattleID: 9, RoundNumber: 1},
		Roll:   &entities.DiceRoll{UserID: 1, Die1: 3, Die2: 4, Total: 7},
	}, nil)
	ts.dice.On("SubmitRoll", mock.Anything, int64(9), int64(4)).Return(nil, entities.ErrNotParticipant)

	rec := ts.do(t, http.MethodPost, "/v1/dice/battles/9/rolls", 1, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	roll := decode[dto.RollDTO](t, rec)
	assert.Equal(t, 7, roll.Total)
	assert.False(t, roll.RoundOver)
	assert.Equal(t, int64(60), roll.Battle.Prize)
	assert.Len(t, roll.Battle.Players, 3)

	rec = ts.do(t, http.MethodPost, "/v1/dice/battles/9/rolls", 4, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_Accounts(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.ledger.On("OpenAccount", mock.Anything, int64(3), "marta").
		Return(&entities.Account{UserID: 3, Username: "marta"}, nil)
	ts.ledger.On("Withdraw", mock.Anything, int64(3), int64(50)).
		Return(&entities.LedgerEntry{ID: 12, UserID: 3, Amount: -50, Kind: entities.LedgerKindWithdrawal}, nil)
	ts.ledger.On("History", mock.Anything, int64(3), 20).Return([]*entities.LedgerEntry{}, nil)
	ts.ledger.On("GetAccount", mock.Anything, int64(4)).Return(nil, entities.ErrNotFound)

	rec := ts.do(t, http.MethodPost, "/v1/accounts", 3, map[string]any{"username": "marta"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "marta", decode[dto.AccountDTO](t, rec).Username)

	rec = ts.do(t, http.MethodPost, "/v1/accounts/me/withdrawals", 3, map[string]any{"amount": 50})
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[dto.LedgerEntryDTO](t, rec)
	assert.Equal(t, int64(-50), entry.Amount)
	assert.Equal(t, "withdrawal", entry.Kind)

	rec = ts.do(t, http.MethodGet, "/v1/accounts/me/history?limit=20", 3, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/accounts/me", 4, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Admin(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.ledger.On("AdminCredit", mock.Anything, int64(3), int64(500), "proof #1").
		Return(&entities.LedgerEntry{ID: 1, UserID: 3, Amount: 500, Kind: entities.LedgerKindAdminCredit}, nil)
	ts.ledger.On("RefundWithdrawal", mock.Anything, int64(3), int64(12)).
		Return(nil, fmt.Errorf("withdrawal 12: %w", entities.ErrAlreadySettled))
	ts.ledger.On("Reconcile", mock.Anything, int64(3)).Return(&entities.ReconciliationReport{
		UserID: 3, AvailableBalance: 450, LedgerTotal: 450, EntryCount: 2,
	}, nil)
	ts.sweeper.On("RunSweep", mock.Anything).Return(&entities.SweepReport{BattlesExpired: 1, StakesRefunded: 30})

	rec := ts.do(t, http.MethodPost, "/v1/admin/accounts/3/credits", 1, map[string]any{"amount": 500, "note": "proof #1"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/v1/admin/accounts/3/withdrawals/12/refund", 1, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/admin/accounts/3/reconciliation", 1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.ReconciliationDTO](t, rec).Balanced)

	rec = ts.do(t, http.MethodPost, "/v1/admin/sweep", 1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(30), decode[dto.SweepDTO](t, rec).StakesRefunded)
}

func TestServer_Presence(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.presence.On("Connect", mock.Anything, "bingo:1", int64(2)).Return(int64(3), nil)
	ts.presence.On("Disconnect", mock.Anything, "bingo:1", int64(2)).Return(int64(2), nil)
	ts.presence.On("Count", mock.Anything, "bingo:1").Return(int64(2), nil)

	rec := ts.do(t, http.MethodPost, "/v1/presence/connect", 2, map[string]any{"room": "bingo:1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"room":"bingo:1","count":3}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/v1/presence/disconnect", 2, map[string]any{"room": "bingo:1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"room":"bingo:1","count":2}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/v1/presence/rooms/bingo:1", 2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"room":"bingo:1","count":2}`, rec.Body.String())
}
