package observability

// Metric name prefixes
const (
	MetricPrefix = "arena"
)

// Metric names
const (
	// Bingo metrics
	BingoDrawsTotal     = MetricPrefix + ".bingo.draws_total"
	AutoDrawLoopsActive = MetricPrefix + ".bingo.auto_draw_loops_active"
	PrizeUpdatesTotal   = MetricPrefix + ".bingo.prize_updates_total"
	SettlementsTotal    = MetricPrefix + ".settlements_total"
	SettledPrizeTotal   = MetricPrefix + ".settlements.prize_total"
	CommissionTotal     = MetricPrefix + ".settlements.commission_total"

	// Dice metrics
	BattlesFormedTotal      = MetricPrefix + ".dice.battles_formed_total"
	BattlesFinishedTotal    = MetricPrefix + ".dice.battles_finished_total"
	DiceRollsTotal          = MetricPrefix + ".dice.rolls_total"
	MatchmakingTickDuration = MetricPrefix + ".dice.matchmaking_tick_duration"

	// Ledger metrics
	LedgerEntriesTotal = MetricPrefix + ".ledger.entries_total"

	// Cleanup metrics
	SweepBattlesExpiredTotal = MetricPrefix + ".cleanup.battles_expired_total"
	SweepTicketsExpiredTotal = MetricPrefix + ".cleanup.tickets_expired_total"
	SweepFailuresTotal       = MetricPrefix + ".cleanup.failures_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelKind      = "kind"
	LabelReason    = "reason"
	LabelMode      = "mode"
	LabelGame      = "game"
)

// Draw modes
const (
	DrawModeAuto   = "auto"
	DrawModeManual = "manual"
)

// Game types
const (
	GameBingo = "bingo"
	GameDice  = "dice"
)
