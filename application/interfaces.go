package application

import (
	"context"
)

// DrawScheduler starts and stops auto-draw loops.
// Implemented by AutoDrawManager.
type DrawScheduler interface {
	// Ensure starts a loop for the game unless one is already running
	Ensure(gameID int64)

	// Stop cancels the game's loop and waits for it to exit
	Stop(gameID int64)
}

// PresenceTracker counts connected users per room across processes
type PresenceTracker interface {
	Connect(ctx context.Context, room string, userID int64) (int64, error)
	Disconnect(ctx context.Context, room string, userID int64) (int64, error)
	Count(ctx context.Context, room string) (int64, error)
}
