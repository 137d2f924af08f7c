package feed

import (
	"context"
	"encoding/json"
	"time"

	"opschecklist/internal/logger"

	"github.com/jackc/pgx/v5"
)

const (
	channelName = "ops_feed"

	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// Listener consumes row-change notifications from Postgres and publishes
// them to the hub. It holds a dedicated connection (LISTEN blocks it) and
// resubscribes with capped exponential backoff when the connection drops,
// so a transient outage means a gap in events, not a dead feed.
type Listener struct {
	dsn string
	hub *Hub
}

func NewListener(dsn string, hub *Hub) *Listener {
	return &Listener{dsn: dsn, hub: hub}
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	backoff := reconnectMin

	for {
		if ctx.Err() != nil {
			return
		}

		connected, err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = reconnectMin
		}

		logger.Error("feed listener disconnected", "error", err, "retry_in", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

func (l *Listener) listen(ctx context.Context) (bool, error) {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return false, err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return false, err
	}
	logger.Info("feed listener connected", "channel", channelName)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, err
		}

		var ev Event
		if err := json.Unmarshal([]byte(notification.Payload), &ev); err != nil {
			logger.Error("feed listener: bad payload", "error", err)
			continue
		}
		l.hub.Publish(ev)
	}
}
