package remote

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"boss-timer-api/internal/models"

	"github.com/jackc/pgx/v5"
)

// Change feeds, one NOTIFY channel per table.
const (
	FeedBossConfigs = "boss_configs"
	FeedKillRecords = "kill_records"
)

// Listener subscribes to the backend change feeds with LISTEN and hands every
// notification to Publish. Triggers are expected to pg_notify a JSON document
// shaped {event, schema, table, payload}.
type Listener struct {
	DSN      string
	Channels []string
	Publish  func(models.ChangeEvent)

	// MaxBackoff bounds the reconnect delay. Zero means 30s.
	MaxBackoff time.Duration

	// session and sleep default to listen and a context-aware timer.
	session func(ctx context.Context) (listening bool, err error)
	sleep   func(ctx context.Context, d time.Duration) bool
}

func NewListener(dsn string, publish func(models.ChangeEvent)) *Listener {
	return &Listener{
		DSN:      dsn,
		Channels: []string{FeedBossConfigs, FeedKillRecords},
		Publish:  publish,
	}
}

const minBackoff = time.Second

// Run listens until ctx is cancelled, reconnecting after connection loss. The
// reconnect delay doubles on consecutive failures and starts over once a
// session got as far as LISTEN.
func (l *Listener) Run(ctx context.Context) {
	maxBackoff := l.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	session, sleep := l.session, l.sleep
	if session == nil {
		session = l.listen
	}
	if sleep == nil {
		sleep = sleepCtx
	}

	backoff := minBackoff
	for {
		listening, err := session(ctx)
		if ctx.Err() != nil {
			return
		}
		if listening {
			backoff = minBackoff
		}
		log.Printf("remote: change feed interrupted: %v (retrying in %v)", err, backoff)
		if !sleep(ctx, backoff) {
			return
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// listen reports whether LISTEN succeeded on every channel before the session ended.
func (l *Listener) listen(ctx context.Context) (bool, error) {
	conn, err := pgx.Connect(ctx, l.DSN)
	if err != nil {
		return false, err
	}
	defer conn.Close(context.Background())

	for _, ch := range l.Channels {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			return false, err
		}
	}
	log.Printf("remote: listening on %v", l.Channels)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, err
		}
		l.Publish(DecodeNotification(n.Channel, n.Payload))
	}
}

// DecodeNotification turns a NOTIFY payload into a ChangeEvent. Payloads that
// are not an event envelope are wrapped whole, with the channel as table.
func DecodeNotification(channel, payload string) models.ChangeEvent {
	var ev models.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err == nil && ev.Table != "" {
		return ev
	}
	ev = models.ChangeEvent{Event: "*", Schema: "public", Table: channel}
	if json.Valid([]byte(payload)) {
		ev.Payload = json.RawMessage(payload)
	} else {
		raw, _ := json.Marshal(payload)
		ev.Payload = raw
	}
	return ev
}
