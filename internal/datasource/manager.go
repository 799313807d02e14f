// Package datasource picks between the remote backend and the local fallback
// and exposes one fail-soft surface over whichever is active.
package datasource

import (
	"context"
	"log"
	"sync"
	"time"

	"boss-timer-api/internal/config"
	"boss-timer-api/internal/events"
	"boss-timer-api/internal/models"
	"boss-timer-api/internal/remote"
)

// Storage is the contract shared by the remote backend and the local fallback.
type Storage interface {
	GetBossConfigs(ctx context.Context) ([]models.BossRecord, error)
	SaveBossConfigs(ctx context.Context, bosses []models.BossRecord) error
	AddKillRecord(ctx context.Context, bossID int, killTime, accuracy, recordedBy string) error
	GetKillRecords(ctx context.Context, bossID int) ([]models.KillRecord, error)
}

// Backend is a remote Storage with a connectivity probe.
type Backend interface {
	Storage
	Probe(ctx context.Context) error
	Close() error
}

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// UpdateHandler receives the configs and records fetched by SyncData.
type UpdateHandler func(bosses []models.BossRecord, records []models.KillRecord)

type Option func(*Manager)

// WithDialer replaces how the remote backend is opened.
func WithDialer(dial func(dsn string) (Backend, error)) Option {
	return func(m *Manager) { m.dial = dial }
}

// WithFeed replaces the realtime change feed. feed must return when ctx ends.
func WithFeed(feed func(ctx context.Context, dsn string, publish func(models.ChangeEvent))) Option {
	return func(m *Manager) { m.feed = feed }
}

// Manager is the sync adapter. Its methods never return backend errors:
// failures are logged and turned into empty results or false.
type Manager struct {
	cfg   config.Config
	local Storage
	dial  func(dsn string) (Backend, error)
	feed  func(ctx context.Context, dsn string, publish func(models.ChangeEvent))
	bus   *events.Bus

	mu       sync.RWMutex
	state    State
	backend  Backend
	onUpdate UpdateHandler

	feedCancel context.CancelFunc
	feedDone   chan struct{}

	syncMu     sync.Mutex
	syncCancel context.CancelFunc
	syncWG     sync.WaitGroup
}

func NewManager(cfg config.Config, local Storage, opts ...Option) *Manager {
	m := &Manager{
		cfg:   cfg,
		local: local,
		bus:   events.NewBus(),
		dial: func(dsn string) (Backend, error) {
			return remote.Open(dsn)
		},
		feed: func(ctx context.Context, dsn string, publish func(models.ChangeEvent)) {
			remote.NewListener(dsn, publish).Run(ctx)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect tries the remote backend when one is configured and falls back to
// local storage otherwise. It returns the resulting state. A backend and feed
// from an earlier Connect are released first.
func (m *Manager) Connect(ctx context.Context) State {
	if err := m.releaseRemote(); err != nil {
		log.Printf("datasource: close previous backend: %v", err)
	}
	if !m.cfg.Remote() {
		log.Printf("datasource: no remote backend configured, using local storage")
		m.setState(Disconnected)
		return Disconnected
	}
	m.setState(Connecting)

	dsn, err := remote.DSN(m.cfg.RemoteURL, m.cfg.RemoteKey)
	if err != nil {
		return m.fallBack(err, nil)
	}
	backend, err := m.dial(dsn)
	if err != nil {
		return m.fallBack(err, nil)
	}

	pctx, cancel := m.callContext(ctx, true)
	err = backend.Probe(pctx)
	cancel()
	if err != nil && !remote.Tolerated(err) {
		return m.fallBack(err, backend)
	}

	m.mu.Lock()
	m.backend = backend
	m.state = Connected
	m.mu.Unlock()
	log.Printf("datasource: remote backend connected")

	if m.cfg.EnableRealtime {
		m.startFeed(dsn)
	}
	return Connected
}

func (m *Manager) fallBack(err error, backend Backend) State {
	log.Printf("datasource: remote backend unavailable, using local storage: %v", err)
	if backend != nil {
		_ = backend.Close()
	}
	m.setState(Disconnected)
	return Disconnected
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers fn for change events from the remote feed.
func (m *Manager) Subscribe(fn events.Handler) (cancel func()) {
	return m.bus.Subscribe(fn)
}

// OnUpdate registers the handler SyncData delivers to, replacing any previous one.
func (m *Manager) OnUpdate(fn UpdateHandler) {
	m.mu.Lock()
	m.onUpdate = fn
	m.mu.Unlock()
}

// active returns the storage in use and whether it is remote.
func (m *Manager) active() (Storage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == Connected && m.backend != nil {
		return m.backend, true
	}
	return m.local, false
}

func (m *Manager) callContext(ctx context.Context, isRemote bool) (context.Context, context.CancelFunc) {
	if isRemote && m.cfg.RemoteTimeout > 0 {
		return context.WithTimeout(ctx, m.cfg.RemoteTimeout)
	}
	return ctx, func() {}
}

// GetBossConfigs returns the boss configs. In remote mode the kill fields are
// always nil; see BossesWithLastKill.
func (m *Manager) GetBossConfigs(ctx context.Context) []models.BossRecord {
	st, isRemote := m.active()
	ctx, cancel := m.callContext(ctx, isRemote)
	defer cancel()

	bosses, err := st.GetBossConfigs(ctx)
	if err != nil {
		log.Printf("datasource: get boss configs: %v", err)
		return []models.BossRecord{}
	}
	if isRemote {
		for i := range bosses {
			bosses[i].ClearKill()
		}
	}
	if bosses == nil {
		bosses = []models.BossRecord{}
	}
	return bosses
}

func (m *Manager) SaveBossConfigs(ctx context.Context, bosses []models.BossRecord) bool {
	st, isRemote := m.active()
	ctx, cancel := m.callContext(ctx, isRemote)
	defer cancel()

	if err := st.SaveBossConfigs(ctx, bosses); err != nil {
		log.Printf("datasource: save boss configs: %v", err)
		return false
	}
	return true
}

func (m *Manager) AddKillRecord(ctx context.Context, bossID int, killTime, accuracy, recordedBy string) bool {
	if recordedBy == "" {
		recordedBy = models.AnonymousReporter
	}
	st, isRemote := m.active()
	ctx, cancel := m.callContext(ctx, isRemote)
	defer cancel()

	if err := st.AddKillRecord(ctx, bossID, killTime, accuracy, recordedBy); err != nil {
		log.Printf("datasource: add kill record for boss %d: %v", bossID, err)
		return false
	}
	return true
}

// GetKillRecords returns kill records latest first; bossID 0 selects all bosses.
func (m *Manager) GetKillRecords(ctx context.Context, bossID int) []models.KillRecord {
	st, isRemote := m.active()
	ctx, cancel := m.callContext(ctx, isRemote)
	defer cancel()

	records, err := st.GetKillRecords(ctx, bossID)
	if err != nil {
		log.Printf("datasource: get kill records: %v", err)
		return []models.KillRecord{}
	}
	if records == nil {
		records = []models.KillRecord{}
	}
	return records
}

func (m *Manager) GetLastKillTime(ctx context.Context, bossID int) *string {
	records := m.GetKillRecords(ctx, bossID)
	if len(records) == 0 {
		return nil
	}
	kt := records[0].KillTime
	return &kt
}

// BossesWithLastKill returns the configs with LastKillTime and Accuracy taken
// from each boss's latest kill record. Bosses without records keep their
// stored values.
func (m *Manager) BossesWithLastKill(ctx context.Context) []models.BossRecord {
	bosses := m.GetBossConfigs(ctx)
	records := m.GetKillRecords(ctx, 0)

	latest := make(map[int]models.KillRecord, len(bosses))
	for _, r := range records {
		if _, ok := latest[r.BossID]; !ok {
			latest[r.BossID] = r
		}
	}
	for i := range bosses {
		if r, ok := latest[bosses[i].ID]; ok {
			kt, acc := r.KillTime, r.Accuracy
			bosses[i].LastKillTime = &kt
			bosses[i].Accuracy = &acc
		}
	}
	return bosses
}

// SyncData pulls configs and records from the remote backend and hands them
// to the update handler. It does nothing unless connected.
func (m *Manager) SyncData(ctx context.Context) {
	if m.State() != Connected {
		return
	}
	bosses := m.GetBossConfigs(ctx)
	records := m.GetKillRecords(ctx, 0)

	m.mu.RLock()
	fn := m.onUpdate
	m.mu.RUnlock()
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("datasource: sync handler panic: %v", r)
		}
	}()
	fn(bosses, records)
}

// StartAutoSync runs SyncData every SyncInterval until StopAutoSync or ctx
// ends. A running timer is replaced.
func (m *Manager) StartAutoSync(ctx context.Context) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	m.stopAutoSyncLocked()

	interval := m.cfg.SyncInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	m.syncCancel = cancel

	m.syncWG.Add(1)
	go func() {
		defer m.syncWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				m.SyncData(ctx)
			}
		}
	}()
}

// StopAutoSync stops the timer. A sync already in progress is not waited for,
// so the update handler may call StopAutoSync and StartAutoSync itself.
func (m *Manager) StopAutoSync() {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	m.stopAutoSyncLocked()
}

func (m *Manager) stopAutoSyncLocked() {
	if m.syncCancel == nil {
		return
	}
	m.syncCancel()
	m.syncCancel = nil
}

// AutoSyncRunning reports whether an auto-sync timer is active.
func (m *Manager) AutoSyncRunning() bool {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	return m.syncCancel != nil
}

func (m *Manager) startFeed(dsn string) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.mu.Lock()
	m.feedCancel, m.feedDone = cancel, done
	m.mu.Unlock()

	go func() {
		defer close(done)
		m.feed(ctx, dsn, m.handleChange)
	}()
}

func (m *Manager) handleChange(ev models.ChangeEvent) {
	log.Printf("datasource: %s change: %s", ev.Table, ev.Event)
	m.bus.Publish(ev)
}

// Close stops auto-sync and the change feed and releases the remote backend.
// It waits for running syncs, so it must not be called from the update handler.
func (m *Manager) Close() error {
	m.StopAutoSync()
	m.syncWG.Wait()
	return m.releaseRemote()
}

// releaseRemote stops the change feed, closes the backend and leaves the
// manager disconnected.
func (m *Manager) releaseRemote() error {
	m.mu.Lock()
	cancel, done := m.feedCancel, m.feedDone
	m.feedCancel, m.feedDone = nil, nil
	backend := m.backend
	m.backend = nil
	m.state = Disconnected
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if backend != nil {
		return backend.Close()
	}
	return nil
}
