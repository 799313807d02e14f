package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"boss-timer-api/internal/models"

	"github.com/google/uuid"
)

// Keys of the two whole-collection entries in the local key/value area.
const (
	KeyBossConfigs = "boss_timer_boss_configs"
	KeyKillRecords = "boss_timer_kill_records"
)

// MaxLocalKillRecords is how many kill records the local store retains.
const MaxLocalKillRecords = 1000

// KV is a string key/value area such as store.SQLite.
type KV interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
}

// Local keeps boss configs and kill records in a KV area.
type Local struct {
	kv  KV
	now func() time.Time
}

func NewLocal(kv KV) *Local {
	return &Local{kv: kv, now: time.Now}
}

func (l *Local) GetBossConfigs(ctx context.Context) ([]models.BossRecord, error) {
	bosses := []models.BossRecord{}
	if err := l.load(KeyBossConfigs, &bosses); err != nil {
		return nil, err
	}
	return bosses, nil
}

func (l *Local) SaveBossConfigs(ctx context.Context, bosses []models.BossRecord) error {
	if bosses == nil {
		bosses = []models.BossRecord{}
	}
	return l.save(KeyBossConfigs, bosses)
}

// AddKillRecord appends a record and drops the oldest ones beyond
// MaxLocalKillRecords.
func (l *Local) AddKillRecord(ctx context.Context, bossID int, killTime, accuracy, recordedBy string) error {
	kt, err := models.NormalizeTime(killTime)
	if err != nil {
		return fmt.Errorf("kill time %q: %w", killTime, err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	if accuracy == "" {
		accuracy = models.DefaultAccuracy
	}
	if recordedBy == "" {
		recordedBy = models.AnonymousReporter
	}

	records, err := l.loadKillRecords()
	if err != nil {
		return err
	}
	records = append(records, models.KillRecord{
		ID:         id.String(),
		BossID:     bossID,
		KillTime:   kt,
		Accuracy:   accuracy,
		RecordedBy: recordedBy,
		Timestamp:  models.FormatTime(l.now()),
	})
	if n := len(records); n > MaxLocalKillRecords {
		records = records[n-MaxLocalKillRecords:]
	}
	return l.save(KeyKillRecords, records)
}

// GetKillRecords returns records latest kill first; bossID 0 selects all.
func (l *Local) GetKillRecords(ctx context.Context, bossID int) ([]models.KillRecord, error) {
	if bossID != 0 {
		return l.GetKillRecordsByBoss(ctx, bossID)
	}
	records, err := l.loadKillRecords()
	if err != nil {
		return nil, err
	}
	sortByKillTimeDesc(records)
	return records, nil
}

func (l *Local) GetKillRecordsByBoss(ctx context.Context, bossID int) ([]models.KillRecord, error) {
	records, err := l.loadKillRecords()
	if err != nil {
		return nil, err
	}
	out := make([]models.KillRecord, 0)
	for _, r := range records {
		if r.BossID == bossID {
			out = append(out, r)
		}
	}
	sortByKillTimeDesc(out)
	return out, nil
}

// loadKillRecords returns records in insertion order.
func (l *Local) loadKillRecords() ([]models.KillRecord, error) {
	records := []models.KillRecord{}
	if err := l.load(KeyKillRecords, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (l *Local) load(key string, v any) error {
	raw, ok, err := l.kv.GetItem(key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (l *Local) save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := l.kv.SetItem(key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// sortByKillTimeDesc orders by kill time, latest first. Unparsable times sort last.
func sortByKillTimeDesc(records []models.KillRecord) {
	keys := make(map[string]time.Time, len(records))
	for _, r := range records {
		if t, err := models.ParseTime(r.KillTime); err == nil {
			keys[r.KillTime] = t
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		ti, okI := keys[records[i].KillTime]
		tj, okJ := keys[records[j].KillTime]
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
}
