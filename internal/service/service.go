package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"boss-timer-api/internal/events"
	"boss-timer-api/internal/models"
	"boss-timer-api/internal/store"
)

// BossesTable names the file-backed collection in published change events.
const BossesTable = "bosses"

type Service struct {
	store *store.File
	bus   *events.Bus
	now   func() time.Time
}

func New(st *store.File, bus *events.Bus) *Service {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Service{store: st, bus: bus, now: time.Now}
}

// Events exposes the bus kill and reset notifications are published on.
func (s *Service) Events() *events.Bus { return s.bus }

func (s *Service) Bosses(ctx context.Context) []models.BossRecord {
	return s.store.ReadAll()
}

// KillReport is the optional input of RecordKill. Empty fields take defaults:
// the current time and DefaultAccuracy. JSON null counts as empty, so a kill
// never stores a null accuracy.
type KillReport struct {
	Time     string `json:"time"`
	Accuracy string `json:"accuracy"`
}

// RecordKill overwrites the boss's last kill with the reported one. An unknown
// id is reported before the time is looked at.
func (s *Service) RecordKill(ctx context.Context, id int, report KillReport) (models.BossRecord, error) {
	bosses := s.store.ReadAll()
	idx := -1
	for i := range bosses {
		if bosses[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.BossRecord{}, fmt.Errorf("%w: id %d", ErrBossNotFound, id)
	}

	killTime := s.now()
	if t := strings.TrimSpace(report.Time); t != "" {
		parsed, err := models.ParseTime(t)
		if err != nil {
			return models.BossRecord{}, fmt.Errorf("%w: %q", ErrInvalidTime, report.Time)
		}
		killTime = parsed
	}
	accuracy := report.Accuracy
	if accuracy == "" {
		accuracy = models.DefaultAccuracy
	}

	ts := models.FormatTime(killTime)
	bosses[idx].LastKillTime = &ts
	bosses[idx].Accuracy = &accuracy

	if !s.store.WriteAll(bosses) {
		return models.BossRecord{}, ErrStorage
	}
	s.publish("UPDATE", bosses[idx])
	return bosses[idx], nil
}

// Reset clears the recorded kill of every boss.
func (s *Service) Reset(ctx context.Context) error {
	bosses := s.store.ReadAll()
	for i := range bosses {
		bosses[i].ClearKill()
	}
	if !s.store.WriteAll(bosses) {
		return fmt.Errorf("reset: %w", ErrStorage)
	}
	s.publish("RESET", map[string]int{"count": len(bosses)})
	return nil
}

func (s *Service) publish(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("service: encode %s event: %v", event, err)
		return
	}
	s.bus.Publish(models.ChangeEvent{
		Event:   event,
		Schema:  "file",
		Table:   BossesTable,
		Payload: raw,
	})
}
