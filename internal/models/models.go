package models

import (
	"encoding/json"
	"time"
)

// TimeLayout is the canonical kill timestamp form: UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// DefaultAccuracy is applied when a kill is reported without an accuracy tag.
const DefaultAccuracy = "accurate"

// AnonymousReporter is stored when a kill record names no reporter.
const AnonymousReporter = "anonymous"

type BossRecord struct {
	ID           int     `json:"id" yaml:"id"`
	Category     string  `json:"category" yaml:"category"`
	Name         string  `json:"name" yaml:"name"`
	Interval     float64 `json:"interval" yaml:"interval"` // hours
	Delay        float64 `json:"delay" yaml:"delay"`       // minutes
	LastKillTime *string `json:"lastKillTime" yaml:"-"`
	Accuracy     *string `json:"accuracy" yaml:"-"`
}

// ClearKill drops the recorded kill so the boss reads as never killed.
func (b *BossRecord) ClearKill() {
	b.LastKillTime = nil
	b.Accuracy = nil
}

type KillRecord struct {
	ID         string `json:"id"`
	BossID     int    `json:"bossId"`
	KillTime   string `json:"killTime"`
	Accuracy   string `json:"accuracy"`
	RecordedBy string `json:"recordedBy,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// ChangeEvent is a table change notification. Payload is passed through untouched.
type ChangeEvent struct {
	Event   string          `json:"event"`
	Schema  string          `json:"schema"`
	Table   string          `json:"table"`
	Payload json.RawMessage `json:"payload"`
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// zonedLayouts carry their own zone. A bare date has none but is read as UTC,
// the way ISO date-only strings are.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime accepts RFC 3339, RFC 1123, bare dates (UTC) and a handful of
// zone-less date-times, the latter interpreted in the server's local zone.
func ParseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range zonedLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, firstErr
}

// NormalizeTime rewrites s into TimeLayout.
func NormalizeTime(s string) (string, error) {
	t, err := ParseTime(s)
	if err != nil {
		return "", err
	}
	return FormatTime(t), nil
}
