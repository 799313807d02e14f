// Package remote talks to the hosted Postgres backend: the boss_configs and
// kill_records tables and their change feed. The schema is expected to exist.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"boss-timer-api/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// MaxKillRecords caps how many kill records a single query returns.
const MaxKillRecords = 1000

type BossConfigRow struct {
	ID        int     `gorm:"primaryKey;autoIncrement:false"`
	Name      string  `gorm:"not null"`
	Category  string  `gorm:"not null"`
	Interval  float64 `gorm:"column:interval;not null"`
	Delay     float64 `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BossConfigRow) TableName() string { return "boss_configs" }

type KillRecordRow struct {
	ID         int64     `gorm:"primaryKey"`
	BossID     int       `gorm:"not null;index"`
	KillTime   time.Time `gorm:"not null"`
	Accuracy   string    `gorm:"default:accurate"`
	RecordedBy string
	CreatedAt  time.Time
}

func (KillRecordRow) TableName() string { return "kill_records" }

type Postgres struct {
	db *gorm.DB
}

func Open(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return NewPostgres(db), nil
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Probe checks that the backend answers a trivial query on boss_configs.
func (p *Postgres) Probe(ctx context.Context) error {
	var n int64
	return p.db.WithContext(ctx).Model(&BossConfigRow{}).Count(&n).Error
}

// Tolerated reports whether a probe error still means the backend is usable:
// a missing relation or an empty result.
func Tolerated(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

// GetBossConfigs returns the configured bosses ordered by id. Kill fields are
// always nil; they live in kill_records.
func (p *Postgres) GetBossConfigs(ctx context.Context) ([]models.BossRecord, error) {
	var rows []BossConfigRow
	if err := p.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.BossRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.BossRecord{
			ID:       r.ID,
			Category: r.Category,
			Name:     r.Name,
			Interval: r.Interval,
			Delay:    r.Delay,
		})
	}
	return out, nil
}

// SaveBossConfigs upserts configuration columns only.
func (p *Postgres) SaveBossConfigs(ctx context.Context, bosses []models.BossRecord) error {
	if len(bosses) == 0 {
		return nil
	}
	rows := make([]BossConfigRow, 0, len(bosses))
	for _, b := range bosses {
		rows = append(rows, BossConfigRow{
			ID:       b.ID,
			Name:     b.Name,
			Category: b.Category,
			Interval: b.Interval,
			Delay:    b.Delay,
		})
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category", "interval", "delay", "updated_at"}),
	}).Create(&rows).Error
}

func (p *Postgres) AddKillRecord(ctx context.Context, bossID int, killTime, accuracy, recordedBy string) error {
	t, err := models.ParseTime(killTime)
	if err != nil {
		return fmt.Errorf("kill time %q: %w", killTime, err)
	}
	if accuracy == "" {
		accuracy = models.DefaultAccuracy
	}
	if recordedBy == "" {
		recordedBy = models.AnonymousReporter
	}
	row := KillRecordRow{
		BossID:     bossID,
		KillTime:   t.UTC(),
		Accuracy:   accuracy,
		RecordedBy: recordedBy,
	}
	return p.db.WithContext(ctx).Create(&row).Error
}

// GetKillRecords returns records of known bosses, latest kill first. A zero
// bossID selects every boss.
func (p *Postgres) GetKillRecords(ctx context.Context, bossID int) ([]models.KillRecord, error) {
	q := p.db.WithContext(ctx).
		Model(&KillRecordRow{}).
		Select("kill_records.*").
		Joins("JOIN boss_configs ON boss_configs.id = kill_records.boss_id").
		Order("kill_records.kill_time DESC").
		Limit(MaxKillRecords)
	if bossID != 0 {
		q = q.Where("kill_records.boss_id = ?", bossID)
	}

	var rows []KillRecordRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.KillRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.KillRecord{
			ID:         strconv.FormatInt(r.ID, 10),
			BossID:     r.BossID,
			KillTime:   models.FormatTime(r.KillTime),
			Accuracy:   r.Accuracy,
			RecordedBy: r.RecordedBy,
			Timestamp:  models.FormatTime(r.CreatedAt),
		})
	}
	return out, nil
}

// DSN builds a connection string from the configured endpoint and access key.
// A project URL (https://<ref>.supabase.co) maps to its database host.
func DSN(endpoint, key string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
	case "https", "http":
		if u.Hostname() == "" {
			return "", fmt.Errorf("endpoint %q has no host", endpoint)
		}
		u = &url.URL{
			Scheme:   "postgres",
			Host:     "db." + u.Hostname() + ":5432",
			Path:     "/postgres",
			RawQuery: "sslmode=require",
		}
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}

	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, key)
	return u.String(), nil
}
