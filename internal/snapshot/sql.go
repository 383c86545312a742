package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ninjalooter/ninjalooter-go/internal/auction"
)

// snapshotRowID is the primary key of the single snapshot row.
const snapshotRowID = 1

type snapshotRow struct {
	ID      uint `gorm:"primaryKey"`
	Data    []byte
	SavedAt time.Time
}

func (snapshotRow) TableName() string { return "snapshots" }

// ArchivedAuction is one resolved auction in the history archive.
type ArchivedAuction struct {
	ID         string `gorm:"primaryKey"`
	Item       string `gorm:"index"`
	Kind       string
	Winners    string
	Amount     int
	StartedAt  time.Time
	ArchivedAt time.Time
}

func (ArchivedAuction) TableName() string { return "auction_history" }

// SQLStore keeps the snapshot in a SQLite database and archives every
// resolved auction as a queryable row.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenSQL opens (creating if needed) the SQLite database at dsn.
func OpenSQL(dsn string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&snapshotRow{}, &ArchivedAuction{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

// Load reads the saved snapshot row.
func (s *SQLStore) Load(ctx context.Context) (Snapshot, error) {
	var row snapshotRow
	err := s.db.WithContext(ctx).First(&row, snapshotRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return Decode(row.Data)
}

// Save replaces the snapshot row and archives resolved auctions not yet in
// the archive, in one transaction.
func (s *SQLStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	now := s.now().UTC()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := snapshotRow{ID: snapshotRowID, Data: data, SavedAt: now}
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}

		archived := archiveRows(snap.State.History, now)
		if len(archived) == 0 {
			return nil
		}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&archived).Error
		if err != nil {
			return fmt.Errorf("archive auctions: %w", err)
		}
		return nil
	})
}

// Archive returns archived auctions, oldest first. An empty item returns
// every row; otherwise only rows for that item name.
func (s *SQLStore) Archive(ctx context.Context, item string) ([]ArchivedAuction, error) {
	q := s.db.WithContext(ctx).Order("started_at, id")
	if item != "" {
		q = q.Where("item = ?", item)
	}
	var rows []ArchivedAuction
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	return rows, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func archiveRows(history map[string]auction.Auction, now time.Time) []ArchivedAuction {
	rows := make([]ArchivedAuction, 0, len(history))
	for id, a := range history {
		leaders := auction.Leaders(a)
		names := make([]string, len(leaders))
		amount := 0
		for i, l := range leaders {
			names[i] = l.Bidder
			amount = l.Amount
		}
		rows = append(rows, ArchivedAuction{
			ID:         id,
			Item:       a.Item.Name,
			Kind:       string(a.Kind),
			Winners:    strings.Join(names, ", "),
			Amount:     amount,
			StartedAt:  a.StartTime,
			ArchivedAt: now,
		})
	}
	return rows
}

// String formats an archive row for display.
func (a ArchivedAuction) String() string {
	winners := a.Winners
	if winners == "" {
		winners = "None"
	}
	return a.Item + " (" + a.Kind + "): " + winners + " " + strconv.Itoa(a.Amount)
}
