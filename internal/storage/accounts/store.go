// internal/storage/accounts/store.go
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/model"
)

// Config selects the database holding local accounts.
type Config struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

// Store persists local accounts and the tier last resolved for each.
type Store struct {
	db *gorm.DB
}

type row struct {
	ID                      string    `gorm:"column:id;primaryKey;size:64"`
	Login                   string    `gorm:"column:login;size:255;not null;index"`
	InstallationAccessToken string    `gorm:"column:installation_access_token"`
	PersonalAccessToken     *string   `gorm:"column:personal_access_token"`
	AccessTier              string    `gorm:"column:access_tier;size:16;not null;default:BASIC"`
	CreatedAt               time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (row) TableName() string { return "local_accounts" }

func Open(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("accounts dsn is required")
	}
	db, err := openGorm(normalizeDriver(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&row{}); err != nil {
			return nil, fmt.Errorf("migrate local_accounts: %w", err)
		}
	}
	return store, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the account with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*model.LocalAccount, error) {
	var data row
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("account %s: %w", id, custom_errors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return fromRow(data)
}

// Save inserts or replaces an account's login and tokens. The stored tier
// is kept: it is owned by UpdateTier.
func (s *Store) Save(ctx context.Context, account model.LocalAccount) error {
	data := toRow(account)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"login", "installation_access_token", "personal_access_token", "updated_at"}),
		}).
		Create(&data).Error
}

func (s *Store) UpdateTier(ctx context.Context, id string, tier model.Tier) error {
	res := s.db.WithContext(ctx).Model(&row{}).Where("id = ?", id).Update("access_tier", tier.String())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", id, custom_errors.ErrNotFound)
	}
	return nil
}

func toRow(account model.LocalAccount) row {
	return row{
		ID:                      account.ID,
		Login:                   account.Login,
		InstallationAccessToken: account.InstallationAccessToken,
		PersonalAccessToken:     account.PersonalAccessToken,
		AccessTier:              account.AccessTier.String(),
	}
}

func fromRow(data row) (*model.LocalAccount, error) {
	tier, err := model.ParseTier(data.AccessTier)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", data.ID, err)
	}
	return &model.LocalAccount{
		ID:                      data.ID,
		Login:                   data.Login,
		InstallationAccessToken: data.InstallationAccessToken,
		PersonalAccessToken:     data.PersonalAccessToken,
		AccessTier:              tier,
	}, nil
}

func normalizeDriver(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "postgres", "postgresql", "pgx", "":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return value
	}
}

func openGorm(driver, dsn string) (*gorm.DB, error) {
	conf := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), conf)
	case "mysql":
		return gorm.Open(mysql.Open(dsn), conf)
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), conf)
	default:
		return nil, fmt.Errorf("unsupported accounts driver: %s", driver)
	}
}
