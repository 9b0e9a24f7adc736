package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/pickupshop/pkg/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type collectionBlob struct {
	Name      string `gorm:"primaryKey;type:varchar(64)"`
	Data      []byte `gorm:"type:longblob"`
	UpdatedAt time.Time
}

func (collectionBlob) TableName() string {
	return "collection_blobs"
}

// MySQLStore is a BlobStore keeping one row per collection.
type MySQLStore struct {
	db *gorm.DB
}

func NewMySQLStore(cfg *config.MySQLConfig) (*MySQLStore, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return NewMySQLStoreFromDB(db)
}

func NewMySQLStoreFromDB(db *gorm.DB) (*MySQLStore, error) {
	// Auto migrate
	if err := db.AutoMigrate(&collectionBlob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row collectionBlob
	if err := s.db.WithContext(ctx).Where("name = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoData
		}
		return nil, err
	}
	return row.Data, nil
}

func (s *MySQLStore) Put(ctx context.Context, key string, data []byte) error {
	row := collectionBlob{Name: key, Data: data, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
