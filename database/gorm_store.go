package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"keystone/models"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO
)

// Document is the row shape for the GORM-backed stores.
type Document struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Collection string    `gorm:"size:64;not null;index:idx_documents_collection"`
	Data       string    `gorm:"type:longtext;not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (Document) TableName() string { return "documents" }

// GormStore keeps documents in SQLite or MySQL. Matching and sorting on
// document fields happen in Go; the site's collections are small.
type GormStore struct {
	DB *gorm.DB
}

// OpenSQLite opens a SQLite database file through modernc.org/sqlite.
func OpenSQLite(path string) (*GormStore, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite only supports one writer at a time
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	return newGormStore(db, "sqlite")
}

// OpenMySQL opens a MySQL (or TiDB) database. A DSN requesting tls=tidb
// gets a TLS config built from TIDB_CA.
func OpenMySQL(dsn string) (*GormStore, error) {
	if strings.Contains(dsn, "tls=tidb") {
		if err := registerTiDBTLS(os.Getenv("TIDB_CA")); err != nil {
			return nil, err
		}
	}
	if !strings.Contains(dsn, "parseTime=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "parseTime=true"
	}

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql database: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newGormStore(db, "mysql")
}

func registerTiDBTLS(caPath string) error {
	if caPath == "" {
		caPath = "/etc/ssl/certs/ca-certificates.crt"
	}
	b, err := os.ReadFile(caPath)
	if err != nil {
		return fmt.Errorf("failed to read CA file %s: %w", caPath, err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(b); !ok {
		return fmt.Errorf("no certificates found in CA file %s", caPath)
	}
	if err := mysqldriver.RegisterTLSConfig("tidb", &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}); err != nil {
		return fmt.Errorf("failed to register tls config: %w", err)
	}
	return nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true,
	}
}

func newGormStore(db *gorm.DB, driver string) (*GormStore, error) {
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	zap.S().Infow("Database connection established", "driver", driver)
	return &GormStore{DB: db}, nil
}

func (s *GormStore) List(ctx context.Context, collection string, opts ListOptions) ([]models.Record, error) {
	return s.Filter(ctx, collection, nil, opts)
}

func (s *GormStore) Filter(ctx context.Context, collection string, match map[string]any, opts ListOptions) ([]models.Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	var docs []Document
	result := s.DB.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC, id ASC").
		Find(&docs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, result.Error)
	}

	recs := make([]models.Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := doc.record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return queryRecords(recs, match, opts)
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (*models.Record, error) {
	var doc Document
	result := s.DB.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).First(&doc)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s record: %w", collection, result.Error)
	}
	rec, err := doc.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) Create(ctx context.Context, collection string, fields map[string]any) (*models.Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	data, err := json.Marshal(models.StripMetadata(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s record: %w", collection, err)
	}
	now := time.Now().UTC()
	doc := Document{
		ID:         uuid.NewString(),
		Collection: collection,
		Data:       string(data),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.DB.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", collection, err)
	}
	rec, err := doc.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) Update(ctx context.Context, collection, id string, fields map[string]any) (*models.Record, error) {
	var doc Document
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ? AND id = ?", collection, id).First(&doc).Error; err != nil {
			return err
		}
		current := map[string]any{}
		if err := json.Unmarshal([]byte(doc.Data), &current); err != nil {
			return fmt.Errorf("failed to decode document %s: %w", id, err)
		}
		for k, v := range models.StripMetadata(fields) {
			current[k] = v
		}
		data, err := json.Marshal(current)
		if err != nil {
			return err
		}
		doc.Data = string(data)
		doc.UpdatedAt = time.Now().UTC()
		return tx.Model(&doc).Updates(map[string]any{"data": doc.Data, "updated_at": doc.UpdatedAt}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update %s record: %w", collection, err)
	}
	rec, err := doc.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	result := s.DB.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).Delete(&Document{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s record: %w", collection, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Close() {
	sqlDB, err := s.DB.DB()
	if err != nil {
		zap.S().Warnw("failed to get database instance", "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		zap.S().Warnw("failed to close database", "error", err)
		return
	}
	zap.S().Info("Database connection closed")
}

func (d Document) record() (models.Record, error) {
	fields := map[string]any{}
	if d.Data != "" {
		if err := json.Unmarshal([]byte(d.Data), &fields); err != nil {
			return models.Record{}, fmt.Errorf("failed to decode document %s: %w", d.ID, err)
		}
	}
	return models.Record{
		ID:          d.ID,
		CreatedDate: d.CreatedAt.UTC(),
		UpdatedDate: d.UpdatedAt.UTC(),
		Fields:      fields,
	}, nil
}
