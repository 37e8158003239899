// Package gormstore implements store.Store on gorm with PostgreSQL or
// MySQL. The unique indexes carry the uniqueness guarantees.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	userfields "github.com/reoring/userfields"
	"github.com/reoring/userfields/store"
)

// Config selects the driver and pool settings.
type Config struct {
	Driver          string // "postgres" or "mysql"
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// SlowThreshold marks queries logged as slow; zero keeps gorm's default.
	SlowThreshold time.Duration
	Logger        *slog.Logger
}

// Store is a gorm-backed store.Store.
type Store struct {
	db *gorm.DB
}

// Open connects, applies pool settings, pings and migrates the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger(cfg),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: open %s: %w", cfg.Driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("gormstore: connect: %w", err)
	}
	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened gorm handle. Open it with TranslateError so
// unique violations are detected.
func New(db *gorm.DB) *Store { return &Store{db: db} }

// Migrate creates or updates both tables and their unique indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&fieldModel{}, &userModel{}); err != nil {
		return fmt.Errorf("gormstore: migrate: %w", err)
	}
	return nil
}

func (s *Store) Fields() store.FieldRepository { return fieldRepo{db: s.db} }
func (s *Store) Users() store.UserRepository   { return userRepo{db: s.db} }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		pcfg, err := pgx.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("gormstore: parse DSN: %w", err)
		}
		return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*pcfg)}), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("gormstore: unsupported driver %q", cfg.Driver)
	}
}

// gormLogger routes gorm's log lines through slog at warn level.
func gormLogger(cfg Config) logger.Interface {
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	threshold := cfg.SlowThreshold
	if threshold == 0 {
		threshold = 200 * time.Millisecond
	}
	return logger.New(
		slog.NewLogLogger(l.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             threshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	default:
		return err
	}
}

type fieldRepo struct{ db *gorm.DB }

func (r fieldRepo) List(ctx context.Context) ([]userfields.UserCustomField, error) {
	var rows []fieldModel
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]userfields.UserCustomField, 0, len(rows))
	for _, m := range rows {
		f, err := m.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (r fieldRepo) Get(ctx context.Context, id string) (userfields.UserCustomField, error) {
	var m fieldModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return userfields.UserCustomField{}, translate(err)
	}
	return m.domain()
}

func (r fieldRepo) Create(ctx context.Context, f userfields.UserCustomField) error {
	m, err := toFieldModel(f)
	if err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Create(&m).Error)
}

func (r fieldRepo) Update(ctx context.Context, f userfields.UserCustomField) error {
	m, err := toFieldModel(f)
	if err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing fieldModel
		if err := tx.Select("id").First(&existing, "id = ?", f.ID).Error; err != nil {
			return err
		}
		return tx.Model(&existing).Select("*").Omit("created_at").Updates(&m).Error
	}))
}

func (r fieldRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&fieldModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type userRepo struct{ db *gorm.DB }

func (r userRepo) List(ctx context.Context) ([]userfields.User, error) {
	var rows []userModel
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]userfields.User, 0, len(rows))
	for _, m := range rows {
		u, err := m.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r userRepo) Get(ctx context.Context, id string) (userfields.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return userfields.User{}, translate(err)
	}
	return m.domain()
}

func (r userRepo) Create(ctx context.Context, u userfields.User) error {
	m, err := toUserModel(u)
	if err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Create(&m).Error)
}

func (r userRepo) Update(ctx context.Context, u userfields.User) error {
	m, err := toUserModel(u)
	if err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing userModel
		if err := tx.Select("id").First(&existing, "id = ?", u.ID).Error; err != nil {
			return err
		}
		return tx.Model(&existing).Select("*").Omit("created_at").Updates(&m).Error
	}))
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&userModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Store = (*Store)(nil)
