// Package postgres implements the repository interfaces on PostgreSQL with
// gorm and the pgx driver, for deployments that share one database server
// between several application instances.
//
// Aggregate columns are moved by single UPDATE ... SET col = f(col)
// statements inside the transaction that writes the fact row. Postgres takes
// a row lock on the user for the update, so concurrent raters queue on that
// row instead of overwriting each other. Serialization failures, deadlocks
// and lock timeouts surface as apperror.ErrTransient for the service layer
// to retry.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sakif/skill-sangam/internal/repository"
)

// migrateLockID serialises schema changes between instances starting at
// the same time.
const migrateLockID int64 = 0x53616e67616d // "Sangam"

type Options struct {
	SlowThreshold   time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func DefaultOptions() Options {
	return Options{
		SlowThreshold:   200 * time.Millisecond,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// DB wraps a gorm handle and hands out one repository per entity.
type DB struct {
	gdb *gorm.DB
}

var _ repository.Store = (*DB)(nil)

// New connects to dsn. It does not touch the schema; call Migrate for that.
func New(dsn string, logger *slog.Logger, opts Options) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 newGormLogger(logger, opts.SlowThreshold),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: getting sql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return &DB{gdb: gdb}, nil
}

// Wrap adopts an already opened gorm handle.
func Wrap(gdb *gorm.DB) *DB {
	return &DB{gdb: gdb}
}

// newGormLogger routes gorm's slow-query and error output through slog.
func newGormLogger(logger *slog.Logger, slow time.Duration) gormlogger.Interface {
	if logger == nil {
		return gormlogger.Default.LogMode(gormlogger.Silent)
	}
	return gormlogger.New(
		slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func (db *DB) Close() error {
	sqlDB, err := db.gdb.DB()
	if err != nil {
		return fmt.Errorf("postgres: getting sql db: %w", err)
	}
	return sqlDB.Close()
}

func (db *DB) Users() repository.UserRepository           { return &UserDB{db: db.gdb} }
func (db *DB) OAuth() repository.OAuthRepository          { return &OAuthDB{db: db.gdb} }
func (db *DB) Skills() repository.SkillRepository         { return &SkillDB{db: db.gdb} }
func (db *DB) Content() repository.ContentRepository      { return &ContentDB{db: db.gdb} }
func (db *DB) Ratings() repository.RatingRepository       { return &RatingDB{db: db.gdb} }
func (db *DB) UserSkills() repository.UserSkillRepository { return &UserSkillDB{db: db.gdb} }

// Migrate applies the schema while holding a session-level advisory lock.
func (db *DB) Migrate(ctx context.Context) error {
	return withMigrationLock(ctx, db.gdb, func(tx *gorm.DB) error {
		for _, step := range schema {
			if err := tx.Exec(step.ddl).Error; err != nil {
				return fmt.Errorf("postgres: migrating %s: %w", step.name, err)
			}
		}
		return nil
	})
}

func withMigrationLock(ctx context.Context, gdb *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("postgres: getting sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("postgres: opening migration conn: %w", err)
	}
	defer conn.Close()

	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("postgres: acquiring migration lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(context.Background(), conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()

	return fn(gdb.WithContext(ctx))
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// notFoundIfNone turns a zero-row write into NotFound.
func notFoundIfNone(res *gorm.DB, op, resource, id string) error {
	if res.Error != nil {
		return dbError(op, res.Error, resource, id)
	}
	if res.RowsAffected == 0 {
		return dbError(op, gorm.ErrRecordNotFound, resource, id)
	}
	return nil
}
