package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"senate-votes/models"
	"senate-votes/schema"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string
	DSN    string
	Logger *zap.Logger
	// Debug routes gorm's SQL log to stdout.
	Debug bool
}

// Store is the handle every stage of a run shares. There is no package
// level connection.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		if cfg.DSN == "" {
			return nil, errors.New("sqlite dsn is empty")
		}
		if err := ensureDir(cfg.DSN); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	gormLog := gormlogger.Discard
	if cfg.Debug {
		gormLog = gormlogger.Default.LogMode(gormlogger.Info)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("database connected", zap.String("driver", db.Dialector.Name()))
	return &Store{db: db, logger: logger}, nil
}

// ensureDir creates the parent directory of a plain sqlite file path.
func ensureDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	return nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDB.Close()
}

func (s *Store) quote(b *strings.Builder, name string) {
	s.db.Dialector.QuoteTo(b, name)
}

// InitSchema drops and recreates every table. The roll call table is
// created from the manifest.
func (s *Store) InitSchema(m schema.Manifest) error {
	if err := s.db.Exec("DROP TABLE IF EXISTS ?", clause.Table{Name: schema.TableName}).Error; err != nil {
		return fmt.Errorf("drop %s table: %w", schema.TableName, err)
	}
	migrator := s.db.Migrator()
	if err := migrator.DropTable(&models.Senator{}, &models.UpdateLog{}); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	if err := migrator.AutoMigrate(&models.Senator{}, &models.UpdateLog{}); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	if err := s.db.Exec(m.CreateTableSQL(s.quote)).Error; err != nil {
		return fmt.Errorf("create %s table: %w", schema.TableName, err)
	}
	s.logger.Info("schema created",
		zap.Int("columns", len(m.Columns())),
		zap.Int("seats", len(m.Seats())),
	)
	return nil
}

// VerifySchema checks that the roll call table has every manifest column.
func (s *Store) VerifySchema(m schema.Manifest) error {
	migrator := s.db.Migrator()
	if !migrator.HasTable(schema.TableName) {
		return fmt.Errorf("table %s does not exist", schema.TableName)
	}
	types, err := migrator.ColumnTypes(schema.TableName)
	if err != nil {
		return fmt.Errorf("read %s columns: %w", schema.TableName, err)
	}
	have := make(map[string]struct{}, len(types))
	for _, t := range types {
		have[t.Name()] = struct{}{}
	}
	var missing []string
	for _, c := range m.Columns() {
		if _, ok := have[c.Name]; !ok {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns %s", schema.TableName, strings.Join(missing, ", "))
	}
	return nil
}
