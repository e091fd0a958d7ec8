package mongodb

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratemongo "github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

const TodosCollection = "todos"

// Server code returned by create when the collection is already there.
const namespaceExists = 48

//go:embed migrations/*.json
var migrationFiles embed.FS

type Config struct {
	URI        string
	Database   string
	Timeout    time.Duration
	Migrations bool
	LogLevel   zerolog.Level
}

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
	timeout  time.Duration
}

func NewDB(ctx context.Context, cfg Config) (*DB, error) {
	logger := zerolog.New(os.Stdout).
		Level(cfg.LogLevel).
		With().
		Timestamp().
		Logger()

	loggerOptions := options.Logger().
		SetSink(NewZerologSink(logger)).
		SetComponentLevel(options.LogComponentCommand, options.LogLevelDebug).
		SetComponentLevel(options.LogComponentConnection, options.LogLevelInfo)

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMonitor(otelmongo.NewMonitor()).
		SetLoggerOptions(loggerOptions).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute)

	if cfg.Timeout > 0 {
		clientOptions.SetTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	db := &DB{
		Client:   client,
		Database: client.Database(cfg.Database),
		timeout:  cfg.Timeout,
	}

	if err := db.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	if cfg.Migrations {
		if err := db.ensureCollection(ctx, TodosCollection); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}

		if err := RunMigrations(db.Client, cfg.Database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
	}

	logger.Info().Str("database", cfg.Database).Msg("Connected to MongoDB")

	return db, nil
}

func (db *DB) Collection(name string) *mongo.Collection {
	return db.Database.Collection(name)
}

func (db *DB) Ping(ctx context.Context) error {
	if db.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, db.timeout)
		defer cancel()
	}

	if err := db.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("pinging mongo: %w", err)
	}

	return nil
}

// ensureCollection creates name unless it exists. Migrations only modify
// the collection, so databases shared with an earlier deployment keep
// their documents.
func (db *DB) ensureCollection(ctx context.Context, name string) error {
	err := db.Database.CreateCollection(ctx, name)

	var cmdErr mongo.CommandError
	if err == nil || (errors.As(err, &cmdErr) && cmdErr.Code == namespaceExists) {
		return nil
	}

	return fmt.Errorf("creating %s collection: %w", name, err)
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}

// RunMigrations applies the embedded collection migrations to database.
func RunMigrations(client *mongo.Client, database string) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	driver, err := migratemongo.WithInstance(client, &migratemongo.Config{
		DatabaseName: database,
	})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "mongodb", driver)
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}
