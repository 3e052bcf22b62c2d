package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
	Down        func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	log        *logger.Logger
	migrations []Migration
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		log:        log,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}

		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)

	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users indexes",
			Up:          createIndexes("users", usersIndexes),
			Down:        dropIndexes("users", usersIndexes),
		},
		{
			Version:     2,
			Description: "Create rides indexes",
			Up:          createIndexes("rides", ridesIndexes),
			Down:        dropIndexes("rides", ridesIndexes),
		},
		{
			Version:     3,
			Description: "Create chats indexes",
			Up:          createIndexes("chats", chatsIndexes),
			Down:        dropIndexes("chats", chatsIndexes),
		},
		{
			Version:     4,
			Description: "Create messages indexes",
			Up:          createIndexes("messages", messagesIndexes),
			Down:        dropIndexes("messages", messagesIndexes),
		},
	}
}

var usersIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("name"),
	},
}

var ridesIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "date", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetName("date_status"),
	},
	{
		Keys:    bson.D{{Key: "driver", Value: 1}, {Key: "date", Value: -1}},
		Options: options.Index().SetName("driver_date"),
	},
	{
		Keys:    bson.D{{Key: "passengers", Value: 1}},
		Options: options.Index().SetName("passengers"),
	},
}

var chatsIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "participants", Value: 1}},
		Options: options.Index().SetName("participants"),
	},
	{
		Keys:    bson.D{{Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("updated_at"),
	},
}

var messagesIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "chat", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("chat_created_at"),
	},
}

func createIndexes(collection string, indexes []mongo.IndexModel) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes)
		return err
	}
}

func dropIndexes(collection string, indexes []mongo.IndexModel) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		for _, index := range indexes {
			if _, err := db.Collection(collection).Indexes().DropOne(ctx, *index.Options.Name); err != nil {
				return err
			}
		}
		return nil
	}
}
