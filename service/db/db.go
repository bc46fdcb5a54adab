package db

import (
	"context"
	"fmt"
	"time"

	"deadlock/model"
	"deadlock/service/etc"

	"github.com/go-redis/redis/v9"
	gormloggerlogrus "github.com/nekomeowww/gorm-logger-logrus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// PDB is nil when postgres is disabled.
	PDB *gorm.DB
	// RDB is nil when the verdict cache is disabled.
	RDB *redis.Client
)

func getDSNFromConfig(c *etc.Configuration) string {
	conf := c.Database.Postgres
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		conf.Host, conf.Port, conf.User, conf.Password, conf.DBName)
	if !conf.UseSSL {
		dsn += " sslmode=disable"
	}
	return dsn
}

// SetupPostgres connects to postgres and migrates the submission table.
func SetupPostgres(c *etc.Configuration) error {
	db, err := gorm.Open(postgres.Open(getDSNFromConfig(c)), &gorm.Config{
		Logger: gormloggerlogrus.New(gormloggerlogrus.Options{
			Logger:                    log.NewEntry(log.StandardLogger()),
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: true,
			SlowThreshold:             time.Millisecond * 200,
			FileWithLineNumField:      "file",
		}),
	})
	if err != nil {
		return errors.Wrap(err, "postgres connection failed")
	}
	if err := db.AutoMigrate(&model.Submission{}); err != nil {
		return errors.Wrap(err, "postgres migration failed")
	}
	PDB = db
	log.Info("Postgres connected")
	return nil
}

// SetupRedis connects to redis.
func SetupRedis(c *etc.Configuration) error {
	conf := c.Database.Redis
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Host,
		Password: conf.Password,
		DB:       conf.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return errors.Wrap(err, "redis connection failed")
	}
	RDB = client
	log.Info("Redis connected")
	return nil
}
