package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danthegoodman1/rowbind/crdb"
	"github.com/danthegoodman1/rowbind/datastore"
	"github.com/danthegoodman1/rowbind/events"
	"github.com/danthegoodman1/rowbind/gologger"
	"github.com/danthegoodman1/rowbind/http_server"
	"github.com/danthegoodman1/rowbind/metastore"
	"github.com/danthegoodman1/rowbind/migrations"
	"github.com/danthegoodman1/rowbind/part_writer"
	"github.com/danthegoodman1/rowbind/partitioner"
	"github.com/danthegoodman1/rowbind/registry"
	"github.com/danthegoodman1/rowbind/s3_helper"
	"github.com/danthegoodman1/rowbind/utils"
)

var logger = gologger.NewLogger()

func main() {
	logger.Debug().Msg("starting rowbind")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	ms, err := newMetaStore(ctx)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("error creating meta store")
		os.Exit(1)
	}

	ds, err := newDataStore()
	if err != nil {
		logger.Error().Err(err).Msg("error creating data store")
		os.Exit(1)
	}

	partitioner.RegisterFunctions()
	if err := events.RegisterAll(registry.Default); err != nil {
		logger.Error().Err(err).Msg("error registering event types")
		os.Exit(1)
	}

	httpServer := http_server.StartHTTPServer(part_writer.New(registry.Default, ds, ms))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	// Convert the time to seconds
	sleepTime := utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	ctx, cancel = context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}
	if err := ds.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown data store")
	}
	if err := ms.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown meta store")
	}
}

// newMetaStore uses CRDB when CRDB_DSN is set and keeps the catalog in memory
// otherwise.
func newMetaStore(ctx context.Context) (metastore.MetaStore, error) {
	if utils.CRDB_DSN == "" {
		logger.Warn().Msg("CRDB_DSN not set, keeping the catalog in memory")
		return metastore.NewMemoryMetaStore(), nil
	}

	if _, err := migrations.RunMigrations(utils.CRDB_DSN); err != nil {
		return nil, fmt.Errorf("error in RunMigrations: %w", err)
	}
	if err := migrations.CheckMigrations(utils.CRDB_DSN); err != nil {
		return nil, fmt.Errorf("error in CheckMigrations: %w", err)
	}

	if err := crdb.ConnectToDB(ctx, utils.CRDB_DSN); err != nil {
		return nil, fmt.Errorf("error connecting to CRDB: %w", err)
	}
	return metastore.NewCRDBMetaStore(crdb.PGPool, crdb.StandardContextTimeout), nil
}

// newDataStore writes parts to S3 when S3_BUCKET_NAME is set and to DATA_DIR
// otherwise.
func newDataStore() (datastore.DataStore, error) {
	if utils.S3_BUCKET_NAME == "" {
		logger.Info().Str("dir", utils.DATA_DIR).Msg("writing parts to disk")
		return datastore.NewDiskDataStore(utils.DATA_DIR)
	}

	client, err := s3_helper.NewClient(s3_helper.ConfigFromEnv())
	if err != nil {
		return nil, fmt.Errorf("error in s3_helper.NewClient: %w", err)
	}
	logger.Info().Str("bucket", utils.S3_BUCKET_NAME).Msg("writing parts to s3")
	return datastore.NewS3DataStore(client, utils.S3_PREFIX), nil
}
