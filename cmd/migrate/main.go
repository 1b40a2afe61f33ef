// Command migrate applies or rolls back the embedded Postgres schema.
//
//	migrate up
//	migrate down -steps 1
//	migrate version
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"example.com/fittrack/db/postgres/migrations"
	"example.com/fittrack/internal/config"
	"example.com/fittrack/internal/logging"
)

func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	dsn := flag.String("dsn", "", "Postgres URL (defaults to POSTGRES_URL)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] up|down|version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv(config.EnvFile()); err != nil {
		logrus.WithError(err).Fatal("load env file")
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("configure logging")
	}
	if *dsn == "" {
		*dsn = cfg.PostgresURL
	}

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if err := migrations.Up(*dsn); err != nil {
			logger.WithError(err).Fatal("migrate up")
		}
		logger.Info("schema up to date")
	case "down":
		if err := migrations.Down(*dsn, *steps); err != nil {
			logger.WithError(err).Fatal("migrate down")
		}
		logger.WithField("steps", *steps).Info("rolled back")
	case "version":
		version, dirty, err := migrations.Version(*dsn)
		if err != nil {
			logger.WithError(err).Fatal("read schema version")
		}
		logger.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema version")
	default:
		flag.Usage()
		os.Exit(2)
	}
}
