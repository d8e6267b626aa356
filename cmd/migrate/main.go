// Command migrate applies schema migrations to the campaign database.
//
// Usage:
//
//	migrate -config configs/dev.yaml up
//	migrate -config configs/dev.yaml down -steps 1
//	migrate -config configs/dev.yaml version
//	migrate -config configs/dev.yaml force -to 3
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/viper"

	"github.com/chronique-jdr/chronique/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	source := flag.String("source", "file://migrations", "migration source URL")
	steps := flag.Int("steps", 0, "number of steps for up/down (0 = all)")
	forceTo := flag.Int("to", -1, "version for the force command")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if err := run(command, *configPath, *source, *steps, *forceTo); err != nil {
		log.Fatal(err)
	}
}

func run(command, configPath, source string, steps, forceTo int) error {
	start := time.Now()

	dsn, err := databaseDSN(configPath)
	if err != nil {
		return err
	}

	m, err := migrate.New(source, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		err = nil
	case "force":
		if forceTo < 0 {
			return errors.New("force requires -to <version>")
		}
		err = m.Force(forceTo)
	default:
		return fmt.Errorf("unknown command %q: want up, down, version or force", command)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s failed: %w", command, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("reading version: %w", verr)
	}
	status := "applied"
	if errors.Is(err, migrate.ErrNoChange) {
		status = "no change"
	}
	fmt.Fprintf(os.Stdout, "%s: %s, schema version=%d dirty=%v [%s]\n",
		command, status, version, dirty, time.Since(start).Round(time.Millisecond))
	return nil
}

// databaseDSN loads only the database section of the config file, so the
// migrator works even when the rest of the configuration is incomplete.
func databaseDSN(path string) (string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("reading config: %w", err)
	}

	sub := v.Sub("database")
	if sub == nil {
		return "", fmt.Errorf("config %s has no database section", path)
	}
	var dbCfg config.DatabaseConfig
	if err := sub.Unmarshal(&dbCfg); err != nil {
		return "", fmt.Errorf("parsing database config: %w", err)
	}
	return dbCfg.DSN(), nil
}
