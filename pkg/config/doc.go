/*
Package config loads the YAML file cmd/syncd starts from: the Postgres
DSN, the snapshot directory the file-based downloader reads from, the
metrics listen address, and log settings.

# Usage

	cfg, err := config.Load("syncd.yaml")
	if err != nil { ... }

	store, err := store.Open(ctx, cfg.Postgres)
	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

# Design notes

Load always starts from Default() and unmarshals on top of it, so a
config file only needs to name the fields it overrides — matching the
teacher's preference for flags with defaults over requiring every value
spelled out.

# See Also

  - cmd/syncd for the only caller
  - pkg/snapshot for the SnapshotDir consumer
*/
package config
