// Package repository is the data-access layer: one file per entity
// family, mapping store rows (snake_case) to domain records (camelCase).
// Every exported function is a stateless function over an injected
// store.Querier — no repository holds connection state itself (spec §5:
// process-wide state is limited to the scheduler's token table and the
// pool reference, not per-repository caches).
package repository

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// unixNow is the current time as the unix-seconds integer the schema
// stores timestamps as (spec §6: "all timestamps are stored as unix
// seconds unless indicated").
func unixNow() int64 {
	return time.Now().Unix()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func toNullUnix(t *time.Time) *int64 {
	if t == nil || t.IsZero() {
		return nil
	}
	sec := t.Unix()
	return &sec
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func fromNullUnix(sec *int64) *time.Time {
	if sec == nil {
		return nil
	}
	t := time.Unix(*sec, 0).UTC()
	return &t
}
