package test

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive

	"github.com/code-payments/nft-staking/pkg/retry"
	"github.com/code-payments/nft-staking/pkg/retry/backoff"
)

const (
	containerName     = "postgres"
	containerVersion  = "10.4"
	containerAutoKill = 120 * time.Second

	port     = 5432
	user     = "localtest"
	password = "localpassword"
	dbname   = "testdb"

	connectAttempts = 50
	connectInterval = 500 * time.Millisecond
)

// StartPostgresDB runs a throwaway postgres container and returns a connected
// client. The container expires on its own after containerAutoKill, so callers
// only need closeFunc to release it early.
func StartPostgresDB(pool *dockertest.Pool) (db *sql.DB, closeFunc func(), err error) {
	closeFunc = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: containerName,
		Tag:        containerVersion,
		Env: []string{
			"listen_addresses = '*'",
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		// Stopped containers go away by themselves
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, closeFunc, errors.Wrap(err, "failed to start resource")
	}
	closeFunc = func() {
		_ = pool.Purge(resource)
	}

	// Expire() never returns an error
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	hostAndPort := resource.GetHostPort(fmt.Sprintf("%d/tcp", port))
	databaseUrl := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, password, hostAndPort, dbname)

	_, err = retry.Retry(
		context.Background(),
		func() error {
			db, err = sql.Open("pgx", databaseUrl)
			if err != nil {
				return err
			}
			return db.Ping()
		},
		retry.Limit(connectAttempts),
		retry.Backoff(backoff.Constant(connectInterval), connectInterval),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for postgres container to become available")
	}

	return db, closeFunc, nil
}
