package pg

import (
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

const driverName = "nrpgx"

// Config describes a connection pool to the ledger database.
type Config struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	DbName   string `mapstructure:"db_name"`

	// UseAwsIam authenticates with an IAM token instead of Password. Only
	// provisioned Aurora RDS clusters support it.
	UseAwsIam bool `mapstructure:"use_aws_iam"`

	MaxOpenConnections int `mapstructure:"max_open_connections"`
	MaxIdleConnections int `mapstructure:"max_idle_connections"`
}

// Open returns a connection pool for config using the New Relic instrumented
// pgx driver.
func Open(config *Config) (*sql.DB, error) {
	var db *sql.DB
	var err error
	if config.UseAwsIam {
		var awsConfig aws.Config
		awsConfig, err = external.LoadDefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load aws config")
		}
		db, err = NewWithAwsIam(config.User, config.Host, config.Port, config.DbName, awsConfig)
	} else {
		db, err = NewWithUsernameAndPassword(config.User, config.Password, config.Host, config.Port, config.DbName)
	}
	if err != nil {
		return nil, err
	}

	if config.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(config.MaxOpenConnections)
	}
	if config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(config.MaxIdleConnections)
	}
	return db, nil
}

// NewWithAwsIam opens a connection pool authenticated with an RDS IAM token.
//
// https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func NewWithAwsIam(username, hostname, port, dbname string, config aws.Config) (*sql.DB, error) {
	rdsClient := rds.New(config)

	endpoint := fmt.Sprintf("%s:%s", hostname, port)
	authToken, err := rdsutils.BuildAuthToken(endpoint, rdsClient.Region, username, rdsClient.Credentials)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build rds auth token")
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		hostname, port, username, authToken, dbname,
	)
	return open(dsn)
}

// NewWithUsernameAndPassword opens a connection pool authenticated with a
// password.
func NewWithUsernameAndPassword(username, password, hostname, port, dbname string) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		username, password, hostname, port, dbname,
	)
	return open(dsn)
}

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return db, nil
}
