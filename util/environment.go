package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var environmentLogger = log.With().Str("logger_name", "util::environment").Logger()

type environment struct {
	PersistMethod    string
	RedisHost        string
	RedisPort        string
	RedisPW          string
	RedisDB          string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPW       string
	PostgresSSLMode  string
	NatsURL          string
	NodeID           string
	LogLevel         string
	ServerConfigFile string
}

// Env is a helper object for accessing environment variables.
var Env = &environment{
	PersistMethod:    "PERSIST_METHOD",
	RedisHost:        "REDIS_HOST",
	RedisPort:        "REDIS_PORT",
	RedisPW:          "REDIS_PW",
	RedisDB:          "REDIS_DB",
	PostgresHost:     "POSTGRES_HOST",
	PostgresPort:     "POSTGRES_PORT",
	PostgresDB:       "POSTGRES_DB",
	PostgresUser:     "POSTGRES_USER",
	PostgresPW:       "POSTGRES_PASSWORD",
	PostgresSSLMode:  "POSTGRES_SSL_MODE",
	NatsURL:          "NATS_URL",
	NodeID:           "NODE_ID",
	LogLevel:         "LOG_LEVEL",
	ServerConfigFile: "SERVER_CONFIG",
}

const (
	PersistMemory   = "memory"
	PersistRedis    = "redis"
	PersistPostgres = "postgres"
)

func (e *environment) required(name string) string {
	v := os.Getenv(name)
	if v == "" {
		msg := fmt.Sprintf("%s is not defined", name)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return v
}

func (e *environment) requiredInt(name string) int {
	s := e.required(name)
	n, err := strconv.Atoi(s)
	if err != nil {
		msg := fmt.Sprintf("Invalid integer [%s] for %s", s, name)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return n
}

func (e *environment) GetPersistMethod() string {
	method := strings.ToLower(os.Getenv(e.PersistMethod))
	switch method {
	case "":
		return PersistMemory
	case PersistMemory, PersistRedis, PersistPostgres:
		return method
	}
	msg := fmt.Sprintf("Invalid %s [%s]", e.PersistMethod, method)
	environmentLogger.Error().Msg(msg)
	panic(msg)
}

func (e *environment) GetRedisHost() string {
	return e.required(e.RedisHost)
}

func (e *environment) GetRedisPort() int {
	return e.requiredInt(e.RedisPort)
}

func (e *environment) GetRedisPW() string {
	return os.Getenv(e.RedisPW)
}

func (e *environment) GetRedisDB() int {
	if os.Getenv(e.RedisDB) == "" {
		return 0
	}
	return e.requiredInt(e.RedisDB)
}

func (e *environment) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", e.GetRedisHost(), e.GetRedisPort())
}

func (e *environment) GetPostgresHost() string {
	return e.required(e.PostgresHost)
}

func (e *environment) GetPostgresPort() int {
	return e.requiredInt(e.PostgresPort)
}

func (e *environment) GetPostgresDB() string {
	return e.required(e.PostgresDB)
}

func (e *environment) GetPostgresUser() string {
	return e.required(e.PostgresUser)
}

func (e *environment) GetPostgresPW() string {
	return e.required(e.PostgresPW)
}

func (e *environment) GetPostgresSSLMode() string {
	v := os.Getenv(e.PostgresSSLMode)
	if v == "" {
		return "disable"
	}
	return v
}

func (e *environment) GetPostgresConnStr() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		e.GetPostgresHost(),
		e.GetPostgresPort(),
		e.GetPostgresUser(),
		e.GetPostgresPW(),
		e.GetPostgresDB(),
		e.GetPostgresSSLMode(),
	)
}

// GetNatsURL returns an empty string when room synchronization is disabled.
func (e *environment) GetNatsURL() string {
	return os.Getenv(e.NatsURL)
}

// GetNodeID returns the sync node id. Empty means the gateway picks one.
func (e *environment) GetNodeID() string {
	return os.Getenv(e.NodeID)
}

func (e *environment) GetServerConfigFile() string {
	v := os.Getenv(e.ServerConfigFile)
	if v == "" {
		return "server.yaml"
	}
	return v
}

func (e *environment) GetZeroLogLogLevel() zerolog.Level {
	v := strings.ToLower(os.Getenv(e.LogLevel))
	if v == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(v)
	if err != nil {
		environmentLogger.Warn().Msgf("Invalid log level [%s]. Using info.", v)
		return zerolog.InfoLevel
	}
	return level
}
