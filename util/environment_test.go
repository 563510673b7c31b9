package util

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func setEnv(t *testing.T, name string, value string) {
	old, had := os.LookupEnv(name)
	os.Setenv(name, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(name, old)
		} else {
			os.Unsetenv(name)
		}
	})
}

func TestPersistMethod(t *testing.T) {
	setEnv(t, Env.PersistMethod, "")
	assert.Equal(t, PersistMemory, Env.GetPersistMethod())

	setEnv(t, Env.PersistMethod, "Redis")
	assert.Equal(t, PersistRedis, Env.GetPersistMethod())

	setEnv(t, Env.PersistMethod, "cassandra")
	assert.Panics(t, func() { Env.GetPersistMethod() })
}

func TestRedisSettings(t *testing.T) {
	setEnv(t, Env.RedisHost, "localhost")
	setEnv(t, Env.RedisPort, "6379")
	setEnv(t, Env.RedisDB, "")
	assert.Equal(t, "localhost:6379", Env.GetRedisAddr())
	assert.Equal(t, 0, Env.GetRedisDB())

	setEnv(t, Env.RedisPort, "not-a-port")
	assert.Panics(t, func() { Env.GetRedisPort() })

	setEnv(t, Env.RedisHost, "")
	assert.Panics(t, func() { Env.GetRedisHost() })
}

func TestPostgresConnStr(t *testing.T) {
	setEnv(t, Env.PostgresHost, "db")
	setEnv(t, Env.PostgresPort, "5432")
	setEnv(t, Env.PostgresUser, "huddle")
	setEnv(t, Env.PostgresPW, "secret")
	setEnv(t, Env.PostgresDB, "rooms")
	setEnv(t, Env.PostgresSSLMode, "")
	assert.Equal(t, "host=db port=5432 user=huddle password=secret dbname=rooms sslmode=disable", Env.GetPostgresConnStr())
}

func TestLogLevel(t *testing.T) {
	setEnv(t, Env.LogLevel, "")
	assert.Equal(t, zerolog.InfoLevel, Env.GetZeroLogLogLevel())

	setEnv(t, Env.LogLevel, "DEBUG")
	assert.Equal(t, zerolog.DebugLevel, Env.GetZeroLogLogLevel())

	setEnv(t, Env.LogLevel, "chatty")
	assert.Equal(t, zerolog.InfoLevel, Env.GetZeroLogLogLevel())
}
