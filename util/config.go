package util

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	ListenAddr           string  `yaml:"listenAddr"`
	SnapshotIntervalSec  uint32  `yaml:"snapshotIntervalSec"`
	ContentStateRate     float64 `yaml:"contentStateRate"`
	ContentStateBurst    int     `yaml:"contentStateBurst"`
	UserCacheSize        int     `yaml:"userCacheSize"`
	NatsRequestTimeoutMs uint32  `yaml:"natsRequestTimeoutMs"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:           ":8080",
		SnapshotIntervalSec:  30,
		ContentStateRate:     20,
		ContentStateBurst:    40,
		UserCacheSize:        10000,
		NatsRequestTimeoutMs: 2000,
	}
}

func (c ServerConfig) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalSec) * time.Second
}

func (c ServerConfig) NatsRequestTimeout() time.Duration {
	return time.Duration(c.NatsRequestTimeoutMs) * time.Millisecond
}

// ParseServerConfig reads the YAML file. Fields left out of the file keep
// their defaults.
func ParseServerConfig(configFile string) (ServerConfig, error) {
	bytes, err := ioutil.ReadFile(configFile)
	if err != nil {
		return ServerConfig{}, errors.Wrap(err, fmt.Sprintf("Error reading server config file [%s]", configFile))
	}
	return parseServerConfig(bytes, configFile)
}

func parseServerConfig(bytes []byte, source string) (ServerConfig, error) {
	data := DefaultServerConfig()
	err := yaml.Unmarshal(bytes, &data)
	if err != nil {
		return ServerConfig{}, errors.Wrap(err, fmt.Sprintf("Error parsing server config YAML [%s]", source))
	}
	if data.ContentStateRate <= 0 {
		return ServerConfig{}, fmt.Errorf("contentStateRate must be positive in [%s]", source)
	}
	if data.ContentStateBurst <= 0 {
		data.ContentStateBurst = 1
	}
	if data.UserCacheSize <= 0 {
		return ServerConfig{}, fmt.Errorf("userCacheSize must be positive in [%s]", source)
	}
	return data, nil
}
