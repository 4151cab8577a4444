package container

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigHTTPServer struct for HTTP ConfigTransport configuration
type ConfigHTTPServer struct {
	Port int `yaml:"port"`
}

// ConfigTransport is a configuration for Admin ConfigTransport: HTTP, gRPC or anything
type ConfigTransport struct {
	HTTP ConfigHTTPServer `yaml:"http"`
}

type ConfigGoSqlDb struct {
	Debug bool   `yaml:"debug"`
	DSN   string `yaml:"dsn"` // Data Source Name
}

type ConfigDatabaseResource struct {
	Disable bool   `yaml:"disable"`
	Driver  string `yaml:"driver"` // postgres only for now

	// per driver configuration
	Postgres ConfigGoSqlDb `yaml:"postgres"`
}

// ConfigDatabaseResources redefine config
type ConfigDatabaseResources map[string]ConfigDatabaseResource

type ConfigRedisConn struct {
	Mode       string   `yaml:"mode"` // single, sentinel or cluster
	Address    []string `yaml:"address"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	DB         int      `yaml:"db"`
	MasterName string   `yaml:"masterName"` // sentinel mode only
}

type ConfigRedis map[string]ConfigRedisConn

// ConfigCache selects the cache in front of the external services store.
// Driver "" disables caching, "inmem" keeps entries in process memory,
// "redis" uses the redis connection named by RedisLabel.
type ConfigCache struct {
	Driver        string `yaml:"driver"`
	RedisLabel    string `yaml:"redisLabel"`
	MaxSizeBytes  int    `yaml:"maxSizeBytes"`
	ExpirySeconds int    `yaml:"expirySeconds"`
	PrefixKey     string `yaml:"prefixKey"`
}

// ConfigExternalServices configures the external services store.
// LegacySiteFile points to the JSONC site configuration document that both
// feeds the one-time migration and serves as fallback source while the
// document itself keeps externalServices disabled. Empty means no legacy
// document: the store runs purely from the database.
type ConfigExternalServices struct {
	DBLabel        string      `yaml:"dbLabel"`
	LegacySiteFile string      `yaml:"legacySiteFile"`
	Cache          ConfigCache `yaml:"cache"`
}

// Config contains application config
type Config struct {
	Transport         ConfigTransport         `yaml:"transport"`
	DatabaseResources ConfigDatabaseResources `yaml:"databaseResources"`
	Redis             ConfigRedis             `yaml:"redis"`
	ExternalServices  ConfigExternalServices  `yaml:"externalServices"`
}

// LoadConfig need config file name and pointer to struct to hold the configuration value.
// It only supports YAML file content.
func LoadConfig(configFileName string) (cfg Config, err error) {
	fileContent, err := os.ReadFile(configFileName)
	if err != nil {
		err = fmt.Errorf("error read file config %s: %w", configFileName, err)
		return
	}

	dec := yaml.NewDecoder(bytes.NewReader(fileContent))
	dec.KnownFields(false)
	err = dec.Decode(&cfg)
	return
}
