// config/config.go
package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Log           LogConfiguration
	Postgres      PostgresConfiguration
	Neo4j         Neo4jConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	Auth          AuthConfiguration
	Policy        PolicyConfiguration
	RateLimit     RateLimitConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port            string
	ShutdownTimeout time.Duration
}

type LogConfiguration struct {
	Dir string
}

// PostgresConfiguration points at the credential store
type PostgresConfiguration struct {
	DSN string
}

// Neo4jConfiguration stores data for the policy graph connection
type Neo4jConfiguration struct {
	URI      string
	Username string
	Password string
	Database string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr            string
	Password        string
	DB              int
	DefaultCacheTTL time.Duration
	EncryptionKey   string
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL   string
	Index string
}

// AuthConfiguration controls session token issuance
type AuthConfiguration struct {
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
	Revocation RevocationConfiguration
}

type RevocationConfiguration struct {
	Enabled bool
}

// PolicyConfiguration holds the evaluation environment shared by every policy
type PolicyConfiguration struct {
	Timezone       string
	OfficeNetworks []string
}

type RateLimitConfiguration struct {
	Requests      int
	Window        time.Duration
	LoginRequests int
}

var config *Configuration

// InitConfig loads config/config.yaml (or the files under the given paths) and
// environment overrides. AUTH_JWTSECRET overrides auth.jwtSecret and so on.
func InitConfig(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{"config", "."}
	}
	for _, p := range paths {
		viper.AddConfigPath(p)
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	return viper.Unmarshal(&config)
}

// InitConfigFile loads an explicit config file, used by the operator CLI.
func InitConfigFile(path string) error {
	viper.SetConfigFile(path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()
	if err := viper.ReadInConfig(); err != nil {
		return err
	}
	return viper.Unmarshal(&config)
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.shutdownTimeout", "5s")
	viper.SetDefault("log.dir", "logging")
	viper.SetDefault("postgres.dsn", "postgres://localhost:5432/portal?sslmode=disable")
	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.database", "")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.defaultCacheTTL", "10m")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("elasticsearch.index", "audit-logs")
	viper.SetDefault("auth.issuer", "echo-portal")
	viper.SetDefault("auth.tokenTTL", "24h")
	viper.SetDefault("auth.bcryptCost", 10)
	viper.SetDefault("auth.revocation.enabled", true)
	viper.SetDefault("policy.timezone", "Local")
	viper.SetDefault("policy.officeNetworks", []string{"127.0.0.1"})
	viper.SetDefault("ratelimit.requests", 100)
	viper.SetDefault("ratelimit.window", "1m")
	viper.SetDefault("ratelimit.loginRequests", 10)
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

func GetStringSlice(key string) []string {
	return viper.GetStringSlice(key)
}

// Location resolves policy.timezone; evaluation hours and weekdays are read in it.
func Location() (*time.Location, error) {
	name := viper.GetString("policy.timezone")
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
