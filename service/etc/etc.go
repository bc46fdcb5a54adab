package etc

import (
	"bytes"
	_ "embed"
	"strings"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var Config *Configuration

//go:embed config.sample.yaml
var DefaultConfig []byte

// Toolchain is how go-judge builds and starts one language.
type Toolchain struct {
	Source  string   `mapstructure:"source"`
	Compile []string `mapstructure:"compile"`
	Binary  string   `mapstructure:"binary"`
	Run     []string `mapstructure:"run"`
}

// JudgeHost is one go-judge server of the pool.
type JudgeHost struct {
	Host  string `mapstructure:"host"`
	Token string `mapstructure:"token"`
}

// Piston configures the public Piston API backend.
type Piston struct {
	URL            string        `mapstructure:"url"`
	CompileTimeout time.Duration `mapstructure:"compile_timeout"`
	RunTimeout     time.Duration `mapstructure:"run_timeout"`

	// MaxConns bounds the concurrent connections to the API. Zero means no bound.
	MaxConns int `mapstructure:"max_conns"`
}

// GoJudge configures the self-hosted go-judge backend.
type GoJudge struct {
	Judges      map[string]JudgeHost `mapstructure:"judges"`
	Languages   map[string]Toolchain `mapstructure:"languages"`
	TimeLimit   uint64               `mapstructure:"time_limit"`
	MemoryLimit uint64               `mapstructure:"memory_limit"`
	StdoutLimit int64                `mapstructure:"stdout_limit"`
	StderrLimit int64                `mapstructure:"stderr_limit"`
}

// Postgres holds the connection parameters of the submission log.
type Postgres struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	UseSSL   bool   `mapstructure:"use_ssl"`
}

// Redis holds the connection parameters of the verdict cache.
type Redis struct {
	Host     string `mapstructure:"host"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIO is the bucket submissions are archived to.
type MinIO struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
}

// Configuration mirrors config.yaml.
type Configuration struct {
	LogLevel string `mapstructure:"log_level"`

	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	Sandbox struct {
		// Backend is piston or gojudge.
		Backend      string        `mapstructure:"backend"`
		Timeout      time.Duration `mapstructure:"timeout"`
		Retries      int           `mapstructure:"retries"`
		RetryBackoff time.Duration `mapstructure:"retry_backoff"`
		Piston       Piston        `mapstructure:"piston"`
		GoJudge      GoJudge       `mapstructure:"gojudge"`
	} `mapstructure:"sandbox"`

	Cache struct {
		Enabled bool          `mapstructure:"enabled"`
		TTL     time.Duration `mapstructure:"ttl"`
	} `mapstructure:"cache"`

	Database struct {
		Postgres Postgres `mapstructure:"postgres"`
		Redis    Redis    `mapstructure:"redis"`
	} `mapstructure:"database"`

	Storage struct {
		// Type is none, local or minio.
		Type string `mapstructure:"type"`
		// Local.Path is the archive directory of the local type.
		Local struct {
			Path string `mapstructure:"path"`
		} `mapstructure:"local"`
		MinIO MinIO `mapstructure:"minio"`
	} `mapstructure:"storage"`

	Problems struct {
		// Repo is the path of the git repository holding the problem files.
		Repo string `mapstructure:"repo"`
		// Revision is resolved when a request does not name one.
		Revision string `mapstructure:"revision"`
	} `mapstructure:"problems"`
}

func setLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil || lvl == log.TraceLevel {
		log.WithField("level", level).Fatal("Invalid log level")
	}
	log.SetLevel(lvl)
}

func loadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/deadlock/")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("deadlock")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		log.WithError(err).Warning("No config file found, falling back to the embedded sample")
		if err := viper.ReadConfig(bytes.NewReader(DefaultConfig)); err != nil {
			log.WithError(err).Fatal("Failed to read embedded config")
		}
	}
	strict := func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
		dc.ZeroFields = true
	}
	if err := viper.UnmarshalExact(&Config, strict); err != nil {
		log.WithError(err).Fatal("Failed to decode config")
	}
}

func init() {
	log.SetFormatter(&nested.Formatter{})
	loadConfig()
	setLogLevel(Config.LogLevel)
	log.WithField("backend", Config.Sandbox.Backend).Info("Config loaded")
}
