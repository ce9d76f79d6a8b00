package foyer

import (
	"github.com/nyaruka/ezconf"
	validator "gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

// Config is our top level configuration object, shared by the API server and the edge router
type Config struct {
	Store   string `help:"the store that will be used by foyer (currently only dynamo is supported)"`
	Address string `help:"the network interface address foyer will bind to"`
	Port    int    `help:"the port foyer will listen on"`
	Tenant  string `help:"the tenant name used as the partition for all records"`

	AWSAccessKeyID     string `help:"the access key id to use when authenticating against DynamoDB"`
	AWSSecretAccessKey string `help:"the secret access key to use when authenticating against DynamoDB"`
	AWSRegion          string `help:"the AWS region we will use for DynamoDB"`
	DynamoEndpoint     string `help:"DynamoDB service endpoint, only set this when using a local instance"`
	DynamoTablePrefix  string `help:"prefix to use for DynamoDB table names"`
	DynamoTable        string `help:"base name of the DynamoDB table records are written to"`

	Redis              string `help:"URL describing how to connect to Redis, leave empty to disable rate limiting" validate:"omitempty,url"`
	RateLimitPerMinute int    `help:"the maximum number of form submissions accepted per client IP per minute"`

	MetricsSampleSize int    `help:"the maximum number of records scanned to compute the metrics summary"`
	MetricsCacheTTL   int    `help:"how long in seconds a computed metrics summary is served from cache"`
	JWTSecret         string `help:"the secret used to verify bearer tokens on the metrics endpoint"`
	JWTAudience       string `help:"if set, the audience claim required on metrics bearer tokens"`

	StaticOrigin string `help:"URL of the static content origin the edge router forwards to" validate:"omitempty,url"`
	APIOrigin    string `help:"URL of the API origin the edge router forwards to"            validate:"omitempty,url"`
	APIPrefix    string `help:"the path prefix the edge router treats as API traffic"`
	EdgeAddress  string `help:"the network interface address the edge router will bind to"`
	EdgePort     int    `help:"the port the edge router will listen on"`

	StatusUsername string `help:"the username that is needed to authenticate against the /status endpoint"`
	StatusPassword string `help:"the password that is needed to authenticate against the /status endpoint"`

	SentryDSN     string `help:"the DSN used for logging errors to Sentry"`
	EnableTracing bool   `help:"whether request traces are handed to the external trace collector"`
	LogLevel      string `help:"the logging level foyer should use"`
	Version       string `help:"the version that will be used in request and response headers"`
}

// NewConfig returns a new default configuration object
func NewConfig() *Config {
	return &Config{
		Store:   "dynamo",
		Address: "",
		Port:    8080,
		Tenant:  "default",

		AWSAccessKeyID:     "",
		AWSSecretAccessKey: "",
		AWSRegion:          "us-east-1",
		DynamoEndpoint:     "",
		DynamoTablePrefix:  "",
		DynamoTable:        "Records",

		Redis:              "",
		RateLimitPerMinute: 10,

		MetricsSampleSize: 50,
		MetricsCacheTTL:   30,

		StaticOrigin: "http://localhost:9000",
		APIOrigin:    "http://localhost:8080",
		APIPrefix:    "/api",
		EdgeAddress:  "",
		EdgePort:     8081,

		EnableTracing: false,
		LogLevel:      "info",
		Version:       "Dev",
	}
}

// LoadConfig loads our configuration from the passed in filename
func LoadConfig(filename string) *Config {
	config := NewConfig()
	loader := ezconf.NewLoader(
		config,
		"foyer", "Foyer - a small edge router and forms API",
		[]string{filename},
	)
	loader.MustLoad()

	return config
}

// Validate validates the config, returning an error if it isn't usable
func (c *Config) Validate() error {
	return validate.Struct(c)
}
