package config

import "time"

// Config holds runtime settings for the usersync CLI.
//
// Units: durations are time.Duration; in files and environment variables
// they are written as strings like "30s".
type Config struct {
	UsersURL      string `koanf:"users_url" validate:"required,url"`
	WeatherURL    string `koanf:"weather_url" validate:"required,url"`
	TodosURL      string `koanf:"todos_url" validate:"required,url"`
	WeatherAPIKey string `koanf:"weather_api_key"`
	WeatherUnits  string `koanf:"weather_units" validate:"oneof=standard metric imperial"`

	PageSize       int           `koanf:"page_size" validate:"min=1,max=5000"`
	Seed           string        `koanf:"seed"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`

	DBDriver string `koanf:"db_driver" validate:"oneof=sqlite pgx"`
	DBDSN    string `koanf:"db_dsn" validate:"required"`

	OnlineCheckInterval time.Duration `koanf:"online_check_interval" validate:"gt=0"`
	ProbeURL            string        `koanf:"probe_url" validate:"omitempty,url"`
	ProbeGRPCAddr       string        `koanf:"probe_grpc_addr" validate:"omitempty,hostname_port"`

	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	ExportDir      string `koanf:"export_dir" validate:"required"`
	S3Bucket       string `koanf:"s3_bucket"`
	S3Region       string `koanf:"s3_region"`
	S3BaseEndpoint string `koanf:"s3_base_endpoint" validate:"omitempty,url"`
	S3AccessKey    string `koanf:"s3_access_key"`
	S3SecretKey    string `koanf:"s3_secret_key"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.UsersURL = "https://randomuser.me/api/"
	c.WeatherURL = "https://api.openweathermap.org/data/2.5/weather"
	c.TodosURL = "https://jsonplaceholder.typicode.com/todos"
	c.WeatherUnits = "metric"

	c.PageSize = 25
	c.RequestTimeout = 15 * time.Second

	c.DBDriver = "sqlite"
	c.DBDSN = "usersync.db"

	c.OnlineCheckInterval = 3 * time.Second
	c.ProbeURL = "https://randomuser.me/"

	c.LogLevel = "info"
	c.LogFormat = "text"

	c.ExportDir = "exports"
	c.S3Region = "us-east-1"
}
