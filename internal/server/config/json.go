package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/cryptovault/internal/flagx"
	"github.com/dmitrijs2005/cryptovault/internal/timex"
)

// JsonConfig is the DTO used for reading JSON configuration files. Interval
// fields use timex.Duration so both "5s" strings and integer nanoseconds
// parse. After unmarshalling, values are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr string `json:"endpoint_addr"`
	DatabaseDSN  string `json:"database_dsn"`

	AuthSecretKey string `json:"auth_secret_key"`
	AuthDisabled  bool   `json:"auth_disabled"`

	IntegritySecret string `json:"integrity_secret"`
	IntegritySalt   string `json:"integrity_salt"`

	S3Endpoint  string `json:"s3_endpoint"`
	S3Region    string `json:"s3_region"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`
	S3Bucket    string `json:"s3_bucket"`

	KeyStoreEndpoint  string `json:"key_store_endpoint"`
	KeyStoreAccessKey string `json:"key_store_access_key"`
	KeyStoreSecretKey string `json:"key_store_secret_key"`
	KeyStoreUseSSL    bool   `json:"key_store_use_ssl"`
	KeyStoreBucket    string `json:"key_store_bucket"`

	KMSProject  string `json:"kms_project"`
	KMSLocation string `json:"kms_location"`
	KMSKeyRing  string `json:"kms_key_ring"`
	KMSKey      string `json:"kms_key"`
	LocalKEKHex string `json:"local_kek_hex"`

	RemoteCallTimeout timex.Duration `json:"remote_call_timeout"`
	RemoteCallRetries uint64         `json:"remote_call_retries"`
	PresignValidity   timex.Duration `json:"presign_validity"`
	MaxUploadSize     string         `json:"max_upload_size"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no file is given, nothing
// is loaded. An unreadable or invalid file panics: a half-applied config
// is worse than a crash at startup.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.AuthSecretKey != "" {
		config.AuthSecretKey = c.AuthSecretKey
	}
	if c.AuthDisabled {
		config.AuthDisabled = true
	}
	if c.IntegritySecret != "" {
		config.IntegritySecret = c.IntegritySecret
	}
	if c.IntegritySalt != "" {
		config.IntegritySalt = c.IntegritySalt
	}
	if c.S3Endpoint != "" {
		config.S3Endpoint = c.S3Endpoint
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3AccessKey != "" {
		config.S3AccessKey = c.S3AccessKey
	}
	if c.S3SecretKey != "" {
		config.S3SecretKey = c.S3SecretKey
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.KeyStoreEndpoint != "" {
		config.KeyStoreEndpoint = c.KeyStoreEndpoint
	}
	if c.KeyStoreAccessKey != "" {
		config.KeyStoreAccessKey = c.KeyStoreAccessKey
	}
	if c.KeyStoreSecretKey != "" {
		config.KeyStoreSecretKey = c.KeyStoreSecretKey
	}
	if c.KeyStoreUseSSL {
		config.KeyStoreUseSSL = true
	}
	if c.KeyStoreBucket != "" {
		config.KeyStoreBucket = c.KeyStoreBucket
	}
	if c.KMSProject != "" {
		config.KMSProject = c.KMSProject
	}
	if c.KMSLocation != "" {
		config.KMSLocation = c.KMSLocation
	}
	if c.KMSKeyRing != "" {
		config.KMSKeyRing = c.KMSKeyRing
	}
	if c.KMSKey != "" {
		config.KMSKey = c.KMSKey
	}
	if c.LocalKEKHex != "" {
		config.LocalKEKHex = c.LocalKEKHex
	}
	if c.RemoteCallTimeout != 0 {
		config.RemoteCallTimeout = time.Duration(c.RemoteCallTimeout)
	}
	if c.RemoteCallRetries != 0 {
		config.RemoteCallRetries = c.RemoteCallRetries
	}
	if c.PresignValidity != 0 {
		config.PresignValidity = time.Duration(c.PresignValidity)
	}
	if c.MaxUploadSize != "" {
		config.MaxUploadSize = c.MaxUploadSize
	}
}
