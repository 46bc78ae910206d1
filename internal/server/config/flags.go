package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/cryptovault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Only the most commonly overridden settings get a flag; everything else
// comes from the JSON file.
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   integrity secret
//	-b string   blob store (S3) bucket
//	-k string   key store (MinIO) bucket
//	-t int      remote call timeout, seconds
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-b", "-k", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.IntegritySecret, "s", config.IntegritySecret, "integrity secret")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "blob store bucket")
	fs.StringVar(&config.KeyStoreBucket, "k", config.KeyStoreBucket, "key store bucket")

	remoteCallTimeout := fs.Int("t", int(config.RemoteCallTimeout.Seconds()), "remote call timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RemoteCallTimeout = time.Duration(*remoteCallTimeout) * time.Second
}
