// Package minio reads and writes attachment objects in S3-compatible storage.
package minio

import "time"

// Config contains S3-compatible storage connection parameters.
type Config struct {
	// Endpoint is host[:port], e.g. "localhost:9000" or "s3.amazonaws.com".
	Endpoint  string `envconfig:"S3_ENDPOINT" required:"true"`
	AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`
	Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	// DefaultBucket is used when a call passes an empty bucket.
	DefaultBucket string `envconfig:"S3_ATTACHMENTS_BUCKET"`
	Secure        bool   `envconfig:"S3_SECURE" default:"true"`
	// Timeout bounds the bucket check in NewClient, in seconds.
	Timeout int `envconfig:"S3_TIMEOUT" default:"30"`
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}
