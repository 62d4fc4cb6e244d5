package s3

import "fmt"

// DefaultAWSRegion is applied when no region can be resolved and no custom
// endpoint is configured.
const DefaultAWSRegion = "us-east-1"

// Config configures an S3-backed remote connection.
type Config struct {
	// Bucket is the bucket holding report artifacts. Required.
	Bucket string

	// BaseDir is the key prefix the connection starts in ("" for bucket root).
	BaseDir string

	// Region is the AWS region. Empty lets the SDK resolve from env/profile.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible stores.
	Endpoint string

	// ForcePathStyle enables path-style addressing (required by most
	// S3-compatible stores).
	ForcePathStyle bool

	// AccessKeyID and SecretAccessKey are explicit static credentials.
	// Empty uses the SDK default credential chain.
	AccessKeyID     string
	SecretAccessKey string

	// Profile selects a shared config profile.
	Profile string
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("s3 remote: bucket is required")
	}
	return nil
}

// resolveRegion determines the final region after SDK config loading.
//
// The sdkRegion parameter already incorporates explicit config, env, and
// profile resolution; this only applies the fallback default. S3-compatible
// stores (custom endpoint) get no default since they may not need a region.
func resolveRegion(endpoint, sdkRegion string) string {
	if sdkRegion != "" {
		return sdkRegion
	}
	if endpoint == "" {
		return DefaultAWSRegion
	}
	return ""
}
