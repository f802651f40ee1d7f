package util

import (
	"encoding/json"
	"fmt"
	"os"
)

type Secrets struct {
	Port   int           `json:"port"`
	Bundle BundleSecrets `json:"bundle"`
	// OnnxLibraryPath points at libonnxruntime.so. Empty means the
	// runtime default search path.
	OnnxLibraryPath string `json:"onnxLibraryPath"`
	FeatureFilePath string `json:"featureFilePath"`
}

type BundleSecrets struct {
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	// LocalDir switches the bundle source to a directory on disk,
	// bypassing s3 entirely. Used in dev.
	LocalDir string `json:"localDir"`
}

func LoadSecrets() (*Secrets, error) {
	secretsFile := "/go/src/app/secrets.json"
	if os.Getenv("CROPCAST_ENV") == "dev" {
		secretsFile = "secrets-dev.json"
	} else if os.Getenv("CROPCAST_ENV") == "test" {
		secretsFile = "secrets-test.json"
	}
	f, err := os.ReadFile(secretsFile)
	if err != nil {
		return nil, fmt.Errorf("could not open secrets.json: %w", err)
	}

	secrets := Secrets{}
	err = json.Unmarshal(f, &secrets)
	if err != nil {
		return nil, err
	}

	if secrets.Port == 0 {
		secrets.Port = 3009
	}

	return &secrets, nil
}
