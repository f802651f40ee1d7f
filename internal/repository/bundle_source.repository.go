package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BundleFiles holds the raw bytes for one published model version: the
// onnx graph plus its preprocessing artifact.
type BundleFiles struct {
	Version      string
	ModelData    []byte
	ArtifactData []byte
}

type BundleSourceRepository interface {
	// LatestVersion returns the newest published version identifier,
	// or an empty string when the source holds no bundles.
	LatestVersion(ctx context.Context) (string, error)
	Fetch(ctx context.Context, version string) (*BundleFiles, error)
}

func NewS3BundleSourceRepository(client *s3.Client, bucket, prefix string) BundleSourceRepository {
	return &S3BundleSourceRepositoryHandler{
		Client: client,
		Bucket: bucket,
		Prefix: prefix,
	}
}

type S3BundleSourceRepositoryHandler struct {
	Client *s3.Client
	Bucket string
	Prefix string
}

func (h S3BundleSourceRepositoryHandler) LatestVersion(ctx context.Context) (string, error) {
	versions := []string{}
	paginator := s3.NewListObjectsV2Paginator(h.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(h.Bucket),
		Prefix: aws.String(h.Prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list bundle objects in s3://%s/%s: %w", h.Bucket, h.Prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ".onnx") {
				versions = append(versions, versionFromKey(key))
			}
		}
	}
	if len(versions) == 0 {
		return "", nil
	}
	// version ids are timestamp-prefixed, so lexicographic max is newest
	sort.Strings(versions)
	return versions[len(versions)-1], nil
}

func (h S3BundleSourceRepositoryHandler) Fetch(ctx context.Context, version string) (*BundleFiles, error) {
	modelData, err := h.getObject(ctx, h.key(version+".onnx"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model %s: %w", version, err)
	}
	artifactData, err := h.getObject(ctx, h.key(version+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artifact %s: %w", version, err)
	}

	return &BundleFiles{
		Version:      version,
		ModelData:    modelData,
		ArtifactData: artifactData,
	}, nil
}

func (h S3BundleSourceRepositoryHandler) key(name string) string {
	if h.Prefix == "" {
		return name
	}
	return strings.TrimSuffix(h.Prefix, "/") + "/" + name
}

func (h S3BundleSourceRepositoryHandler) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := h.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", h.Bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", h.Bucket, key, err)
	}

	return data, nil
}

func versionFromKey(key string) string {
	base := key
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(base, ".onnx")
}

func NewLocalBundleSourceRepository(dir string) BundleSourceRepository {
	return &LocalBundleSourceRepositoryHandler{Dir: dir}
}

// LocalBundleSourceRepositoryHandler serves bundles from a directory on
// disk. Useful for dev environments without bucket access.
type LocalBundleSourceRepositoryHandler struct {
	Dir string
}

func (h LocalBundleSourceRepositoryHandler) LatestVersion(ctx context.Context) (string, error) {
	entries, err := os.ReadDir(h.Dir)
	if err != nil {
		return "", fmt.Errorf("failed to read bundle dir %s: %w", h.Dir, err)
	}
	versions := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".onnx") {
			versions = append(versions, strings.TrimSuffix(entry.Name(), ".onnx"))
		}
	}
	if len(versions) == 0 {
		return "", nil
	}
	sort.Strings(versions)
	return versions[len(versions)-1], nil
}

func (h LocalBundleSourceRepositoryHandler) Fetch(ctx context.Context, version string) (*BundleFiles, error) {
	modelData, err := os.ReadFile(filepath.Join(h.Dir, version+".onnx"))
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", version, err)
	}
	artifactData, err := os.ReadFile(filepath.Join(h.Dir, version+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", version, err)
	}

	return &BundleFiles{
		Version:      version,
		ModelData:    modelData,
		ArtifactData: artifactData,
	}, nil
}
