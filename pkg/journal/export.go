package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/vango-dev/incremental/internal/errors"
)

// Target is a resolved export destination.
type Target struct {
	Store Store
	Key   string
}

// S3ClientFunc creates an S3 client for a region.
type S3ClientFunc func(region string) PutObjectAPI

// ResolveTarget turns an export target into a store and a key.
//
// Targets are local paths ("./out/journal.json") or S3 URLs
// ("s3://bucket/prefix/journal.json"). Any other scheme fails with X002.
// newClient is only called for S3 targets; nil means NewS3Client.
func ResolveTarget(target, region string, newClient S3ClientFunc) (Target, error) {
	if target == "" {
		return Target{}, errors.New("X002").WithReason("empty target")
	}
	if strings.HasPrefix(target, "s3://") {
		bucket, key, ok := splitS3(target)
		if !ok {
			return Target{}, errors.New("X002").WithReason("invalid S3 URL %q", target)
		}
		if newClient == nil {
			newClient = func(region string) PutObjectAPI { return NewS3Client(region) }
		}
		return Target{Store: NewS3Store(newClient(region), bucket, ""), Key: key}, nil
	}
	if scheme, _, found := strings.Cut(target, "://"); found {
		return Target{}, errors.New("X002").WithReason("unsupported scheme %q", scheme)
	}

	fs, err := NewFileStore(filepath.Dir(target))
	if err != nil {
		return Target{}, errors.New("X001").WithReason("prepare %s", target).Wrap(err)
	}
	return Target{Store: fs, Key: filepath.Base(target)}, nil
}

// Export writes j to t as indented JSON.
func Export(ctx context.Context, t Target, j Journal) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return errors.New("X001").WithReason("encode journal").Wrap(err)
	}
	data = append(data, '\n')
	if err := t.Store.Put(ctx, t.Key, data); err != nil {
		return errors.New("X001").WithReason("write %s", t.Store.Describe(t.Key)).Wrap(err)
	}
	return nil
}
