package s3

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"dokudoku/internal/domain"
)

// Config holds the S3-compatible endpoint settings.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// Storage stores document bytes in an S3-compatible bucket under
// content-addressed keys ("sha256/<hex>"). Identical uploads dedupe
// to the same key.
type Storage struct {
	cl     *minio.Client
	bucket string
}

// New creates a blob storage backed by an S3-compatible endpoint.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}

	exists, err := cl.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cl.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Storage{cl: cl, bucket: cfg.Bucket}, nil
}

// Put uploads a stream and returns the final content-addressed key.
// The sha256 is computed while streaming to a temporary key, then the
// object is moved to "sha256/<hex>".
func (s *Storage) Put(ctx context.Context, r io.Reader, hintName, contentType string) (domain.BlobPutResult, error) {
	h := sha256.New()
	pr, pw := io.Pipe()
	mw := io.MultiWriter(h, pw)

	go func() {
		_, copyErr := io.Copy(mw, r)
		pw.CloseWithError(copyErr)
	}()

	tmp := tmpKey(hintName)
	info, err := s.cl.PutObject(ctx, s.bucket, tmp, pr, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return domain.BlobPutResult{}, err
	}

	sha := h.Sum(nil)
	finalKey := fmt.Sprintf("sha256/%x", sha)
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: tmp}
	dst := minio.CopyDestOptions{Bucket: s.bucket, Object: finalKey}
	if _, err := s.cl.CopyObject(ctx, dst, src); err != nil {
		_ = s.cl.RemoveObject(ctx, s.bucket, tmp, minio.RemoveObjectOptions{})
		return domain.BlobPutResult{}, err
	}
	_ = s.cl.RemoveObject(ctx, s.bucket, tmp, minio.RemoveObjectOptions{})

	return domain.BlobPutResult{StorageKey: finalKey, Size: info.Size, SHA256: sha}, nil
}

// Get opens a blob for reading. rangeHeader is an optional HTTP Range
// value ("bytes=START-END"); contentRange is set when a range was served.
func (s *Storage) Get(ctx context.Context, storageKey, rangeHeader string) (rc io.ReadCloser, contentLen int64, contentRange, contentType string, err error) {
	// HEAD first for the full size and content type
	info, err := s.cl.StatObject(ctx, s.bucket, storageKey, minio.StatObjectOptions{})
	if err != nil {
		return nil, 0, "", "", err
	}
	totalSize := info.Size
	contentType = info.ContentType

	start, end, useRange := parseRange(rangeHeader, totalSize)

	opts := minio.GetObjectOptions{}
	if useRange {
		// SetRange takes inclusive bounds [start, end]
		if e := opts.SetRange(start, end); e != nil {
			return nil, 0, "", "", e
		}
		contentLen = end - start + 1
		contentRange = fmt.Sprintf("bytes %d-%d/%d", start, end, totalSize)
	} else {
		contentLen = totalSize
	}

	obj, err := s.cl.GetObject(ctx, s.bucket, storageKey, opts)
	if err != nil {
		return nil, 0, "", "", err
	}

	return obj, contentLen, contentRange, contentType, nil
}

// Remove deletes a blob. Removing a missing key is not an error.
func (s *Storage) Remove(ctx context.Context, storageKey string) error {
	return s.cl.RemoveObject(ctx, s.bucket, storageKey, minio.RemoveObjectOptions{})
}

// parseRange parses "bytes=A-B", "bytes=A-" and "bytes=-N" specs.
func parseRange(rangeHeader string, totalSize int64) (start, end int64, ok bool) {
	if !strings.HasPrefix(rangeHeader, "bytes=") {
		return 0, 0, false
	}
	spec := strings.TrimPrefix(rangeHeader, "bytes=")
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	switch {
	// bytes=A-B, with B clamped to the last byte
	case parts[0] != "" && parts[1] != "":
		a, e1 := strconv.ParseInt(parts[0], 10, 64)
		b, e2 := strconv.ParseInt(parts[1], 10, 64)
		if e1 == nil && e2 == nil && a >= 0 && b >= a && a < totalSize {
			if b >= totalSize {
				b = totalSize - 1
			}
			return a, b, true
		}

	// bytes=A- (from A to the end)
	case parts[0] != "" && parts[1] == "":
		if a, e := strconv.ParseInt(parts[0], 10, 64); e == nil && a >= 0 && a < totalSize {
			return a, totalSize - 1, true
		}

	// bytes=-N (last N bytes)
	case parts[0] == "" && parts[1] != "":
		if n, e := strconv.ParseInt(parts[1], 10, 64); e == nil && n > 0 {
			if n > totalSize {
				n = totalSize
			}
			return totalSize - n, totalSize - 1, true
		}
	}

	return 0, 0, false
}

// tmpKey builds a per-upload staging key. The uuid keeps concurrent
// uploads of same-named files from overwriting each other's staging
// object before the copy to the content-addressed key.
func tmpKey(hintName string) string {
	return "tmp/" + uuid.NewString() + "-" + sanitize(hintName)
}

func sanitize(name string) string {
	u := url.PathEscape(name)
	return strings.ReplaceAll(u, "%2F", "_")
}
