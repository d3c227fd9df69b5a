package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/storyshelf/storyshelf/internal/netx"
)

// maxAssetSize caps a single essential asset.
const maxAssetSize = 16 << 20

// readAsset reads the whole body of path. A body over maxAssetSize is an
// error, never a truncated entry.
func readAsset(path string, r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(body) > maxAssetSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrAssetTooLarge, path, maxAssetSize)
	}
	return body, nil
}

// Origin is where essential assets are installed from.
type Origin interface {
	Fetch(ctx context.Context, path string) (*Entry, error)
}

// keptHeaders are the response headers stored with an entry.
var keptHeaders = []string{"Content-Type", "Cache-Control", "ETag", "Last-Modified"}

// HTTPOrigin fetches assets from the application's web origin.
type HTTPOrigin struct {
	base string
	hc   *http.Client
}

func NewHTTPOrigin(base string, hc *http.Client) *HTTPOrigin {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPOrigin{base: strings.TrimRight(base, "/"), hc: hc}
}

func (o *HTTPOrigin) Fetch(ctx context.Context, path string) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, netx.DecodeError(resp)
	}
	body, err := readAsset(path, resp.Body)
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	for _, k := range keptHeaders {
		if v := resp.Header.Get(k); v != "" {
			h.Set(k, v)
		}
	}
	return &Entry{URL: path, Status: resp.StatusCode, Header: h, Body: body}, nil
}

// S3Config locates an asset bucket. Endpoint is set for S3-compatible
// stores such as MinIO; empty keys fall back to the default AWS chain.
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// ParseBucketURL splits "s3://bucket/prefix" into bucket and prefix.
func ParseBucketURL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", errors.New("asset bucket must look like s3://bucket/prefix")
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// S3Origin installs assets from an object store. "/" maps to index.html.
type S3Origin struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Origin(ctx context.Context, c S3Config) (*S3Origin, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Origin{client: client, bucket: c.Bucket, prefix: strings.Trim(c.Prefix, "/")}, nil
}

func (o *S3Origin) key(path string) string {
	p := strings.TrimPrefix(path, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	if o.prefix == "" {
		return p
	}
	return o.prefix + "/" + p
}

func (o *S3Origin) Fetch(ctx context.Context, path string) (*Entry, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key(path)),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", o.bucket, o.key(path), err)
	}
	defer out.Body.Close()

	body, err := readAsset(path, out.Body)
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	if ct := aws.ToString(out.ContentType); ct != "" {
		h.Set("Content-Type", ct)
	}
	if et := aws.ToString(out.ETag); et != "" {
		h.Set("ETag", et)
	}
	if cc := aws.ToString(out.CacheControl); cc != "" {
		h.Set("Cache-Control", cc)
	}
	return &Entry{URL: path, Status: http.StatusOK, Header: h, Body: body}, nil
}
