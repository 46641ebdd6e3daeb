// Package objectstore serves model text from an S3 compatible bucket laid
// out like a model directory tree.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/log"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/modelfile"
	"github.com/zjrosen/nodekit/internal/sources"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// API is the subset of the S3 client the source uses.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config locates a bucket.
type Config struct {
	Bucket          string `mapstructure:"bucket" validate:"required"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"` // for S3 compatible stores
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// Source reads models from a bucket. It implements loaders.TextSource,
// loaders.Lister and loaders.ProjectIndex.
type Source struct {
	api     API
	bucket  string
	prefix  string
	timeout time.Duration
	metrics *metrics.Registry
	index   *sources.Index
}

// Option configures a Source.
type Option func(*Source)

// WithPrefix roots the model tree under prefix.
func WithPrefix(prefix string) Option {
	return func(s *Source) { s.prefix = strings.Trim(prefix, "/") }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) { s.timeout = d }
}

// WithMetrics records reads on m.
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Source) { s.metrics = m }
}

// New creates a source over api.
func New(api API, bucket string, opts ...Option) *Source {
	s := &Source{api: api, bucket: bucket, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	s.index = sources.NewIndex(s, s.label())
	return s
}

// NewFromConfig builds an S3 client from the default AWS configuration chain,
// overridden by cfg.
func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Source, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, cfg.Bucket, append([]Option{WithPrefix(cfg.Prefix)}, opts...)...), nil
}

func (s *Source) label() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

func (s *Source) key(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
}

// ProjectText implements loaders.TextSource.
func (s *Source) ProjectText(name string) (modelfile.ProjectText, error) {
	for _, ext := range []string{".yml", ".yaml", ".hcl"} {
		key := s.key(sources.ProjectsDir, name+ext)
		data, err := s.get(key)
		if errors.Is(err, errNoSuchKey) {
			continue
		}
		if err != nil {
			return modelfile.ProjectText{}, err
		}
		format, _ := modelfile.FormatForPath(key)
		return modelfile.ProjectText{Name: name, Origin: "s3://" + s.bucket + "/" + key, Format: format, Data: data}, nil
	}
	s.metrics.RecordSourceRead("s3", "missing", 0)
	return modelfile.ProjectText{}, fmt.Errorf("%w: %s in %s", component.ErrProjectNotFound, name, s.label())
}

// TypekitText implements loaders.TextSource.
func (s *Source) TypekitText(name string) (modelfile.TypekitText, error) {
	base := s.key(sources.TypekitsDir, name)
	typelist, err := s.get(base + modelfile.TypelistSuffix)
	if errors.Is(err, errNoSuchKey) {
		s.metrics.RecordSourceRead("s3", "missing", 0)
		return modelfile.TypekitText{}, fmt.Errorf("%w: %s in %s", component.ErrTypekitNotFound, name, s.label())
	}
	if err != nil {
		return modelfile.TypekitText{}, err
	}
	registry, err := s.get(base + modelfile.RegistrySuffix)
	if err != nil && !errors.Is(err, errNoSuchKey) {
		return modelfile.TypekitText{}, err
	}
	return modelfile.TypekitText{Name: name, Origin: "s3://" + s.bucket + "/" + base, Registry: registry, Typelist: typelist}, nil
}

var errNoSuchKey = errors.New("no such key")

func (s *Source) get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		var notFound *s3types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, errNoSuchKey
		}
		s.metrics.RecordSourceRead("s3", "error", 0)
		log.ErrorErr(log.CatSource, "object read failed", err, "bucket", s.bucket, "key", key)
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		s.metrics.RecordSourceRead("s3", "error", 0)
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
	}
	s.metrics.RecordSourceRead("s3", "ok", len(data))
	return data, nil
}

// ProjectNames implements loaders.Lister.
func (s *Source) ProjectNames() ([]string, error) {
	keys, err := s.list(s.key(sources.ProjectsDir) + "/")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, k := range keys {
		if _, ok := modelfile.FormatForPath(k); !ok || strings.Contains(k, "/") {
			continue
		}
		n := strings.TrimSuffix(k, path.Ext(k))
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names, nil
}

// TypekitNames implements loaders.Lister.
func (s *Source) TypekitNames() ([]string, error) {
	keys, err := s.list(s.key(sources.TypekitsDir) + "/")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range keys {
		if n, ok := strings.CutSuffix(k, modelfile.TypelistSuffix); ok && !strings.Contains(n, "/") {
			names = append(names, n)
		}
	}
	return names, nil
}

// list returns the keys under prefix, relative to it.
func (s *Source) list(prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var keys []string
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), prefix))
		}
	}
	return keys, nil
}

// ProjectNameForNodeModel implements loaders.ProjectIndex.
func (s *Source) ProjectNameForNodeModel(name string) (string, bool) {
	return s.index.ProjectNameForNodeModel(name)
}

// ProjectNameForDeployment implements loaders.ProjectIndex.
func (s *Source) ProjectNameForDeployment(name string) (string, bool) {
	return s.index.ProjectNameForDeployment(name)
}

// Invalidate drops the name index.
func (s *Source) Invalidate() {
	s.index.Invalidate()
}
