// Package content fetches off-chain item content through an IPFS gateway and
// pins new content with a pinning service.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chennaiartisanal/provenance/market/compression"
	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/log"
)

const (
	DefaultGateway   = "https://gateway.pinata.cloud"
	DefaultCacheSize = 512

	// DefaultMaxObjectSize bounds fetched content after decoding.
	DefaultMaxObjectSize = 64 << 20
)

// Object is fetched content. Value holds the decoded document when the
// gateway declared a JSON content type.
type Object struct {
	Pointer     string
	ContentType string
	Data        []byte
	Value       any
}

func (o *Object) IsJSON() bool {
	return isJSON(o.ContentType)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// Resolver fetches content pointers through a gateway. Fetched objects are
// cached per pointer for the lifetime of the resolver.
type Resolver struct {
	gateway *url.URL
	client  *http.Client
	cache   *lru.Cache[string, *Object]
	maxSize int64
}

type ResolverOption func(*Resolver)

func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.client = c }
}

func WithCacheSize(n int) ResolverOption {
	return func(r *Resolver) { r.cache = lru.NewCache[string, *Object](n) }
}

// WithMaxObjectSize rejects content larger than n bytes, before or after
// decoding.
func WithMaxObjectSize(n int64) ResolverOption {
	return func(r *Resolver) { r.maxSize = n }
}

func NewResolver(gateway string, opts ...ResolverOption) (*Resolver, error) {
	if gateway == "" {
		gateway = DefaultGateway
	}
	u, err := url.Parse(gateway)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("gateway url must be http or https, got %q", gateway)
	}
	// Accept gateways configured with their /ipfs/ prefix.
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/"+SchemeIPFS)

	r := &Resolver{
		gateway: u,
		client:  &http.Client{Timeout: 60 * time.Second},
		cache:   lru.NewCache[string, *Object](DefaultCacheSize),
		maxSize: DefaultMaxObjectSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Locate returns the URL a pointer is fetched from.
func (r *Resolver) Locate(pointer string) (string, error) {
	return Locate(r.gateway, pointer)
}

// Resolve fetches the content behind pointer. Network failures and non 2xx
// responses yield failure.ErrContentUnavailable.
func (r *Resolver) Resolve(ctx context.Context, pointer string) (*Object, error) {
	if obj, ok := r.cache.Get(pointer); ok {
		return obj, nil
	}

	location, err := r.Locate(pointer)
	if err != nil {
		return nil, err
	}

	obj, err := r.fetch(ctx, location)
	if err != nil {
		return nil, failure.Wrap(failure.ErrContentUnavailable, "resolve", err, "content "+pointer+" unavailable")
	}
	obj.Pointer = pointer

	r.cache.Add(pointer, obj)
	log.Debug("resolved content", "pointer", pointer, "type", obj.ContentType, "size", len(obj.Data))
	return obj, nil
}

func (r *Resolver) fetch(ctx context.Context, location string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Encoding", compression.AcceptEncoding)

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("gateway returned %s", res.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, r.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(raw)) > r.maxSize {
		return nil, fmt.Errorf("content exceeds %d bytes", r.maxSize)
	}

	data, err := compression.DecodeLimit(res.Header.Get("Content-Encoding"), raw, r.maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}

	obj := &Object{
		ContentType: res.Header.Get("Content-Type"),
		Data:        data,
	}
	if obj.ContentType == "" {
		obj.ContentType = http.DetectContentType(data)
	}
	if obj.IsJSON() {
		if err := json.Unmarshal(data, &obj.Value); err != nil {
			return nil, fmt.Errorf("failed to parse json content: %w", err)
		}
	}
	return obj, nil
}

// ResolveJSON fetches pointer and decodes it into v regardless of the
// declared content type.
func (r *Resolver) ResolveJSON(ctx context.Context, pointer string, v any) error {
	obj, err := r.Resolve(ctx, pointer)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(obj.Data, v); err != nil {
		return failure.Wrap(failure.ErrContentUnavailable, "resolve", err, "content "+pointer+" is not a json document")
	}
	return nil
}

// ItemMetadata fetches the metadata document behind a token URI.
func (r *Resolver) ItemMetadata(ctx context.Context, tokenURI string) (ItemMetadata, error) {
	var md ItemMetadata
	if err := r.ResolveJSON(ctx, tokenURI, &md); err != nil {
		return ItemMetadata{}, err
	}
	return md, nil
}
