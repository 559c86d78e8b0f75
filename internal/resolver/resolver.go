// Package resolver maps a scanned or typed token to a catalog product.
// The resolver is policy-free: a miss is an outcome, not an error, and
// the caller decides whether a miss means "reject scan" or "offer create".
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/oaramirez/grocerpos/internal/catalog"
	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
	"github.com/oaramirez/grocerpos/pkg/logger"
	"github.com/oaramirez/grocerpos/pkg/metrics"
	"github.com/oaramirez/grocerpos/pkg/posapi"
)

type catalogIndex interface {
	LookupByBarcode(code string) (catalog.Product, bool)
	LookupByName(name string) (catalog.Product, bool)
	Upsert(product catalog.Product)
}

type remoteLookup interface {
	GetProductByBarcode(ctx context.Context, code string) (*posapi.Product, error)
}

// Resolver resolves scan tokens against the cache first, then the backend.
type Resolver struct {
	cache   catalogIndex
	remote  remoteLookup
	logger  *logger.Logger
	metrics *metrics.POSMetrics
}

// New builds a resolver over the given cache and remote lookup.
func New(cache catalogIndex, remote remoteLookup, logg *logger.Logger, m *metrics.POSMetrics) (*Resolver, error) {
	if cache == nil {
		return nil, fmt.Errorf("catalog index required")
	}
	if remote == nil {
		return nil, fmt.Errorf("remote lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{cache: cache, remote: remote, logger: logg, metrics: m}, nil
}

// Resolve applies the lookup precedence, short-circuiting on the first hit:
// exact case-sensitive barcode, exact case-insensitive name, then a remote
// barcode lookup whose result is merged into the cache. A miss returns
// (nil, nil). Only a transport failure on the remote step returns an error;
// the caller may still treat it as a miss.
func (r *Resolver) Resolve(ctx context.Context, token string) (*catalog.Product, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil
	}
	r.metrics.IncScan()

	if product, ok := r.cache.LookupByBarcode(trimmed); ok {
		return &product, nil
	}
	if product, ok := r.cache.LookupByName(trimmed); ok {
		return &product, nil
	}

	record, err := r.remote.GetProductByBarcode(ctx, trimmed)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			r.metrics.IncResolverMiss()
			return nil, nil
		}
		r.logger.Warn(r.logger.WithField(ctx, "token", trimmed), "resolver.remote_lookup_failed")
		return nil, err
	}

	product, err := catalog.FromAPI(*record)
	if err != nil {
		r.logger.Warn(r.logger.WithField(ctx, "token", trimmed), "resolver.remote_record_invalid")
		r.metrics.IncResolverMiss()
		return nil, nil
	}

	r.cache.Upsert(product)
	return &product, nil
}
