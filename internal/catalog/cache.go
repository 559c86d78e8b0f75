// Package catalog holds the terminal-local product cache used for fast
// scan resolution. The cache is replaced wholesale on load; lookups read
// an immutable snapshot, so a reload can never tear a concurrent read.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/oaramirez/grocerpos/pkg/logger"
	"github.com/oaramirez/grocerpos/pkg/metrics"
	"github.com/oaramirez/grocerpos/pkg/money"
	"github.com/oaramirez/grocerpos/pkg/posapi"
)

// Product is the cached catalog record.
type Product struct {
	ID            int64
	Name          string
	Barcode       string
	SellingPrice  decimal.Decimal
	StockQuantity int
}

// FromAPI converts a backend record, rejecting non-positive prices.
func FromAPI(p posapi.Product) (Product, error) {
	price := money.FromFloat(p.SellingPrice)
	if !price.IsPositive() {
		return Product{}, fmt.Errorf("product %d (%s): selling price must be positive, got %s", p.ID, p.Name, price)
	}
	barcode := ""
	if p.Barcode != nil {
		barcode = strings.TrimSpace(*p.Barcode)
	}
	return Product{
		ID:            p.ID,
		Name:          p.Name,
		Barcode:       barcode,
		SellingPrice:  price,
		StockQuantity: p.StockQuantity,
	}, nil
}

type productLister interface {
	ListProducts(ctx context.Context) ([]posapi.Product, error)
}

// Cache is the in-memory product set shared by the resolver and the
// terminal search box.
type Cache struct {
	lister  productLister
	logger  *logger.Logger
	metrics *metrics.POSMetrics

	mu   sync.RWMutex
	snap *snapshot
}

type snapshot struct {
	products  []Product
	byID      map[int64]Product
	byBarcode map[string]Product
	byName    map[string]Product
}

func newSnapshot(products []Product) *snapshot {
	snap := &snapshot{
		products:  products,
		byID:      make(map[int64]Product, len(products)),
		byBarcode: make(map[string]Product, len(products)),
		byName:    make(map[string]Product, len(products)),
	}
	for _, product := range products {
		snap.byID[product.ID] = product
		if product.Barcode != "" {
			snap.byBarcode[product.Barcode] = product
		}
		snap.byName[strings.ToLower(product.Name)] = product
	}
	return snap
}

// NewCache builds an empty cache backed by the provided lister.
func NewCache(lister productLister, logg *logger.Logger, m *metrics.POSMetrics) (*Cache, error) {
	if lister == nil {
		return nil, fmt.Errorf("product lister required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Cache{
		lister:  lister,
		logger:  logg,
		metrics: m,
		snap:    newSnapshot(nil),
	}, nil
}

// Load replaces the cache wholesale. A fetch failure leaves the previous
// snapshot intact. Records violating the positive-price invariant are
// dropped and reported in one combined warning.
func (c *Cache) Load(ctx context.Context) error {
	records, err := c.lister.ListProducts(ctx)
	if err != nil {
		c.metrics.IncCatalogReload("failure")
		return fmt.Errorf("loading catalog: %w", err)
	}

	products := make([]Product, 0, len(records))
	var rejected error
	for _, record := range records {
		product, err := FromAPI(record)
		if err != nil {
			rejected = multierr.Append(rejected, err)
			continue
		}
		products = append(products, product)
	}

	if rejected != nil {
		c.logger.Warn(
			c.logger.WithField(ctx, "rejected", rejected.Error()),
			"catalog.load_dropped_records",
		)
	}

	c.mu.Lock()
	c.snap = newSnapshot(products)
	c.mu.Unlock()

	c.metrics.IncCatalogReload("success")
	c.logger.Info(c.logger.WithField(ctx, "count", len(products)), "catalog.loaded")
	return nil
}

func (c *Cache) snapshot() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// LookupByBarcode performs an exact, case-sensitive barcode match.
func (c *Cache) LookupByBarcode(code string) (Product, bool) {
	product, ok := c.snapshot().byBarcode[strings.TrimSpace(code)]
	return product, ok
}

// LookupByName performs an exact, case-insensitive name match.
func (c *Cache) LookupByName(name string) (Product, bool) {
	product, ok := c.snapshot().byName[strings.ToLower(strings.TrimSpace(name))]
	return product, ok
}

// LookupByID returns the cached record for a product id.
func (c *Cache) LookupByID(id int64) (Product, bool) {
	product, ok := c.snapshot().byID[id]
	return product, ok
}

// SearchByName returns up to limit case-insensitive substring matches in
// catalog order.
func (c *Cache) SearchByName(query string, limit int) []Product {
	needle := strings.ToLower(strings.TrimSpace(query))
	snap := c.snapshot()
	if limit <= 0 {
		limit = len(snap.products)
	}

	matches := make([]Product, 0, limit)
	for _, product := range snap.products {
		if needle != "" && !strings.Contains(strings.ToLower(product.Name), needle) {
			continue
		}
		matches = append(matches, product)
		if len(matches) == limit {
			break
		}
	}
	return matches
}

// Upsert merges a freshly fetched product without duplicating its id. The
// snapshot is rebuilt so concurrent readers keep iterating the old one.
func (c *Cache) Upsert(product Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	products := make([]Product, 0, len(c.snap.products)+1)
	replaced := false
	for _, existing := range c.snap.products {
		if existing.ID == product.ID {
			products = append(products, product)
			replaced = true
			continue
		}
		products = append(products, existing)
	}
	if !replaced {
		products = append(products, product)
	}
	c.snap = newSnapshot(products)
}

// Len reports the number of cached products.
func (c *Cache) Len() int {
	return len(c.snapshot().products)
}
