package resolver

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oaramirez/grocerpos/internal/catalog"
	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
	"github.com/oaramirez/grocerpos/pkg/logger"
	"github.com/oaramirez/grocerpos/pkg/posapi"
)

type stubIndex struct {
	byBarcode map[string]catalog.Product
	byName    map[string]catalog.Product
	upserted  []catalog.Product
}

func (s *stubIndex) LookupByBarcode(code string) (catalog.Product, bool) {
	p, ok := s.byBarcode[code]
	return p, ok
}

func (s *stubIndex) LookupByName(name string) (catalog.Product, bool) {
	p, ok := s.byName[name]
	return p, ok
}

func (s *stubIndex) Upsert(product catalog.Product) {
	s.upserted = append(s.upserted, product)
}

type stubRemote struct {
	product *posapi.Product
	err     error
	calls   int
}

func (s *stubRemote) GetProductByBarcode(ctx context.Context, code string) (*posapi.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return s.product, nil
}

func newResolver(t *testing.T, index *stubIndex, remote *stubRemote) *Resolver {
	t.Helper()
	if index.byBarcode == nil {
		index.byBarcode = map[string]catalog.Product{}
	}
	if index.byName == nil {
		index.byName = map[string]catalog.Product{}
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	r, err := New(index, remote, logg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestResolveBarcodeShortCircuits(t *testing.T) {
	milk := catalog.Product{ID: 1, Name: "Milk", Barcode: "111", SellingPrice: decimal.NewFromInt(3)}
	index := &stubIndex{byBarcode: map[string]catalog.Product{"111": milk}}
	remote := &stubRemote{}
	r := newResolver(t, index, remote)

	got, err := r.Resolve(context.Background(), " 111 ")
	if err != nil || got == nil || got.ID != 1 {
		t.Fatalf("expected barcode hit, got %+v err=%v", got, err)
	}
	if remote.calls != 0 {
		t.Fatal("remote lookup should not run on a cache hit")
	}
}

func TestResolveFallsBackToName(t *testing.T) {
	milk := catalog.Product{ID: 1, Name: "Milk", SellingPrice: decimal.NewFromInt(3)}
	index := &stubIndex{byName: map[string]catalog.Product{"milk": milk}}
	remote := &stubRemote{}
	r := newResolver(t, index, remote)

	got, err := r.Resolve(context.Background(), "milk")
	if err != nil || got == nil || got.ID != 1 {
		t.Fatalf("expected name hit, got %+v err=%v", got, err)
	}
	if remote.calls != 0 {
		t.Fatal("remote lookup should not run on a name hit")
	}
}

func TestResolveRemoteHitUpsertsBeforeReturning(t *testing.T) {
	index := &stubIndex{}
	remote := &stubRemote{product: &posapi.Product{ID: 7, Name: "Juice", SellingPrice: 4.5, StockQuantity: 3}}
	r := newResolver(t, index, remote)

	got, err := r.Resolve(context.Background(), "777")
	if err != nil || got == nil || got.ID != 7 {
		t.Fatalf("expected remote hit, got %+v err=%v", got, err)
	}
	if len(index.upserted) != 1 || index.upserted[0].ID != 7 {
		t.Fatalf("remote result was not merged into the cache: %+v", index.upserted)
	}
}

func TestResolveMissIsNotAnError(t *testing.T) {
	r := newResolver(t, &stubIndex{}, &stubRemote{})

	got, err := r.Resolve(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("miss should not be an error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil product on miss, got %+v", got)
	}
}

func TestResolveSurfacesTransportErrors(t *testing.T) {
	remote := &stubRemote{err: pkgerrors.New(pkgerrors.CodeDependency, "backend down")}
	r := newResolver(t, &stubIndex{}, remote)

	_, err := r.Resolve(context.Background(), "111")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestResolveEmptyTokenIsMiss(t *testing.T) {
	remote := &stubRemote{}
	r := newResolver(t, &stubIndex{}, remote)

	got, err := r.Resolve(context.Background(), "   ")
	if got != nil || err != nil {
		t.Fatalf("blank token should be a silent miss, got %+v err=%v", got, err)
	}
	if remote.calls != 0 {
		t.Fatal("blank token should not reach the backend")
	}
}

func TestResolveRemoteRecordWithInvalidPriceIsMiss(t *testing.T) {
	index := &stubIndex{}
	remote := &stubRemote{product: &posapi.Product{ID: 8, Name: "Broken", SellingPrice: 0}}
	r := newResolver(t, index, remote)

	got, err := r.Resolve(context.Background(), "888")
	if got != nil || err != nil {
		t.Fatalf("invalid remote record should be a miss, got %+v err=%v", got, err)
	}
	if len(index.upserted) != 0 {
		t.Fatal("invalid record must not be merged into the cache")
	}
}
