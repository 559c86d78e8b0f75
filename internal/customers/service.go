// Package customers exposes the loyalty customer list for optional
// attachment to a sale.
package customers

import (
	"context"
	"fmt"

	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
	"github.com/oaramirez/grocerpos/pkg/logger"
	"github.com/oaramirez/grocerpos/pkg/posapi"
)

// Customer is the reference attached to a checkout. At most one per sale.
type Customer struct {
	ID            int64
	Name          string
	LoyaltyPoints int
}

type customerLister interface {
	ListCustomers(ctx context.Context) ([]posapi.Customer, error)
}

// Service reads customers from the backend.
type Service struct {
	api    customerLister
	logger *logger.Logger
}

// NewService builds the customer service.
func NewService(api customerLister, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("customer lister required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{api: api, logger: logg}, nil
}

// List fetches the current customer list.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	records, err := s.api.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	customers := make([]Customer, 0, len(records))
	for _, record := range records {
		customers = append(customers, Customer{
			ID:            record.ID,
			Name:          record.Name,
			LoyaltyPoints: record.LoyaltyPoints,
		})
	}
	return customers, nil
}

// Get returns one customer by id or NOT_FOUND.
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	customers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		if customers[i].ID == id {
			return &customers[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("customer %d not found", id))
}
