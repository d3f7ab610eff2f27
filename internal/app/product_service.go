package app

import (
	"context"
	"time"

	"github.com/cimillas/ticket-office/internal/clock"
	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product domain.Product) error
	UpdateProduct(ctx context.Context, product domain.Product) error
	DeleteProductByKey(ctx context.Context, key string) error
	GetProductByKey(ctx context.Context, key string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// ProductService is the admin surface for sellable products. Mutations are
// published to webhook subscribers.
type ProductService struct {
	repo     ProductRepository
	webhooks *WebhookService
	clock    clock.Clock
}

func NewProductService(repo ProductRepository, webhooks *WebhookService, clk clock.Clock) *ProductService {
	return &ProductService{
		repo:     repo,
		webhooks: webhooks,
		clock:    clk,
	}
}

type ProductInput struct {
	Title              string
	Group              string
	Cost               decimal.Decimal
	VATRate            domain.VATRate
	MaxSold            *int
	MaxSoldPerCustomer *int
	SellStart          time.Time
	SellEnd            time.Time
}

func (in ProductInput) validate() error {
	if in.Title == "" || in.Group == "" {
		return domain.ErrInvalidID
	}
	if !in.VATRate.Valid() {
		return domain.ErrInvalidID
	}
	if in.Cost.IsNegative() {
		return domain.ErrInvalidID
	}
	if !in.SellEnd.After(in.SellStart) {
		return domain.ErrInvalidID
	}
	if in.MaxSold != nil && *in.MaxSold < 0 {
		return domain.ErrInvalidQuantity
	}
	if in.MaxSoldPerCustomer != nil && *in.MaxSoldPerCustomer < 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		ID:                 uuid.NewString(),
		Key:                uuid.NewString(),
		Title:              in.Title,
		Group:              in.Group,
		Cost:               in.Cost.Round(2),
		VATRate:            in.VATRate,
		MaxSold:            in.MaxSold,
		MaxSoldPerCustomer: in.MaxSoldPerCustomer,
		SellStart:          in.SellStart,
		SellEnd:            in.SellEnd,
		CreatedAt:          s.clock.Now(),
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}

	s.webhooks.Publish(ctx, domain.TriggerProductCreateUpdate, product)
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, key string, in ProductInput) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}

	product, err := s.repo.GetProductByKey(ctx, key)
	if err != nil {
		return domain.Product{}, err
	}

	product.Title = in.Title
	product.Group = in.Group
	product.Cost = in.Cost.Round(2)
	product.VATRate = in.VATRate
	product.MaxSold = in.MaxSold
	product.MaxSoldPerCustomer = in.MaxSoldPerCustomer
	product.SellStart = in.SellStart
	product.SellEnd = in.SellEnd

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}

	s.webhooks.Publish(ctx, domain.TriggerProductCreateUpdate, product)
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, key string) error {
	product, err := s.repo.GetProductByKey(ctx, key)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProductByKey(ctx, key); err != nil {
		return err
	}

	s.webhooks.Publish(ctx, domain.TriggerProductDelete, product)
	return nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *ProductService) GetProduct(ctx context.Context, key string) (domain.Product, error) {
	return s.repo.GetProductByKey(ctx, key)
}
