package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/smartswap/backend/internal/domain"
)

const productsTable = "products"

type productRow struct {
	ID           string                    `db:"id"`
	SKU          string                    `db:"sku"`
	Name         string                    `db:"name"`
	Category     string                    `db:"category"`
	Price        float64                   `db:"price"`
	RetailerID   string                    `db:"retailer_id"`
	Availability bool                      `db:"availability"`
	Attributes   JSONB[domain.Attributes] `db:"attributes"`
	Embedding    vector                    `db:"embedding"`
	CreatedAt    time.Time                 `db:"created_at"`
	UpdatedAt    time.Time                 `db:"updated_at"`
}

func fromProduct(p *domain.Product) *productRow {
	attrs := p.Attributes
	if attrs == nil {
		attrs = domain.Attributes{}
	}
	return &productRow{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Category:     p.Category,
		Price:        p.Price,
		RetailerID:   p.RetailerID,
		Availability: p.Availability,
		Attributes:   JSONB[domain.Attributes]{Data: attrs},
		Embedding:    vector(p.Embedding),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (r *productRow) toProduct() domain.Product {
	attrs := r.Attributes.Data
	if attrs == nil {
		attrs = domain.Attributes{}
	}
	return domain.Product{
		ID:           r.ID,
		SKU:          r.SKU,
		Name:         r.Name,
		Category:     r.Category,
		Price:        r.Price,
		RetailerID:   r.RetailerID,
		Availability: r.Availability,
		Attributes:   attrs,
		Embedding:    []float64(r.Embedding),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toProducts(rows []productRow) []domain.Product {
	products := make([]domain.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].toProduct()
	}
	return products
}

// ProductRepository implements domain.ProductRepository
type ProductRepository struct {
	db      *DB
	columns *sqlbuilder.Struct
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db, columns: db.newStruct(new(productRow))}
}

// Create inserts p, assigning an ID and timestamps
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	ts := now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = ts
	}
	p.UpdatedAt = ts

	query, args := r.columns.InsertInto(productsTable, fromProduct(p)).Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateSKU, p.SKU)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.db.logger.Debug().Str("id", p.ID).Str("sku", p.SKU).Msg("product created")
	return nil
}

func (r *ProductRepository) getBy(ctx context.Context, column, value string) (*domain.Product, error) {
	sb := r.columns.SelectFrom(productsTable)
	sb.Where(sb.Equal(column, value))
	query, args := sb.Build()

	var row productRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	p := row.toProduct()
	return &p, nil
}

// GetByID returns the product with id
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getBy(ctx, "id", id)
}

// GetBySKU returns the product with sku
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return r.getBy(ctx, "sku", sku)
}

// List returns a page of products in creation order
func (r *ProductRepository) List(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	return r.Query(ctx, domain.ProductFilter{Offset: offset, Limit: limit})
}

func applyProductFilter(sb *sqlbuilder.SelectBuilder, filter domain.ProductFilter) {
	if filter.ExcludeID != "" {
		sb.Where(sb.NotEqual("id", filter.ExcludeID))
	}
	if filter.AvailableOnly {
		sb.Where(sb.Equal("availability", true))
	}
	if filter.Categories != nil {
		if len(filter.Categories) == 0 {
			sb.Where("1 = 0")
		} else {
			sb.Where(sb.In("category", sqlbuilder.Flatten(filter.Categories)...))
		}
	}
	if filter.MinPrice != nil {
		sb.Where(sb.GreaterEqualThan("price", *filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		sb.Where(sb.LessEqualThan("price", *filter.MaxPrice))
	}
	if filter.HasEmbedding {
		sb.Where(sb.IsNotNull("embedding"))
	}
}

// Query returns products matching filter in creation order
func (r *ProductRepository) Query(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	sb := r.columns.SelectFrom(productsTable)
	applyProductFilter(sb, filter)
	sb.OrderBy("created_at", "id").Asc()
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
		if filter.Offset > 0 {
			sb.Offset(filter.Offset)
		}
	}
	query, args := sb.Build()

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return toProducts(rows), nil
}

// Count returns the number of products matching filter, ignoring paging
func (r *ProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int, error) {
	sb := r.db.newSelect()
	sb.Select("COUNT(*)").From(productsTable)
	applyProductFilter(sb, filter)
	query, args := sb.Build()

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// Update replaces every stored field of p
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = now()

	ub := r.columns.Update(productsTable, fromProduct(p))
	ub.Where(ub.Equal("id", p.ID))
	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateSKU, p.SKU)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return requireAffected(result, domain.ErrProductNotFound)
}

// UpdateEmbedding stores only the embedding of product id
func (r *ProductRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float64) error {
	ub := r.db.newUpdate()
	ub.Update(productsTable).Set(
		ub.Assign("embedding", vector(embedding)),
		ub.Assign("updated_at", now()),
	).Where(ub.Equal("id", id))
	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return requireAffected(result, domain.ErrProductNotFound)
}

// Delete removes product id
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, productsTable, id, domain.ErrProductNotFound)
}

func deleteByID(ctx context.Context, db *DB, table, id string, notFound error) error {
	del := db.flavor.NewDeleteBuilder()
	del.DeleteFrom(table).Where(del.Equal("id", id))
	query, args := del.Build()

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return requireAffected(result, notFound)
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
