package store

import (
	"context"
	"database/sql"
	"fmt"

	"order-tracker/internal/models"
)

// CreateOrder inserts an order and its line items in one transaction.
// The storage-assigned id and timestamps are written back into order.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (short_id, name, email, phone, type, address, notes,
			status, item_count, subtotal, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		order.ShortID, order.Name, order.Email, order.Phone, order.Type,
		order.Address, order.Notes, order.Status, order.ItemCount,
		order.Subtotal, order.Total,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, category, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowxContext(ctx, itemQuery,
			items[i].OrderID, items[i].ProductID, items[i].Name,
			items[i].UnitPrice, items[i].Quantity, items[i].Category,
			items[i].Subtotal,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByShortID retrieves an order by its short id.
func (s *Store) GetOrderByShortID(ctx context.Context, shortID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE short_id = $1", shortID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItems retrieves all line items for an order.
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// ListOrders retrieves all orders, newest first. Used for the admin board
// snapshot.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC")
	return orders, err
}

// ApplyTransition sets the order's status in a single update keyed by
// short id. When the target status carries a stage timestamp, the column is
// set with COALESCE so it is written exactly once and never cleared by a
// later transition. Returns the updated order, or ErrNotFound.
func (s *Store) ApplyTransition(ctx context.Context, shortID string, status models.Status) (*models.Order, error) {
	query := "UPDATE orders SET status = $1, updated_at = NOW()"
	if col := status.StageColumn(); col != "" {
		query += fmt.Sprintf(", %s = COALESCE(%s, NOW())", col, col)
	}
	query += " WHERE short_id = $2 RETURNING *"

	var order models.Order
	err := s.db.GetContext(ctx, &order, query, status, shortID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}
	return &order, nil
}
