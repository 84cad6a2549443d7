package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/store"
)

// Fulfilment manages client orders and the items pulled for them.
type Fulfilment struct {
	store *db.Store
	now   func() time.Time
}

// StartOrder opens a new order supervised by staff on behalf of client.
func (f *Fulfilment) StartOrder(ctx context.Context, staff, client, notes string) (int64, error) {
	var orderID int64
	err := f.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.RequireRole(ctx, tx, staff, model.RoleStaff); err != nil {
			return err
		}

		err := store.RequireRole(ctx, tx, client, model.RoleClient)
		if errors.Is(err, model.ErrAuthorization) {
			return fmt.Errorf("%w: %q is not a registered client", model.ErrValidation, client)
		}
		if err != nil {
			return err
		}

		orderID, err = store.CreateOrder(ctx, tx, staff, client, notes, today(f.now))
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.Info("order started", "order", orderID, "client", client, "staff", staff)
	return orderID, nil
}

// AddItemToOrder pulls an available item for an open order. An item that has
// ever been assigned to an order is not available again.
func (f *Fulfilment) AddItemToOrder(ctx context.Context, staff string, orderID, itemID int64) error {
	err := f.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.RequireRole(ctx, tx, staff, model.RoleStaff); err != nil {
			return err
		}
		if _, err := openOrder(ctx, tx, orderID); err != nil {
			return err
		}
		if _, err := store.GetItem(ctx, tx, itemID); err != nil {
			return err
		}

		assigned, err := store.IsItemAssigned(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if assigned {
			return fmt.Errorf("%w: item %d already assigned", model.ErrConflict, itemID)
		}
		return store.AssignItem(ctx, tx, itemID, orderID)
	})
	if err != nil {
		return err
	}

	slog.Info("item added to order", "order", orderID, "item", itemID, "staff", staff)
	return nil
}

// RemoveItemFromOrder takes an item off an open order, making it available
// again.
func (f *Fulfilment) RemoveItemFromOrder(ctx context.Context, staff string, orderID, itemID int64) error {
	return f.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.RequireRole(ctx, tx, staff, model.RoleStaff); err != nil {
			return err
		}
		if _, err := openOrder(ctx, tx, orderID); err != nil {
			return err
		}
		return store.UnassignItem(ctx, tx, itemID, orderID)
	})
}

// MarkItemFound records whether an item on an open order has been located in
// storage.
func (f *Fulfilment) MarkItemFound(ctx context.Context, staff string, orderID, itemID int64, found bool) error {
	return f.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.RequireRole(ctx, tx, staff, model.RoleStaff); err != nil {
			return err
		}
		if _, err := openOrder(ctx, tx, orderID); err != nil {
			return err
		}
		return store.SetFound(ctx, tx, itemID, orderID, found)
	})
}

// CloseOrder marks an open order as closed. Its items stay assigned.
func (f *Fulfilment) CloseOrder(ctx context.Context, staff string, orderID int64) error {
	err := f.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.RequireRole(ctx, tx, staff, model.RoleStaff); err != nil {
			return err
		}
		if _, err := openOrder(ctx, tx, orderID); err != nil {
			return err
		}
		return store.SetOrderStatus(ctx, tx, orderID, model.OrderStatusClosed)
	})
	if err != nil {
		return err
	}

	slog.Info("order closed", "order", orderID, "staff", staff)
	return nil
}

// GetOrder returns an order with its items and their piece locations.
func (f *Fulfilment) GetOrder(ctx context.Context, orderID int64) (*model.OrderDetail, error) {
	var detail *model.OrderDetail
	err := f.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		detail, err = store.GetOrderDetail(ctx, tx, orderID)
		return err
	})
	return detail, err
}

// ListOrders returns the orders matching filter.
func (f *Fulfilment) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	switch filter.Status {
	case "", model.OrderStatusOpen, model.OrderStatusClosed:
	default:
		return nil, fmt.Errorf("%w: unknown order status %q", model.ErrValidation, filter.Status)
	}

	var orders []model.Order
	err := f.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		orders, err = store.ListOrders(ctx, tx, filter)
		return err
	})
	return orders, err
}

// openOrder loads an order and fails with model.ErrConflict unless it is open.
func openOrder(ctx context.Context, q db.Querier, orderID int64) (*model.Order, error) {
	order, err := store.GetOrder(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusOpen {
		return nil, fmt.Errorf("%w: order %d is %s", model.ErrConflict, orderID, order.Status)
	}
	return order, nil
}
