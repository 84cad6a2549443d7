package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
)

const orderColumns = `id, order_date, notes, supervisor, client, status`

// CreateOrder inserts a new open order and returns its ID.
func CreateOrder(ctx context.Context, q db.Querier, supervisor, client, notes string, date time.Time) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO orders (order_date, notes, supervisor, client, status) VALUES (?, ?, ?, ?, ?)`,
		date.UTC(), nullString(notes), supervisor, client, model.OrderStatusOpen,
	)
	if db.IsForeignKeyViolation(err) {
		return 0, fmt.Errorf("%w: unknown supervisor or client", model.ErrValidation)
	}
	if err != nil {
		return 0, fmt.Errorf("creating order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting order id: %w", err)
	}
	return id, nil
}

// GetOrder returns an order header by ID.
func GetOrder(ctx context.Context, q db.Querier, id int64) (*model.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %d", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return o, nil
}

// ListOrders returns orders matching the filter, newest first.
func ListOrders(ctx context.Context, q db.Querier, f model.OrderFilter) ([]model.Order, error) {
	var where []string
	var args []any
	if f.Client != "" {
		where = append(where, "client = ?")
		args = append(args, f.Client)
	}
	if f.Supervisor != "" {
		where = append(where, "supervisor = ?")
		args = append(args, f.Supervisor)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// SetOrderStatus changes an order's status.
func SetOrderStatus(ctx context.Context, q db.Querier, id int64, status string) error {
	result, err := q.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("setting order status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: order %d", model.ErrNotFound, id)
	}
	return nil
}

// GetAssignment returns the assignment of an item, whichever order holds it.
func GetAssignment(ctx context.Context, q db.Querier, itemID int64) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := q.QueryRowContext(ctx,
		`SELECT item_id, order_id, found FROM item_assignments WHERE item_id = ?`, itemID,
	).Scan(&a.ItemID, &a.OrderID, &a.Found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %d is not assigned", model.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}
	return a, nil
}

// AssignItem records the item as pulled for the order. An item can be
// assigned only once; a second assignment is a conflict.
func AssignItem(ctx context.Context, q db.Querier, itemID, orderID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO item_assignments (item_id, order_id) VALUES (?, ?)`, itemID, orderID,
	)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: item %d is already assigned", model.ErrConflict, itemID)
	}
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: item %d or order %d", model.ErrNotFound, itemID, orderID)
	}
	if err != nil {
		return fmt.Errorf("assigning item: %w", err)
	}
	return nil
}

// UnassignItem removes the item from the order.
func UnassignItem(ctx context.Context, q db.Querier, itemID, orderID int64) error {
	result, err := q.ExecContext(ctx,
		`DELETE FROM item_assignments WHERE item_id = ? AND order_id = ?`, itemID, orderID,
	)
	if err != nil {
		return fmt.Errorf("unassigning item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: item %d is not on order %d", model.ErrNotFound, itemID, orderID)
	}
	return nil
}

// SetFound marks whether the item has been located in storage for the order.
func SetFound(ctx context.Context, q db.Querier, itemID, orderID int64, found bool) error {
	result, err := q.ExecContext(ctx,
		`UPDATE item_assignments SET found = ? WHERE item_id = ? AND order_id = ?`, found, itemID, orderID,
	)
	if err != nil {
		return fmt.Errorf("setting found: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: item %d is not on order %d", model.ErrNotFound, itemID, orderID)
	}
	return nil
}

// GetOrderDetail returns the order header, every assigned item ordered by
// item ID, and each item's pieces with their storage location. A piece whose
// room and shelf have no Location row is still returned, with nil location
// fields.
func GetOrderDetail(ctx context.Context, q db.Querier, id int64) (*model.OrderDetail, error) {
	order, err := GetOrder(ctx, q, id)
	if err != nil {
		return nil, err
	}
	detail := &model.OrderDetail{Order: *order, Items: []model.OrderItem{}}

	rows, err := q.QueryContext(ctx,
		`SELECT i.id, i.description, i.color, i.is_new, i.material, a.found,
		        p.piece_num, p.description, p.length, p.width, p.height,
		        l.room_num, l.shelf_num, l.description
		 FROM item_assignments a
		 JOIN items i ON i.id = a.item_id
		 LEFT JOIN pieces p ON p.item_id = i.id
		 LEFT JOIN locations l ON l.room_num = p.room_num AND l.shelf_num = p.shelf_num
		 WHERE a.order_id = ?
		 ORDER BY i.id, p.piece_num`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it              model.OrderItem
			color, material sql.NullString
			pieceNum        sql.NullInt64
			pieceDesc       sql.NullString
			length, width   sql.NullFloat64
			height          sql.NullFloat64
			room, shelf     sql.NullInt64
			shelfDesc       sql.NullString
		)
		if err := rows.Scan(&it.ItemID, &it.Description, &color, &it.IsNew, &material, &it.Found,
			&pieceNum, &pieceDesc, &length, &width, &height,
			&room, &shelf, &shelfDesc); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}

		n := len(detail.Items)
		if n == 0 || detail.Items[n-1].ItemID != it.ItemID {
			it.Color = color.String
			it.Material = material.String
			it.Pieces = []model.PieceLocation{}
			detail.Items = append(detail.Items, it)
			n++
		}
		if !pieceNum.Valid {
			continue
		}

		pl := model.PieceLocation{
			PieceNum:    int(pieceNum.Int64),
			Description: pieceDesc.String,
			Length:      length.Float64,
			Width:       width.Float64,
			Height:      height.Float64,
		}
		if room.Valid {
			r, s, d := int(room.Int64), int(shelf.Int64), shelfDesc.String
			pl.RoomNum, pl.ShelfNum, pl.ShelfDescription = &r, &s, &d
		}
		detail.Items[n-1].Pieces = append(detail.Items[n-1].Pieces, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading order items: %w", err)
	}
	return detail, nil
}

func scanOrder(row scanner) (*model.Order, error) {
	o := &model.Order{}
	var notes sql.NullString
	if err := row.Scan(&o.ID, &o.OrderDate, &notes, &o.Supervisor, &o.Client, &o.Status); err != nil {
		return nil, err
	}
	o.Notes = notes.String
	return o, nil
}
