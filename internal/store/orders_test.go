package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
)

func mustCreateOrder(t *testing.T, database *sql.DB, supervisor, client string) int64 {
	t.Helper()
	id, err := CreateOrder(context.Background(), database, supervisor, client, "", nowUTC())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return id
}

func seedOrderFixtures(t *testing.T) *sql.DB {
	t.Helper()
	database := db.NewTestDB(t)
	mustCreateCategory(t, database, "Furniture", "Table")
	mustCreateUser(t, database, "sue", model.RoleStaff)
	mustCreateUser(t, database, "cid", model.RoleClient)
	return database
}

func TestCreateAndGetOrder(t *testing.T) {
	database := seedOrderFixtures(t)
	ctx := context.Background()

	id, err := CreateOrder(ctx, database, "sue", "cid", "deliver friday", nowUTC())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	o, err := GetOrder(ctx, database, id)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if o.Supervisor != "sue" || o.Client != "cid" || o.Notes != "deliver friday" {
		t.Errorf("unexpected order: %+v", o)
	}
	if o.Status != model.OrderStatusOpen {
		t.Errorf("expected open order, got %q", o.Status)
	}

	if _, err := GetOrder(ctx, database, 99); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateOrderUnknownClient(t *testing.T) {
	database := seedOrderFixtures(t)

	_, err := CreateOrder(context.Background(), database, "sue", "ghost", "", nowUTC())
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAssignItemOnce(t *testing.T) {
	database := seedOrderFixtures(t)
	ctx := context.Background()

	item := mustCreateItem(t, database, "Table", "Furniture", "Table")
	first := mustCreateOrder(t, database, "sue", "cid")
	second := mustCreateOrder(t, database, "sue", "cid")

	if err := AssignItem(ctx, database, item, first); err != nil {
		t.Fatalf("AssignItem: %v", err)
	}
	if err := AssignItem(ctx, database, item, second); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict for second order, got %v", err)
	}
	if err := AssignItem(ctx, database, item, first); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict for same order, got %v", err)
	}

	a, err := GetAssignment(ctx, database, item)
	if err != nil {
		t.Fatalf("GetAssignment: %v", err)
	}
	if a.OrderID != first || a.Found {
		t.Errorf("unexpected assignment: %+v", a)
	}
}

func TestUnassignAndSetFound(t *testing.T) {
	database := seedOrderFixtures(t)
	ctx := context.Background()

	item := mustCreateItem(t, database, "Table", "Furniture", "Table")
	order := mustCreateOrder(t, database, "sue", "cid")

	if err := SetFound(ctx, database, item, order, true); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before assignment, got %v", err)
	}

	if err := AssignItem(ctx, database, item, order); err != nil {
		t.Fatalf("AssignItem: %v", err)
	}
	if err := SetFound(ctx, database, item, order, true); err != nil {
		t.Fatalf("SetFound: %v", err)
	}
	a, _ := GetAssignment(ctx, database, item)
	if !a.Found {
		t.Error("expected item to be marked found")
	}

	if err := UnassignItem(ctx, database, item, order); err != nil {
		t.Fatalf("UnassignItem: %v", err)
	}
	if err := UnassignItem(ctx, database, item, order); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for second unassign, got %v", err)
	}
	if _, err := GetAssignment(ctx, database, item); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound after unassign, got %v", err)
	}
}

func TestSetOrderStatusAndList(t *testing.T) {
	database := seedOrderFixtures(t)
	ctx := context.Background()
	mustCreateUser(t, database, "cora", model.RoleClient)

	first := mustCreateOrder(t, database, "sue", "cid")
	mustCreateOrder(t, database, "sue", "cora")

	if err := SetOrderStatus(ctx, database, first, model.OrderStatusClosed); err != nil {
		t.Fatalf("SetOrderStatus: %v", err)
	}
	if err := SetOrderStatus(ctx, database, 99, model.OrderStatusClosed); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	tests := []struct {
		name   string
		filter model.OrderFilter
		want   int
	}{
		{"all", model.OrderFilter{}, 2},
		{"by client", model.OrderFilter{Client: "cora"}, 1},
		{"by supervisor", model.OrderFilter{Supervisor: "sue"}, 2},
		{"closed", model.OrderFilter{Status: model.OrderStatusClosed}, 1},
		{"closed for cora", model.OrderFilter{Client: "cora", Status: model.OrderStatusClosed}, 0},
	}
	for _, tt := range tests {
		orders, err := ListOrders(ctx, database, tt.filter)
		if err != nil {
			t.Fatalf("%s: ListOrders: %v", tt.name, err)
		}
		if len(orders) != tt.want {
			t.Errorf("%s: expected %d orders, got %d", tt.name, tt.want, len(orders))
		}
	}
}

func TestGetOrderDetail(t *testing.T) {
	database := seedOrderFixtures(t)
	ctx := context.Background()

	if err := CreateLocation(ctx, database, model.Location{RoomNum: 1, ShelfNum: 1, Description: "by the door"}); err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}

	table := mustCreateItem(t, database, "Table", "Furniture", "Table")
	plain := mustCreateItem(t, database, "Stool", "Furniture", "Table")
	// Piece 2 sits on a shelf with no Location row.
	if err := AddPieces(ctx, database, table, []model.PieceInput{piece(1, 1, 1), piece(2, 7, 7)}); err != nil {
		t.Fatalf("AddPieces: %v", err)
	}

	order := mustCreateOrder(t, database, "sue", "cid")
	empty := mustCreateOrder(t, database, "sue", "cid")
	for _, id := range []int64{plain, table} {
		if err := AssignItem(ctx, database, id, order); err != nil {
			t.Fatalf("AssignItem: %v", err)
		}
	}

	detail, err := GetOrderDetail(ctx, database, order)
	if err != nil {
		t.Fatalf("GetOrderDetail: %v", err)
	}
	if len(detail.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(detail.Items))
	}
	if detail.Items[0].ItemID != table || detail.Items[1].ItemID != plain {
		t.Errorf("expected items ordered by id, got %d, %d", detail.Items[0].ItemID, detail.Items[1].ItemID)
	}

	pieces := detail.Items[0].Pieces
	if len(pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(pieces))
	}
	if pieces[0].ShelfDescription == nil || *pieces[0].ShelfDescription != "by the door" {
		t.Errorf("expected piece 1 location, got %+v", pieces[0])
	}
	if pieces[1].RoomNum != nil || pieces[1].ShelfDescription != nil {
		t.Errorf("expected piece 2 without location, got %+v", pieces[1])
	}
	if len(detail.Items[1].Pieces) != 0 {
		t.Errorf("expected item without pieces, got %+v", detail.Items[1].Pieces)
	}

	emptyDetail, err := GetOrderDetail(ctx, database, empty)
	if err != nil {
		t.Fatalf("GetOrderDetail: %v", err)
	}
	if emptyDetail.Items == nil || len(emptyDetail.Items) != 0 {
		t.Errorf("expected empty item list, got %#v", emptyDetail.Items)
	}

	if _, err := GetOrderDetail(ctx, database, 99); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
