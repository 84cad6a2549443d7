package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/imaging"
	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/store"
)

type fixture struct {
	*Services
	st *db.Store
}

// newFixture returns services over a fresh database holding staff "s1",
// donor "d1", client "c1" and the Furniture/Lamp and Furniture/Chair
// categories.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := db.NewTestStore(t)
	f := &fixture{Services: New(st, imaging.DefaultOptions), st: st}

	f.user(t, "s1", model.RoleStaff)
	f.user(t, "d1", model.RoleDonor)
	f.user(t, "c1", model.RoleClient)
	f.category(t, "Furniture", "Lamp")
	f.category(t, "Furniture", "Chair")
	return f
}

func (f *fixture) user(t *testing.T, username, role string) {
	t.Helper()
	_, err := store.CreateUser(context.Background(), f.st.DB, model.User{
		Username: username, FirstName: "F", LastName: "L", PasswordHash: "x", Role: role,
	})
	require.NoError(t, err)
}

func (f *fixture) category(t *testing.T, main, sub string) {
	t.Helper()
	err := store.CreateCategory(context.Background(), f.st.DB, model.Category{MainCategory: main, SubCategory: sub})
	require.NoError(t, err)
}

// donate accepts a piece-less donation from d1 in the given subcategory.
func (f *fixture) donate(t *testing.T, description, sub string) int64 {
	t.Helper()
	id, err := f.Intake.AcceptDonation(context.Background(), "s1", "d1", model.ItemInput{
		Description: description, MainCategory: "Furniture", SubCategory: sub,
	}, nil)
	require.NoError(t, err)
	return id
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.st.DB.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func ptr[T any](v T) *T { return &v }

func TestToday(t *testing.T) {
	now := func() time.Time {
		return time.Date(2026, 5, 4, 23, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	}
	require.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), today(now))
}
