package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/donacije/internal/auth"
	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/imaging"
	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/service"
	"github.com/erazemk/donacije/internal/store"
)

const testPassword = "password123"

type testServer struct {
	*httptest.Server
	st     *db.Store
	tokens *auth.Provider
}

func setupTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()
	st := db.NewTestStore(t)
	tokens := auth.NewProvider("test-secret", 30*time.Minute)
	if limiter == nil {
		limiter = NewRateLimiter(1000, 1000)
	}

	router := NewRouter(Options{
		Store:        st,
		Services:     service.New(st, imaging.DefaultOptions),
		Tokens:       tokens,
		LoginLimiter: limiter,
		MaxUpload:    imaging.DefaultOptions.MaxBytes + 1<<20,
	})
	server := httptest.NewServer(LoggingMiddleware(router))
	t.Cleanup(server.Close)

	ctx := context.Background()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range []struct{ name, role string }{
		{"staff", model.RoleStaff},
		{"donor", model.RoleDonor},
		{"client", model.RoleClient},
	} {
		_, err := store.CreateUser(ctx, st.DB, model.User{
			Username: u.name, FirstName: "F", LastName: "L", PasswordHash: hash, Role: u.role,
		})
		if err != nil {
			t.Fatalf("creating %s: %v", u.name, err)
		}
	}
	for _, sub := range []string{"Lamp", "Chair"} {
		if err := store.CreateCategory(ctx, st.DB, model.Category{MainCategory: "Furniture", SubCategory: sub}); err != nil {
			t.Fatal(err)
		}
	}

	return &testServer{Server: server, st: st, tokens: tokens}
}

func (s *testServer) token(t *testing.T, username, role string) string {
	t.Helper()
	token, _, err := s.tokens.Issue(username, role)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return token
}

// do sends a JSON request and returns the response. Body may be nil, a
// string sent verbatim, or a value to marshal.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestLoginLogout(t *testing.T) {
	s := setupTestServer(t, nil)

	resp := s.do(t, "POST", "/api/auth/login", "", map[string]string{"username": "staff", "password": "wrong"})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = s.do(t, "POST", "/api/auth/login", "", map[string]string{"username": "nobody", "password": testPassword})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = s.do(t, "POST", "/api/auth/login", "", map[string]string{"username": "staff", "password": testPassword})
	expectStatus(t, resp, http.StatusOK)
	login := decode[loginResponse](t, resp)
	if login.Token == "" || login.Role != model.RoleStaff {
		t.Fatalf("unexpected login response: %+v", login)
	}

	resp = s.do(t, "GET", "/api/auth/validate", login.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	if session := decode[sessionResponse](t, resp); session.Username != "staff" {
		t.Errorf("expected session for staff, got %+v", session)
	}

	resp = s.do(t, "POST", "/api/auth/logout", login.Token, nil)
	expectStatus(t, resp, http.StatusOK)

	resp = s.do(t, "GET", "/api/auth/validate", login.Token, nil)
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestRegister(t *testing.T) {
	s := setupTestServer(t, nil)

	req := map[string]string{
		"username":   "newclient",
		"password":   "long enough",
		"first_name": "Nika",
		"last_name":  "Zupan",
		"role":       model.RoleClient,
	}
	resp := s.do(t, "POST", "/api/auth/register", "", req)
	expectStatus(t, resp, http.StatusCreated)
	user := decode[model.User](t, resp)
	if user.Username != "newclient" || user.Role != model.RoleClient {
		t.Errorf("unexpected user: %+v", user)
	}

	resp = s.do(t, "POST", "/api/auth/register", "", req)
	expectStatus(t, resp, http.StatusConflict)

	req["username"] = "other"
	req["role"] = "admin"
	resp = s.do(t, "POST", "/api/auth/register", "", req)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = s.do(t, "POST", "/api/auth/register", "", `{"username":"x","extra":true}`)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestUnauthenticatedAccess(t *testing.T) {
	s := setupTestServer(t, nil)

	for _, path := range []string{"/api/orders", "/api/me", "/api/rooms", "/api/items/1"} {
		resp := s.do(t, "GET", path, "", nil)
		expectStatus(t, resp, http.StatusUnauthorized)
	}

	resp := s.do(t, "GET", "/api/orders", "not-a-token", nil)
	expectStatus(t, resp, http.StatusUnauthorized)

	// Browsing is public.
	resp = s.do(t, "GET", "/api/categories", "", nil)
	expectStatus(t, resp, http.StatusOK)
	resp = s.do(t, "GET", "/api/items/available?main=Furniture&sub=Lamp", "", nil)
	expectStatus(t, resp, http.StatusOK)
}

func TestRoleEnforcement(t *testing.T) {
	s := setupTestServer(t, nil)
	client := s.token(t, "client", model.RoleClient)

	resp := s.do(t, "POST", "/api/donations", client, map[string]any{
		"donor": "donor",
		"item":  map[string]any{"description": "Lamp", "main_category": "Furniture", "sub_category": "Lamp"},
	})
	expectStatus(t, resp, http.StatusForbidden)

	resp = s.do(t, "POST", "/api/orders", client, map[string]string{"client": "client"})
	expectStatus(t, resp, http.StatusForbidden)

	resp = s.do(t, "POST", "/api/locations", client, map[string]any{"room_num": 1, "shelf_num": 1})
	expectStatus(t, resp, http.StatusForbidden)

	// A token claiming staff is not enough; the stored role decides.
	forged := s.token(t, "client", model.RoleStaff)
	resp = s.do(t, "POST", "/api/orders", forged, map[string]string{"client": "client"})
	expectStatus(t, resp, http.StatusForbidden)
}

func TestDonationAndOrderFlow(t *testing.T) {
	s := setupTestServer(t, nil)
	staff := s.token(t, "staff", model.RoleStaff)

	resp := s.do(t, "POST", "/api/locations", staff, map[string]any{"room_num": 1, "shelf_num": 2, "description": "left wall"})
	expectStatus(t, resp, http.StatusCreated)

	resp = s.do(t, "POST", "/api/donations", staff, map[string]any{
		"donor": "donor",
		"item":  map[string]any{"description": "Lamp", "color": "green", "main_category": "Furniture", "sub_category": "Lamp"},
		"pieces": []map[string]any{
			{"piece_num": 1, "description": "shade", "length": 20, "width": 20, "height": 15, "room_num": 1, "shelf_num": 2},
			{"piece_num": 2, "description": "base", "length": 10, "width": 10, "height": 40, "room_num": 5, "shelf_num": 5},
		},
	})
	expectStatus(t, resp, http.StatusCreated)
	itemID := decode[map[string]int64](t, resp)["item_id"]

	resp = s.do(t, "GET", fmt.Sprintf("/api/items/%d", itemID), staff, nil)
	expectStatus(t, resp, http.StatusOK)
	detail := decode[model.ItemDetail](t, resp)
	if detail.Description != "Lamp" || len(detail.Pieces) != 2 {
		t.Fatalf("unexpected item: %+v", detail)
	}

	resp = s.do(t, "GET", "/api/donors/donor/donations", staff, nil)
	expectStatus(t, resp, http.StatusOK)
	if donations := decode[[]model.Donation](t, resp); len(donations) != 1 {
		t.Errorf("expected 1 donation, got %d", len(donations))
	}

	resp = s.do(t, "POST", "/api/orders", staff, map[string]string{"client": "client", "notes": "urgent"})
	expectStatus(t, resp, http.StatusCreated)
	first := decode[map[string]int64](t, resp)["order_id"]

	resp = s.do(t, "POST", "/api/orders", staff, map[string]string{"client": "client"})
	expectStatus(t, resp, http.StatusCreated)
	second := decode[map[string]int64](t, resp)["order_id"]

	resp = s.do(t, "POST", fmt.Sprintf("/api/orders/%d/items", first), staff, map[string]int64{"item_id": itemID})
	expectStatus(t, resp, http.StatusCreated)

	resp = s.do(t, "POST", fmt.Sprintf("/api/orders/%d/items", second), staff, map[string]int64{"item_id": itemID})
	expectStatus(t, resp, http.StatusConflict)

	resp = s.do(t, "GET", "/api/items/available?main=Furniture&sub=Lamp", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if items := decode[[]model.ItemSummary](t, resp); len(items) != 0 {
		t.Errorf("expected no available lamps, got %+v", items)
	}

	resp = s.do(t, "PUT", fmt.Sprintf("/api/orders/%d/items/%d/found", first, itemID), staff, map[string]bool{"found": true})
	expectStatus(t, resp, http.StatusOK)

	resp = s.do(t, "GET", fmt.Sprintf("/api/orders/%d", first), staff, nil)
	expectStatus(t, resp, http.StatusOK)
	order := decode[model.OrderDetail](t, resp)
	if len(order.Items) != 1 || !order.Items[0].Found || len(order.Items[0].Pieces) != 2 {
		t.Fatalf("unexpected order: %+v", order)
	}
	shade, base := order.Items[0].Pieces[0], order.Items[0].Pieces[1]
	if shade.ShelfDescription == nil || *shade.ShelfDescription != "left wall" {
		t.Errorf("expected shade location, got %+v", shade)
	}
	if base.RoomNum != nil {
		t.Errorf("expected base without location, got %+v", base)
	}

	resp = s.do(t, "POST", fmt.Sprintf("/api/orders/%d/close", first), staff, nil)
	expectStatus(t, resp, http.StatusOK)
	resp = s.do(t, "POST", fmt.Sprintf("/api/orders/%d/close", first), staff, nil)
	expectStatus(t, resp, http.StatusConflict)

	resp = s.do(t, "GET", "/api/orders?status=closed", staff, nil)
	expectStatus(t, resp, http.StatusOK)
	if orders := decode[[]model.Order](t, resp); len(orders) != 1 || orders[0].ID != first {
		t.Errorf("expected closed order %d, got %+v", first, orders)
	}
}

func TestDonationRejectsMalformedPieces(t *testing.T) {
	s := setupTestServer(t, nil)
	staff := s.token(t, "staff", model.RoleStaff)

	bodies := []string{
		`{"donor":"donor","item":{"description":"Lamp","main_category":"Furniture","sub_category":"Lamp"},"pieces":[{"piece_num":1,"description":"x","length":1,"width":1,"height":1,"room_num":1,"shelf_num":1,"exec":"rm -rf /"}]}`,
		`{"donor":"donor","item":{"description":"Lamp","main_category":"Furniture","sub_category":"Lamp"},"pieces":[{"piece_num":1,"description":"x","length":1,"width":1,"room_num":1,"shelf_num":1}]}`,
		`{"donor":"donor","item":{"description":"Lamp","main_category":"Furniture","sub_category":"Lamp"},"pieces":"[{'piece_num': 1}]"}`,
		`{"donor":"donor","item":{"description":"Lamp","main_category":"Furniture","sub_category":"Lamp"}} {}`,
	}
	for i, body := range bodies {
		resp := s.do(t, "POST", "/api/donations", staff, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %d: expected 400, got %d", i, resp.StatusCode)
		}
	}

	var n int
	if err := s.st.DB.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected no items stored, got %d", n)
	}
}

func TestItemImageUpload(t *testing.T) {
	s := setupTestServer(t, nil)
	staff := s.token(t, "staff", model.RoleStaff)

	resp := s.do(t, "POST", "/api/donations", staff, map[string]any{
		"donor": "donor",
		"item":  map[string]any{"description": "Chair", "main_category": "Furniture", "sub_category": "Chair"},
	})
	expectStatus(t, resp, http.StatusCreated)
	itemID := decode[map[string]int64](t, resp)["item_id"]

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("image", "chair.png")
	part.Write(img.Bytes())
	mw.Close()

	req, _ := http.NewRequest("PUT", fmt.Sprintf("%s/api/items/%d/image", s.URL, itemID), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+staff)
	upload, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer upload.Body.Close()
	expectStatus(t, upload, http.StatusOK)

	resp = s.do(t, "GET", fmt.Sprintf("/api/items/%d/image", itemID), staff, nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}
}

func TestLoginRateLimited(t *testing.T) {
	s := setupTestServer(t, NewRateLimiter(0.001, 2))

	creds := map[string]string{"username": "staff", "password": "wrong"}
	for range 2 {
		resp := s.do(t, "POST", "/api/auth/login", "", creds)
		expectStatus(t, resp, http.StatusUnauthorized)
	}
	resp := s.do(t, "POST", "/api/auth/login", "", creds)
	expectStatus(t, resp, http.StatusTooManyRequests)
}

func TestOperationalEndpoints(t *testing.T) {
	s := setupTestServer(t, nil)

	resp := s.do(t, "GET", "/healthz", "", nil)
	expectStatus(t, resp, http.StatusOK)

	// Runs a store transaction for the token revocation check.
	resp = s.do(t, "GET", "/api/me", s.token(t, "donor", model.RoleDonor), nil)
	expectStatus(t, resp, http.StatusOK)
	if id := resp.Header.Get("X-Request-ID"); id == "" {
		t.Error("expected X-Request-ID header")
	}

	resp = s.do(t, "GET", "/metrics", "", nil)
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "donacije_http_requests_total") {
		t.Error("expected HTTP request metrics")
	}
	if !strings.Contains(string(body), "donacije_store_transactions_total") {
		t.Error("expected store transaction metrics")
	}
}

func TestWriteErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", model.ErrValidation), http.StatusBadRequest},
		{model.ErrAuthentication, http.StatusUnauthorized},
		{fmt.Errorf("%w: no", model.ErrAuthorization), http.StatusForbidden},
		{model.ErrNotFound, http.StatusNotFound},
		{model.ErrConflict, http.StatusConflict},
		{model.ErrResourceExhausted, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: disk I/O", model.ErrStorage), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, httptest.NewRequest("GET", "/", nil), tt.err)
		if rec.Code != tt.want {
			t.Errorf("writeError(%v) = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest("GET", "/", nil), fmt.Errorf("%w: secret table name", model.ErrStorage))
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("storage error details leaked to client")
	}
}
