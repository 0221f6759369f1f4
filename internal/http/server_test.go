package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	ports "shopledger/internal/gateway"
	"shopledger/internal/gateway/memory"
	"shopledger/internal/log"
	"shopledger/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(log.DefaultConfig())
	sessions := session.NewManager(memory.NewSeeded(), time.Hour, logger)
	return NewServer(":0", sessions, nil, logger)
}

// login performs the form login and returns the session cookie.
func login(t *testing.T, srv *Server, email, password string) *http.Cookie {
	t.Helper()
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, body: %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func get(srv *Server, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func post(srv *Server, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := get(srv, path, nil); rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestAnonymousRedirectedToLogin(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/", "/products", "/transactions", "/debts", "/users"} {
		rec := get(srv, path, nil)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("%s status = %d, want redirect", path, rec.Code)
			continue
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("%s redirects to %s", path, loc)
		}
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv := newTestServer(t)
	form := url.Values{"email": {"alice@shop.local"}, "password": {"nope"}}
	rec := post(srv, "/login", form, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Error("error message not shown")
	}
}

func TestUserBlockedFromAdminPages(t *testing.T) {
	srv := newTestServer(t)
	cookie := login(t, srv, "alice@shop.local", "alice")

	for _, path := range []string{"/debts", "/debt-list", "/users"} {
		rec := get(srv, path, cookie)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s status = %d, want 403", path, rec.Code)
			continue
		}
		if !strings.Contains(rec.Body.String(), "Not permitted") {
			t.Errorf("%s does not render the blocking page", path)
		}
	}
}

func TestAdminSeesDebtPages(t *testing.T) {
	srv := newTestServer(t)
	cookie := login(t, srv, "admin@shop.local", "admin")

	rec := get(srv, "/debts", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("/debts status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"alice", "bob"} {
		if !strings.Contains(body, name) {
			t.Errorf("debts page missing user %s", name)
		}
	}

	rec = get(srv, "/debt-list", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("/debt-list status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Outstanding total") {
		t.Error("summary footer missing")
	}
}

func TestDebtSaveRequiresConfirmation(t *testing.T) {
	srv := newTestServer(t)
	cookie := login(t, srv, "admin@shop.local", "admin")

	// Load the debts page so the snapshot exists, then find alice's id.
	if rec := get(srv, "/debts", cookie); rec.Code != http.StatusOK {
		t.Fatalf("/debts status = %d", rec.Code)
	}
	sess, _ := srv.sessions.FromRequest(requestWithCookie(cookie))
	ws := srv.workspace(sess)
	var aliceID string
	for _, u := range ws.Debts.Users() {
		if u.Username == "alice" {
			aliceID = u.ID
		}
	}
	if aliceID == "" {
		t.Fatal("alice not in snapshot")
	}

	// Unconfirmed save renders the confirmation page, sends nothing.
	form := url.Values{"user": {aliceID}, "amount": {"250000"}}
	rec := post(srv, "/debts/save", form, cookie)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Please confirm") {
		t.Fatalf("expected confirmation page, status %d", rec.Code)
	}
	if u, _ := ws.Debts.User(aliceID); u.DebtAmount.Amount != 0 {
		t.Fatal("unconfirmed save changed the debt")
	}

	// Confirmed save goes through and the refetched snapshot shows it.
	form.Set("confirmed", "true")
	rec = post(srv, "/debts/save", form, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("confirmed save status = %d", rec.Code)
	}
	if u, _ := ws.Debts.User(aliceID); u.DebtAmount.Amount != 250000 {
		t.Errorf("debt after confirmed save = %d, want 250000", u.DebtAmount.Amount)
	}
}

func TestInvalidDebtInputShowsErrorWithoutRequest(t *testing.T) {
	srv := newTestServer(t)
	cookie := login(t, srv, "admin@shop.local", "admin")
	if rec := get(srv, "/debts", cookie); rec.Code != http.StatusOK {
		t.Fatalf("/debts status = %d", rec.Code)
	}
	sess, _ := srv.sessions.FromRequest(requestWithCookie(cookie))
	ws := srv.workspace(sess)
	users := ws.Debts.Users()
	if len(users) == 0 {
		t.Fatal("empty snapshot")
	}
	target := users[1]

	form := url.Values{"user": {target.ID}, "amount": {"not-a-number"}, "confirmed": {"true"}}
	if rec := post(srv, "/debts/save", form, cookie); rec.Code != http.StatusSeeOther {
		t.Fatalf("save status = %d", rec.Code)
	}
	// The row returned to viewing with an error; the amount is untouched.
	if row := ws.Edits.Row(target.ID); row.Err == "" {
		t.Error("validation error not surfaced on the row")
	}
	if u, _ := ws.Debts.User(target.ID); u.DebtAmount.Amount != target.DebtAmount.Amount {
		t.Error("invalid input changed the debt")
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	srv := newTestServer(t)
	cookie := login(t, srv, "alice@shop.local", "alice")

	rec := post(srv, "/logout", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec = get(srv, "/products", cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Error("session usable after logout")
	}
}

func TestCartFlow(t *testing.T) {
	srv := newTestServer(t)
	cookie := login(t, srv, "alice@shop.local", "alice")
	sess, _ := srv.sessions.FromRequest(requestWithCookie(cookie))
	ws := srv.workspace(sess)

	page := get(srv, "/products", cookie)
	if page.Code != http.StatusOK {
		t.Fatalf("/products status = %d", page.Code)
	}

	// Grab a product id straight from the backend to post with.
	prods, err := sess.Backend.Products(requestWithCookie(cookie).Context(), ports.ProductQuery{})
	if err != nil || len(prods.Products) == 0 {
		t.Fatalf("products: %v", err)
	}
	tea := prods.Products[0]

	if rec := post(srv, "/cart/add", url.Values{"product": {tea.ID}}, cookie); rec.Code != http.StatusSeeOther {
		t.Fatalf("cart add status = %d", rec.Code)
	}
	if ws.Cart.Len() != 1 {
		t.Fatalf("cart len = %d", ws.Cart.Len())
	}

	if rec := post(srv, "/cart/checkout", url.Values{}, cookie); rec.Code != http.StatusSeeOther {
		t.Fatalf("checkout status = %d", rec.Code)
	}
	if ws.Cart.Len() != 0 {
		t.Error("cart not emptied by checkout")
	}
}

func requestWithCookie(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	return req
}

func TestStaticAssetsServed(t *testing.T) {
	srv := newTestServer(t)
	rec := get(srv, "/static/styles.css", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("static status = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "max-age") {
		t.Errorf("cache header = %q", cc)
	}
	if body, _ := io.ReadAll(rec.Result().Body); len(body) == 0 {
		t.Error("empty stylesheet")
	}
}
