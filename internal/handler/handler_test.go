package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/bookletify-api/internal/catalog"
	"github.com/iliyamo/bookletify-api/internal/config"
	"github.com/iliyamo/bookletify-api/internal/middleware"
	"github.com/iliyamo/bookletify-api/internal/model"
	"github.com/iliyamo/bookletify-api/internal/queue"
	"github.com/iliyamo/bookletify-api/internal/repository/memstore"
	"github.com/iliyamo/bookletify-api/internal/utils"
)

var testCfg = config.Config{
	JWTSecret:  "handler-secret",
	TokenTTL:   time.Hour,
	BcryptCost: bcrypt.MinCost,
}

// recordingPublisher keeps every audit event it is given.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AdminAuditEvent
}

func (p *recordingPublisher) PublishAdminAudit(_ context.Context, ev queue.AdminAuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// fakeCatalog answers from fixed data.
type fakeCatalog struct {
	releases []model.AlbumSummary
	album    model.AlbumDetail
	err      error
}

func (f fakeCatalog) Search(context.Context, string) ([]model.AlbumSummary, error) {
	return f.releases, f.err
}

func (f fakeCatalog) Album(_ context.Context, id int) (model.AlbumDetail, error) {
	if f.err != nil {
		return model.AlbumDetail{}, f.err
	}
	if id != f.album.MasterID {
		return model.AlbumDetail{}, catalog.ErrNotFound
	}
	return f.album, nil
}

type testServer struct {
	e     *echo.Echo
	store *memstore.Store
	audit *recordingPublisher
}

// newTestServer mounts every handler on the same paths the router uses,
// backed by an in-memory store.
func newTestServer(cat Catalog) *testServer {
	store := memstore.New()
	audit := &recordingPublisher{}
	e := echo.New()
	jwt := middleware.JWTAuth(testCfg.JWTSecret, store.Users())

	a := NewAuthHandler(testCfg, store.Users())
	e.POST("/auth/register", a.Register)
	e.POST("/auth/login", a.Login)
	e.GET("/auth/profile", a.Profile, jwt)

	cat2 := NewCatalogHandler(cat)
	e.GET("/discogs", cat2.Search)
	e.GET("/discogs/album", cat2.Album)

	r := NewReviewHandler(store.Reviews())
	e.POST("/reviews", r.Create, jwt)
	e.GET("/reviews/user", r.ListMine, jwt)
	e.GET("/reviews/:albumId", r.ListByAlbum)
	e.GET("/reviews/:id/rating", r.AverageRating)
	e.DELETE("/reviews/:id", r.Delete, jwt)

	f := NewFavoriteHandler(store.Favorites())
	e.POST("/favorites", f.Add, jwt)
	e.GET("/favorites", f.List, jwt)
	e.DELETE("/favorites/:albumId", f.Remove, jwt)

	ad := NewAdminHandler(store.Admin(), audit)
	admin := e.Group("/admin", jwt, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", ad.ListUsers)
	admin.PUT("/users/:id/role", ad.ChangeRole)
	admin.DELETE("/users/:id", ad.DeleteUser)
	admin.GET("/reviews", ad.ListReviews)

	return &testServer{e: e, store: store, audit: audit}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns its token.
func (s *testServer) register(t *testing.T, username string) (model.User, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/register", "",
		`{"username":"`+username+`","email":"`+username+`@x.com","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", username, rec.Code, rec.Body.String())
	}
	var out struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	decode(t, rec, &out)
	return out.User, out.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(fakeCatalog{})
	rec := s.do(t, http.MethodPost, "/auth/register", "",
		`{"username":"alice","email":"Alice@X.com","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if strings.Contains(body, "secret1") || strings.Contains(strings.ToLower(body), "password") {
		t.Fatalf("response leaks password material: %s", body)
	}
	var out struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	decode(t, rec, &out)
	if out.User.Role != model.RoleUser || out.User.Email != "alice@x.com" {
		t.Fatalf("user = %+v", out.User)
	}
	claims, err := utils.ParseSessionToken(testCfg.JWTSecret, out.Token)
	if err != nil || claims.UserID != out.User.ID {
		t.Fatalf("token claims = %+v, err %v", claims, err)
	}

	stored, err := s.store.Users().GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if stored.PasswordHash == "secret1" || !utils.VerifyPassword(stored.PasswordHash, "secret1") {
		t.Fatalf("password was not hashed: %q", stored.PasswordHash)
	}
}

func TestRegisterRejects(t *testing.T) {
	s := newTestServer(fakeCatalog{})
	s.register(t, "alice")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing email", `{"username":"bob","password":"secret1"}`, http.StatusBadRequest},
		{"bad email", `{"username":"bob","email":"not-an-email","password":"secret1"}`, http.StatusBadRequest},
		{"short password", `{"username":"bob","email":"bob@x.com","password":"12345"}`, http.StatusBadRequest},
		{"duplicate username", `{"username":"alice","email":"other@x.com","password":"secret1"}`, http.StatusConflict},
		{"duplicate email", `{"username":"alice2","email":"alice@x.com","password":"secret1"}`, http.StatusConflict},
		{"malformed json", `{"username":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/auth/register", "", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(fakeCatalog{})
	alice, _ := s.register(t, "alice")

	rec := s.do(t, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	decode(t, rec, &out)
	if out.User.ID != alice.ID || out.Token == "" {
		t.Fatalf("login response = %+v", out)
	}

	// Unknown user and wrong password must be indistinguishable.
	wrong := s.do(t, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"nope123"}`)
	unknown := s.do(t, http.MethodPost, "/auth/login", "", `{"username":"mallory","password":"secret1"}`)
	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("status wrong=%d unknown=%d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("login failures differ: %s vs %s", wrong.Body.String(), unknown.Body.String())
	}
}

func TestProfile(t *testing.T) {
	s := newTestServer(fakeCatalog{})
	alice, tok := s.register(t, "alice")

	rec := s.do(t, http.MethodGet, "/auth/profile", tok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		User model.User `json:"user"`
	}
	decode(t, rec, &out)
	if out.User.ID != alice.ID || out.User.Username != "alice" {
		t.Fatalf("profile = %+v", out.User)
	}

	if rec := s.do(t, http.MethodGet, "/auth/profile", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}
}

func TestReviewLifecycle(t *testing.T) {
	s := newTestServer(fakeCatalog{})
	_, alice := s.register(t, "alice")
	_, bob := s.register(t, "bob")

	for _, body := range []string{
		`{"albumId":"m1","comment":"bad","rating":0}`,
		`{"albumId":"m1","comment":"bad","rating":6}`,
		`{"albumId":"m1","comment":"bad"}`,
		`{"albumId":"","comment":"bad","rating":3}`,
	} {
		if rec := s.do(t, http.MethodPost, "/reviews", alice, body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", body, rec.Code)
		}
	}
	if list, _ := s.store.Reviews().ListByAlbum(context.Background(), "m1"); len(list) != 0 {
		t.Fatalf("invalid reviews were stored: %+v", list)
	}

	if rec := s.do(t, http.MethodGet, "/reviews/m1/rating", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("rating without reviews: %d", rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/reviews", alice, `{"albumId":"m1","comment":"great","rating":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created model.Review
	decode(t, rec, &created)
	if created.Rating != 5 || created.AlbumID != "m1" {
		t.Fatalf("created = %+v", created)
	}
	if rec := s.do(t, http.MethodPost, "/reviews", bob, `{"albumId":"m1","comment":"ok","rating":3}`); rec.Code != http.StatusCreated {
		t.Fatalf("bob create: %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/reviews/m1/rating", "", "")
	var avg map[string]string
	decode(t, rec, &avg)
	if avg["albumId"] != "m1" || avg["averageRating"] != "4.00" {
		t.Fatalf("rating = %v", avg)
	}

	rec = s.do(t, http.MethodGet, "/reviews/m1", "", "")
	var list []model.Review
	decode(t, rec, &list)
	if len(list) != 2 || list[0].Username != "bob" || list[1].Username != "alice" {
		t.Fatalf("album reviews = %+v", list)
	}

	rec = s.do(t, http.MethodGet, "/reviews/user", alice, "")
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("own reviews = %+v", list)
	}

	path := "/reviews/" + itoa(created.ID)
	if rec := s.do(t, http.MethodDelete, path, bob, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("non-owner delete: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, path, alice, ""); rec.Code != http.StatusOK {
		t.Fatalf("owner delete: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodDelete, path, alice, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, "/reviews/abc", alice, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/reviews", "", `{"albumId":"m1","comment":"x","rating":3}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: %d", rec.Code)
	}
}

func TestAverageRatingRoundsTiesUp(t *testing.T) {
	s := newTestServer(fakeCatalog{})
	_, tok := s.register(t, "alice")
	// 7 x 1 + 1 x 2 = 9 over 8 reviews, exactly 1.125.
	for i := 0; i < 8; i++ {
		rating := "1"
		if i == 7 {
			rating = "2"
		}
		rec := s.do(t, http.MethodPost, "/reviews", tok, `{"albumId":"m7","comment":"c","rating":`+rating+`}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d: %d %s", i, rec.Code, rec.Body.String())
		}
	}
	rec := s.do(t, http.MethodGet, "/reviews/m7/rating", "", "")
	var avg map[string]string
	decode(t, rec, &avg)
	if avg["averageRating"] != "1.13" {
		t.Fatalf("averageRating = %q, want 1.13", avg["averageRating"])
	}
}

func TestFavorites(t *testing.T) {
	s := newTestServer(fakeCatalog{})
	_, alice := s.register(t, "alice")
	body := `{"albumId":"m9","title":"Blue","artist":"Joni Mitchell","coverUrl":"https://img/blue.jpg"}`

	rec := s.do(t, http.MethodPost, "/favorites", alice, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", rec.Code, rec.Body.String())
	}
	var fav model.Favorite
	decode(t, rec, &fav)
	if fav.Title != "Blue" || fav.CoverURL != "https://img/blue.jpg" {
		t.Fatalf("favorite = %+v", fav)
	}
	if rec := s.do(t, http.MethodPost, "/favorites", alice, body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate add: %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/favorites", alice, "")
	var list []model.Favorite
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("favorites = %+v", list)
	}

	rec = s.do(t, http.MethodDelete, "/favorites/m9", alice, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: %d", rec.Code)
	}
	var removed struct {
		Message string         `json:"message"`
		Removed model.Favorite `json:"removed"`
	}
	decode(t, rec, &removed)
	if removed.Removed.AlbumID != "m9" {
		t.Fatalf("removed = %+v", removed)
	}
	if rec := s.do(t, http.MethodDelete, "/favorites/m9", alice, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("remove again: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/favorites", alice, body); rec.Code != http.StatusCreated {
		t.Fatalf("re-add after remove: %d", rec.Code)
	}
}

func TestAdmin(t *testing.T) {
	s := newTestServer(fakeCatalog{})
	root, rootTok := s.register(t, "root")
	s.store.Users().SetRole(root.ID, model.RoleAdmin)
	bobUser, bob := s.register(t, "bob")

	s.do(t, http.MethodPost, "/reviews", bob, `{"albumId":"m1","comment":"a","rating":4}`)
	s.do(t, http.MethodPost, "/reviews", bob, `{"albumId":"m2","comment":"b","rating":2}`)
	s.do(t, http.MethodPost, "/favorites", bob, `{"albumId":"m1"}`)

	if rec := s.do(t, http.MethodGet, "/admin/users", bob, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/admin/users", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/admin/users", rootTok, "")
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("list users: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/admin/reviews", rootTok, "")
	var all []model.Review
	decode(t, rec, &all)
	if len(all) != 2 || all[0].Email != "bob@x.com" {
		t.Fatalf("all reviews = %+v", all)
	}

	bobPath := "/admin/users/" + itoa(bobUser.ID)
	if rec := s.do(t, http.MethodPut, bobPath+"/role", rootTok, `{"role":"owner"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPut, "/admin/users/999/role", rootTok, `{"role":"admin"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("missing user role change: %d", rec.Code)
	}
	rec = s.do(t, http.MethodPut, bobPath+"/role", rootTok, `{"role":"admin"}`)
	var promoted model.User
	decode(t, rec, &promoted)
	if rec.Code != http.StatusOK || promoted.Role != model.RoleAdmin {
		t.Fatalf("promote: %d %+v", rec.Code, promoted)
	}
	// The role is read from the store, so bob's existing token now passes.
	if rec := s.do(t, http.MethodGet, "/admin/users", bob, ""); rec.Code != http.StatusOK {
		t.Fatalf("promoted bob: %d", rec.Code)
	}

	rec = s.do(t, http.MethodDelete, bobPath, rootTok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}
	var del struct {
		Message          string `json:"message"`
		UserID           uint64 `json:"userId"`
		ReviewsDeleted   int64  `json:"reviewsDeleted"`
		FavoritesDeleted int64  `json:"favoritesDeleted"`
	}
	decode(t, rec, &del)
	if del.UserID != bobUser.ID || del.ReviewsDeleted != 2 || del.FavoritesDeleted != 1 {
		t.Fatalf("delete result = %+v", del)
	}
	ctx := context.Background()
	if list, _ := s.store.Reviews().ListByAuthor(ctx, bobUser.ID); len(list) != 0 {
		t.Fatalf("reviews left: %+v", list)
	}
	if list, _ := s.store.Favorites().ListByAuthor(ctx, bobUser.ID); len(list) != 0 {
		t.Fatalf("favorites left: %+v", list)
	}
	if rec := s.do(t, http.MethodDelete, bobPath, rootTok, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("delete again: %d", rec.Code)
	}
	// bob's token now points at nobody.
	if rec := s.do(t, http.MethodGet, "/favorites", bob, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted user's token: %d", rec.Code)
	}

	if len(s.audit.events) != 2 {
		t.Fatalf("audit events = %+v", s.audit.events)
	}
	if ev := s.audit.events[0]; ev.Action != queue.ActionRoleChanged || ev.ActorID != root.ID || ev.Role != model.RoleAdmin {
		t.Fatalf("role event = %+v", ev)
	}
	if ev := s.audit.events[1]; ev.Action != queue.ActionUserDeleted || ev.TargetUserID != bobUser.ID || ev.ReviewsDeleted != 2 || ev.OccurredAt == "" {
		t.Fatalf("delete event = %+v", ev)
	}
}

func TestCatalog(t *testing.T) {
	cat := fakeCatalog{
		releases: []model.AlbumSummary{{MasterID: 42, Title: "Radiohead - OK Computer", Year: "1997"}},
		album:    model.AlbumDetail{MasterID: 42, Title: "OK Computer", Year: 1997},
	}
	s := newTestServer(cat)

	if rec := s.do(t, http.MethodGet, "/discogs", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing artist: %d", rec.Code)
	}
	rec := s.do(t, http.MethodGet, "/discogs?artist=Radiohead", "", "")
	var search struct {
		Artist   string               `json:"artist"`
		Releases []model.AlbumSummary `json:"releases"`
	}
	decode(t, rec, &search)
	if search.Artist != "Radiohead" || len(search.Releases) != 1 || search.Releases[0].MasterID != 42 {
		t.Fatalf("search = %+v", search)
	}

	for path, want := range map[string]int{
		"/discogs/album":               http.StatusBadRequest,
		"/discogs/album?master_id=abc": http.StatusBadRequest,
		"/discogs/album?master_id=7":   http.StatusNotFound,
		"/discogs/album?master_id=42":  http.StatusOK,
	} {
		if rec := s.do(t, http.MethodGet, path, "", ""); rec.Code != want {
			t.Fatalf("%s: %d, want %d", path, rec.Code, want)
		}
	}

	broken := newTestServer(fakeCatalog{err: errors.New("boom")})
	rec = broken.do(t, http.MethodGet, "/discogs?artist=x", "", "")
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("upstream failure: %d %s", rec.Code, rec.Body.String())
	}
}

type pingerFunc func(context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/up", Health(pingerFunc(func(context.Context) error { return nil })))
	e.GET("/down", Health(pingerFunc(func(context.Context) error { return errors.New("gone") })))
	for path, want := range map[string]int{"/up": http.StatusOK, "/down": http.StatusServiceUnavailable} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: %d, want %d", path, rec.Code, want)
		}
	}
}

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}
