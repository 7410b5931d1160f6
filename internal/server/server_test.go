package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"homes-service/internal/database"
	"homes-service/internal/model"
	"homes-service/internal/session"
	"homes-service/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePhotos struct {
	files map[string][]byte
}

func (f *fakePhotos) Upload(_ context.Context, src io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	id := "photo-" + string(rune('a'+len(f.files)))
	f.files[id] = data
	return id, nil
}

func (f *fakePhotos) Download(_ context.Context, id string) ([]byte, error) {
	return f.files[id], nil
}

type testServer struct {
	router *gin.Engine
	store  *store.Store
	public string
}

func newTestServer(t *testing.T, mutate func(d *Deps)) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	t.Cleanup(func() { db.Close() })

	public := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(public, "index.html"), []byte("<div id=app></div>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(public, "bundle.js"), []byte("console.log(1)"), 0o600))

	st := store.New(store.Combine(map[string]store.Reducer{session.SliceKey: session.Reduce}), nil)
	d := Deps{
		Logger:    zap.NewNop(),
		DB:        db,
		Store:     st,
		PublicDir: public,
	}
	if mutate != nil {
		mutate(&d)
	}
	return &testServer{router: NewRouter(d), store: st, public: public}
}

func (s *testServer) do(method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(method, target, body string) *httptest.ResponseRecorder {
	return s.do(method, target, strings.NewReader(body), http.Header{"Content-Type": {"application/json"}})
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createHome(t *testing.T, body string) model.Home {
	t.Helper()
	w := s.doJSON(http.MethodPost, "/api/homes", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Home](t, w)
}

func TestState_Dispatch(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/state", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session":{}}`, w.Body.String())

	w = s.doJSON(http.MethodPost, "/api/actions", `{"type":"UPDATE_USER","user":"alice"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session":{"user":"alice"}}`, w.Body.String())

	w = s.doJSON(http.MethodPost, "/api/actions", `{"type":"UPDATE_USER","user":"bob"}`)
	assert.JSONEq(t, `{"session":{"user":"bob"}}`, w.Body.String())

	before := s.store.GetState()
	w = s.doJSON(http.MethodPost, "/api/actions", `{"type":"UNKNOWN"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session":{"user":"bob"}}`, w.Body.String())
	assert.True(t, store.Same(before, s.store.GetState()))

	w = s.doJSON(http.MethodPost, "/api/actions", `{"type":"UPDATE_DATA","data":[1,2,3]}`)
	assert.JSONEq(t, `{"session":{"user":"bob"}}`, w.Body.String())

	w = s.doJSON(http.MethodPost, "/api/actions", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid action"}`, w.Body.String())
}

func TestState_DispatchRejectsLargeBody(t *testing.T) {
	s := newTestServer(t, nil)
	before := s.store.GetState()

	body := `{"type":"UPDATE_USER","user":"` + strings.Repeat("a", 2<<20) + `"}`
	w := s.doJSON(http.MethodPost, "/api/actions", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"action too large"}`, w.Body.String())
	assert.True(t, store.Same(before, s.store.GetState()))
}

func TestState_UserForm(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/session/form", nil, nil)
	assert.JSONEq(t, `{"showForm":true,"placeholder":"who are you?"}`, w.Body.String())

	form := url.Values{"user": {"carol"}}
	w = s.do(http.MethodPost, "/api/session/user", strings.NewReader(form.Encode()),
		http.Header{"Content-Type": {"application/x-www-form-urlencoded"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"greeting":"Hello carol","showForm":false}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/session/form", nil, nil)
	assert.JSONEq(t, `{"greeting":"Hello carol","showForm":false}`, w.Body.String())
	assert.Equal(t, "carol", session.Slice(s.store.GetState())["user"])
}

func TestState_FetchData(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(t, nil)
		w := s.do(http.MethodPost, "/api/data/fetch", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("upstream ok", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[1,2,3]`))
		}))
		defer upstream.Close()

		s := newTestServer(t, func(d *Deps) {
			d.Fetch = session.FetchData(upstream.Client(), upstream.URL)
		})
		w := s.do(http.MethodPost, "/api/data/fetch", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"session":{}}`, w.Body.String())
	})

	t.Run("upstream failure", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer upstream.Close()

		s := newTestServer(t, func(d *Deps) {
			d.Fetch = session.FetchData(upstream.Client(), upstream.URL)
		})
		w := s.do(http.MethodPost, "/api/data/fetch", nil, nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"error":"data fetch failed"}`, w.Body.String())
	})
}

func TestHomes_CRUD(t *testing.T) {
	s := newTestServer(t, nil)

	created := s.createHome(t, `{"name":"Cabin","location":"Tahoe","price":120,"description":"by the lake"}`)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.DefaultImageURL, created.ImageURL)
	require.NotNil(t, created.Description)
	assert.Equal(t, "by the lake", *created.Description)
	assert.Nil(t, created.Rating)

	w := s.do(http.MethodGet, "/api/homes/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[model.Home](t, w))

	w = s.doJSON(http.MethodPut, "/api/homes/"+created.ID,
		`{"name":"Cabin","location":"Tahoe","price":99,"imageUrl":"https://example.com/cabin.png"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Home](t, w)
	assert.Equal(t, 99.0, updated.Price)
	assert.Equal(t, "https://example.com/cabin.png", updated.ImageURL)
	assert.Nil(t, updated.Description)

	w = s.do(http.MethodDelete, "/api/homes/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/homes/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"home not found"}`, w.Body.String())

	w = s.do(http.MethodDelete, "/api/homes/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.doJSON(http.MethodPut, "/api/homes/missing", `{"name":"x","location":"y","price":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHomes_CreateFromForm(t *testing.T) {
	s := newTestServer(t, nil)

	form := url.Values{"name": {"Loft"}, "location": {"Brooklyn"}, "price": {"0"}}
	w := s.do(http.MethodPost, "/api/homes", strings.NewReader(form.Encode()),
		http.Header{"Content-Type": {"application/x-www-form-urlencoded"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	home := decode[model.Home](t, w)
	assert.Equal(t, "Loft", home.Name)
	assert.Equal(t, 0.0, home.Price)
}

func TestHomes_Validation(t *testing.T) {
	s := newTestServer(t, nil)

	for name, body := range map[string]string{
		"missing name":     `{"location":"Tahoe","price":1}`,
		"missing location": `{"name":"Cabin","price":1}`,
		"missing price":    `{"name":"Cabin","location":"Tahoe"}`,
		"bad image url":    `{"name":"Cabin","location":"Tahoe","price":1,"imageUrl":"nope"}`,
		"not json":         `{`,
	} {
		t.Run(name, func(t *testing.T) {
			w := s.doJSON(http.MethodPost, "/api/homes", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHomes_List(t *testing.T) {
	s := newTestServer(t, nil)
	s.createHome(t, `{"name":"Cabin","location":"Tahoe","price":120}`)
	s.createHome(t, `{"name":"Loft","location":"Brooklyn","price":300}`)
	s.createHome(t, `{"name":"Condo","location":"Tahoe","price":80}`)

	list := func(query string) []string {
		w := s.do(http.MethodGet, "/api/homes"+query, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		names := []string{}
		for _, h := range decode[[]model.Home](t, w) {
			names = append(names, h.Name)
		}
		return names
	}

	assert.ElementsMatch(t, []string{"Cabin", "Loft", "Condo"}, list(""))
	assert.ElementsMatch(t, []string{"Cabin", "Condo"}, list("?location=Tahoe"))
	assert.ElementsMatch(t, []string{"Cabin"}, list("?location=Tahoe&min_price=100"))
	assert.ElementsMatch(t, []string{"Condo"}, list("?max_price=100"))
	assert.Len(t, list("?limit=2"), 2)
	assert.Empty(t, list("?location=Nowhere"))
}

func TestHomes_Auth(t *testing.T) {
	const secret = "s3cret"
	s := newTestServer(t, func(d *Deps) { d.JWTSecret = secret })

	token := func(claims jwt.MapClaims) http.Header {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return http.Header{"Authorization": {"Bearer " + tok}, "Content-Type": {"application/json"}}
	}
	body := `{"name":"Cabin","location":"Tahoe","price":120}`

	w := s.doJSON(http.MethodPost, "/api/homes", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/homes", strings.NewReader(body), token(jwt.MapClaims{"sub": "alice"}))
	require.Equal(t, http.StatusCreated, w.Code)
	home := decode[model.Home](t, w)

	w = s.do(http.MethodDelete, "/api/homes/"+home.ID, nil, token(jwt.MapClaims{"sub": "alice"}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/api/homes/"+home.ID, nil, token(jwt.MapClaims{"sub": "root", "roles": []string{"ADMIN"}}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/homes", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code, "reads stay public")
}

func TestReviews(t *testing.T) {
	s := newTestServer(t, nil)
	home := s.createHome(t, `{"name":"Cabin","location":"Tahoe","price":120}`)
	reviews := "/api/homes/" + home.ID + "/reviews"

	w := s.doJSON(http.MethodPost, reviews, `{"userId":"alice","rating":4,"comment":"cozy"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.doJSON(http.MethodPost, reviews, `{"userId":"bob","rating":5,"comment":"great"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, reviews, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Review](t, w), 2)

	w = s.do(http.MethodGet, "/api/homes/"+home.ID, nil, nil)
	got := decode[model.Home](t, w)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 4.5, *got.Rating, 0.001)

	w = s.doJSON(http.MethodPost, reviews, `{"userId":"carol","rating":9,"comment":"??"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPost, reviews, `{"rating":3,"comment":"anonymous"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPost, "/api/homes/missing/reviews", `{"userId":"alice","rating":4,"comment":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/homes/missing/reviews", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviews_RatingSurvivesUpdate(t *testing.T) {
	s := newTestServer(t, nil)
	home := s.createHome(t, `{"name":"Cabin","location":"Tahoe","price":120,"rating":2}`)
	assert.Nil(t, home.Rating, "rating is not taken from the request")

	reviews := "/api/homes/" + home.ID + "/reviews"
	for _, body := range []string{
		`{"userId":"alice","rating":4,"comment":"cozy"}`,
		`{"userId":"bob","rating":5,"comment":"great"}`,
	} {
		w := s.doJSON(http.MethodPost, reviews, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	for _, body := range []string{
		`{"name":"Big Cabin","location":"Tahoe","price":150}`,
		`{"name":"Big Cabin","location":"Tahoe","price":150,"rating":1}`,
	} {
		w := s.doJSON(http.MethodPut, "/api/homes/"+home.ID, body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.do(http.MethodGet, "/api/homes/"+home.ID, nil, nil)
		got := decode[model.Home](t, w)
		assert.Equal(t, "Big Cabin", got.Name)
		require.NotNil(t, got.Rating, body)
		assert.InDelta(t, 4.5, *got.Rating, 0.001, body)
	}
}

func TestPhotos(t *testing.T) {
	t.Run("disabled without a photo store", func(t *testing.T) {
		s := newTestServer(t, nil)
		home := s.createHome(t, `{"name":"Cabin","location":"Tahoe","price":120}`)

		w := s.do(http.MethodGet, "/api/homes/"+home.ID+"/photo", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Not found!"}`, w.Body.String())
	})

	t.Run("upload and download", func(t *testing.T) {
		photos := &fakePhotos{files: map[string][]byte{}}
		s := newTestServer(t, func(d *Deps) { d.Photos = photos })
		home := s.createHome(t, `{"name":"Cabin","location":"Tahoe","price":120}`)
		photoURL := "/api/homes/" + home.ID + "/photo"

		w := s.do(http.MethodGet, photoURL, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		png := []byte("\x89PNG\r\n\x1a\n0000")
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "front.png")
		require.NoError(t, err)
		_, _ = part.Write(png)
		require.NoError(t, mw.Close())

		w = s.do(http.MethodPost, photoURL, &body, http.Header{"Content-Type": {mw.FormDataContentType()}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"photo_id":"photo-a"}`, w.Body.String())

		w = s.do(http.MethodGet, photoURL, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, png, w.Body.Bytes())

		w = s.do(http.MethodPost, photoURL, strings.NewReader(""), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.do(http.MethodPost, "/api/homes/missing/photo", strings.NewReader(""), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFallback(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found!"}`, w.Body.String())

	w = s.do(http.MethodGet, "/bundle.js", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	for _, p := range []string{"/", "/homes/42", "/path"} {
		w = s.do(http.MethodGet, p, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code, p)
		assert.Equal(t, "<div id=app></div>", w.Body.String(), p)
	}

	w = s.do(http.MethodPost, "/somewhere", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, os.Remove(filepath.Join(s.public, "index.html")))
	w = s.do(http.MethodGet, "/homes/42", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), zap.NewNop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
