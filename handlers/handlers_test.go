package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"keystone/auth"
	"keystone/cache"
	"keystone/chat"
	"keystone/content"
	"keystone/database"
	"keystone/entities"
	"keystone/leads"
	"keystone/llm"
	"keystone/media"
	"keystone/models"
	"keystone/purge"
	"keystone/state"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type cannedBackend struct{}

func (cannedBackend) GenerateText(ctx context.Context, req llm.Request) (string, error) {
	if req.ResponseJSONSchema != nil {
		return `{"low": 12000, "high": 18000}`, nil
	}
	return "We can help with that.", nil
}

type testServer struct {
	router     *gin.Engine
	store      *database.MemoryStore
	adminToken string
	userToken  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store := database.NewMemoryStore()
	qc := cache.New(100, time.Minute)
	authSvc := auth.NewService(store, time.Hour)

	_, err := authSvc.CreateUser(ctx, "boss@example.com", "Boss", "correct horse", models.RoleAdmin)
	require.NoError(t, err)
	_, err = authSvc.CreateUser(ctx, "crew@example.com", "Crew", "battery staple", models.RoleUser)
	require.NoError(t, err)
	adminLogin, err := authSvc.Login(ctx, "boss@example.com", "correct horse")
	require.NoError(t, err)
	userLogin, err := authSvc.Login(ctx, "crew@example.com", "battery staple")
	require.NoError(t, err)

	cred, err := entities.NewServiceCredential("test-key")
	require.NoError(t, err)
	svc, err := entities.NewServiceClient(store, cred)
	require.NoError(t, err)

	uploader, err := media.NewDiskUploader(t.TempDir(), "/uploads")
	require.NoError(t, err)

	deps := Deps{
		Store:   store,
		Cache:   qc,
		Auth:    authSvc,
		Content: content.NewService(store, qc),
		Leads:   leads.NewService(store, nil),
		Chat:    chat.NewService(llm.New(cannedBackend{}), state.NewMemoryStore(time.Hour)),
		Media:   media.NewService(uploader, 1<<20),
		Purger:  purge.New(svc, purge.Config{PageSize: 10, ChunkSize: 3, MaxDeletes: 5000}),
	}
	return &testServer{
		router:     NewRouter(deps, zap.NewNop()),
		store:      store,
		adminToken: adminLogin.Token,
		userToken:  userLogin.Token,
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) seed(t *testing.T, collection string, fields map[string]any) string {
	t.Helper()
	rec, err := s.store.Create(context.Background(), collection, fields)
	require.NoError(t, err)
	return rec.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReset_AllScenario(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 5; i++ {
		s.seed(t, models.CollectionVisits, map[string]any{"path": "/"})
	}
	for i := 0; i < 2; i++ {
		s.seed(t, models.CollectionEstimates, map[string]any{"email": "a@b.co", "project_type": "Deck"})
	}

	w := s.do(http.MethodPost, "/api/admin/reset", s.adminToken, gin.H{"target": "all"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{
		"success": true,
		"deletedVisits": 5,
		"deletedEstimates": 2,
		"deletedProjects": 0,
		"deletedBlogs": 0,
		"deletedLeads": 0
	}`, w.Body.String())
}

func TestReset_RejectsNonAdmins(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, models.CollectionVisits, map[string]any{"path": "/"})
	s.seed(t, models.CollectionLeads, map[string]any{"name": "Ana", "phone": "5550100"})

	for _, token := range []string{"", "not-a-session", s.userToken} {
		for _, target := range []string{"all", "visits", "leads"} {
			w := s.do(http.MethodPost, "/api/admin/reset", token, gin.H{"target": target})
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
		}
	}
	assert.Equal(t, 1, s.store.Count(models.CollectionVisits))
	assert.Equal(t, 1, s.store.Count(models.CollectionLeads))
}

func TestReset_UnknownTarget(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/admin/reset", s.adminToken, gin.H{"target": "users"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/admin/reset", s.adminToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveOrder(t *testing.T) {
	s := newTestServer(t)
	a := s.seed(t, models.CollectionProjects, map[string]any{"title": "A", "category": "Residential", "order": 0})
	b := s.seed(t, models.CollectionProjects, map[string]any{"title": "B", "category": "Residential", "order": 1})
	c := s.seed(t, models.CollectionProjects, map[string]any{"title": "C", "category": "Residential", "order": 2})

	// Warm the public cache so the save must invalidate it.
	w := s.do(http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPut, "/api/admin/projects/order", s.adminToken, gin.H{"ids": []string{c, a, b}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.ProjectsResponse](t, w)
	require.Len(t, resp.Projects, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{resp.Projects[0].Title, resp.Projects[1].Title, resp.Projects[2].Title})
	assert.Equal(t, []int{0, 1, 2}, []int{resp.Projects[0].Order, resp.Projects[1].Order, resp.Projects[2].Order})

	w = s.do(http.MethodPut, "/api/admin/projects/order", s.userToken, gin.H{"ids": []string{a, b, c}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/admin/leads/order", s.adminToken, gin.H{"ids": []string{a}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/admin/projects/order", s.adminToken, gin.H{"ids": []string{a, "missing"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveOrder_EachOrderableCollection(t *testing.T) {
	seeds := map[string]func(i int) map[string]any{
		models.CollectionProjects: func(i int) map[string]any {
			return map[string]any{"title": fmt.Sprintf("P%d", i), "category": "Residential", "order": i}
		},
		models.CollectionTestimonials: func(i int) map[string]any {
			return map[string]any{"name": fmt.Sprintf("T%d", i), "quote": "Great work", "rating": 5, "order": i}
		},
		models.CollectionCourses: func(i int) map[string]any {
			return map[string]any{"title": fmt.Sprintf("C%d", i), "order": i}
		},
	}

	for collection, fields := range seeds {
		t.Run(collection, func(t *testing.T) {
			s := newTestServer(t)
			ids := make([]string, 3)
			for i := range ids {
				ids[i] = s.seed(t, collection, fields(i))
			}

			reversed := []string{ids[2], ids[1], ids[0]}
			w := s.do(http.MethodPut, "/api/admin/"+collection+"/order", s.adminToken, gin.H{"ids": reversed})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			w = s.do(http.MethodGet, "/api/admin/"+collection, s.adminToken, nil)
			require.Equal(t, http.StatusOK, w.Code)
			resp := decode[struct {
				Items []models.Record `json:"items"`
				Count int             `json:"count"`
			}](t, w)
			require.Equal(t, 3, resp.Count)
			got := make([]string, len(resp.Items))
			for i, rec := range resp.Items {
				got[i] = rec.ID
			}
			assert.Equal(t, reversed, got)
		})
	}
}

func TestReorderProjectImages(t *testing.T) {
	s := newTestServer(t)
	id := s.seed(t, models.CollectionProjects, map[string]any{
		"title":    "Loft",
		"category": "Residential",
		"images":   []string{"https://img/1.jpg", "https://img/2.jpg", "https://img/3.jpg"},
	})

	w := s.do(http.MethodPut, "/api/admin/projects/"+id+"/images", s.adminToken,
		gin.H{"images": []string{"https://img/3.jpg", "https://img/1.jpg", "https://img/2.jpg"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/projects/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[models.Project](t, w)
	assert.Equal(t, []string{"https://img/3.jpg", "https://img/1.jpg", "https://img/2.jpg"}, p.Images)

	w = s.do(http.MethodPut, "/api/admin/courses/"+id+"/images", s.adminToken,
		gin.H{"images": []string{"https://img/1.jpg"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, "/api/admin/projects/"+id+"/images", s.adminToken,
		gin.H{"images": []string{"https://img/3.jpg", "https://img/9.jpg", "https://img/2.jpg"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCRUD(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/admin/blogs", s.adminToken, gin.H{
		"title":          "Choosing Tile",
		"content":        "Porcelain **lasts**.",
		"published":      true,
		"published_date": "2026-05-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	slug, _ := created["slug"].(string)
	require.NotEmpty(t, slug)
	id := created["id"].(string)

	w = s.do(http.MethodGet, "/api/blogs/"+slug, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[models.BlogPostView](t, w).ContentHTML, "<strong>lasts</strong>")

	w = s.do(http.MethodPatch, "/api/admin/blogs/"+id, s.adminToken, gin.H{"excerpt": "Tile basics"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Tile basics", decode[map[string]any](t, w)["excerpt"])

	w = s.do(http.MethodPatch, "/api/admin/blogs/"+id, s.adminToken, gin.H{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/admin/projects", s.adminToken, gin.H{"title": "Barn", "category": "Garden"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/admin/leads", s.adminToken, gin.H{"name": "Ana"})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = s.do(http.MethodGet, "/api/admin/users", s.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/admin/blogs", s.userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/api/admin/blogs/"+id, s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/blogs/"+slug, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginLogout(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "boss@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "boss@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[models.LoginResponse](t, w)

	w = s.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", decode[map[string]any](t, w)["role"])

	w = s.do(http.MethodPost, "/api/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/admin/projects", login.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPublicSubmissions(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/leads", "", gin.H{"name": "Ana", "email": "ana@example.com"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/leads", "", gin.H{"name": "Ana"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/visits", "", gin.H{"path": "/about"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/estimates", "", gin.H{"email": "b@example.com", "project_type": "Kitchen"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/estimates/suggest", "", gin.H{"project_type": "Kitchen", "square_feet": 200})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"low": 12000, "high": 18000}`, w.Body.String())

	assert.Equal(t, 1, s.store.Count(models.CollectionLeads))
	assert.Equal(t, 1, s.store.Count(models.CollectionVisits))
	assert.Equal(t, 1, s.store.Count(models.CollectionEstimates))
}

func TestChat(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/chat", "", gin.H{"session_id": "tab-1", "message": "Do you do decks?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply": "We can help with that.", "welcome": true}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/chat", "", gin.H{"session_id": "tab-1", "message": "Thanks"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply": "We can help with that.", "welcome": false}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/chat", "", gin.H{"message": "no session"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourses(t *testing.T) {
	s := newTestServer(t)
	id := s.seed(t, models.CollectionCourses, map[string]any{
		"title":     "Site safety",
		"published": true,
		"quiz": []map[string]any{
			{"question": "Hard hat?", "options": []string{"yes", "no"}, "answer": 0},
		},
	})

	w := s.do(http.MethodGet, "/api/courses/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "answer")

	w = s.do(http.MethodPost, "/api/courses/"+id+"/grade", "", gin.H{"answers": []int{0}})
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[models.QuizResult](t, w)
	assert.True(t, result.Passed)
}

func upload(s *testServer, token, filename string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", filename)
	_, _ = part.Write(data)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)

	w := upload(s, s.adminToken, "deck.jpg", []byte("jpeg bytes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, decode[map[string]any](t, w)["file_url"], "/uploads/")

	w = upload(s, s.adminToken, "plans.pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(s, s.adminToken, "huge.png", bytes.Repeat([]byte("x"), 2<<20))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(s, s.userToken, "deck.jpg", []byte("jpeg bytes"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
