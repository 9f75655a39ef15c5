package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErkanEron/melonotes/internal/auth"
	"github.com/ErkanEron/melonotes/internal/seed"
	"github.com/ErkanEron/melonotes/internal/store/sqlite"
)

type testAPI struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	token  string
}

func newTestAPI(t *testing.T, seeded bool) *testAPI {
	t.Helper()
	st, err := sqlite.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	if seeded {
		require.NoError(t, seed.Apply(context.Background(), st, zerolog.Nop(), false))
	} else {
		hash, err := auth.HashPassword("MeldaErkan!5352")
		require.NoError(t, err)
		_, err = st.CreateUser(context.Background(), "frieren", hash)
		require.NoError(t, err)
	}

	authn := auth.New("test-secret", time.Hour)
	srv := httptest.NewServer(New(st, authn, t.TempDir(), zerolog.Nop()).Router())
	t.Cleanup(srv.Close)

	return &testAPI{t: t, srv: srv, client: srv.Client()}
}

func (a *testAPI) do(method, path string, body any) (*http.Response, map[string]any) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	res, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(a.t, err)
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(a.t, json.Unmarshal(raw, &decoded))
	}
	return res, decoded
}

func (a *testAPI) doList(method, path string) (*http.Response, []map[string]any) {
	a.t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, nil)
	require.NoError(a.t, err)
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	res, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer res.Body.Close()

	var decoded []map[string]any
	if res.StatusCode == http.StatusOK {
		require.NoError(a.t, json.NewDecoder(res.Body).Decode(&decoded))
	}
	return res, decoded
}

func (a *testAPI) login() {
	a.t.Helper()
	res, body := a.do("POST", "/api/auth/login", map[string]string{
		"username": "frieren",
		"password": "MeldaErkan!5352",
	})
	require.Equal(a.t, http.StatusOK, res.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(a.t, token)
	a.token = token
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t, false)

	res, body := api.do("POST", "/api/auth/login", map[string]string{
		"username": "frieren", "password": "MeldaErkan!5352",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "frieren", user["username"])

	res, body = api.do("POST", "/api/auth/login", map[string]string{
		"username": "frieren", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"])

	res, body = api.do("POST", "/api/auth/login", map[string]string{
		"username": "nobody", "password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"])

	res, body = api.do("POST", "/api/auth/login", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.NotNil(t, body["errors"])
}

func TestVerify(t *testing.T) {
	api := newTestAPI(t, false)
	api.login()

	res, body := api.do("GET", "/api/auth/verify", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["valid"])

	api.token = "bogus"
	res, _ = api.do("GET", "/api/auth/verify", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t, false)

	for _, path := range []string{"/api/notes", "/api/categories", "/api/tags"} {
		res, body := api.do("GET", path, nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, path)
		assert.Contains(t, body["error"], "Access denied")
	}
}

func TestCategoryLifecycle(t *testing.T) {
	api := newTestAPI(t, false)
	api.login()

	res, body := api.do("POST", "/api/categories", map[string]string{"name": "Database"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "Category created successfully", body["message"])
	// Color falls back to the signature pink.
	assert.Equal(t, "#FF69B4", body["color"])
	id := int64(body["id"].(float64))

	res, body = api.do("POST", "/api/categories", map[string]string{"name": "Database", "color": "#336791"})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "Category with this name already exists", body["error"])

	res, body = api.do("POST", "/api/categories", map[string]string{"name": "Bad", "color": "notacolor"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.NotNil(t, body["errors"])

	res, _ = api.do("PUT", fmt.Sprintf("/api/categories/%d", id), map[string]string{"name": "DB", "color": "#336791"})
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = api.do("PUT", "/api/categories/9999", map[string]string{"name": "X", "color": "#000000"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, list := api.doList("GET", "/api/categories")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, "DB", list[0]["name"])

	res, _ = api.do("DELETE", fmt.Sprintf("/api/categories/%d", id), nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = api.do("DELETE", fmt.Sprintf("/api/categories/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestTagLifecycle(t *testing.T) {
	api := newTestAPI(t, false)
	api.login()

	res, body := api.do("POST", "/api/tags", map[string]string{"name": "Performance", "color": "#E74C3C"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	id := int64(body["id"].(float64))

	res, body = api.do("POST", "/api/tags", map[string]string{"name": "Performance", "color": "#000000"})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "Tag with this name already exists", body["error"])

	res, list := api.doList("GET", "/api/tags")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, list, 1)

	res, _ = api.do("DELETE", fmt.Sprintf("/api/tags/%d", id), nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = api.do("DELETE", fmt.Sprintf("/api/tags/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestNoteLifecycle(t *testing.T) {
	api := newTestAPI(t, false)
	api.login()

	_, catBody := api.do("POST", "/api/categories", map[string]string{"name": "Database", "color": "#336791"})
	catID := int64(catBody["id"].(float64))
	_, tagBody := api.do("POST", "/api/tags", map[string]string{"name": "Performance", "color": "#E74C3C"})
	tagID := int64(tagBody["id"].(float64))

	res, body := api.do("POST", "/api/notes", map[string]any{
		"title":       "Slow dashboard",
		"problem":     "30 second load",
		"analysis":    "missing index",
		"category_id": catID,
		"priority":    3,
		"tags":        []int64{tagID},
		"solutions": []map[string]any{
			{
				"description": "add covering index",
				"steps": []map[string]any{
					{"description": "capture plan"},
					{"description": "create index"},
				},
			},
		},
		"codeSnippets": []map[string]any{
			{"title": "ix", "language": "sql", "code": "CREATE INDEX ix ON t(a)"},
		},
		"scripts": []map[string]any{
			{"title": "bench", "script_type": "bash", "content": "time curl localhost"},
		},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "Note created successfully", body["message"])
	noteID := int64(body["id"].(float64))

	res, list := api.doList("GET", "/api/notes")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, "Slow dashboard", list[0]["title"])
	assert.Equal(t, "Database", list[0]["category_name"])
	tags := list[0]["tags"].([]any)
	require.Len(t, tags, 1)

	res, body = api.do("GET", fmt.Sprintf("/api/notes/%d", noteID), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	sols := body["solutions"].([]any)
	require.Len(t, sols, 1)
	sol := sols[0].(map[string]any)
	assert.Equal(t, "Plan A", sol["plan_type"])
	steps := sol["steps"].([]any)
	require.Len(t, steps, 2)
	assert.Len(t, body["codeSnippets"].([]any), 1)
	assert.Len(t, body["scripts"].([]any), 1)

	res, _ = api.do("PUT", fmt.Sprintf("/api/notes/%d", noteID), map[string]any{
		"status": "completed",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, body = api.do("GET", fmt.Sprintf("/api/notes/%d", noteID), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "completed", body["status"])
	// Untouched fields survive the partial update.
	assert.Equal(t, "Slow dashboard", body["title"])

	res, _ = api.do("DELETE", fmt.Sprintf("/api/notes/%d", noteID), nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = api.do("GET", fmt.Sprintf("/api/notes/%d", noteID), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestNoteCreateTagIDAlias(t *testing.T) {
	api := newTestAPI(t, false)
	api.login()

	_, tagBody := api.do("POST", "/api/tags", map[string]string{"name": "Index", "color": "#123456"})
	tagID := int64(tagBody["id"].(float64))

	res, _ := api.do("POST", "/api/notes", map[string]any{
		"title":   "alias body",
		"tag_ids": []int64{tagID},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, list := api.doList("GET", "/api/notes")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, list, 1)
	tags := list[0]["tags"].([]any)
	require.Len(t, tags, 1)
	assert.Equal(t, "Index", tags[0].(map[string]any)["name"])
}

func TestNoteValidation(t *testing.T) {
	api := newTestAPI(t, false)
	api.login()

	res, body := api.do("POST", "/api/notes", map[string]any{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.NotNil(t, body["errors"])

	res, _ = api.do("POST", "/api/notes", map[string]any{"title": "x", "priority": 9})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = api.do("POST", "/api/notes", map[string]any{"title": "x", "status": "paused"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestNoteFilters(t *testing.T) {
	api := newTestAPI(t, false)
	api.login()

	_, catBody := api.do("POST", "/api/categories", map[string]string{"name": "Database", "color": "#336791"})
	catID := int64(catBody["id"].(float64))

	api.do("POST", "/api/notes", map[string]any{"title": "SQL Performance Problemi", "category_id": catID})
	api.do("POST", "/api/notes", map[string]any{"title": "Backup rotation", "status": "completed"})

	res, list := api.doList("GET", "/api/notes?search=performance")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, "SQL Performance Problemi", list[0]["title"])

	res, list = api.doList("GET", fmt.Sprintf("/api/notes?category=%d", catID))
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, list, 1)

	res, list = api.doList("GET", "/api/notes?status=completed")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, "Backup rotation", list[0]["title"])

	res, _ = api.doList("GET", "/api/notes?status=bogus")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestStepCompletion(t *testing.T) {
	api := newTestAPI(t, false)
	api.login()

	_, noteBody := api.do("POST", "/api/notes", map[string]any{
		"title": "n",
		"solutions": []map[string]any{
			{"description": "d", "steps": []map[string]any{{"description": "s1"}}},
		},
	})
	noteID := int64(noteBody["id"].(float64))

	_, detail := api.do("GET", fmt.Sprintf("/api/notes/%d", noteID), nil)
	sol := detail["solutions"].([]any)[0].(map[string]any)
	step := sol["steps"].([]any)[0].(map[string]any)
	stepID := int64(step["id"].(float64))
	assert.Equal(t, false, step["completed"])

	res, _ := api.do("PUT", fmt.Sprintf("/api/steps/%d", stepID), map[string]any{"completed": true})
	assert.Equal(t, http.StatusOK, res.StatusCode)

	_, detail = api.do("GET", fmt.Sprintf("/api/notes/%d", noteID), nil)
	sol = detail["solutions"].([]any)[0].(map[string]any)
	step = sol["steps"].([]any)[0].(map[string]any)
	assert.Equal(t, true, step["completed"])

	res, body := api.do("PUT", fmt.Sprintf("/api/steps/%d", stepID), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.NotNil(t, body["errors"])

	res, _ = api.do("PUT", "/api/steps/9999", map[string]any{"completed": true})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUpload(t *testing.T) {
	api := newTestAPI(t, false)
	api.login()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "Query Plan (final).png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", api.srv.URL+"/api/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+api.token)
	res, err := api.client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "Image uploaded successfully", body["message"])
	assert.True(t, strings.HasSuffix(body["filename"], ".png"))
	assert.Contains(t, body["filename"], "query-plan")
	assert.Equal(t, "/uploads/"+body["filename"], body["url"])

	// Uploaded files come back through the static route.
	fileRes, err := api.client.Get(api.srv.URL + body["url"])
	require.NoError(t, err)
	defer fileRes.Body.Close()
	assert.Equal(t, http.StatusOK, fileRes.StatusCode)
}

func TestUploadRejectsNonImages(t *testing.T) {
	api := newTestAPI(t, false)
	api.login()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "malware.exe")
	require.NoError(t, err)
	_, err = fw.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", api.srv.URL+"/api/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+api.token)
	res, err := api.client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

// The happy path an operator walks after first boot: seed, log in,
// find the sample performance note, open it.
func TestSeededScenario(t *testing.T) {
	api := newTestAPI(t, true)
	api.login()

	res, list := api.doList("GET", "/api/notes?search=Performance")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, list)
	title := list[0]["title"].(string)
	assert.Contains(t, title, "Performance")
	noteID := int64(list[0]["id"].(float64))

	res, detail := api.do("GET", fmt.Sprintf("/api/notes/%d", noteID), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	sols := detail["solutions"].([]any)
	require.NotEmpty(t, sols)
	steps := sols[0].(map[string]any)["steps"].([]any)
	require.NotEmpty(t, steps)
}
