package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tarefas-api/internal/model"
	"github.com/BuzzLyutic/tarefas-api/internal/repo"
	"github.com/BuzzLyutic/tarefas-api/internal/service"
	"github.com/BuzzLyutic/tarefas-api/internal/testutil"
)

func setupE2EServer(t *testing.T) (*httptest.Server, func()) {
	pool, cleanup := testutil.SetupTestDB(t)
	testutil.TruncateTables(t, pool)

	logger := zap.NewNop()
	taskHandler := NewTaskHandler(service.NewTaskService(repo.NewTaskRepo(pool)), logger)
	server := httptest.NewServer(NewRouter(taskHandler, logger, []string{"*"}))

	return server, func() {
		server.Close()
		cleanup()
	}
}

func send(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func createTask(t *testing.T, baseURL string, body map[string]interface{}) int64 {
	t.Helper()
	resp := send(t, http.MethodPost, baseURL+"/tarefas", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotZero(t, created.ID)
	return created.ID
}

func listTasks(t *testing.T, baseURL string) []model.Task {
	t.Helper()
	resp := send(t, http.MethodGet, baseURL+"/tarefas", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tasks []model.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tasks))
	return tasks
}

func TestE2E_MoveExample(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	a := createTask(t, server.URL, map[string]interface{}{"nome": "A", "custo": 500, "data_limite": nil})
	b := createTask(t, server.URL, map[string]interface{}{"nome": "B", "custo": 1500, "data_limite": "2025-03-01"})

	tasks := listTasks(t, server.URL)
	require.Len(t, tasks, 2)
	assert.Equal(t, 1, tasks[0].Rank)
	assert.Equal(t, 2, tasks[1].Rank)

	resp := send(t, http.MethodPatch, fmt.Sprintf("%s/tarefas/%d/mover", server.URL, b), map[string]string{"direcao": "subir"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tasks = listTasks(t, server.URL)
	require.Len(t, tasks, 2)
	assert.Equal(t, b, tasks[0].ID)
	assert.Equal(t, 1, tasks[0].Rank)
	assert.True(t, tasks[0].Highlighted)
	require.NotNil(t, tasks[0].DueDate)
	assert.Equal(t, "2025-03-01", tasks[0].DueDate.String())
	assert.Equal(t, a, tasks[1].ID)
	assert.Equal(t, 2, tasks[1].Rank)
	assert.False(t, tasks[1].Highlighted)
}

func TestE2E_FullWorkflow(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	id := createTask(t, server.URL, map[string]interface{}{"nome": "E2E", "custo": nil, "data_limite": nil})
	other := createTask(t, server.URL, map[string]interface{}{"nome": "Other"})

	// Дубликат имени
	resp := send(t, http.MethodPost, server.URL+"/tarefas", map[string]interface{}{"nome": "E2E"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Редактирование
	resp = send(t, http.MethodPut, fmt.Sprintf("%s/tarefas/%d", server.URL, id), map[string]interface{}{"nome": "E2E edited", "custo": 1000, "data_limite": "2030-01-01"})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = send(t, http.MethodPut, fmt.Sprintf("%s/tarefas/%d", server.URL, id), map[string]interface{}{"nome": "Other"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = send(t, http.MethodGet, fmt.Sprintf("%s/tarefas/%d", server.URL, id), nil)
	var fetched model.Task
	json.NewDecoder(resp.Body).Decode(&fetched)
	resp.Body.Close()
	assert.Equal(t, "E2E edited", fetched.Name)
	assert.Equal(t, 1, fetched.Rank)
	assert.True(t, fetched.Highlighted)

	// Удаление не трогает порядок остальных
	resp = send(t, http.MethodDelete, fmt.Sprintf("%s/tarefas/%d", server.URL, id), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	tasks := listTasks(t, server.URL)
	require.Len(t, tasks, 1)
	assert.Equal(t, other, tasks[0].ID)
	assert.Equal(t, 2, tasks[0].Rank)

	resp = send(t, http.MethodDelete, fmt.Sprintf("%s/tarefas/%d", server.URL, id), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = send(t, http.MethodPatch, fmt.Sprintf("%s/tarefas/%d/mover", server.URL, id), map[string]string{"direcao": "descer"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Статистика видит дырку
	resp = send(t, http.MethodGet, server.URL+"/tarefas/estatisticas", nil)
	var stats model.Stats
	json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.RankGaps)
}
