package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resale-console/internal/models"
	"resale-console/internal/workflow"
)

func createWorkflow(t *testing.T, a *testAPI, body map[string]any) models.Workflow {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/workflows", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Workflow](t, w)
}

func TestWorkflows_CreateDefaults(t *testing.T) {
	a := newTestAPI(t)

	wf := createWorkflow(t, a, map[string]any{})
	assert.Equal(t, "新流程", wf.Name)
	assert.Equal(t, "[]", wf.Definition)
	assert.True(t, wf.Enabled)
	assert.False(t, wf.IsDefault)

	w := a.do(t, http.MethodGet, fmt.Sprintf("/api/workflows/%d", wf.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, wf.ID, decode[models.Workflow](t, w).ID)
}

func TestWorkflows_CreateFromTemplateStoresFlat(t *testing.T) {
	a := newTestAPI(t)
	wf := createWorkflow(t, a, map[string]any{"template": "virtual"})
	assert.Equal(t, "默认发货流程", wf.Name)

	w := a.do(t, http.MethodGet, fmt.Sprintf("/api/workflows/%d/nodes", wf.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	nodes := decode[[]workflow.Node](t, w)
	require.Len(t, nodes, 4)
	assert.Equal(t, "root", nodes[0].ID)
	assert.Equal(t, "node_3", nodes[3].ID)
	assert.NotContains(t, wf.Definition, "children")

	w = a.do(t, http.MethodPost, "/api/workflows", map[string]any{"template": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkflows_AcceptsStringAndInlineDefinitions(t *testing.T) {
	a := newTestAPI(t)
	tree := `{"id":"root","text":"开始","nodeType":"delivery","children":[{"id":"n1","text":"等","nodeType":"delay","delayMs":100}]}`

	asString := createWorkflow(t, a, map[string]any{"definition": tree})
	inline := createWorkflow(t, a, map[string]any{"definition": json.RawMessage(tree)})
	assert.Equal(t, asString.Definition, inline.Definition)
	assert.JSONEq(t, `[
		{"id":"root","text":"开始","nodeType":"delivery","deliveryMode":"virtual"},
		{"id":"n1","text":"等","nodeType":"delay","delayMode":"fixed","delayMs":100}
	]`, inline.Definition)

	w := a.do(t, http.MethodPost, "/api/workflows", map[string]any{"definition": `[{"id":"a","nodeType":"teleport"}]`})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do(t, http.MethodPost, "/api/workflows", map[string]any{"definition": "not json"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkflows_DefaultIsExclusive(t *testing.T) {
	a := newTestAPI(t)
	first := createWorkflow(t, a, map[string]any{"name": "A", "isDefault": true})
	second := createWorkflow(t, a, map[string]any{"name": "B"})

	w := a.do(t, http.MethodPost, fmt.Sprintf("/api/workflows/%d/default", second.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/api/workflows", nil)
	list := decode[[]models.Workflow](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.False(t, list[1].IsDefault)

	w = a.do(t, http.MethodGet, "/api/workflows/default", nil)
	assert.Equal(t, second.ID, decode[models.Workflow](t, w).ID)

	w = a.do(t, http.MethodPut, fmt.Sprintf("/api/workflows/%d", first.ID), map[string]any{"isDefault": true})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodGet, "/api/workflows/default", nil)
	assert.Equal(t, first.ID, decode[models.Workflow](t, w).ID)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/api/workflows/999/default", nil).Code)
}

func TestWorkflows_NodeEditingScenario(t *testing.T) {
	a := newTestAPI(t)
	wf := createWorkflow(t, a, map[string]any{"name": "flow"})
	base := fmt.Sprintf("/api/workflows/%d/nodes", wf.ID)

	w := a.do(t, http.MethodPost, base, map[string]any{"nodeType": "delivery"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	delivery := decode[workflow.Node](t, w)
	assert.Equal(t, "发货节点", delivery.Text)

	w = a.do(t, http.MethodPost, base, map[string]any{"nodeType": "delay"})
	require.Equal(t, http.StatusCreated, w.Code)
	delay := decode[workflow.Node](t, w)
	assert.NotEqual(t, delivery.ID, delay.ID)

	w = a.do(t, http.MethodPut, base+"/"+delay.ID, map[string]any{"delayMs": 5000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, fmt.Sprintf("/api/workflows/%d", wf.ID), nil)
	stored := decode[models.Workflow](t, w)
	assert.JSONEq(t, fmt.Sprintf(`[
		{"id":%q,"text":"发货节点","nodeType":"delivery","deliveryMode":"virtual"},
		{"id":%q,"text":"延迟节点","nodeType":"delay","delayMode":"fixed","delayMs":5000}
	]`, delivery.ID, delay.ID), stored.Definition)

	w = a.do(t, http.MethodDelete, base+"/"+delivery.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	nodes := decode[[]workflow.Node](t, w)
	require.Len(t, nodes, 1)
	assert.Equal(t, delay.ID, nodes[0].ID)
}

func TestWorkflows_NodeErrors(t *testing.T) {
	a := newTestAPI(t)
	wf := createWorkflow(t, a, map[string]any{})
	base := fmt.Sprintf("/api/workflows/%d/nodes", wf.ID)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, base, map[string]any{"nodeType": "teleport"}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, base, map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPut, base+"/missing", map[string]any{"text": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, base+"/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/workflows/999/nodes", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/workflows/abc", nil).Code)

	w := a.do(t, http.MethodPost, base, map[string]any{"nodeType": "delay"})
	delay := decode[workflow.Node](t, w)
	w = a.do(t, http.MethodPut, base+"/"+delay.ID, map[string]any{"delayMode": "random", "delayMinMs": 500, "delayMaxMs": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, base, nil)
	nodes := decode[[]workflow.Node](t, w)
	require.Len(t, nodes, 1)
	assert.Equal(t, workflow.DelayFixed, nodes[0].Payload.(workflow.Delay).Mode)
}

func TestWorkflows_Delete(t *testing.T) {
	a := newTestAPI(t)
	wf := createWorkflow(t, a, map[string]any{})
	path := fmt.Sprintf("/api/workflows/%d", wf.ID)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, path, nil).Code)
}

func TestWorkflows_Validate(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/workflows/validate", map[string]any{
		"definition": json.RawMessage(`{"id":"r","nodeType":"notify","message":"hi","children":[{"id":"c","nodeType":"autoreply"}]}`),
	})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[map[string]any](t, w)
	assert.Equal(t, true, res["valid"])
	assert.Len(t, res["nodes"], 2)

	w = a.do(t, http.MethodPost, "/api/workflows/validate", map[string]any{
		"definition": json.RawMessage(`[{"id":"a","nodeType":"delay"},{"id":"a","nodeType":"delay"}]`),
	})
	res = decode[map[string]any](t, w)
	assert.Equal(t, false, res["valid"])
	assert.Contains(t, res["error"], "duplicate")

	w = a.do(t, http.MethodPost, "/api/workflows/validate", map[string]any{
		"definition": json.RawMessage(`[{"id":"a","nodeType":"delay","delayMs":-1}]`),
	})
	assert.Equal(t, false, decode[map[string]any](t, w)["valid"])
}

func TestWorkflows_Templates(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodGet, "/api/workflows/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 3)
}

func TestWorkflows_NodeEditRejectsUndecodableDefinition(t *testing.T) {
	a := newTestAPI(t)
	wf := createWorkflow(t, a, map[string]any{"name": "damaged"})
	stored := `[{"id":"a","nodeType":"delivery"},{"id":"b","nodeType":"delay","delayMs":1500.5}]`
	require.NoError(t, a.db.Model(&models.Workflow{}).Where("id = ?", wf.ID).Update("definition", stored).Error)

	w := a.do(t, http.MethodPost, fmt.Sprintf("/api/workflows/%d/nodes", wf.ID), map[string]any{"nodeType": "notify"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, fmt.Sprintf("/api/workflows/%d", wf.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, stored, decode[models.Workflow](t, w).Definition)
}
