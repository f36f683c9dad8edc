package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"resale-console/internal/models"
	"resale-console/internal/store"
	"resale-console/internal/workflow"
	"resale-console/internal/ws"

	"github.com/gin-gonic/gin"
)

type WorkflowHandler struct {
	Store *store.Workflows
	Hub   *ws.Hub
}

func NewWorkflowHandler(s *store.Workflows, hub *ws.Hub) *WorkflowHandler {
	return &WorkflowHandler{Store: s, Hub: hub}
}

type workflowRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	// Definition is either the stored string form or an inline node
	// list or tree.
	Definition json.RawMessage `json:"definition"`
	Template   string          `json:"template"`
	IsDefault  *bool           `json:"isDefault"`
	Enabled    *bool           `json:"enabled"`
}

// definitionText returns the submitted definition as text and whether one
// was submitted at all.
func definitionText(raw json.RawMessage) (string, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	}
	return string(raw), true, nil
}

func (h *WorkflowHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrWorkflowNotFound),
		errors.Is(err, store.ErrNodeNotFound),
		errors.Is(err, store.ErrNoDefaultWorkflow):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidDefinition),
		errors.Is(err, workflow.ErrUnknownNodeType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("workflow request failed", "module", "API", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// GetWorkflows lists workflows, the default one first.
func (h *WorkflowHandler) GetWorkflows(c *gin.Context) {
	list, err := h.Store.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	w, err := h.Store.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WorkflowHandler) GetDefaultWorkflow(c *gin.Context) {
	w, err := h.Store.Default(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WorkflowHandler) GetTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, workflow.Templates())
}

// CreateWorkflow creates a workflow from an inline definition or from a
// built-in template.
func (h *WorkflowHandler) CreateWorkflow(c *gin.Context) {
	var req workflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	def, _, err := definitionText(req.Definition)
	if err != nil {
		badRequest(c, err)
		return
	}

	w := models.Workflow{
		Description: req.Description,
		Definition:  def,
		IsDefault:   boolOr(req.IsDefault, false),
		Enabled:     boolOr(req.Enabled, true),
	}
	if req.Name != nil {
		w.Name = *req.Name
	}

	if req.Template != "" {
		tpl, ok := workflow.LookupTemplate(req.Template)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown template: " + req.Template})
			return
		}
		if w.Definition == "" {
			if w.Definition, err = workflow.Serialize(workflow.Flatten(tpl.Root)); err != nil {
				serverError(c, err)
				return
			}
		}
		if w.Name == "" {
			w.Name = tpl.Name
		}
		if w.Description == nil {
			w.Description = &tpl.Description
		}
	}

	if err := h.Store.Create(c.Request.Context(), &w); err != nil {
		h.writeError(c, err)
		return
	}

	h.Hub.NotifyWorkflow(w)
	if w.IsDefault {
		h.Hub.NotifyDefault(w.ID)
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WorkflowHandler) UpdateWorkflow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req workflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	def, hasDef, err := definitionText(req.Definition)
	if err != nil {
		badRequest(c, err)
		return
	}

	u := store.WorkflowUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsDefault:   req.IsDefault,
		Enabled:     req.Enabled,
	}
	if hasDef {
		u.Definition = &def
	}

	w, err := h.Store.Update(c.Request.Context(), id, u)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.Hub.NotifyWorkflow(w)
	if w.IsDefault && req.IsDefault != nil {
		h.Hub.NotifyDefault(w.ID)
	}
	c.JSON(http.StatusOK, w)
}

func (h *WorkflowHandler) DeleteWorkflow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Store.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Workflow deleted successfully"})
}

func (h *WorkflowHandler) SetDefault(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Store.SetDefault(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	h.Hub.NotifyDefault(id)
	c.JSON(http.StatusOK, gin.H{"id": id, "isDefault": true})
}

// GetNodes returns the workflow's definition as a flat node list.
func (h *WorkflowHandler) GetNodes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	nodes, err := h.Store.Nodes(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (h *WorkflowHandler) AddNode(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		NodeType workflow.NodeType `json:"nodeType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var added workflow.Node
	nodes, err := h.Store.EditNodes(c.Request.Context(), id, func(ed *workflow.Editor) error {
		var err error
		added, err = ed.AddNode(req.NodeType)
		return err
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.notifyNodes(id, nodes)
	c.JSON(http.StatusCreated, added)
}

func (h *WorkflowHandler) UpdateNode(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	nodeID := c.Param("nodeId")

	var patch workflow.NodePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	var updated workflow.Node
	nodes, err := h.Store.EditNodes(c.Request.Context(), id, func(ed *workflow.Editor) error {
		var found bool
		if updated, found = ed.UpdateNode(nodeID, patch); !found {
			return store.ErrNodeNotFound
		}
		return nil
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.notifyNodes(id, nodes)
	c.JSON(http.StatusOK, updated)
}

func (h *WorkflowHandler) DeleteNode(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	nodeID := c.Param("nodeId")

	nodes, err := h.Store.EditNodes(c.Request.Context(), id, func(ed *workflow.Editor) error {
		if !ed.DeleteNode(nodeID) {
			return store.ErrNodeNotFound
		}
		return nil
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.notifyNodes(id, nodes)
	c.JSON(http.StatusOK, nodes)
}

// ValidateDefinition checks a definition without storing it and returns its
// flat form.
func (h *WorkflowHandler) ValidateDefinition(c *gin.Context) {
	var req struct {
		Definition json.RawMessage `json:"definition"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	def, _, err := definitionText(req.Definition)
	if err != nil {
		badRequest(c, err)
		return
	}
	if def == "" {
		def = "[]"
	}

	invalid := func(err error) {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
	}
	if err := workflow.ValidateSchema([]byte(def)); err != nil {
		invalid(err)
		return
	}
	nodes, err := workflow.DecodeDefinition([]byte(def))
	if err != nil {
		invalid(err)
		return
	}
	if err := workflow.Validate(nodes); err != nil {
		invalid(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "nodes": nodes})
}

func (h *WorkflowHandler) notifyNodes(id uint, nodes []workflow.Node) {
	h.Hub.NotifyWorkflow(gin.H{"id": id, "nodes": nodes})
}
