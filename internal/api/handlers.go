// internal/api/handlers.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/SceneWriter/internal/config"
	apperrors "github.com/Corphon/SceneWriter/internal/errors"
	"github.com/Corphon/SceneWriter/internal/models"
	"github.com/Corphon/SceneWriter/internal/services"
	"github.com/Corphon/SceneWriter/internal/utils"
)

// Handler 处理API请求
type Handler struct {
	Documents *services.DocumentService // 文档服务
	Exports   *services.ExportService   // 导出服务
	Assist    *services.AssistService   // AI 协作服务
	LLM       *services.LLMService      // LLM服务
	Hub       *EventHub                 // 事件推送
	Metrics   *utils.EditorMetrics
	Response  *ResponseHelper // 响应助手

	StoreBackend string
	startedAt    time.Time

	assistLimiter *RateLimiter
}

// DocumentRequest carries the editor's title and body.
type DocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ClassifyRequest 分类请求
type ClassifyRequest struct {
	Content string `json:"content"`
}

// LLMConfigRequest switches provider or model settings.
type LLMConfigRequest struct {
	Provider string            `json:"provider" binding:"required"`
	Config   map[string]string `json:"config"`
}

// NewHandler 创建API处理器
func NewHandler(
	documents *services.DocumentService,
	exports *services.ExportService,
	assist *services.AssistService,
	llmService *services.LLMService,
	hub *EventHub,
	metrics *utils.EditorMetrics,
) *Handler {
	if metrics == nil {
		metrics = utils.NewEditorMetrics(nil)
	}
	return &Handler{
		Documents: documents,
		Exports:   exports,
		Assist:    assist,
		LLM:       llmService,
		Hub:       hub,
		Metrics:   metrics,
		Response:  NewResponseHelper(),
		startedAt: time.Now(),
	}
}

// Close stops the background work started by NewRouter.
func (h *Handler) Close() {
	if h.assistLimiter != nil {
		h.assistLimiter.Close()
	}
}

// ------------------------------------------------
// 健康检查

// Health reports liveness, the store backend and the LLM state.
func (h *Handler) Health(c *gin.Context) {
	ready, state := h.LLM.GetProviderStatus()
	draft := h.Documents.Current()
	h.Response.Success(c, gin.H{
		"status":         "ok",
		"draft_empty":    draft.IsEmpty(),
		"store_backend":  h.StoreBackend,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"llm": gin.H{
			"ready": ready,
			"state": state,
		},
	})
}

// ------------------------------------------------
// 文档

// LoadDocument loads the saved project into the editor.
func (h *Handler) LoadDocument(c *gin.Context) {
	doc, err := h.Documents.Load(c.Request.Context())
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			h.Response.NotFound(c, ErrorNoSavedProject, services.MsgNoSavedProject)
			return
		}
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Success(c, doc, services.MsgLoaded)
}

// SaveDocument stores title and content as the saved project.
func (h *Handler) SaveDocument(c *gin.Context) {
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	doc, err := h.Documents.Save(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Success(c, doc, services.MsgSaved)
}

// ClearDocument empties the editor; the saved project stays.
func (h *Handler) ClearDocument(c *gin.Context) {
	h.Documents.Clear()
	h.Response.Success(c, h.Documents.Current(), "Editor cleared")
}

// DiscardSaved removes the saved project.
func (h *Handler) DiscardSaved(c *gin.Context) {
	if err := h.Documents.Discard(c.Request.Context()); err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Success(c, nil, "Saved project removed")
}

// GetCurrentDocument returns the unsaved working copy.
func (h *Handler) GetCurrentDocument(c *gin.Context) {
	h.Response.Success(c, h.Documents.Current())
}

// UpdateCurrentDocument replaces the working copy without saving.
func (h *Handler) UpdateCurrentDocument(c *gin.Context) {
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	h.Documents.SetCurrent(req.Title, req.Content)
	h.Response.Success(c, h.Documents.Current())
}

// ------------------------------------------------
// 分类与导出

// Classify tags every non-empty line of the body.
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	h.Response.Success(c, h.Exports.Classify(req.Content))
}

// Export renders the posted title and body in the format named by the path.
func (h *Handler) Export(c *gin.Context) {
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.Exports.Export(c.Request.Context(), c.Param("format"), req.Title, req.Content)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	h.Response.ExportResponse(c, result)
}

// ExportSaved renders the saved project.
func (h *Handler) ExportSaved(c *gin.Context) {
	result, err := h.Exports.ExportSaved(c.Request.Context(), c.Param("format"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	h.Response.ExportResponse(c, result)
}

func (h *Handler) handleExportError(c *gin.Context, err error) {
	switch {
	case apperrors.IsNotFoundError(err):
		h.Response.NotFound(c, ErrorNoSavedProject, services.MsgNoSavedProject)
	case apperrors.IsValidationError(err):
		h.Response.Error(c, http.StatusBadRequest, ErrorExportFormatInvalid, apperrors.MessageOf(err))
	default:
		h.Response.HandleError(c, err)
	}
}

// ------------------------------------------------
// AI 协作

// Ask runs one assist call and waits for the answer. Validation notices come
// back as 400; model failures are a normal result with status "failure".
func (h *Handler) Ask(c *gin.Context) {
	var req models.AssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if err := h.Assist.Validate(req); err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorAssistInvalid, apperrors.MessageOf(err))
		return
	}

	result := h.Assist.Ask(c.Request.Context(), req)
	h.Response.Success(c, gin.H{
		"result":  result,
		"display": result.Display(),
	})
}

// SubmitAssistTask starts an assist call in the background.
func (h *Handler) SubmitAssistTask(c *gin.Context) {
	var req models.AssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	task, err := h.Assist.Submit(req)
	if err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorAssistInvalid, apperrors.MessageOf(err))
		return
	}
	h.Response.Accepted(c, gin.H{
		"task_id": task.ID,
		"task":    task.View(),
	})
}

// ListAssistTasks 获取所有任务
func (h *Handler) ListAssistTasks(c *gin.Context) {
	h.Response.Success(c, h.Assist.Tasks())
}

// GetAssistTask 获取任务状态
func (h *Handler) GetAssistTask(c *gin.Context) {
	task, ok := h.Assist.Get(c.Param("id"))
	if !ok {
		h.Response.NotFound(c, ErrorAssistTaskNotFound, "assist task not found")
		return
	}
	h.Response.Success(c, task.View())
}

// CancelAssistTask 取消任务
func (h *Handler) CancelAssistTask(c *gin.Context) {
	id := c.Param("id")
	if !h.Assist.Cancel(id) {
		h.Response.NotFound(c, ErrorAssistTaskNotFound, "assist task not found")
		return
	}
	h.Response.Success(c, gin.H{"task_id": id}, "cancellation requested")
}

// GetPersonas lists the assist personas.
func (h *Handler) GetPersonas(c *gin.Context) {
	h.Response.Success(c, services.Personas())
}

// ------------------------------------------------
// LLM 配置

// GetLLMStatus 获取LLM服务状态
func (h *Handler) GetLLMStatus(c *gin.Context) {
	h.Response.Success(c, h.LLM.Status())
}

// UpdateLLMConfig 更新LLM配置
func (h *Handler) UpdateLLMConfig(c *gin.Context) {
	var req LLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))

	// 合并到当前配置，未提供的键保持不变
	merged := config.GetCurrentConfig().LLMConfig
	for k, v := range req.Config {
		merged[k] = v
	}

	if err := h.LLM.UpdateProvider(provider, merged); err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorLLMConfigInvalid, "invalid LLM configuration", err.Error())
		return
	}
	if err := config.UpdateLLMConfig(provider, merged); err != nil {
		h.Response.InternalError(c, "failed to save LLM configuration", err.Error())
		return
	}

	h.Response.Success(c, h.LLM.Status(), "LLM configuration updated")
}

// ------------------------------------------------
// 运维

// GetMetrics returns the counters and histograms collected so far.
func (h *Handler) GetMetrics(c *gin.Context) {
	h.Response.Success(c, h.Metrics.Collector().GetMetrics())
}

// EditorWebSocket streams editor events.
func (h *Handler) EditorWebSocket(c *gin.Context) {
	if h.Hub == nil {
		h.Response.ServiceUnavailable(c, ErrorInternalError, "event stream not available")
		return
	}
	h.Hub.ServeEditor(c)
}

// GetWebSocketStatus 获取 WebSocket 连接状态
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	if h.Hub == nil {
		h.Response.Success(c, gin.H{"total_connections": 0})
		return
	}
	status := h.Hub.Status()
	status["ping_timeout_seconds"] = int(h.Hub.pingTimeout.Seconds())
	h.Response.Success(c, status)
}
