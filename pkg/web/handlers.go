package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	versionService  *services.Versions
	historyService  *services.History
	validator       *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	versionService *services.Versions,
	historyService *services.History,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		versionService:  versionService,
		historyService:  historyService,
		validator:       validator,
	}
}

// RegisterRoutes mounts every editorial endpoint on router.
func RegisterRoutes(router fiber.Router, handlers *APIHandlers) {
	p := router.Group("/posts")
	p.Get("/", handlers.GetPostsByState)
	p.Post("/:id/actions", handlers.ExecuteAction)
	p.Get("/:id/actions", handlers.GetAvailableActions)
	p.Get("/:id/history", handlers.GetWorkflowHistory)
	p.Get("/:id/versions", handlers.GetVersionHistory)
	p.Post("/:id/versions", handlers.CreateVersion)
	p.Get("/:id/versions/active", handlers.GetActiveVersion)
	p.Post("/:id/versions/:versionId/restore", handlers.RestoreVersion)

	v := router.Group("/versions")
	v.Get("/compare", handlers.CompareVersions)
	v.Get("/:versionId", handlers.GetVersion)

	router.Get("/workflow/stats", handlers.GetWorkflowStats)
	router.Get("/health", handlers.HealthCheck)
}

// identity reads the caller resolved by the upstream authentication layer.
func identity(c fiber.Ctx) (string, models.Role, bool) {
	userID := c.Get(HeaderUserID)
	if userID == "" {
		return "", "", false
	}

	role, err := models.ParseRole(c.Get(HeaderUserRole))
	if err != nil {
		return "", "", false
	}

	return userID, role, true
}

func (h *APIHandlers) ExecuteAction(c fiber.Ctx) error {
	postID := c.Params("id")
	if postID == "" {
		return badRequest(c, "Post ID is required")
	}

	userID, role, ok := identity(c)
	if !ok {
		return unauthorized(c, "X-User-ID and a valid X-User-Role are required")
	}

	var req ExecuteActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	action, err := models.ParseWorkflowAction(req.Action)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.workflowService.ExecuteAction(c.Context(), services.ActionRequest{
		PostID:  postID,
		Action:  action,
		UserID:  userID,
		Role:    role,
		Comment: req.Comment,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ActionResponse{
		Message:  result.Message,
		NewState: result.NewState,
	})
}

func (h *APIHandlers) GetAvailableActions(c fiber.Ctx) error {
	postID := c.Params("id")
	if postID == "" {
		return badRequest(c, "Post ID is required")
	}

	userID, role, ok := identity(c)
	if !ok {
		return unauthorized(c, "X-User-ID and a valid X-User-Role are required")
	}

	actions, err := h.workflowService.AvailableActions(c.Context(), postID, userID, role)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(AvailableActionsResponse{
		PostID:  postID,
		Actions: actions,
	})
}

func (h *APIHandlers) GetWorkflowHistory(c fiber.Ctx) error {
	postID := c.Params("id")
	if postID == "" {
		return badRequest(c, "Post ID is required")
	}

	transitions, err := h.historyService.GetWorkflowHistory(c.Context(), postID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"post_id":     postID,
		"transitions": transitions,
	})
}

func (h *APIHandlers) GetVersionHistory(c fiber.Ctx) error {
	postID := c.Params("id")
	if postID == "" {
		return badRequest(c, "Post ID is required")
	}

	versions, err := h.versionService.GetVersionHistory(c.Context(), postID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"post_id":  postID,
		"versions": versions,
	})
}

func (h *APIHandlers) GetActiveVersion(c fiber.Ctx) error {
	postID := c.Params("id")
	if postID == "" {
		return badRequest(c, "Post ID is required")
	}

	version, err := h.versionService.GetActiveVersion(c.Context(), postID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(version)
}

func (h *APIHandlers) CreateVersion(c fiber.Ctx) error {
	postID := c.Params("id")
	if postID == "" {
		return badRequest(c, "Post ID is required")
	}

	userID, _, ok := identity(c)
	if !ok {
		return unauthorized(c, "X-User-ID and a valid X-User-Role are required")
	}

	var req CreateVersionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	version, err := h.versionService.CreateVersion(c.Context(), postID, userID, req.Input())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(version)
}

func (h *APIHandlers) RestoreVersion(c fiber.Ctx) error {
	postID := c.Params("id")
	versionID := c.Params("versionId")

	if postID == "" || versionID == "" {
		return badRequest(c, "Post ID and version ID are required")
	}

	userID, _, ok := identity(c)
	if !ok {
		return unauthorized(c, "X-User-ID and a valid X-User-Role are required")
	}

	version, err := h.versionService.RestoreVersion(c.Context(), postID, versionID, userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(version)
}

func (h *APIHandlers) GetVersion(c fiber.Ctx) error {
	versionID := c.Params("versionId")
	if versionID == "" {
		return badRequest(c, "Version ID is required")
	}

	version, err := h.versionService.GetVersion(c.Context(), versionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(version)
}

func (h *APIHandlers) CompareVersions(c fiber.Ctx) error {
	first := c.Query("v1")
	second := c.Query("v2")

	if first == "" || second == "" {
		return badRequest(c, "Query parameters v1 and v2 are required")
	}

	comparison, err := h.versionService.CompareVersions(c.Context(), first, second)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(comparison)
}

func (h *APIHandlers) GetPostsByState(c fiber.Ctx) error {
	req, err := parsePostsByStateRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	page, err := h.historyService.GetPostsByState(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"posts":         page.Posts,
		"total_count":   page.TotalCount,
		"has_next_page": page.HasNextPage,
		"pagination": fiber.Map{
			"limit":  page.Limit,
			"offset": page.Offset,
		},
	})
}

// parsePostsByStateRequest parses the query parameters for listing posts.
func parsePostsByStateRequest(c fiber.Ctx) (*services.PostsByStateRequest, error) {
	state, err := models.ParseWorkflowState(c.Query("state"))
	if err != nil {
		return nil, err
	}

	req := &services.PostsByStateRequest{
		State:      state,
		AuthorID:   c.Query("author_id"),
		CategoryID: c.Query("category_id"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	return req, nil
}

func (h *APIHandlers) GetWorkflowStats(c fiber.Ctx) error {
	window, err := models.ParseStatsWindow(c.Query("window"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	stats, err := h.historyService.GetWorkflowStats(c.Context(), window)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(stats)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Editorial API is unhealthy"
	httpStatus := http.StatusServiceUnavailable

	if ok {
		status = "healthy"
		message = "Editorial API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
