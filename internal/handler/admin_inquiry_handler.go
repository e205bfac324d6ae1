package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "inquirydesk/internal/errors"
	"inquirydesk/internal/model"
	"inquirydesk/internal/repository"
	"inquirydesk/internal/service"
)

// maxPageSize caps the limit query parameter.
const maxPageSize = 500

// AdminInquiryHandler handles inquiry administration.
type AdminInquiryHandler struct {
	inquiryService service.InquiryService
}

// NewAdminInquiryHandler creates a new admin inquiry handler.
func NewAdminInquiryHandler(inquiryService service.InquiryService) *AdminInquiryHandler {
	return &AdminInquiryHandler{inquiryService: inquiryService}
}

// UpdateInquiryRequest represents an admin update. Both fields are optional.
type UpdateInquiryRequest struct {
	Status *string `json:"status"`
	Note   string  `json:"note"`
}

// InquiryListResponse wraps a page of inquiries. Total counts every
// inquiry matching the filter; Limit is 0 when the page is unbounded.
type InquiryListResponse struct {
	Success bool            `json:"success"`
	Data    []model.Inquiry `json:"data"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// InquiryResponse wraps a single inquiry with its notes.
type InquiryResponse struct {
	Success bool           `json:"success"`
	Data    *model.Inquiry `json:"data"`
}

// StatsResponse wraps the dashboard counters.
type StatsResponse struct {
	Success bool                  `json:"success"`
	Data    *service.InquiryStats `json:"data"`
}

// Get godoc
// @Summary Get one inquiry or list all
// @Description With a numeric id returns that inquiry and its notes, otherwise lists every inquiry newest first.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string false "Inquiry ID"
// @Success 200 {object} InquiryResponse
// @Success 200 {object} InquiryListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/inquiries/{id} [get]
func (h *AdminInquiryHandler) Get(c echo.Context) error {
	id, ok := parseInquiryID(c.Param("id"))
	if !ok {
		return h.List(c)
	}

	inquiry, err := h.inquiryService.Get(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, InquiryResponse{Success: true, Data: inquiry})
}

// List godoc
// @Summary List inquiries
// @Description Newest first. Without parameters every inquiry is returned.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Only inquiries with this status"
// @Param limit query int false "Page size, at most 500"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} InquiryListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/inquiries [get]
func (h *AdminInquiryHandler) List(c echo.Context) error {
	filter, err := listFilter(c)
	if err != nil {
		return err
	}

	page, err := h.inquiryService.List(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, InquiryListResponse{
		Success: true,
		Data:    page.Inquiries,
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
}

// listFilter reads the optional status, limit and offset query parameters.
func listFilter(c echo.Context) (repository.InquiryFilter, error) {
	filter := repository.InquiryFilter{Status: strings.TrimSpace(c.QueryParam("status"))}

	limit, ok := queryInt(c, "limit")
	if !ok {
		return filter, badRequest("Invalid limit")
	}
	filter.Limit = min(limit, maxPageSize)

	if filter.Offset, ok = queryInt(c, "offset"); !ok {
		return filter, badRequest("Invalid offset")
	}
	return filter, nil
}

// queryInt parses a non-negative integer query parameter. A missing
// parameter is 0.
func queryInt(c echo.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Update godoc
// @Summary Update an inquiry
// @Description Changes the status and/or appends a note.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Param request body UpdateInquiryRequest true "Changes"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/inquiries/{id} [put]
func (h *AdminInquiryHandler) Update(c echo.Context) error {
	id, ok := parseInquiryID(c.Param("id"))
	if !ok {
		return errorResponse(apperrors.ErrInquiryIDRequired)
	}

	var req UpdateInquiryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	err := h.inquiryService.Update(c.Request().Context(), id, service.UpdateInquiryInput{
		Status: req.Status,
		Note:   req.Note,
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Inquiry updated successfully"})
}

// Delete godoc
// @Summary Delete an inquiry
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/inquiries/{id} [delete]
func (h *AdminInquiryHandler) Delete(c echo.Context) error {
	id, ok := parseInquiryID(c.Param("id"))
	if !ok {
		return errorResponse(apperrors.ErrInquiryIDRequired)
	}

	if err := h.inquiryService.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Inquiry deleted successfully"})
}

// Stats godoc
// @Summary Inquiry statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StatsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/stats [get]
func (h *AdminInquiryHandler) Stats(c echo.Context) error {
	stats, err := h.inquiryService.Stats(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, StatsResponse{Success: true, Data: stats})
}
