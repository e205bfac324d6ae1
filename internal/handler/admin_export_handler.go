package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"inquirydesk/internal/model"
	"inquirydesk/internal/repository"
)

const (
	exportFilename = "inquiries.csv"
	dateLayout     = "2006-01-02"
)

var exportHeader = []string{
	"id", "name", "email", "phone", "company", "country",
	"product_interest", "custom_product", "quantity", "delivery_port",
	"target_price", "certifications", "message", "inquiry_type",
	"status", "source", "created_at", "updated_at",
}

// Export godoc
// @Summary Export inquiries as CSV
// @Description Downloads every inquiry matching the filters, newest first. Dates are YYYY-MM-DD or RFC 3339; a bare endDate includes that whole day.
// @Tags admin
// @Produce text/csv
// @Security BearerAuth
// @Param startDate query string false "Created on or after"
// @Param endDate query string false "Created on or before"
// @Param status query string false "Only inquiries with this status"
// @Success 200 {string} string "CSV file"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/export/inquiries [get]
func (h *AdminInquiryHandler) Export(c echo.Context) error {
	filter := repository.InquiryFilter{Status: strings.TrimSpace(c.QueryParam("status"))}

	var ok bool
	if filter.From, ok = parseDateParam(c.QueryParam("startDate"), false); !ok {
		return badRequest("Invalid startDate")
	}
	if filter.To, ok = parseDateParam(c.QueryParam("endDate"), true); !ok {
		return badRequest("Invalid endDate")
	}

	inquiries, err := h.inquiryService.Export(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exportFilename+`"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write(exportHeader); err != nil {
		return err
	}
	for i := range inquiries {
		if err := w.Write(exportRow(&inquiries[i])); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// parseDateParam accepts YYYY-MM-DD or RFC 3339. With endOfDay a bare date
// is moved to the last instant of that day. An empty value means no bound.
func parseDateParam(raw string, endOfDay bool) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}

func exportRow(inq *model.Inquiry) []string {
	return []string{
		strconv.FormatUint(uint64(inq.ID), 10),
		inq.Name,
		inq.Email,
		deref(inq.Phone),
		deref(inq.Company),
		deref(inq.Country),
		deref(inq.ProductInterest),
		deref(inq.CustomProduct),
		deref(inq.Quantity),
		deref(inq.DeliveryPort),
		deref(inq.TargetPrice),
		strings.Join(inq.Certifications, ", "),
		deref(inq.Message),
		inq.InquiryType,
		inq.Status,
		inq.Source,
		inq.CreatedAt.UTC().Format(time.RFC3339),
		inq.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
