package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inquirydesk/internal/model"
	"inquirydesk/internal/service"
)

// InquiryHandler handles the public inquiry form.
type InquiryHandler struct {
	inquiryService service.InquiryService
}

// NewInquiryHandler creates a new inquiry handler.
func NewInquiryHandler(inquiryService service.InquiryService) *InquiryHandler {
	return &InquiryHandler{inquiryService: inquiryService}
}

// SubmitInquiryRequest represents the contact form payload.
type SubmitInquiryRequest struct {
	Name            string               `json:"name" validate:"required"`
	Email           string               `json:"email" validate:"required,email"`
	Phone           *string              `json:"phone"`
	Company         *string              `json:"company"`
	Country         *string              `json:"country"`
	ProductInterest *string              `json:"productInterest"`
	CustomProduct   *string              `json:"customProduct"`
	Quantity        *string              `json:"quantity"`
	DeliveryPort    *string              `json:"deliveryPort"`
	TargetPrice     *string              `json:"targetPrice"`
	Certifications  model.Certifications `json:"certifications" swaggertype:"array,string"`
	Message         *string              `json:"message"`
	InquiryType     string               `json:"inquiryType"`
	Source          string               `json:"source"`
}

// SubmitInquiryResponse is returned after a successful submission.
type SubmitInquiryResponse struct {
	Success bool   `json:"success"`
	ID      uint   `json:"id"`
	Message string `json:"message"`
}

func (r *SubmitInquiryRequest) toModel() *model.Inquiry {
	return &model.Inquiry{
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Company:         r.Company,
		Country:         r.Country,
		ProductInterest: r.ProductInterest,
		CustomProduct:   r.CustomProduct,
		Quantity:        r.Quantity,
		DeliveryPort:    r.DeliveryPort,
		TargetPrice:     r.TargetPrice,
		Certifications:  r.Certifications,
		Message:         r.Message,
		InquiryType:     r.InquiryType,
		Source:          r.Source,
	}
}

// Submit godoc
// @Summary Submit an inquiry
// @Description Stores a contact form submission with status "pending".
// @Tags inquiries
// @Accept json
// @Produce json
// @Param request body SubmitInquiryRequest true "Inquiry"
// @Success 201 {object} SubmitInquiryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /inquiries [post]
func (h *InquiryHandler) Submit(c echo.Context) error {
	var req SubmitInquiryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return badRequest(validationMessage(err, "Name and email are required"))
	}

	inquiry, err := h.inquiryService.Submit(c.Request().Context(), req.toModel())
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusCreated, SubmitInquiryResponse{
		Success: true,
		ID:      inquiry.ID,
		Message: "Inquiry submitted successfully",
	})
}
