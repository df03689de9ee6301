package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/playnexus/spinwheel/internal/model"
	"github.com/playnexus/spinwheel/internal/service"
)

// CampaignServiceInterface defines the interface for campaign administration.
type CampaignServiceInterface interface {
	Create(ctx context.Context, req *model.CreateCampaignRequest) (*model.Campaign, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.CampaignResponse, error)
	Reset(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.CampaignStatus) error
}

// CampaignHandler handles HTTP requests for campaign administration.
type CampaignHandler struct {
	service   CampaignServiceInterface
	validator *validator.Validate
}

// NewCampaignHandler creates a new CampaignHandler with the given service and validator.
func NewCampaignHandler(svc CampaignServiceInterface, v *validator.Validate) *CampaignHandler {
	return &CampaignHandler{service: svc, validator: v}
}

// formatCampaignValidationError converts validator errors to stable messages.
// Provides defensive handling for unknown fields with descriptive fallback messages.
func formatCampaignValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			tag := fe.Tag()

			switch field {
			case "Name":
				if tag == "required" {
					return "invalid request: name is required"
				}
				if tag == "notblank" {
					return "invalid request: name cannot be whitespace only"
				}
				if tag == "max" {
					return "invalid request: name exceeds maximum length of 255"
				}
				return "invalid request: name is invalid"
			case "TotalBudget":
				if tag == "required" {
					return "invalid request: total_budget is required"
				}
				return "invalid request: total_budget must be non-negative"
			case "Mode":
				if tag == "required" {
					return "invalid request: mode is required"
				}
				return "invalid request: mode must be one of auto, target_expense_rate, manual"
			case "Color":
				return "invalid request: color must be a hex value like #ffd700"
			case "Slices":
				if tag == "required" {
					return "invalid request: slices are required"
				}
				if tag == "min" {
					return "invalid request: at least two slices are required"
				}
				return "invalid request: slices are invalid"
			default:
				if tag == "required" {
					return "invalid request: " + field + " is required"
				}
				if tag == "max" {
					return "invalid request: " + field + " exceeds maximum length"
				}
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

// CreateCampaign handles POST /api/campaigns requests.
func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req model.CreateCampaignRequest

	// Parse JSON body
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatCampaignValidationError(err)})
	}

	campaign, err := h.service.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCampaignExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "campaign already exists"})
		}
		if errors.Is(err, service.ErrInvalidCatalog) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request: catalog needs at least two slices and one zero-cost slice",
			})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("campaign_name", req.Name).Msg("failed to create campaign")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": campaign.ID.String()})
}

// GetCampaign handles GET /api/campaigns/:id requests.
func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a UUID"})
	}

	campaign, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "campaign not found"})
		}
		log.Error().Err(err).Str("campaign_id", id.String()).Msg("failed to get campaign")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(campaign)
}

// ResetCampaign handles POST /api/campaigns/:id/reset requests, the
// administrative ledger reset.
func (h *CampaignHandler) ResetCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a UUID"})
	}

	if err := h.service.Reset(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "campaign not found"})
		}
		log.Error().Err(err).Str("campaign_id", id.String()).Msg("failed to reset campaign ledger")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("campaign_id", id.String()).Msg("campaign ledger reset")
	return c.Status(fiber.StatusOK).Send(nil)
}

// UpdateStatus handles PATCH /api/campaigns/:id/status requests.
func (h *CampaignHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a UUID"})
	}

	var req model.UpdateCampaignStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request: status must be one of draft, live, paused, ended",
		})
	}

	if err := h.service.UpdateStatus(c.Context(), id, model.CampaignStatus(req.Status)); err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "campaign not found"})
		}
		log.Error().Err(err).Str("campaign_id", id.String()).Msg("failed to update campaign status")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("campaign_id", id.String()).Str("status", req.Status).Msg("campaign status updated")
	return c.Status(fiber.StatusOK).Send(nil)
}
