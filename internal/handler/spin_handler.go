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

// SpinServiceInterface defines the interface for the spin engine.
type SpinServiceInterface interface {
	Spin(ctx context.Context, userID string, campaignID uuid.UUID, freeSpin bool) (*model.SpinRecord, error)
}

// SpinHandler handles HTTP requests for spins.
type SpinHandler struct {
	service   SpinServiceInterface
	validator *validator.Validate
}

// NewSpinHandler creates a new SpinHandler with the given service and validator.
func NewSpinHandler(svc SpinServiceInterface, v *validator.Validate) *SpinHandler {
	return &SpinHandler{service: svc, validator: v}
}

// formatSpinValidationError converts validator errors to stable messages for spins.
func formatSpinValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			tag := fe.Tag()

			switch field {
			case "UserID":
				if tag == "required" {
					return "invalid request: user_id is required"
				}
				if tag == "max" {
					return "invalid request: user_id exceeds maximum length of 255"
				}
				return "invalid request: user_id is invalid"
			case "CampaignID":
				if tag == "required" {
					return "invalid request: campaign_id is required"
				}
				return "invalid request: campaign_id must be a UUID"
			default:
				if tag == "required" {
					return "invalid request: " + field + " is required"
				}
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

// Spin handles POST /api/spin requests.
func (h *SpinHandler) Spin(c *fiber.Ctx) error {
	var req model.SpinRequest

	// Parse JSON body
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatSpinValidationError(err)})
	}

	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: campaign_id must be a UUID"})
	}

	rec, err := h.service.Spin(c.Context(), req.UserID, campaignID, req.FreeSpin)
	if err != nil {
		var rateErr service.RateLimitError
		if errors.As(err, &rateErr) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":    "spin limit reached",
				"reset_at": rateErr.ResetAt,
			})
		}
		if errors.Is(err, service.ErrCampaignNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "campaign not found"})
		}
		if errors.Is(err, service.ErrCampaignNotLive) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "wheel unavailable"})
		}
		// ErrNoEligibleSlices and exhausted commit retries both surface as a
		// generic failure; the details are already in the error log.
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("user_id", req.UserID).
			Str("campaign_id", req.CampaignID).
			Msg("spin failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("user_id", req.UserID).
		Str("campaign_id", req.CampaignID).
		Int("slice_index", rec.SliceIndex).
		Msg("spin succeeded")

	return c.Status(fiber.StatusOK).JSON(model.SpinResponse{
		SpinID:      rec.ID.String(),
		SliceIndex:  rec.SliceIndex,
		RewardType:  string(rec.SliceType),
		RewardLabel: rec.Label,
		Cost:        rec.Cost,
	})
}
