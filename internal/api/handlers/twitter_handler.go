package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/rcamargo/postwing/configs"
	"github.com/rcamargo/postwing/internal/service"
	"github.com/rcamargo/postwing/pkg/utils"
)

type TwitterHandler struct {
	s   service.TwitterService
	cfg config.Config
}

func NewTwitterHandler(cfg config.Config, service service.TwitterService) *TwitterHandler {
	return &TwitterHandler{s: service, cfg: cfg}
}

func (h *TwitterHandler) Connect(c *fiber.Ctx) error {
	state, err := utils.GenerateRandomKey(16)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	verifier, err := utils.GenerateRandomKey(32)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	// State and PKCE verifier are round-tripped through short-lived cookies.
	c.Cookie(&fiber.Cookie{
		Name:     "x_oauth_state",
		Value:    state,
		HTTPOnly: true,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
	})
	c.Cookie(&fiber.Cookie{
		Name:     "x_oauth_verifier",
		Value:    verifier,
		HTTPOnly: true,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
	})

	return c.Redirect(h.s.AuthURL(state, verifier))
}

func (h *TwitterHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if state == "" || state != c.Cookies("x_oauth_state") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid oauth state",
		})
	}

	verifier := c.Cookies("x_oauth_verifier")
	if verifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing oauth verifier",
		})
	}

	userID := GetUserID(c)

	if err := h.s.Callback(c.Context(), code, verifier, userID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *TwitterHandler) Status(c *fiber.Ctx) error {
	userID := GetUserID(c)

	status, err := h.s.ConnectionStatus(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *TwitterHandler) Disconnect(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if err := h.s.Disconnect(c.Context(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to disconnect X account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
