package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	job "github.com/rcamargo/postwing/internal/jobs"
	"github.com/rcamargo/postwing/internal/models"
	"github.com/rcamargo/postwing/internal/service"
	"github.com/rcamargo/postwing/internal/transfer"
)

type PostHandler struct {
	s          service.PostService
	dispatcher *job.PostDispatcherJob
}

func NewPostHandler(service service.PostService, dispatcher *job.PostDispatcherJob) *PostHandler {
	return &PostHandler{s: service, dispatcher: dispatcher}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.Create(c.Context(), userID, &pc)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	post, err := h.s.Get(c.Context(), userID, int64(postID))
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	q := transfer.PostListQuery{
		Status:   models.PostStatus(c.Query("status")),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}

	list, err := h.s.List(c.Context(), userID, &q)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(list)
}

func (h *PostHandler) PostStats(c *fiber.Ctx) error {
	userID := GetUserID(c)

	stats, err := h.s.Stats(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	var up transfer.PostUpdate
	if err := c.BodyParser(&up); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.Update(c.Context(), userID, int64(postID), &up)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if err := h.s.Remove(c.Context(), userID, int64(postID)); err != nil {
		return serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// DispatchNow forces a dispatcher run instead of waiting for the next tick.
func (h *PostHandler) DispatchNow(c *fiber.Ctx) error {
	published, failed, err := h.dispatcher.RunNow(c.Context())
	if err != nil {
		if errors.Is(err, job.ErrDispatchInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"published": published,
		"failed":    failed,
	})
}
