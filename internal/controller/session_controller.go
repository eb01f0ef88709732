package controller

import (
	"github.com/gofiber/fiber/v2"

	"bant-agent-be/internal/dto"
	"bant-agent-be/internal/pkg/serverutils"
	"bant-agent-be/internal/service"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Answer(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.IInterviewService
}

func NewSessionController(service service.IInterviewService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions/v1")
	h.Post("", c.Start)
	h.Get(":id", c.Show)
	h.Post(":id/answer", c.Answer)
}

func (c *sessionController) Start(ctx *fiber.Ctx) error {
	var req dto.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Start(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start interview", res))
}

func (c *sessionController) Answer(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")

	var req dto.AnswerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Answer(ctx.Context(), sessionID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process answer", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")

	res, err := c.service.Show(ctx.Context(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}
