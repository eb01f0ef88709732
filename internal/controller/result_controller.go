package controller

import (
	"github.com/gofiber/fiber/v2"

	"bant-agent-be/internal/pkg/serverutils"
	"bant-agent-be/internal/service"
)

type IResultController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
}

type resultController struct {
	service service.IInterviewService
}

func NewResultController(service service.IInterviewService) IResultController {
	return &resultController{service: service}
}

func (c *resultController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/results/v1")
	h.Get(":deal_id", c.Show)
	h.Get(":deal_id/export", c.Export)
}

func (c *resultController) Show(ctx *fiber.Ctx) error {
	dealID := ctx.Params("deal_id")

	res, err := c.service.GetResult(ctx.Context(), dealID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get qualification result", res))
}

func (c *resultController) Export(ctx *fiber.Ctx) error {
	dealID := ctx.Params("deal_id")

	data, err := c.service.ExportResult(ctx.Context(), dealID)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="bant_`+dealID+`.json"`)
	return ctx.Send(data)
}
