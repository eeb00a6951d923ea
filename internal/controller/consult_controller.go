package controller

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/dto"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/pkg/serverutils"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/service"
)

type IConsultController interface {
	RegisterRoutes(r fiber.Router)
	Consult(ctx *fiber.Ctx) error
	Decide(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Inspect(ctx *fiber.Ctx) error
}

type consultController struct {
	consultService service.IConsultService
}

func NewConsultController(consultService service.IConsultService) IConsultController {
	return &consultController{
		consultService: consultService,
	}
}

func (c *consultController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/consult/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Consult)
	h.Post("decision", c.Decide)
	h.Get(":id/status", c.Status)
	h.Get(":id", c.Inspect)
}

func (c *consultController) Consult(ctx *fiber.Ctx) error {
	var req dto.ConsultRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.consultService.Consult(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit consultation", res))
}

func (c *consultController) Decide(ctx *fiber.Ctx) error {
	var req dto.DecisionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.consultService.Decide(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit decision", res))
}

func (c *consultController) Status(ctx *fiber.Ctx) error {
	res, err := c.consultService.Status(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success fetch status", res))
}

func (c *consultController) Inspect(ctx *fiber.Ctx) error {
	res, err := c.consultService.Inspect(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success inspect session", res))
}
