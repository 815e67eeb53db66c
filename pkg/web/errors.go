package web

import (
	"github.com/dukex/editorial/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func unauthorized(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusUnauthorized).
		WithInstance(c.Path()).
		WithType("unauthenticated").
		WithDetail(detail)

	return c.Status(fiber.StatusUnauthorized).JSON(problem)
}

// serviceErrorStatus maps a service error kind to its HTTP status and problem type.
var serviceErrorStatus = map[string]struct {
	status      int
	problemType string
}{
	services.CodeNotFound:          {fiber.StatusNotFound, "not_found"},
	services.CodeForbidden:         {fiber.StatusForbidden, "forbidden"},
	services.CodeIllegalTransition: {fiber.StatusUnprocessableEntity, "illegal_transition"},
	services.CodeConflict:          {fiber.StatusConflict, "conflict"},
	services.CodeInvalidRequest:    {fiber.StatusBadRequest, "validation_error"},
	services.CodeStoreUnavailable:  {fiber.StatusServiceUnavailable, "store_unavailable"},
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	mapped, ok := serviceErrorStatus[services.KindOf(err)]
	if !ok {
		// Never expose details of unexpected errors
		problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
			WithInstance(c.Path()).
			WithType("internal_error")

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}

	problem := problems.NewStatusProblem(mapped.status).
		WithInstance(c.Path()).
		WithType(mapped.problemType).
		WithDetail(err.Error())

	if mapped.status == fiber.StatusServiceUnavailable {
		problem = problem.WithDetail("the content store is unavailable, try again later")
	}

	return c.Status(mapped.status).JSON(problem)
}
