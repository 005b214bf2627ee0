package request

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes the body into dst and runs its validate tags.
func Parse(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return Validate(dst)
}

// Validate runs the validate tags of v and maps failures to a 400.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fiber.NewError(fiber.StatusBadRequest, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s long", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// ParamID reads a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

const DateLayout = "2006-01-02"

// DateRange reads optional date_from and date_to query values. The upper
// bound is moved to the end of its day.
func DateRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if v := c.Query("date_from"); v != "" {
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "date_from must be YYYY-MM-DD")
		}
		from = &d
	}
	if v := c.Query("date_to"); v != "" {
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "date_to must be YYYY-MM-DD")
		}
		d = d.Add(24*time.Hour - time.Nanosecond)
		to = &d
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "date_to is before date_from")
	}
	return from, to, nil
}
