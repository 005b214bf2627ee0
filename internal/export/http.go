package export

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Send renders a document into memory and returns it as a download. An
// empty document becomes a 422 and nothing is sent.
func Send(c *fiber.Ctx, filename, contentType string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		if errors.Is(err, ErrNothingToExport) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "nothing to export")
		}
		return err
	}
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(buf.Bytes())
}

// SendSheet serves one sheet as prefix_<today>.xlsx.
func SendSheet(c *fiber.Ctx, prefix string, s Sheet, err error) error {
	if err != nil {
		if errors.Is(err, ErrNothingToExport) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "nothing to export")
		}
		return err
	}
	return Send(c, Filename(prefix, time.Now(), "xlsx"), ContentTypeXLSX, func(w io.Writer) error {
		return WriteXLSX(w, s)
	})
}
