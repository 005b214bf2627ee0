package purchase

import (
	"errors"
	"fmt"
	"io"

	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/bulkimport"
	"retailpos-backend/internal/export"
	"retailpos-backend/internal/tax"
	"retailpos-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const maxUploadBytes = 5 << 20

// Handlers serves purchase drafts and entries. Drafts live in memory, one
// per profile.
type Handlers struct {
	Drafts            *workspace.Registry[bulkimport.Draft]
	Mapper            bulkimport.Mapper
	RowsPerPage       int
	LowStockThreshold float64
}

func NewHandlers(rowsPerPage int, lowStockThreshold float64) *Handlers {
	return &Handlers{
		Drafts:            workspace.NewRegistry(func(workspace.Key) *bulkimport.Draft { return bulkimport.NewDraft() }),
		RowsPerPage:       rowsPerPage,
		LowStockThreshold: lowStockThreshold,
	}
}

type DraftView struct {
	Records []bulkimport.Record `json:"records"`
	Count   int                 `json:"count"`
	Summary tax.Summary         `json:"summary"`
}

type UploadResponse struct {
	AcceptedCount int                    `json:"accepted_count"`
	RejectedCount int                    `json:"rejected_count"`
	Added         int                    `json:"added"`
	Rejected      []bulkimport.Rejection `json:"rejected"`
	Draft         DraftView              `json:"draft"`
}

func draftKey(s auth.Session) workspace.Key {
	return workspace.Key{ShopID: s.ShopID, UserID: s.UserID}
}

func percentQuery(c *fiber.Ctx, name string) (decimal.Decimal, error) {
	v := c.Query(name)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, name+" must be a number")
	}
	return d, nil
}

func viewDraft(c *fiber.Ctx, d *bulkimport.Draft) (DraftView, error) {
	discount, err := percentQuery(c, "discount_percent")
	if err != nil {
		return DraftView{}, err
	}
	surcharge, err := percentQuery(c, "surcharge_percent")
	if err != nil {
		return DraftView{}, err
	}
	return DraftView{Records: d.Records(), Count: d.Len(), Summary: d.Summary(discount, surcharge)}, nil
}

// POST /api/purchases/draft/upload (multipart field "file")
func (h *Handlers) UploadDraft() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if fh.Size > maxUploadBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "spreadsheet is larger than 5 MB")
		}
		if err := bulkimport.CheckUpload(fh.Filename, fh.Header.Get(fiber.HeaderContentType)); err != nil {
			return fiber.NewError(fiber.StatusUnsupportedMediaType, err.Error())
		}

		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not open upload")
		}
		defer f.Close()

		rows, err := bulkimport.ReadWorkbook(f)
		switch {
		case errors.Is(err, bulkimport.ErrUnreadable), errors.Is(err, bulkimport.ErrEmptyWorkbook),
			errors.Is(err, bulkimport.ErrMissingColumns):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case err != nil:
			log.Error().Err(err).Str("file", fh.Filename).Msg("read workbook failed")
			return fiber.NewError(fiber.StatusInternalServerError, "could not read spreadsheet")
		}

		res := h.Mapper.Map(rows)
		log.Info().Uint("shop_id", s.ShopID).Str("file", fh.Filename).
			Int("accepted", res.AcceptedCount).Int("rejected", res.RejectedCount).Msg("purchase sheet imported")

		resp := UploadResponse{
			AcceptedCount: res.AcceptedCount,
			RejectedCount: res.RejectedCount,
			Rejected:      res.Rejected,
		}
		err = h.Drafts.With(draftKey(s), func(d *bulkimport.Draft) error {
			resp.Added = d.Merge(res.Accepted)
			view, err := viewDraft(c, d)
			resp.Draft = view
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// GET /api/purchases/draft?discount_percent=&surcharge_percent=
func (h *Handlers) GetDraft() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		var view DraftView
		err = h.Drafts.With(draftKey(s), func(d *bulkimport.Draft) error {
			view, err = viewDraft(c, d)
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(view)
	}
}

// DELETE /api/purchases/draft/:id
func (h *Handlers) RemoveDraftLine() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		id := c.Params("id")

		var view DraftView
		err = h.Drafts.With(draftKey(s), func(d *bulkimport.Draft) error {
			if !d.Remove(id) {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("draft line %s not found", id))
			}
			view, err = viewDraft(c, d)
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(view)
	}
}

// DELETE /api/purchases/draft
func (h *Handlers) ClearDraft() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.SessionFrom(c)
		if err != nil {
			return err
		}
		h.Drafts.Drop(draftKey(s))
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/purchases/template
func (h *Handlers) Template() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return export.Send(c, "purchase_import_template.xlsx", export.ContentTypeXLSX, func(w io.Writer) error {
			return bulkimport.WriteTemplate(w)
		})
	}
}
