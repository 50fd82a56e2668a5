package handler

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"efactura/internal/repository"
	"efactura/internal/service"
)

// RegisterRoutes attaches HTTP routes to the Fiber app. Handlers stay thin:
// parameter parsing and error translation only, business logic lives in the
// services.
func RegisterRoutes(app *fiber.App, db *sql.DB, invoices service.InvoiceReader, syncer service.Syncer) {
	// static OpenAPI document + Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/companies/:id/invoices", ListInvoices(invoices))
	app.Post("/companies/:id/sync", SyncCompany(syncer))

	app.Get("/invoices/:id", GetInvoice(invoices))
	app.Get("/invoices/:id/projection", GetInvoiceProjection(invoices))
	app.Get("/invoices/:id/download", DownloadInvoice(invoices))

	app.Post("/reparse", ReparseIncomplete(syncer))
}

// HealthCheck reports DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListInvoices returns a page of a company's invoices with optional issuer
// and date-range filters.
func ListInvoices(svc service.InvoiceReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := pathID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		limit, err := strconv.Atoi(c.Query("limit", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		filter := repository.InvoiceFilter{IssuerVATID: c.Query("issuer_vat_id")}
		if filter.DateFrom, err = queryDate(c, "date_from"); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid date_from, expected YYYY-MM-DD")
		}
		if filter.DateTo, err = queryDate(c, "date_to"); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid date_to, expected YYYY-MM-DD")
		}

		res, err := svc.List(c.UserContext(), companyID, filter, repository.PageQuery{Limit: limit, Offset: offset})
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(res)
	}
}

// GetInvoice returns one invoice record.
func GetInvoice(svc service.InvoiceReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		inv, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(inv)
	}
}

// GetInvoiceProjection returns the invoice's canonical projection.
func GetInvoiceProjection(svc service.InvoiceReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		parsed, err := svc.GetProjection(c.UserContext(), id)
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(parsed)
	}
}

// DownloadInvoice streams the invoice's archive, re-obtained through the
// retrieval ladder when the cache is gone.
func DownloadInvoice(svc service.InvoiceReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		blob, filename, err := svc.DownloadArchive(c.UserContext(), id)
		if err != nil {
			return translateError(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/zip")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
		return c.Send(blob)
	}
}

// SyncCompany triggers one sync pass for a company. force=true overrides a
// disabled auto-sync flag.
func SyncCompany(svc service.Syncer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		force := c.QueryBool("force", false)

		counts, err := svc.SyncCompany(c.UserContext(), id, force)
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(counts)
	}
}

// ReparseIncomplete retries extraction for records with missing enrichment
// fields.
func ReparseIncomplete(svc service.Syncer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		updated, err := svc.ReparseIncomplete(c.UserContext())
		if err != nil {
			return translateError(c, err)
		}
		return c.JSON(fiber.Map{"updated": updated})
	}
}

func pathID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func queryDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
