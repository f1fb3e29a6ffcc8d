package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/crop-yield-dashboard/internal/chart"
	"github.com/i474232898/crop-yield-dashboard/internal/crop"
	"github.com/i474232898/crop-yield-dashboard/internal/dashboard"
	"github.com/i474232898/crop-yield-dashboard/internal/export"
)

const sessionCookie = "crop_session"

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"tons": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"pct":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).ParseFS(templateFS, "templates/index.html"))

func registerPage(app *fiber.App, deps Deps) {
	dash := deps.Dashboard

	session := func(c *fiber.Ctx) *dashboard.Session {
		sess := dash.Session(c.Cookies(sessionCookie))
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return sess
	}

	app.Get("/", func(c *fiber.Ctx) error {
		view := dash.View(session(c))

		var buf bytes.Buffer
		if err := pageTemplate.Execute(&buf, view); err != nil {
			return fmt.Errorf("render dashboard: %w", err)
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	})

	app.Post("/predict", func(c *fiber.Ctx) error {
		sess := session(c)
		req, err := parsePredictForm(c)
		if err != nil {
			var ierr *inputError
			if !errors.As(err, &ierr) {
				return err
			}
			var form *crop.PredictionRequest
			if ierr.decoded {
				form = &req
			}
			dash.Reject(sess, form, ierr.msg)
			return c.Redirect("/#result", fiber.StatusSeeOther)
		}
		dash.Submit(c.UserContext(), sess, req)
		return c.Redirect("/#result", fiber.StatusSeeOther)
	})

	app.Post("/dashboard/window", func(c *fiber.Ctx) error {
		w, err := crop.ParseTimeWindow(c.FormValue("time_period"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		dash.SelectWindow(c.UserContext(), session(c), w)
		return c.Redirect("/#history", fiber.StatusSeeOther)
	})

	app.Post("/dashboard/archive", func(c *fiber.Ctx) error {
		dash.Archive(c.UserContext(), session(c))
		return c.Redirect("/#history", fiber.StatusSeeOther)
	})

	app.Get("/dashboard/charts/:name", func(c *fiber.Ctx) error {
		view := dash.View(session(c))

		var render func(io.Writer) error
		switch c.Params("name") {
		case "growth":
			render = func(w io.Writer) error { return chart.Growth(w, view.Growth) }
		case "trend":
			render = func(w io.Writer) error { return chart.Trend(w, view.History) }
		case "comparison":
			if view.Analysis == nil {
				return c.SendStatus(fiber.StatusNoContent)
			}
			render = func(w io.Writer) error { return chart.Comparison(w, view.Analysis.Comparison) }
		case "distribution":
			render = func(w io.Writer) error { return chart.Distribution(w, view.Distribution) }
		default:
			return fiber.NewError(fiber.StatusNotFound, "unknown chart")
		}

		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			if errors.Is(err, chart.ErrNoData) {
				return c.SendStatus(fiber.StatusNoContent)
			}
			return err
		}
		c.Set(fiber.HeaderContentType, "image/svg+xml")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(buf.Bytes())
	})

	app.Get("/dashboard/export.xlsx", func(c *fiber.Ctx) error {
		view := dash.View(session(c))

		var buf bytes.Buffer
		if err := export.HistoryXLSX(&buf, view.History); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Attachment(fmt.Sprintf("prediction-history-%s.xlsx", view.Window))
		return c.Send(buf.Bytes())
	})
}
