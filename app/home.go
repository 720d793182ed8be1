package app

import (
	"net/http"
	"time"

	"github.com/km-arc/go-twostep/framework/binding"
	gohttp "github.com/km-arc/go-twostep/framework/http"
	"github.com/km-arc/go-twostep/framework/module"
)

// HomeModule serves the landing routes.
type HomeModule struct {
	module.Base
}

func NewHomeModule(g Greeter, v *Visit, clock Clock, binder *binding.Binder) *HomeModule {
	m := &HomeModule{}

	m.Get("/", func(ctx *gohttp.Context) (*gohttp.Response, error) {
		return gohttp.Text(http.StatusOK, g.Greet(ctx.Request.Query("name"))), nil
	})

	m.Get("/hello/{name}", func(ctx *gohttp.Context) (*gohttp.Response, error) {
		return gohttp.Success(map[string]any{
			"message": g.Greet(ctx.Request.RouteParam("name")),
			"visit":   v.ID.String(),
			"request": ctx.Request.Header(gohttp.RequestIDHeader),
		}), nil
	})

	m.Get("/welcome", func(*gohttp.Context) (*gohttp.Response, error) {
		return gohttp.RedirectTo("/"), nil
	})

	m.Get("/time", func(*gohttp.Context) (*gohttp.Response, error) {
		return gohttp.Success(map[string]any{
			"now":     clock.Now().Format(time.RFC3339),
			"elapsed": clock.Now().Sub(v.Started).String(),
		}), nil
	})

	m.Post("/echo", func(ctx *gohttp.Context) (*gohttp.Response, error) {
		var body struct {
			Message string `json:"message"`
		}
		if err := binder.Bind(ctx.Request, &body); err != nil {
			return gohttp.Error(http.StatusBadRequest, err.Error()), nil
		}
		return gohttp.Created(body), nil
	})

	return m
}
