package app

import (
	gohttp "github.com/km-arc/go-twostep/framework/http"
)

// PoweredByHeader is set on every response.
const PoweredByHeader = "X-Powered-By"

// SecurityHeaders is an application startup task.
type SecurityHeaders struct{}

func NewSecurityHeaders() *SecurityHeaders { return &SecurityHeaders{} }

func (*SecurityHeaders) Initialize(p *gohttp.Pipelines) error {
	p.AfterRequest.Append(func(ctx *gohttp.Context) error {
		ctx.Response.WithHeader("X-Content-Type-Options", "nosniff")
		return nil
	})
	return nil
}

// PoweredBy is a request startup task.
type PoweredBy struct {
	name string
}

func NewPoweredBy() *PoweredBy { return &PoweredBy{name: "go-twostep"} }

func (s *PoweredBy) Initialize(p *gohttp.Pipelines, _ *gohttp.Context) error {
	p.AfterRequest.Append(func(ctx *gohttp.Context) error {
		ctx.Response.WithHeader(PoweredByHeader, s.name)
		return nil
	})
	return nil
}
