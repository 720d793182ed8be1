package bootstrap

import (
	_ "embed"
	"net/http"
	"strings"

	gohttp "github.com/km-arc/go-twostep/framework/http"
)

//go:embed favicon.ico
var defaultFavicon []byte

// DefaultFavicon returns a copy of the built-in icon.
func DefaultFavicon() []byte {
	return append([]byte(nil), defaultFavicon...)
}

const (
	faviconPath         = "/favicon.ico"
	faviconContentType  = "image/vnd.microsoft.icon"
	faviconCacheControl = "public, max-age=604800, must-revalidate"
)

// faviconHook answers /favicon.ico, matched case-insensitively, with icon.
func faviconHook(icon []byte) gohttp.BeforeHook {
	return func(ctx *gohttp.Context) (*gohttp.Response, error) {
		if ctx.Request == nil || !strings.EqualFold(ctx.Request.Path(), faviconPath) {
			return nil, nil
		}
		return gohttp.Bytes(http.StatusOK, faviconContentType, icon).
			WithHeader("Cache-Control", faviconCacheControl), nil
	}
}
