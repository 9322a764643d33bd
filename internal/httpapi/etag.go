package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"dearrowbrowser.dev/server/internal/etag"
	"dearrowbrowser.dev/server/internal/snapshot"
)

// withETag sets the response ETag from snap's generation and short-circuits
// to 304 when the request's If-None-Match already names it, matching
// original_source's etag_shortcircuit!/etagged_json! macro pair.
func withETag(c echo.Context, snap *snapshot.Snapshot, render func() error) error {
	current := etag.Of(snap.LastUpdatedMs)
	c.Response().Header().Set(echo.HeaderETag, current)
	if etag.Matches(c.Request().Header.Get(echo.HeaderIfNoneMatch), current) {
		return c.NoContent(http.StatusNotModified)
	}
	return render()
}
