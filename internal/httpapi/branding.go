package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"dearrowbrowser.dev/server/internal/apierr"
	"dearrowbrowser.dev/server/internal/ingest"
	"dearrowbrowser.dev/server/internal/query"
)

func (s *Server) handlePostBrandingDisabled(c echo.Context) error {
	return c.String(http.StatusNotFound, "Voting through this server is not supported.")
}

// handleVideoBranding answers GET /api/branding?videoID=&service=&returnUserID=&fetchAll=,
// grounded on sbserver_emulation.rs's get_video_branding.
func (s *Server) handleVideoBranding(c echo.Context) error {
	eng := s.engine()
	return withETag(c, eng.Snapshot(), func() error {
		videoID := c.QueryParam("videoID")
		returnUserID := parseBoolParam(c, "returnUserID")
		fetchAll := parseBoolParam(c, "fetchAll")

		if service := c.QueryParam("service"); service != "" && service != "YouTube" {
			return c.JSON(http.StatusNotFound, unknownVideo(videoID))
		}

		handle, ok := eng.Lookup(videoID)
		if !ok {
			return c.JSON(http.StatusNotFound, unknownVideo(videoID))
		}

		info, _ := eng.VideoInfoFor(videoID)
		titles := eng.BrandingTitles(handle, fetchAll)
		thumbs := eng.BrandingThumbnails(handle, fetchAll)

		video := SBApiVideo{
			Titles:        mapSBTitles(titles, returnUserID),
			Thumbnails:    mapSBThumbnails(thumbs, returnUserID),
			RandomTime:    query.RandomTimeFraction(videoID, info),
			VideoDuration: videoDurationOf(info),
		}
		return c.JSON(http.StatusOK, video)
	})
}

// handleChunkBranding answers GET /api/branding/{prefix}?service=&returnUserID=&fetchAll=.
func (s *Server) handleChunkBranding(c echo.Context) error {
	eng := s.engine()
	return withETag(c, eng.Snapshot(), func() error {
		if service := c.QueryParam("service"); service != "" && service != "YouTube" {
			return c.JSON(http.StatusNotFound, map[string]SBApiVideo{})
		}

		prefixParam := c.Param("prefix")
		if len(prefixParam) != 4 {
			return apierr.BadRequest("hash prefix must be exactly 4 characters")
		}
		prefix, ok := query.ParseHashPrefix(prefixParam)
		if !ok {
			return apierr.BadRequest("invalid hash prefix")
		}

		returnUserID := parseBoolParam(c, "returnUserID")
		fetchAll := parseBoolParam(c, "fetchAll")

		chunks := eng.ByHashPrefix(prefix, fetchAll)
		out := make(map[string]SBApiVideo, len(chunks))
		for _, chunk := range chunks {
			videoID := chunk.VideoID.String()
			out[videoID] = SBApiVideo{
				Titles:        mapSBTitles(chunk.Titles, returnUserID),
				Thumbnails:    mapSBThumbnails(chunk.Thumbnails, returnUserID),
				RandomTime:    query.RandomTimeFraction(videoID, chunk.Info),
				VideoDuration: videoDurationOf(chunk.Info),
			}
		}
		return c.JSON(http.StatusOK, out)
	})
}

// handleUserInfo answers GET /api/userInfo?publicUserID=.
func (s *Server) handleUserInfo(c echo.Context) error {
	eng := s.engine()
	return withETag(c, eng.Snapshot(), func() error {
		userID := c.QueryParam("publicUserID")
		if _, ok := eng.Lookup(userID); !ok {
			return c.JSON(http.StatusOK, UserInfo{UserID: userID, UserName: userID})
		}

		userName := userID
		if name, ok := eng.UsernameFor(userID); ok {
			userName = name
		}
		return c.JSON(http.StatusOK, UserInfo{
			UserID:                   userID,
			UserName:                 userName,
			TitleSubmissionCount:     eng.CountTitleSubmissions(userID),
			ThumbnailSubmissionCount: eng.CountThumbnailSubmissions(userID),
			VIP:                      eng.IsVIP(userID),
		})
	})
}

func unknownVideo(videoID string) SBApiVideo {
	return SBApiVideo{
		Titles:     []SBApiTitle{},
		Thumbnails: []SBApiThumbnail{},
		RandomTime: query.RandomTimeFraction(videoID, nil),
	}
}

func videoDurationOf(info *ingest.VideoInfo) *float64 {
	if info == nil {
		return nil
	}
	d := info.VideoDuration
	return &d
}

func mapSBTitles(titles []*ingest.Title, includeUserID bool) []SBApiTitle {
	out := make([]SBApiTitle, len(titles))
	for i, t := range titles {
		out[i] = sbApiTitle(t, includeUserID)
	}
	return out
}

func mapSBThumbnails(thumbs []*ingest.Thumbnail, includeUserID bool) []SBApiThumbnail {
	out := make([]SBApiThumbnail, len(thumbs))
	for i, t := range thumbs {
		out[i] = sbApiThumbnail(t, includeUserID)
	}
	return out
}

func parseBoolParam(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	if err != nil {
		return false
	}
	return v
}
