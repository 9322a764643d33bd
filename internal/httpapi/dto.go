// Package httpapi wires the QueryEngine and ReloadController into the HTTP
// surface: the browse API and the SponsorBlockServer-compatible "branding"
// emulation API, grounded on
// original_source/dearrow-browser-server/src/{routes,sbserver_emulation}.rs
// and restyled in the teacher's Echo-handler idiom.
package httpapi

import (
	"time"

	"github.com/dustin/go-humanize"

	"dearrowbrowser.dev/server/internal/ingest"
	"dearrowbrowser.dev/server/internal/query"
)

// ApiTitle is the browse-API JSON shape for a title row.
type ApiTitle struct {
	UUID          string  `json:"uuid"`
	Title         string  `json:"title"`
	Original      bool    `json:"original"`
	Votes         int8    `json:"votes"`
	Downvotes     int8    `json:"downvotes"`
	Locked        bool    `json:"locked"`
	ShadowHidden  bool    `json:"shadowHidden"`
	Unverified    bool    `json:"unverified"`
	Removed       bool    `json:"removed"`
	VideoID       string  `json:"videoID"`
	UserID        string  `json:"userID"`
	TimeSubmitted int64   `json:"timeSubmitted"`
	HashPrefix    string  `json:"hashPrefix"`
}

func apiTitle(t *ingest.Title) ApiTitle {
	return ApiTitle{
		UUID:          t.UUID.String(),
		Title:         t.Title.String(),
		Original:      t.Flags.Has(ingest.TitleOriginal),
		Votes:         t.Votes,
		Downvotes:     t.Downvotes,
		Locked:        t.Flags.Has(ingest.TitleLocked),
		ShadowHidden:  t.Flags.Has(ingest.TitleShadowHidden),
		Unverified:    t.Flags.Has(ingest.TitleUnverified),
		Removed:       t.Flags.Has(ingest.TitleRemoved),
		VideoID:       t.VideoID.String(),
		UserID:        t.UserID.String(),
		TimeSubmitted: t.TimeSubmitted,
		HashPrefix:    hashPrefixHex(t.HashPrefix),
	}
}

// ApiThumbnail is the browse-API JSON shape for a thumbnail row.
type ApiThumbnail struct {
	UUID          string   `json:"uuid"`
	Timestamp     *float64 `json:"timestamp"`
	Original      bool     `json:"original"`
	Votes         int8     `json:"votes"`
	Downvotes     int8     `json:"downvotes"`
	Locked        bool     `json:"locked"`
	ShadowHidden  bool     `json:"shadowHidden"`
	Removed       bool     `json:"removed"`
	VideoID       string   `json:"videoID"`
	UserID        string   `json:"userID"`
	TimeSubmitted int64    `json:"timeSubmitted"`
	HashPrefix    string   `json:"hashPrefix"`
}

func apiThumbnail(t *ingest.Thumbnail) ApiThumbnail {
	return ApiThumbnail{
		UUID:          t.UUID.String(),
		Timestamp:     t.Timestamp,
		Original:      t.Flags.Has(ingest.ThumbnailOriginal),
		Votes:         t.Votes,
		Downvotes:     t.Downvotes,
		Locked:        t.Flags.Has(ingest.ThumbnailLocked),
		ShadowHidden:  t.Flags.Has(ingest.ThumbnailShadowHidden),
		Removed:       t.Flags.Has(ingest.ThumbnailRemoved),
		VideoID:       t.VideoID.String(),
		UserID:        t.UserID.String(),
		TimeSubmitted: t.TimeSubmitted,
		HashPrefix:    hashPrefixHex(t.HashPrefix),
	}
}

func hashPrefixHex(p uint16) string {
	const hex = "0123456789abcdef"
	return string([]byte{
		hex[(p>>12)&0xf],
		hex[(p>>8)&0xf],
		hex[(p>>4)&0xf],
		hex[p&0xf],
	})
}

// StatusResponse answers GET /status.
type StatusResponse struct {
	LastUpdated      int64   `json:"last_updated"`
	LastUpdatedHuman string  `json:"last_updated_human"`
	LastModified     int64   `json:"last_modified"`
	UpdatingNow      bool    `json:"updating_now"`
	Titles           int     `json:"titles"`
	Thumbnails       int     `json:"thumbnails"`
	Errors           int     `json:"errors"`
	LastError        *string `json:"last_error,omitempty"`
	StringCount      int     `json:"string_count"`
}

// humanizeMillis renders a Unix-millisecond timestamp as a relative string
// (e.g. "3 hours ago"), the same go-humanize helper the teacher uses for
// human-facing durations elsewhere.
func humanizeMillis(ms int64) string {
	return humanize.Time(time.UnixMilli(ms))
}

// SBApiTitle is the SponsorBlockServer-compatible title shape.
type SBApiTitle struct {
	Title    string  `json:"title"`
	Original bool    `json:"original"`
	Votes    int8    `json:"votes"`
	Locked   bool    `json:"locked"`
	UUID     string  `json:"UUID"`
	UserID   *string `json:"userID,omitempty"`
}

func sbApiTitle(t *ingest.Title, includeUserID bool) SBApiTitle {
	out := SBApiTitle{
		// https://github.com/ajayyy/SponsorBlockServer getBranding.ts title rendering.
		Title:    query.RenderTitleText(t.Title.String()),
		Original: t.Flags.Has(ingest.TitleOriginal),
		Votes:    ingest.Score(t.Votes, t.Downvotes, t.Flags.Has(ingest.TitleUnverified)),
		Locked:   t.Flags.Has(ingest.TitleLocked),
		UUID:     t.UUID.String(),
	}
	if includeUserID {
		id := t.UserID.String()
		out.UserID = &id
	}
	return out
}

// SBApiThumbnail is the SponsorBlockServer-compatible thumbnail shape.
type SBApiThumbnail struct {
	Timestamp *float64 `json:"timestamp"`
	Original  bool      `json:"original"`
	Votes     int8      `json:"votes"`
	Locked    bool      `json:"locked"`
	UUID      string    `json:"UUID"`
	UserID    *string   `json:"userID,omitempty"`
}

func sbApiThumbnail(t *ingest.Thumbnail, includeUserID bool) SBApiThumbnail {
	out := SBApiThumbnail{
		Timestamp: t.Timestamp,
		Original:  t.Flags.Has(ingest.ThumbnailOriginal),
		Votes:     ingest.ThumbnailScore(t.Votes, t.Downvotes),
		Locked:    t.Flags.Has(ingest.ThumbnailLocked),
		UUID:      t.UUID.String(),
	}
	if includeUserID {
		id := t.UserID.String()
		out.UserID = &id
	}
	return out
}

// SBApiVideo is the per-video SponsorBlockServer-compatible branding object.
type SBApiVideo struct {
	Titles        []SBApiTitle     `json:"titles"`
	Thumbnails    []SBApiThumbnail `json:"thumbnails"`
	RandomTime    float64          `json:"randomTime"`
	VideoDuration *float64         `json:"videoDuration"`
}

// UserInfo answers GET /api/userInfo.
type UserInfo struct {
	UserID                   string `json:"userID"`
	UserName                 string `json:"userName"`
	TitleSubmissionCount     int    `json:"titleSubmissionCount"`
	ThumbnailSubmissionCount int    `json:"thumbnailSubmissionCount"`
	VIP                      bool   `json:"vip"`
}
