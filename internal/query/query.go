// Package query implements the QueryEngine: the read-side operations that
// turn a published snapshot into API responses.
package query

import (
	"sort"
	"strings"

	"dearrowbrowser.dev/server/internal/alea"
	"dearrowbrowser.dev/server/internal/ingest"
	"dearrowbrowser.dev/server/internal/snapshot"
	"dearrowbrowser.dev/server/internal/stringpool"
)

// Engine answers read queries against one (pool, snapshot) generation. It
// holds no lock itself — internal/reload.Controller is responsible for
// handing out a consistent (pool, snapshot) pair under its RWMutex for the
// duration of one request.
type Engine struct {
	pool *stringpool.Pool
	snap *snapshot.Snapshot
}

// New wraps a generation for querying.
func New(pool *stringpool.Pool, snap *snapshot.Snapshot) *Engine {
	return &Engine{pool: pool, snap: snap}
}

// Snapshot exposes the underlying snapshot for handlers that need raw
// metadata (status counters, error list).
func (e *Engine) Snapshot() *snapshot.Snapshot { return e.snap }

// TitleByUUID is an O(1) lookup.
func (e *Engine) TitleByUUID(uuid string) (*ingest.Title, bool) {
	return e.snap.TitleByUUID(uuid)
}

// ThumbnailByUUID is an O(1) lookup.
func (e *Engine) ThumbnailByUUID(uuid string) (*ingest.Thumbnail, bool) {
	return e.snap.ThumbnailByUUID(uuid)
}

// TitlesByVideoID scans the title sequence for rows whose VideoID handle is
// the interned handle for videoID, sorted by time_submitted descending. If
// videoID was never interned, there can be no matches, so an empty result is
// returned to skip the scan entirely.
func (e *Engine) TitlesByVideoID(videoID string) []*ingest.Title {
	h, ok := e.pool.Lookup(videoID)
	if !ok {
		return nil
	}
	var out []*ingest.Title
	for _, t := range e.snap.Titles {
		if t.VideoID == h {
			out = append(out, t)
		}
	}
	sortByTimeSubmittedDesc(out, func(t *ingest.Title) int64 { return t.TimeSubmitted })
	return out
}

// TitlesByUserID mirrors TitlesByVideoID, filtering on UserID instead.
func (e *Engine) TitlesByUserID(userID string) []*ingest.Title {
	h, ok := e.pool.Lookup(userID)
	if !ok {
		return nil
	}
	var out []*ingest.Title
	for _, t := range e.snap.Titles {
		if t.UserID == h {
			out = append(out, t)
		}
	}
	sortByTimeSubmittedDesc(out, func(t *ingest.Title) int64 { return t.TimeSubmitted })
	return out
}

// ThumbnailsByVideoID mirrors TitlesByVideoID for thumbnails.
func (e *Engine) ThumbnailsByVideoID(videoID string) []*ingest.Thumbnail {
	h, ok := e.pool.Lookup(videoID)
	if !ok {
		return nil
	}
	var out []*ingest.Thumbnail
	for _, t := range e.snap.Thumbnails {
		if t.VideoID == h {
			out = append(out, t)
		}
	}
	sortByTimeSubmittedDesc(out, func(t *ingest.Thumbnail) int64 { return t.TimeSubmitted })
	return out
}

// ThumbnailsByUserID mirrors ThumbnailsByVideoID, filtering on UserID.
func (e *Engine) ThumbnailsByUserID(userID string) []*ingest.Thumbnail {
	h, ok := e.pool.Lookup(userID)
	if !ok {
		return nil
	}
	var out []*ingest.Thumbnail
	for _, t := range e.snap.Thumbnails {
		if t.UserID == h {
			out = append(out, t)
		}
	}
	sortByTimeSubmittedDesc(out, func(t *ingest.Thumbnail) int64 { return t.TimeSubmitted })
	return out
}

func sortByTimeSubmittedDesc[T any](items []T, keyOf func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool { return keyOf(items[i]) > keyOf(items[j]) })
}

// NewestTitles returns the n most-recently-submitted titles.
func (e *Engine) NewestTitles(n int) []*ingest.Title {
	return newest(e.snap.Titles, n, func(t *ingest.Title) int64 { return t.TimeSubmitted })
}

// NewestThumbnails returns the n most-recently-submitted thumbnails.
func (e *Engine) NewestThumbnails(n int) []*ingest.Thumbnail {
	return newest(e.snap.Thumbnails, n, func(t *ingest.Thumbnail) int64 { return t.TimeSubmitted })
}

func newest[T any](sorted []T, n int, keyOf func(T) int64) []T {
	// sorted is ascending by time_submitted (Snapshot invariant); take the
	// tail and reverse it.
	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = sorted[len(sorted)-1-i]
	}
	return out
}

// UnverifiedTitles returns every title flagged Unverified and neither Locked
// nor ShadowHidden.
func (e *Engine) UnverifiedTitles() []*ingest.Title {
	var out []*ingest.Title
	for _, t := range e.snap.Titles {
		if t.Flags.Has(ingest.TitleUnverified) && !t.Flags.Has(ingest.TitleLocked) && !t.Flags.Has(ingest.TitleShadowHidden) {
			out = append(out, t)
		}
	}
	return out
}

// VideoInfoFor returns a video's reduced segment info, if known.
func (e *Engine) VideoInfoFor(videoID string) (*ingest.VideoInfo, bool) {
	h, ok := e.pool.Lookup(videoID)
	if !ok {
		return nil, false
	}
	return e.snap.VideoInfoFor(h)
}

// Lookup interns-checks a raw string against the pool without scanning,
// for handlers that need the handle to pass to BrandingTitles/BrandingThumbnails.
func (e *Engine) Lookup(s string) (*stringpool.Handle, bool) {
	return e.pool.Lookup(s)
}

// ErrorCount and StringCount surface status-endpoint counters.
func (e *Engine) ErrorCount() int  { return len(e.snap.Errors) }
func (e *Engine) StringCount() int { return e.snap.StringCount }

// UsernameFor returns the display username recorded for userID, if any.
func (e *Engine) UsernameFor(userID string) (string, bool) {
	u, ok := e.snap.Usernames[userID]
	if !ok {
		return "", false
	}
	return u.Username.String(), true
}

// IsVIP reports whether userID appears on the VIP roster.
func (e *Engine) IsVIP(userID string) bool {
	_, ok := e.snap.VIPUsers[userID]
	return ok
}

// CountTitleSubmissions counts titles with votes >= 0 attributed to userID's
// interned handle, for the userInfo endpoint.
func (e *Engine) CountTitleSubmissions(userID string) int {
	h, ok := e.pool.Lookup(userID)
	if !ok {
		return 0
	}
	n := 0
	for _, t := range e.snap.Titles {
		if t.UserID == h && t.Votes >= 0 {
			n++
		}
	}
	return n
}

// CountThumbnailSubmissions mirrors CountTitleSubmissions for thumbnails.
func (e *Engine) CountThumbnailSubmissions(userID string) int {
	h, ok := e.pool.Lookup(userID)
	if !ok {
		return 0
	}
	n := 0
	for _, t := range e.snap.Thumbnails {
		if t.UserID == h && t.Votes >= 0 {
			n++
		}
	}
	return n
}

// titleVisible and thumbnailVisible are the first-stage visibility filters
// applied before the SponsorBlock-compat branding response is assembled:
// votes above -1, saturated score above -2, and not Removed/ShadowHidden.
func titleVisible(t *ingest.Title) bool {
	if t.Flags.Has(ingest.TitleRemoved) || t.Flags.Has(ingest.TitleShadowHidden) {
		return false
	}
	return t.Votes > -1 && ingest.Score(t.Votes, t.Downvotes, false) > -2
}

func thumbnailVisible(t *ingest.Thumbnail) bool {
	if t.Flags.Has(ingest.ThumbnailRemoved) || t.Flags.Has(ingest.ThumbnailShadowHidden) {
		return false
	}
	return t.Votes > -1 && ingest.ThumbnailScore(t.Votes, t.Downvotes) > -2
}

// titleFetchable applies the second-stage "would this actually be served to
// a player" filter, bypassed entirely when fetchAll is set.
func titleFetchable(t *ingest.Title, fetchAll bool) bool {
	if fetchAll {
		return true
	}
	locked := t.Flags.Has(ingest.TitleLocked)
	threshold := int8(0)
	if t.Flags.Has(ingest.TitleUnverified) {
		threshold = 1
	}
	return ingest.Score(t.Votes, t.Downvotes, false) >= threshold || locked
}

// thumbnailFetchableSingle is the per-video /api/branding fetchability rule:
// a locked thumbnail is always fetchable regardless of score.
func thumbnailFetchableSingle(t *ingest.Thumbnail, fetchAll bool) bool {
	if fetchAll {
		return true
	}
	if t.Flags.Has(ingest.ThumbnailLocked) {
		return true
	}
	return ingest.ThumbnailScore(t.Votes, t.Downvotes) >= 0
}

// thumbnailChunkPasses is the /api/branding/{prefix} rule. It folds
// visibility and fetchability into one threshold check instead of the
// two-stage pipeline the single-video endpoint uses: a locked thumbnail only
// relaxes the score floor to -1, it is not exempted outright.
func thumbnailChunkPasses(t *ingest.Thumbnail, fetchAll bool) bool {
	if t.Flags.Has(ingest.ThumbnailRemoved) || t.Flags.Has(ingest.ThumbnailShadowHidden) {
		return false
	}
	if t.Votes <= -1 {
		return false
	}
	threshold := int8(0)
	if fetchAll || t.Flags.Has(ingest.ThumbnailLocked) {
		threshold = -1
	}
	return ingest.ThumbnailScore(t.Votes, t.Downvotes) >= threshold
}

// BrandingTitles returns the visible, fetchable titles for videoID, ordered
// (locked, votes) descending.
func (e *Engine) BrandingTitles(videoID *stringpool.Handle, fetchAll bool) []*ingest.Title {
	var out []*ingest.Title
	for _, t := range e.snap.Titles {
		if t.VideoID != videoID || !titleVisible(t) {
			continue
		}
		if !titleFetchable(t, fetchAll) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		al, bl := a.Flags.Has(ingest.TitleLocked), b.Flags.Has(ingest.TitleLocked)
		if al != bl {
			return al // locked sorts first (descending bool)
		}
		return a.Votes > b.Votes
	})
	return out
}

// BrandingThumbnails mirrors BrandingTitles, ordered (locked, votes, NOT
// original) descending.
func (e *Engine) BrandingThumbnails(videoID *stringpool.Handle, fetchAll bool) []*ingest.Thumbnail {
	var out []*ingest.Thumbnail
	for _, t := range e.snap.Thumbnails {
		if t.VideoID != videoID || !thumbnailVisible(t) {
			continue
		}
		if !thumbnailFetchableSingle(t, fetchAll) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		al, bl := a.Flags.Has(ingest.ThumbnailLocked), b.Flags.Has(ingest.ThumbnailLocked)
		if al != bl {
			return al
		}
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		aOrig, bOrig := a.Flags.Has(ingest.ThumbnailOriginal), b.Flags.Has(ingest.ThumbnailOriginal)
		return !aOrig && bOrig // NOT original sorts first among ties
	})
	return out
}

// BrandingChunk groups every title/thumbnail whose hash_prefix matches
// prefix by video ID, including videos with no VideoInfo entry.
type BrandingChunk struct {
	VideoID    *stringpool.Handle
	Titles     []*ingest.Title
	Thumbnails []*ingest.Thumbnail
	Info       *ingest.VideoInfo // nil if unknown
}

// ByHashPrefix enumerates every video touched by titles/thumbnails whose
// hash_prefix equals prefix, grouping by video and applying the branding
// visibility filter. fetchAll mirrors ChunkBrandingParams.fetchAll upstream:
// it bypasses the title fetchability threshold and relaxes the thumbnail
// score floor to -1, same as the single-video endpoint.
func (e *Engine) ByHashPrefix(prefix uint16, fetchAll bool) []BrandingChunk {
	byVideo := make(map[*stringpool.Handle]*BrandingChunk)
	order := make([]*stringpool.Handle, 0)

	get := func(id *stringpool.Handle) *BrandingChunk {
		c, ok := byVideo[id]
		if !ok {
			c = &BrandingChunk{VideoID: id}
			byVideo[id] = c
			order = append(order, id)
		}
		return c
	}

	for _, t := range e.snap.Titles {
		if t.HashPrefix != prefix || !titleVisible(t) || !titleFetchable(t, fetchAll) {
			continue
		}
		get(t.VideoID).Titles = append(get(t.VideoID).Titles, t)
	}
	for _, t := range e.snap.Thumbnails {
		if t.HashPrefix != prefix || !thumbnailChunkPasses(t, fetchAll) {
			continue
		}
		get(t.VideoID).Thumbnails = append(get(t.VideoID).Thumbnails, t)
	}

	out := make([]BrandingChunk, 0, len(order))
	for _, id := range order {
		c := byVideo[id]
		sort.SliceStable(c.Titles, func(i, j int) bool {
			a, b := c.Titles[i], c.Titles[j]
			al, bl := a.Flags.Has(ingest.TitleLocked), b.Flags.Has(ingest.TitleLocked)
			if al != bl {
				return al
			}
			return a.Votes > b.Votes
		})
		sort.SliceStable(c.Thumbnails, func(i, j int) bool {
			a, b := c.Thumbnails[i], c.Thumbnails[j]
			al, bl := a.Flags.Has(ingest.ThumbnailLocked), b.Flags.Has(ingest.ThumbnailLocked)
			if al != bl {
				return al
			}
			if a.Votes != b.Votes {
				return a.Votes > b.Votes
			}
			aOrig, bOrig := a.Flags.Has(ingest.ThumbnailOriginal), b.Flags.Has(ingest.ThumbnailOriginal)
			return !aOrig && bOrig
		})
		if info, ok := e.snap.VideoInfoFor(id); ok {
			c.Info = info
		}
		out = append(out, *c)
	}
	return out
}

// ParseHashPrefix hex-decodes a 4-character branding-chunk prefix.
func ParseHashPrefix(s string) (uint16, bool) {
	if len(s) != 4 {
		return 0, false
	}
	var v uint16
	for _, r := range strings.ToLower(s) {
		var d uint16
		switch {
		case r >= '0' && r <= '9':
			d = uint16(r - '0')
		case r >= 'a' && r <= 'f':
			d = uint16(r-'a') + 10
		default:
			return 0, false
		}
		v = v<<4 | d
	}
	return v, true
}

// RandomTimeFraction computes the deterministic per-video "random time" as a
// fraction of the video's duration in [0, 1) — matching SponsorBlockServer's
// own randomTime contract, which is always a fraction regardless of whether
// uncut-segment info is available. Seeded from the raw video ID bytes via
// the Alea PRNG.
func RandomTimeFraction(videoID string, info *ingest.VideoInfo) float64 {
	r := alea.New(videoID).Random()
	if info == nil {
		if r > 0.9 {
			r -= 0.9
		}
		return r
	}
	if !info.HasOutro && r > 0.9 {
		r -= 0.9
	}
	var sumLen float64
	for _, s := range info.UncutSegments {
		sumLen += s.Length
	}
	r *= sumLen
	for _, s := range info.UncutSegments {
		if r <= s.Length {
			r += s.Offset
			break
		}
		r -= s.Length
	}
	return r
}

// RenderTitleText applies the SponsorBlockServer-compat `<` → `‹` rendering:
// only the first occurrence is replaced; later `<` characters are left as is.
func RenderTitleText(title string) string {
	return strings.Replace(title, "<", "‹", 1)
}
