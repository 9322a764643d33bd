package query

import (
	"testing"

	"dearrowbrowser.dev/server/internal/hashindex"
	"dearrowbrowser.dev/server/internal/ingest"
	"dearrowbrowser.dev/server/internal/snapshot"
	"dearrowbrowser.dev/server/internal/stringpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFixture(t *testing.T) (*Engine, *stringpool.Pool) {
	t.Helper()
	pool := stringpool.New()

	mkTitle := func(uuid, videoID, text, userID string, ts int64, votes, downvotes int8, flags ingest.TitleFlags) *ingest.Title {
		return &ingest.Title{
			UUID: pool.Intern(uuid), VideoID: pool.Intern(videoID), Title: pool.Intern(text),
			UserID: pool.Intern(userID), TimeSubmitted: ts, Votes: votes, Downvotes: downvotes,
			Flags: flags, HashPrefix: hashindex.ComputeHashPrefix(videoID),
		}
	}
	mkThumb := func(uuid, videoID, userID string, ts int64, votes, downvotes int8, flags ingest.ThumbnailFlags) *ingest.Thumbnail {
		return &ingest.Thumbnail{
			UUID: pool.Intern(uuid), VideoID: pool.Intern(videoID), UserID: pool.Intern(userID),
			TimeSubmitted: ts, Votes: votes, Downvotes: downvotes, Flags: flags,
			HashPrefix: hashindex.ComputeHashPrefix(videoID),
		}
	}

	result := &ingest.Result{
		Titles: []*ingest.Title{
			mkTitle("t1", "vid1", "Old Title", "user1", 100, 2, 0, 0),
			mkTitle("t2", "vid1", "New Title", "user2", 200, 5, 0, ingest.TitleLocked),
			mkTitle("t3", "vid1", "Removed Title", "user1", 300, 10, 0, ingest.TitleRemoved),
			mkTitle("t4", "vid2", "Other Video", "user1", 150, 1, 0, 0),
		},
		Thumbnails: []*ingest.Thumbnail{
			mkThumb("th1", "vid1", "user1", 100, 3, 0, ingest.ThumbnailOriginal),
			mkThumb("th2", "vid1", "user2", 200, 3, 0, 0),
		},
		Usernames: map[string]*ingest.Username{},
		VIPUsers:  map[string]struct{}{},
	}
	snap := snapshot.Build(pool, result, 1000, 2000)
	return New(pool, snap), pool
}

func TestTitleByUUID(t *testing.T) {
	e, _ := buildFixture(t)
	title, ok := e.TitleByUUID("t2")
	require.True(t, ok)
	assert.Equal(t, "New Title", title.Title.String())

	_, ok = e.TitleByUUID("nonexistent")
	assert.False(t, ok)
}

func TestTitlesByVideoIDSortedDescendingByTime(t *testing.T) {
	e, _ := buildFixture(t)
	titles := e.TitlesByVideoID("vid1")
	require.Len(t, titles, 3)
	assert.Equal(t, "t3", titles[0].UUID.String())
	assert.Equal(t, "t2", titles[1].UUID.String())
	assert.Equal(t, "t1", titles[2].UUID.String())
}

func TestTitlesByVideoIDUnknownReturnsEmpty(t *testing.T) {
	e, _ := buildFixture(t)
	assert.Empty(t, e.TitlesByVideoID("never-seen"))
}

func TestNewestTitles(t *testing.T) {
	e, _ := buildFixture(t)
	newest := e.NewestTitles(2)
	require.Len(t, newest, 2)
	assert.Equal(t, "t3", newest[0].UUID.String())
	assert.Equal(t, "t2", newest[1].UUID.String())
}

func TestBrandingTitlesFiltersRemovedAndSortsLockedFirst(t *testing.T) {
	e, pool := buildFixture(t)
	vid1, _ := pool.Lookup("vid1")
	titles := e.BrandingTitles(vid1, false)
	require.Len(t, titles, 2)
	assert.Equal(t, "t2", titles[0].UUID.String(), "locked title should sort first")
	assert.Equal(t, "t1", titles[1].UUID.String())
}

func TestBrandingThumbnailsNonOriginalSortsFirstOnTie(t *testing.T) {
	e, pool := buildFixture(t)
	vid1, _ := pool.Lookup("vid1")
	thumbs := e.BrandingThumbnails(vid1, false)
	require.Len(t, thumbs, 2)
	assert.Equal(t, "th2", thumbs[0].UUID.String(), "non-original wins ties")
	assert.Equal(t, "th1", thumbs[1].UUID.String())
}

func TestByHashPrefixGroupsByVideo(t *testing.T) {
	e, _ := buildFixture(t)
	prefix := hashindex.ComputeHashPrefix("vid1")
	chunks := e.ByHashPrefix(prefix, false)
	require.Len(t, chunks, 1)
	assert.Equal(t, "vid1", chunks[0].VideoID.String())
	assert.Len(t, chunks[0].Titles, 2)
	assert.Len(t, chunks[0].Thumbnails, 2)
}

func TestParseHashPrefix(t *testing.T) {
	v, ok := ParseHashPrefix("abcd")
	require.True(t, ok)
	assert.Equal(t, uint16(0xabcd), v)

	_, ok = ParseHashPrefix("abc")
	assert.False(t, ok)

	_, ok = ParseHashPrefix("zzzz")
	assert.False(t, ok)
}

func TestRenderTitleTextReplacesFirstOccurrence(t *testing.T) {
	got := RenderTitleText("a < b < c")
	assert.Equal(t, "a ‹ b < c", got)
}

func TestRandomTimeFractionWithoutInfoStaysInRange(t *testing.T) {
	for _, id := range []string{"a", "b", "video-xyz"} {
		v := RandomTimeFraction(id, nil)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestRandomTimeFractionWithInfoStaysWithinUncutRange(t *testing.T) {
	info := &ingest.VideoInfo{
		VideoDuration: 100,
		HasOutro:      true,
		UncutSegments: []ingest.UncutSegment{{Offset: 0, Length: 0.5}, {Offset: 0.6, Length: 0.4}},
	}
	v := RandomTimeFraction("some-video", info)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 1.0)
}

func TestRandomTimeFractionDeterministic(t *testing.T) {
	info := &ingest.VideoInfo{
		VideoDuration: 100,
		UncutSegments: []ingest.UncutSegment{{Offset: 0, Length: 1}},
	}
	a := RandomTimeFraction("dQw4w9WgXcQ", info)
	b := RandomTimeFraction("dQw4w9WgXcQ", info)
	assert.Equal(t, a, b)
}
