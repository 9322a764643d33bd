// Package snapshot assembles an immutable, queryable view of one ingestion
// pass: sorted title/thumbnail sequences, UUID indexes, and the hash-prefix
// bucketed VideoInfo table.
package snapshot

import (
	"sort"

	"dearrowbrowser.dev/server/internal/hashindex"
	"dearrowbrowser.dev/server/internal/ingest"
	"dearrowbrowser.dev/server/internal/stringpool"
)

// Snapshot is a fully built, read-only dataset generation. Once published it
// is never mutated; a reload builds a brand new Snapshot and atomically
// swaps it in under internal/reload.Controller.
type Snapshot struct {
	Titles     []*ingest.Title
	Thumbnails []*ingest.Thumbnail

	titlesByUUID     map[string]*ingest.Title
	thumbnailsByUUID map[string]*ingest.Thumbnail

	Usernames map[string]*ingest.Username // keyed by raw user ID string
	VIPUsers  map[string]struct{}

	VideoInfos [hashindex.NumBuckets][]*ingest.VideoInfo

	// Errors accumulated during ingestion of this generation (non-fatal
	// per-row parse failures), exposed via GET /errors.
	Errors []error

	LastUpdatedMs  int64 // when this snapshot was published, server clock
	LastModifiedMs int64 // mtime of titles.csv at load time, upstream mirror clock

	StringCount int
}

// Build sorts result's titles/thumbnails by submission time (ascending, as
// the original parser's DearrowDB.sort does) and indexes them by UUID.
func Build(pool *stringpool.Pool, result *ingest.Result, lastUpdatedMs, lastModifiedMs int64) *Snapshot {
	titles := append([]*ingest.Title(nil), result.Titles...)
	sort.SliceStable(titles, func(i, j int) bool { return titles[i].TimeSubmitted < titles[j].TimeSubmitted })

	thumbnails := append([]*ingest.Thumbnail(nil), result.Thumbnails...)
	sort.SliceStable(thumbnails, func(i, j int) bool { return thumbnails[i].TimeSubmitted < thumbnails[j].TimeSubmitted })

	s := &Snapshot{
		Titles:           titles,
		Thumbnails:       thumbnails,
		titlesByUUID:     make(map[string]*ingest.Title, len(titles)),
		thumbnailsByUUID: make(map[string]*ingest.Thumbnail, len(thumbnails)),
		Usernames:        result.Usernames,
		VIPUsers:         result.VIPUsers,
		VideoInfos:       result.VideoInfos,
		Errors:           result.Errors,
		LastUpdatedMs:    lastUpdatedMs,
		LastModifiedMs:   lastModifiedMs,
		StringCount:      pool.Len(),
	}
	for _, t := range titles {
		s.titlesByUUID[t.UUID.String()] = t
	}
	for _, th := range thumbnails {
		s.thumbnailsByUUID[th.UUID.String()] = th
	}
	return s
}

// TitleByUUID looks up a title by its UUID string.
func (s *Snapshot) TitleByUUID(uuid string) (*ingest.Title, bool) {
	t, ok := s.titlesByUUID[uuid]
	return t, ok
}

// ThumbnailByUUID looks up a thumbnail by its UUID string.
func (s *Snapshot) ThumbnailByUUID(uuid string) (*ingest.Thumbnail, bool) {
	t, ok := s.thumbnailsByUUID[uuid]
	return t, ok
}

// VideoInfoFor returns the VideoInfo for a video, if known, doing a
// pointer-equality scan within the video's hash-prefix bucket.
func (s *Snapshot) VideoInfoFor(videoID *stringpool.Handle) (*ingest.VideoInfo, bool) {
	prefix := hashindex.ComputeHashPrefix(videoID.String())
	for _, vi := range s.VideoInfos[prefix] {
		if vi.VideoID == videoID {
			return vi, true
		}
	}
	return nil, false
}

// Reachable walks every string handle reachable from s and yields it to
// yield, for use by stringpool.Pool.Prune after a new Snapshot has been
// built.
func (s *Snapshot) Reachable(yield func(*stringpool.Handle) bool) {
	for _, t := range s.Titles {
		yield(t.UUID)
		yield(t.VideoID)
		yield(t.Title)
		yield(t.UserID)
	}
	for _, th := range s.Thumbnails {
		yield(th.UUID)
		yield(th.VideoID)
		yield(th.UserID)
	}
	for _, u := range s.Usernames {
		yield(u.UserID)
		yield(u.Username)
	}
	for _, bucket := range s.VideoInfos {
		for _, vi := range bucket {
			yield(vi.VideoID)
		}
	}
}
