// Package ingest implements the RecordMerger: it joins the raw CSV rows for
// thumbnails, titles, usernames, VIPs, and SponsorBlock segments into the
// merged in-memory record types the query engine serves.
package ingest

import "dearrowbrowser.dev/server/internal/stringpool"

// ThumbnailFlags is a bitmask over a Thumbnail's boolean attributes. Plain Go
// bit constants are used here — no bitflag library appears anywhere in the
// example corpus, so this stays on stdlib bit manipulation.
type ThumbnailFlags uint8

const (
	ThumbnailOriginal ThumbnailFlags = 1 << iota
	ThumbnailLocked
	ThumbnailShadowHidden
	ThumbnailRemoved
)

func (f ThumbnailFlags) Has(bit ThumbnailFlags) bool { return f&bit != 0 }

// TitleFlags is a bitmask over a Title's boolean attributes.
type TitleFlags uint8

const (
	TitleOriginal TitleFlags = 1 << iota
	TitleLocked
	TitleShadowHidden
	TitleUnverified
	TitleRemoved
)

func (f TitleFlags) Has(bit TitleFlags) bool { return f&bit != 0 }

// Thumbnail is a merged thumbnails.csv + thumbnailTimestamps.csv +
// thumbnailVotes.csv record.
type Thumbnail struct {
	UUID           *stringpool.Handle
	VideoID        *stringpool.Handle
	UserID         *stringpool.Handle
	TimeSubmitted  int64
	Timestamp      *float64 // nil when this is the "original" thumbnail with no explicit timestamp
	Votes          int8
	Downvotes      int8
	Flags          ThumbnailFlags
	HashPrefix     uint16
}

// Title is a merged titles.csv + titleVotes.csv record.
type Title struct {
	UUID          *stringpool.Handle
	VideoID       *stringpool.Handle
	Title         *stringpool.Handle
	UserID        *stringpool.Handle
	TimeSubmitted int64
	Votes         int8
	Downvotes     int8
	Flags         TitleFlags
	HashPrefix    uint16
}

// Username is a merged userNames.csv record, keyed by UserID.
type Username struct {
	UserID   *stringpool.Handle
	Username *stringpool.Handle
	Locked   bool
}

// UncutSegment is a fractional [offset, offset+length) interval of a video's
// duration that SponsorBlock segments do NOT cover.
type UncutSegment struct {
	Offset float64
	Length float64
}

// VideoInfo is the reduced per-video output of the SponsorBlock segment
// merge: the video's canonical duration, its sorted uncut-segment intervals,
// and whether any contributing segment was categorized "outro".
type VideoInfo struct {
	VideoID        *stringpool.Handle
	VideoDuration  float64
	UncutSegments  []UncutSegment
	HasOutro       bool
}

// ObjectKind names which record type a ParseError occurred while building.
type ObjectKind int

const (
	KindTitle ObjectKind = iota
	KindThumbnail
	KindUsername
)

func (k ObjectKind) String() string {
	switch k {
	case KindTitle:
		return "Title"
	case KindThumbnail:
		return "Thumbnail"
	case KindUsername:
		return "Username"
	default:
		return "Unknown"
	}
}
