package ingest

import (
	"dearrowbrowser.dev/server/internal/hashindex"
	"dearrowbrowser.dev/server/internal/stringpool"
)

type rawThumbnail struct {
	VideoID       string
	Original      int8
	UserID        string
	TimeSubmitted int64
	UUID          string
	HashedVideoID string
}

type rawThumbnailTimestamp struct {
	UUID      string
	Timestamp float64
}

type rawThumbnailVotes struct {
	UUID         string
	Votes        int8
	Locked       int8
	ShadowHidden int8
	Downvotes    int8
	Removed      int8
}

type rawTitle struct {
	VideoID       string
	Title         string
	Original      int8
	UserID        string
	TimeSubmitted int64
	UUID          string
	HashedVideoID string
}

type rawTitleVotes struct {
	UUID         string
	Votes        int8
	Locked       int8
	ShadowHidden int8
	Verification int8
	Downvotes    int8
	Removed      int8
}

type rawVIPUser struct {
	UserID string
}

type rawUsername struct {
	UserID   string
	Username string
	Locked   int8
}

type rawSponsorTime struct {
	VideoID       string
	StartTime     float64
	EndTime       float64
	VideoDuration float64
	Votes         int16
	ShadowHidden  int8
	Hidden        int8
	Category      string
	ActionType    string
	HashedVideoID string
	TimeSubmitted int64
}

// mergeThumbnail joins a thumbnails.csv row with its (optional) timestamp row
// and required votes row into the final Thumbnail record.
func mergeThumbnail(pool *stringpool.Pool, raw rawThumbnail, ts *rawThumbnailTimestamp, votes rawThumbnailVotes) (*Thumbnail, error) {
	if ts != nil && ts.UUID != raw.UUID {
		return nil, newParseError(KindThumbnail, MismatchedUUIDs{
			StructName: "ThumbnailTimestamps", UUIDMain: raw.UUID, UUIDSub: ts.UUID,
		})
	}
	if votes.UUID != raw.UUID {
		return nil, newParseError(KindThumbnail, MismatchedUUIDs{
			StructName: "ThumbnailVotes", UUIDMain: raw.UUID, UUIDSub: votes.UUID,
		})
	}

	var flags ThumbnailFlags
	original, err := intBool(KindThumbnail, raw.UUID, "original", raw.Original, 0, 1)
	if err != nil {
		return nil, err
	}
	if original {
		flags |= ThumbnailOriginal
	}
	locked, err := intBool(KindThumbnail, raw.UUID, "locked", votes.Locked, 0, 1)
	if err != nil {
		return nil, err
	}
	if locked {
		flags |= ThumbnailLocked
	}
	shadowHidden, err := intBool(KindThumbnail, raw.UUID, "shadow_hidden", votes.ShadowHidden, 0, 1)
	if err != nil {
		return nil, err
	}
	if shadowHidden {
		flags |= ThumbnailShadowHidden
	}
	removed, err := intBool(KindThumbnail, raw.UUID, "removed", votes.Removed, 0, 1)
	if err != nil {
		return nil, err
	}
	if removed {
		flags |= ThumbnailRemoved
	}

	if !flags.Has(ThumbnailOriginal) && ts == nil {
		return nil, newParseError(KindThumbnail, MissingSubobject{StructName: "ThumbnailTimestamps", UUID: raw.UUID})
	}

	var timestamp *float64
	if ts != nil {
		t := ts.Timestamp
		timestamp = &t
	}

	return &Thumbnail{
		UUID:          pool.Intern(raw.UUID),
		VideoID:       pool.Intern(raw.VideoID),
		UserID:        pool.Intern(raw.UserID),
		TimeSubmitted: raw.TimeSubmitted,
		Timestamp:     timestamp,
		Votes:         votes.Votes,
		Downvotes:     votes.Downvotes,
		Flags:         flags,
		HashPrefix:    hashindex.HashPrefixOf(raw.HashedVideoID, raw.VideoID),
	}, nil
}

// mergeTitle joins a titles.csv row with its required titleVotes row into the
// final Title record.
func mergeTitle(pool *stringpool.Pool, raw rawTitle, votes rawTitleVotes) (*Title, error) {
	if votes.UUID != raw.UUID {
		return nil, newParseError(KindTitle, MismatchedUUIDs{
			StructName: "TitleVotes", UUIDMain: raw.UUID, UUIDSub: votes.UUID,
		})
	}

	var flags TitleFlags
	original, err := intBool(KindTitle, raw.UUID, "original", raw.Original, 0, 1)
	if err != nil {
		return nil, err
	}
	if original {
		flags |= TitleOriginal
	}
	locked, err := intBool(KindTitle, raw.UUID, "locked", votes.Locked, 0, 1)
	if err != nil {
		return nil, err
	}
	if locked {
		flags |= TitleLocked
	}
	shadowHidden, err := intBool(KindTitle, raw.UUID, "shadow_hidden", votes.ShadowHidden, 0, 1)
	if err != nil {
		return nil, err
	}
	if shadowHidden {
		flags |= TitleShadowHidden
	}
	// verification is coded the other way around: -1 means unverified, 0 means verified.
	unverified, err := intBool(KindTitle, raw.UUID, "verification", votes.Verification, 0, -1)
	if err != nil {
		return nil, err
	}
	if unverified {
		flags |= TitleUnverified
	}
	removed, err := intBool(KindTitle, raw.UUID, "removed", votes.Removed, 0, 1)
	if err != nil {
		return nil, err
	}
	if removed {
		flags |= TitleRemoved
	}

	return &Title{
		UUID:          pool.Intern(raw.UUID),
		VideoID:       pool.Intern(raw.VideoID),
		Title:         pool.Intern(raw.Title),
		UserID:        pool.Intern(raw.UserID),
		TimeSubmitted: raw.TimeSubmitted,
		Votes:         votes.Votes,
		Downvotes:     votes.Downvotes,
		Flags:         flags,
		HashPrefix:    hashindex.HashPrefixOf(raw.HashedVideoID, raw.VideoID),
	}, nil
}

func mergeUsername(pool *stringpool.Pool, raw rawUsername) (*Username, error) {
	locked, err := intBool(KindUsername, raw.UserID, "locked", raw.Locked, 0, 1)
	if err != nil {
		return nil, err
	}
	return &Username{
		UserID:   pool.Intern(raw.UserID),
		Username: pool.Intern(raw.Username),
		Locked:   locked,
	}, nil
}

// sponsorTimeFiltered mirrors SponsorBlockServer's getBranding.ts filter: a
// segment counts toward a video's duration/outro info only if it's a
// non-shadow-hidden, non-hidden "skip" action with votes above -2.
func sponsorTimeFiltered(raw rawSponsorTime) bool {
	return raw.Votes > -2 && raw.ShadowHidden == 0 && raw.Hidden == 0 && raw.ActionType == "skip"
}
