// Package segments implements the SegmentReducer: folding a video's
// SponsorBlock "skip" segments into a sorted, non-overlapping list of
// uncut-segment fractional intervals.
package segments

import "sort"

// Segment is a raw (start, end) time range in seconds, as found in
// sponsorTimes.csv after filtering.
type Segment struct {
	Start float64
	End   float64
}

// Uncut is a fractional [Offset, Offset+Length) interval of a video's
// duration not covered by any sponsor segment.
type Uncut struct {
	Offset float64
	Length float64
}

// Reduce folds segs (SponsorBlock segments for one video, any order) against
// duration into the sorted, non-overlapping list of uncut-segment intervals.
//
// Ported directly from the original parser's video_infos construction: walk
// segments sorted by start time, maintaining only the last pushed uncut
// interval, since by induction every earlier interval is already final once
// a later segment's start has been seen.
// duration must already be resolved to a positive value by the caller (the
// canonical videoDuration, or failing that the max segment end time) —
// videos with neither are dropped entirely before Reduce is ever called.
func Reduce(segs []Segment, duration float64) []Uncut {
	if duration <= 0 {
		return []Uncut{{Offset: 0, Length: 1}}
	}

	sorted := make([]Segment, len(segs))
	copy(sorted, segs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out []Uncut
	primed := false
	for _, seg := range sorted {
		if seg.Start >= duration {
			continue
		}
		offset := seg.Start / duration
		end := seg.End
		if end > duration {
			end = duration
		}
		end /= duration

		if !primed {
			primed = true
			if offset != 0 {
				out = append(out, Uncut{Offset: 0, Length: offset})
			}
			if seg.End != duration {
				out = append(out, Uncut{Offset: end, Length: 1 - end})
			}
			continue
		}
		if len(out) == 0 {
			// the first segment already cut the whole video
			continue
		}

		last := &out[len(out)-1]
		switch {
		case last.Offset > end:
			// already fully covered by the interval we already emitted
			continue
		case last.Offset > offset:
			// this segment overlaps the previous one but extends past its end
			*last = Uncut{Offset: end, Length: 1 - end}
		default:
			// this segment does not overlap the previous one
			*last = Uncut{Offset: last.Offset, Length: offset - last.Offset}
			out = append(out, Uncut{Offset: end, Length: 1 - end})
		}
	}

	if len(out) > 0 && out[len(out)-1].Offset == 1 {
		out = out[:len(out)-1]
	}
	if !primed {
		out = append(out, Uncut{Offset: 0, Length: 1})
	}
	return out
}
