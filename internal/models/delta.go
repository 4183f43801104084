package models

// StateDelta is a partial update to a ZoneState. A nil field means "leave
// unchanged"; a non-nil field is applied even when it carries the zero value,
// so "absent" and "explicitly cleared" stay distinguishable.
type StateDelta struct {
	Mode           *PlayMode       `json:"mode,omitempty"`
	Title          *string         `json:"title,omitempty"`
	Artist         *string         `json:"artist,omitempty"`
	Album          *string         `json:"album,omitempty"`
	CoverURL       *string         `json:"coverurl,omitempty"`
	AudioPath      *string         `json:"audiopath,omitempty"`
	Station        *string         `json:"station,omitempty"`
	QIndex         *int            `json:"qindex,omitempty"`
	QID            *string         `json:"qid,omitempty"`
	Time           *float64        `json:"time,omitempty"`
	Duration       *float64        `json:"duration,omitempty"`
	Volume         *int            `json:"volume,omitempty"`
	AudioType      *int            `json:"audiotype,omitempty"`
	Type           *int            `json:"type,omitempty"`
	SourceName     *string         `json:"sourceName,omitempty"`
	Power          *string         `json:"power,omitempty"`
	ClientState    *string         `json:"clientState,omitempty"`
	QueueAuthority *QueueAuthority `json:"queueAuthority,omitempty"`
}

// Merge applies the delta on top of cur and returns the merged state.
// cur is never mutated.
func (d StateDelta) Merge(cur ZoneState) ZoneState {
	next := cur
	if d.Mode != nil {
		next.Mode = *d.Mode
	}
	if d.Title != nil {
		next.Title = *d.Title
	}
	if d.Artist != nil {
		next.Artist = *d.Artist
	}
	if d.Album != nil {
		next.Album = *d.Album
	}
	if d.CoverURL != nil {
		next.CoverURL = *d.CoverURL
	}
	if d.AudioPath != nil {
		next.AudioPath = *d.AudioPath
	}
	if d.Station != nil {
		next.Station = *d.Station
	}
	if d.QIndex != nil {
		next.QIndex = *d.QIndex
	}
	if d.QID != nil {
		next.QID = *d.QID
	}
	if d.Time != nil {
		next.Time = *d.Time
	}
	if d.Duration != nil {
		next.Duration = *d.Duration
	}
	if d.Volume != nil {
		next.Volume = *d.Volume
	}
	if d.AudioType != nil {
		next.AudioType = *d.AudioType
	}
	if d.Type != nil {
		next.Type = *d.Type
	}
	if d.SourceName != nil {
		next.SourceName = *d.SourceName
	}
	if d.Power != nil {
		next.Power = *d.Power
	}
	if d.ClientState != nil {
		next.ClientState = *d.ClientState
	}
	if d.QueueAuthority != nil {
		next.QueueAuthority = *d.QueueAuthority
	}
	return next
}

// EqualOn reports whether every set field of the delta already equals the
// corresponding field of cur, i.e. the delta would be a no-op.
func (d StateDelta) EqualOn(cur ZoneState) bool {
	return d.Merge(cur) == cur
}

// TimeOnly reports whether Time is the only field the delta sets.
func (d StateDelta) TimeOnly() bool {
	if d.Time == nil {
		return false
	}
	probe := d
	probe.Time = nil
	return probe == (StateDelta{})
}

// TouchesMetadata reports whether the delta sets any field that feeds the
// audio session metadata (title/artist/album/cover/station/audiopath).
func (d StateDelta) TouchesMetadata() bool {
	return d.Title != nil || d.Artist != nil || d.Album != nil ||
		d.CoverURL != nil || d.Station != nil || d.AudioPath != nil
}

// TouchesTiming reports whether the delta sets time or duration.
func (d StateDelta) TouchesTiming() bool {
	return d.Time != nil || d.Duration != nil
}
