package state

import "github.com/audiozone/zonecast/internal/models"

// Patch builders: pure functions turning playback events into state deltas.
// They never touch the store; callers commit them via Patch.

// TrackStarted describes a queue item that just began playing.
func TrackStarted(item models.QueueItem, qindex int, sourceName string) models.StateDelta {
	d := trackFields(item, qindex)
	mode := models.ModePlay
	zero := 0.0
	d.Mode = &mode
	d.Time = &zero
	if sourceName != "" {
		d.SourceName = &sourceName
	}
	return d
}

// TrackResumed describes the queue item playback returned to after an
// interruption.
func TrackResumed(item models.QueueItem, qindex int) models.StateDelta {
	d := trackFields(item, qindex)
	mode := models.ModePlay
	zero := 0.0
	d.Mode = &mode
	d.Time = &zero
	return d
}

// QueueItemChanged describes a cursor move without a mode change.
func QueueItemChanged(item models.QueueItem, qindex int) models.StateDelta {
	return trackFields(item, qindex)
}

// AlertStarted describes alert playback presented as the current "track".
func AlertStarted(alertType, title, url string, durationSec float64) models.StateDelta {
	mode := models.ModePlay
	zero := 0.0
	audiotype := models.AudioTypeFile
	kind := models.AlertKind(alertType)
	d := models.StateDelta{
		Mode:      &mode,
		Title:     &title,
		AudioPath: &url,
		Time:      &zero,
		AudioType: &audiotype,
		Type:      &kind,
	}
	empty := ""
	d.Artist = &empty
	d.Album = &empty
	d.Station = &empty
	if durationSec > 0 {
		d.Duration = &durationSec
	}
	return d
}

// OutputStatus describes an output transport status update.
func OutputStatus(power, clientState string) models.StateDelta {
	d := models.StateDelta{}
	if power != "" {
		d.Power = &power
	}
	if clientState != "" {
		d.ClientState = &clientState
	}
	return d
}

func trackFields(item models.QueueItem, qindex int) models.StateDelta {
	title := item.Title
	artist := item.Artist
	album := item.Album
	cover := item.CoverURL
	path := item.AudioPath
	station := item.Station
	qid := item.UniqueID
	audiotype := item.AudioType
	kind := models.FileKindFor(item.AudioPath, item.AudioType)
	d := models.StateDelta{
		Title:     &title,
		Artist:    &artist,
		Album:     &album,
		CoverURL:  &cover,
		AudioPath: &path,
		Station:   &station,
		QIndex:    &qindex,
		QID:       &qid,
		AudioType: &audiotype,
		Type:      &kind,
	}
	if item.Duration > 0 {
		dur := item.Duration
		d.Duration = &dur
	}
	return d
}
