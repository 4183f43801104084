// Package models defines the data structures for the zonecast system.
// JSON field names match the protocol-visible zone state record exactly.
package models

// PlayMode is the playback mode of a zone.
type PlayMode string

const (
	ModePlay  PlayMode = "play"
	ModePause PlayMode = "pause"
	ModeStop  PlayMode = "stop"
)

// InputMode identifies which input/provider currently drives a zone's playback.
type InputMode string

const (
	InputAirPlay        InputMode = "airplay"
	InputSpotify        InputMode = "spotify"
	InputMusicAssistant InputMode = "musicassistant"
	InputLineIn         InputMode = "linein"
	InputMixedGroup     InputMode = "mixedgroup"
	InputAlert          InputMode = "alert"
	InputNone           InputMode = "none"
)

// QueueAuthority enumerates who may advance a zone's queue cursor.
type QueueAuthority string

const (
	AuthorityLocal          QueueAuthority = "local"
	AuthoritySpotify        QueueAuthority = "spotify"
	AuthorityMusicAssistant QueueAuthority = "musicassistant"
	AuthorityAppleMusic     QueueAuthority = "applemusic"
	AuthorityDeezer         QueueAuthority = "deezer"
	AuthorityTidal          QueueAuthority = "tidal"
	AuthorityAirPlay        QueueAuthority = "airplay"
)

// Audio type tags carried in the broadcast state record.
const (
	AudioTypeFile     = 0
	AudioTypeRadio    = 1
	AudioTypePlaylist = 2
	AudioTypeLineIn   = 3
)

// ZoneState is the canonical, protocol-visible record for one zone.
// It is broadcast in full on every committed change.
type ZoneState struct {
	Mode           PlayMode       `json:"mode"`
	Title          string         `json:"title"`
	Artist         string         `json:"artist"`
	Album          string         `json:"album"`
	CoverURL       string         `json:"coverurl"`
	AudioPath      string         `json:"audiopath"`
	Station        string         `json:"station"`
	QIndex         int            `json:"qindex"`
	QID            string         `json:"qid"`
	Time           float64        `json:"time"`     // seconds
	Duration       float64        `json:"duration"` // seconds
	Volume         int            `json:"volume"`
	AudioType      int            `json:"audiotype"`
	Type           int            `json:"type"` // file-kind tag, see kinds.go
	SourceName     string         `json:"sourceName"`
	Power          string         `json:"power"`
	ClientState    string         `json:"clientState"`
	QueueAuthority QueueAuthority `json:"queueAuthority"`
}

// QueueItem is one entry in a zone's play queue. Immutable once enqueued;
// queue mutation replaces the item list, never items in place.
type QueueItem struct {
	UniqueID  string  `json:"unique_id"`
	AudioPath string  `json:"audiopath"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Album     string  `json:"album"`
	CoverURL  string  `json:"coverurl"`
	Duration  float64 `json:"duration"`
	Station   string  `json:"station"`
	AudioType int     `json:"audiotype"`
}

// AuthorityForInput maps an input mode to the queue authority it implies.
func AuthorityForInput(mode InputMode) QueueAuthority {
	switch mode {
	case InputAirPlay:
		return AuthorityAirPlay
	case InputSpotify:
		return AuthoritySpotify
	case InputMusicAssistant:
		return AuthorityMusicAssistant
	default:
		// linein, mixedgroup, alert and none are all locally driven
		return AuthorityLocal
	}
}
