package models

import "strings"

// File-kind tags resolved from the audiopath. Values 10+ are reserved for
// alert playback so protocol clients can tell an alert apart from a track.
const (
	KindUnknown = 0
	KindFile    = 1
	KindStream  = 2
	KindRadio   = 3
	KindLineIn  = 4
	KindAlert   = 10
)

// Alert category kinds, offset from KindAlert.
const (
	KindAlertBell     = 11
	KindAlertFireBell = 12
	KindAlertAlarm    = 13
	KindAlertTTS      = 14
	KindAlertChime    = 15
)

// IsRadioPath reports whether the audiopath identifies a radio station
// stream (no meaningful duration or seek position).
func IsRadioPath(audiopath string) bool {
	p := strings.ToLower(strings.TrimSpace(audiopath))
	return strings.HasPrefix(p, "radio/") ||
		strings.HasPrefix(p, "radio:") ||
		strings.HasPrefix(p, "tunein/") ||
		strings.HasPrefix(p, "station/")
}

// IsLineInPath reports whether the audiopath identifies a line-in input.
func IsLineInPath(audiopath string) bool {
	p := strings.ToLower(strings.TrimSpace(audiopath))
	return strings.HasPrefix(p, "linein") || strings.HasPrefix(p, "aux/")
}

// IsRadio reports whether the combination of audiopath and audiotype
// classifies as radio.
func IsRadio(audiopath string, audiotype int) bool {
	return audiotype == AudioTypeRadio || IsRadioPath(audiopath)
}

// FileKindFor resolves the file-kind tag from an audiopath and audiotype.
func FileKindFor(audiopath string, audiotype int) int {
	switch {
	case IsLineInPath(audiopath):
		return KindLineIn
	case IsRadio(audiopath, audiotype):
		return KindRadio
	case audiopath == "":
		return KindUnknown
	}
	p := strings.ToLower(audiopath)
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return KindStream
	}
	return KindFile
}

// AlertKind returns the file-kind tag for an alert category.
func AlertKind(alertType string) int {
	switch strings.ToLower(alertType) {
	case "bell":
		return KindAlertBell
	case "fire", "firebell":
		return KindAlertFireBell
	case "alarm":
		return KindAlertAlarm
	case "tts":
		return KindAlertTTS
	case "chime":
		return KindAlertChime
	default:
		return KindAlert
	}
}

// NormalizeTrackID reduces an audiopath to a stable track identity so that
// late metadata updates for the same track can be recognized. Provider query
// junk (session tokens, cache busters) is stripped from URL-shaped paths.
func NormalizeTrackID(audiopath string) string {
	p := strings.TrimSpace(audiopath)
	if p == "" {
		return ""
	}
	lower := strings.ToLower(p)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
		return strings.ToLower(p)
	}
	if strings.HasPrefix(lower, "spotify:") || strings.HasPrefix(lower, "tidal:") ||
		strings.HasPrefix(lower, "deezer:") {
		return lower
	}
	return p
}
