package models

import "testing"

func TestFileKindFor(t *testing.T) {
	cases := []struct {
		path      string
		audiotype int
		want      int
	}{
		{"", AudioTypeFile, KindUnknown},
		{"music/album/track.flac", AudioTypeFile, KindFile},
		{"https://cdn.example.com/track.mp3", AudioTypeFile, KindStream},
		{"http://cdn.example.com/track.mp3", AudioTypeFile, KindStream},
		{"radio/wnyc", AudioTypeFile, KindRadio},
		{"tunein/s12345", AudioTypeFile, KindRadio},
		{"https://stream.example.com/live", AudioTypeRadio, KindRadio},
		{"linein", AudioTypeFile, KindLineIn},
		{"aux/1", AudioTypeFile, KindLineIn},
	}
	for _, tc := range cases {
		if got := FileKindFor(tc.path, tc.audiotype); got != tc.want {
			t.Errorf("FileKindFor(%q, %d) = %d, want %d", tc.path, tc.audiotype, got, tc.want)
		}
	}
}

func TestIsRadio(t *testing.T) {
	if !IsRadio("radio/kexp", AudioTypeFile) {
		t.Error("radio/ prefix should classify as radio")
	}
	if !IsRadio("music/track.mp3", AudioTypeRadio) {
		t.Error("radio audiotype should classify as radio regardless of path")
	}
	if IsRadio("music/track.mp3", AudioTypeFile) {
		t.Error("plain file should not classify as radio")
	}
}

func TestAlertKind(t *testing.T) {
	cases := map[string]int{
		"bell":     KindAlertBell,
		"fire":     KindAlertFireBell,
		"firebell": KindAlertFireBell,
		"alarm":    KindAlertAlarm,
		"tts":      KindAlertTTS,
		"chime":    KindAlertChime,
		"Chime":    KindAlertChime,
		"whatever": KindAlert,
	}
	for in, want := range cases {
		if got := AlertKind(in); got != want {
			t.Errorf("AlertKind(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestNormalizeTrackID(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"music/track.flac", "music/track.flac"},
		{"https://cdn.example.com/T.mp3?session=abc", "https://cdn.example.com/t.mp3"},
		{"https://cdn.example.com/t.mp3#frag", "https://cdn.example.com/t.mp3"},
		{"spotify:track:ABC123", "spotify:track:abc123"},
		{"  music/track.flac", "music/track.flac"},
	}
	for _, tc := range cases {
		if got := NormalizeTrackID(tc.in); got != tc.want {
			t.Errorf("NormalizeTrackID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTrackIDSameTrackAcrossQueryJunk(t *testing.T) {
	a := NormalizeTrackID("https://cdn.example.com/track.mp3?token=1")
	b := NormalizeTrackID("https://cdn.example.com/track.mp3?token=2")
	if a != b {
		t.Errorf("same track with different tokens should normalize equal: %q vs %q", a, b)
	}
}
