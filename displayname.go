//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"fmt"
	"image"

	"github.com/ideamans/go-l10n"
)

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		"mono":   "モノラル",
		"stereo": "ステレオ",
	})
	l10n.Register("fr", l10n.LexiconMap{
		"stereo": "stéréo",
	})
}

// DisplayName formats the window title of a preview:
// "title (W×H, channels, h:mm:ss)". The duration is omitted when unknown.
func DisplayName(title string, size image.Point, duration, channels int) string {
	desc := fmt.Sprintf("%s (%d×%d, %s", title, size.X, size.Y, ChannelString(channels))
	if duration > 0 {
		desc += ", " + FormatDuration(duration)
	}
	return desc + ")"
}

// ChannelString describes an audio channel layout by its channel count.
func ChannelString(channels int) string {
	switch channels {
	case 0:
		return "🔇"
	case 1:
		return l10n.T("mono")
	case 2:
		return l10n.T("stereo")
	case 6:
		return "5.1"
	case 7:
		return "6.1"
	case 8:
		return "7.1"
	}
	// Quadraphonic, LCRS and the like
	return fmt.Sprintf("%d🔉", channels)
}

// FormatDuration formats seconds positionally: "0:05", "1:05", "1:00:00".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
