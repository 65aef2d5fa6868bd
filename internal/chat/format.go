package chat

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// EmoteUrlFormat is the Twitch CDN URL for a single emote image, given its ID
const EmoteUrlFormat = "https://static-cdn.jtvnw.net/emoticons/v2/%s/default/dark/1.0"

// validEmoteId restricts emote IDs to the characters Twitch actually uses, so that an
// ID can be embedded in markup without escaping
var validEmoteId = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeText escapes the characters that would otherwise allow chat text to inject
// markup into the viewer's page
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// emoteTag returns the markup that replaces an emote in rendered chat text
func emoteTag(emoteId string) string {
	return fmt.Sprintf(`<img class="emote" src="%s">`, fmt.Sprintf(EmoteUrlFormat, emoteId))
}

// Render converts a raw chat message into safe-to-render markup: every range of
// characters identified by ranges is replaced with an inline image for that emote,
// and all other text is escaped. Ranges are expected not to overlap; if they do, the
// output may look odd but Render will not fail.
func Render(raw string, ranges []EmoteRange) string {
	if len(ranges) == 0 {
		return escapeText(raw)
	}

	sorted := make([]EmoteRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	runes := []rune(raw)
	var b strings.Builder
	lastIndex := 0
	for _, r := range sorted {
		start := min(max(r.Start, lastIndex), len(runes))
		if start > lastIndex {
			b.WriteString(escapeText(string(runes[lastIndex:start])))
		}
		b.WriteString(emoteTag(r.EmoteID))
		lastIndex = max(lastIndex, min(r.End+1, len(runes)))
	}
	if lastIndex < len(runes) {
		b.WriteString(escapeText(string(runes[lastIndex:])))
	}
	return b.String()
}

// ParseEmotesTag parses the value of the 'emotes' IRC tag, e.g.
// "25:0-4,12-16/1902:6-10", into a map of emote ID to the list of 'start-end' ranges
// at which that emote appears
func ParseEmotesTag(tag string) map[string][]string {
	emotes := make(map[string][]string)
	if tag == "" {
		return emotes
	}
	for _, entry := range strings.Split(tag, "/") {
		emoteId, positions, ok := strings.Cut(entry, ":")
		if !ok || emoteId == "" || positions == "" {
			continue
		}
		emotes[emoteId] = append(emotes[emoteId], strings.Split(positions, ",")...)
	}
	return emotes
}

// FlattenEmotes converts a map of emote ID to 'start-end' ranges into a list of
// EmoteRange values, ordered by start position. Ranges that can't be parsed, and
// emote IDs that aren't safe to embed, are ignored.
func FlattenEmotes(emotes map[string][]string) []EmoteRange {
	emoteIds := lo.Keys(emotes)
	sort.Strings(emoteIds)

	ranges := make([]EmoteRange, 0, len(emotes))
	for _, emoteId := range emoteIds {
		if !validEmoteId.MatchString(emoteId) {
			continue
		}
		for _, position := range emotes[emoteId] {
			r, ok := parseRange(emoteId, position)
			if ok {
				ranges = append(ranges, r)
			}
		}
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Start < ranges[j].Start
	})
	return ranges
}

func parseRange(emoteId string, position string) (EmoteRange, bool) {
	startStr, endStr, ok := strings.Cut(position, "-")
	if !ok {
		return EmoteRange{}, false
	}
	start, err := strconv.Atoi(startStr)
	if err != nil || start < 0 {
		return EmoteRange{}, false
	}
	end, err := strconv.Atoi(endStr)
	if err != nil || end < start {
		return EmoteRange{}, false
	}
	return EmoteRange{Start: start, End: end, EmoteID: emoteId}, true
}
