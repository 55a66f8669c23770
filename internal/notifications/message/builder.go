// Package message builds the immutable OutboundMessage for an event:
// category color resolution, body normalization, field filtering, and footer
// attachment. Building is pure and total -- it never fails for well-formed
// input, and building the same event twice yields identical messages.
package message

import (
	"regexp"
	"strings"

	"chatrelay/internal/config"
	"chatrelay/internal/types"
)

// Category colors per action kind (decimal Discord embed color values).
const (
	colorSaved     = 0x2196F3 // blue
	colorInserted  = 0x4CAF50 // green
	colorDeleted   = 0xF44336 // red
	colorMoved     = 0x9C27B0 // purple
	colorProtected = 0x795548 // brown
	colorNewUser   = 0x00BCD4 // cyan
	colorUploaded  = 0xFFC107 // amber
	colorBlocked   = 0xFF5722 // deep orange
	colorGroups    = 0x607D8B // blue grey
	colorFlow      = 0x3F51B5 // indigo
	colorImported  = 0x8BC34A // light green
	colorDefault   = 0x9E9E9E // grey
)

// actionColors is the static, total mapping from action kind to color.
var actionColors = map[types.ActionKind]int{
	types.ActionArticleSaved:      colorSaved,
	types.ActionArticleInserted:   colorInserted,
	types.ActionArticleDeleted:    colorDeleted,
	types.ActionArticleMoved:      colorMoved,
	types.ActionArticleProtected:  colorProtected,
	types.ActionNewUserAccount:    colorNewUser,
	types.ActionFileUploaded:      colorUploaded,
	types.ActionUserBlocked:       colorBlocked,
	types.ActionUserGroupsChanged: colorGroups,
	types.ActionFlow:              colorFlow,
	types.ActionImportComplete:    colorImported,
}

// ColorFor resolves the category color for an action kind. Unknown or future
// kinds receive the default color; the mapping never fails.
func ColorFor(kind types.ActionKind) int {
	if c, ok := actionColors[kind]; ok {
		return c
	}
	return colorDefault
}

var (
	// lineBreaks collapses literal CR/LF runs. Rendered text is a single
	// embed description line; raw line breaks came from callers that
	// concatenate revision comments.
	lineBreaks = regexp.MustCompile(`[\r\n]+`)

	// pipeLinks rewrites <url|label> hyperlink markup into the [label](url)
	// form the destination chat system renders.
	pipeLinks = regexp.MustCompile(`<((?:https?|ftp)://[^|>]+)\|([^>]+)>`)
)

// normalizeBody collapses line breaks and rewrites bracket-pipe hyperlinks.
// No quote escaping happens here: the payload goes through encoding/json,
// and escaping on top of a structured encoder would double-escape.
func normalizeBody(text string) string {
	text = lineBreaks.ReplaceAllString(text, " ")
	text = pipeLinks.ReplaceAllString(text, "[$2]($1)")
	return strings.TrimSpace(text)
}

// Build renders an event into an OutboundMessage using the given style.
func Build(event types.Event, style config.StyleConfig) types.OutboundMessage {
	msg := types.OutboundMessage{
		Color:       ColorFor(event.Action),
		Body:        normalizeBody(event.RenderedText),
		DisplayName: displayName(style),
		AvatarURL:   style.AvatarURL,
		FooterText:  footerText(event, style),
	}

	// Drop empty-valued fields; never emit an empty embed field.
	for _, f := range event.Fields {
		if f.Value == "" {
			continue
		}
		msg.Fields = append(msg.Fields, f)
	}

	return msg
}

// displayName resolves the sender name: explicit override, else site name.
func displayName(style config.StyleConfig) string {
	if style.DisplayName != "" {
		return style.DisplayName
	}
	return style.SiteName
}

// footerText resolves the footer for the event. Experimental-feed messages
// always carry a footer identifying the contact channel, regardless of the
// disable flag; standard messages carry one only when footers are enabled.
func footerText(event types.Event, style config.StyleConfig) string {
	if event.Experimental {
		if style.ExperimentalFooter != "" {
			return style.ExperimentalFooter
		}
		return style.FooterText
	}
	if style.DisableFooter {
		return ""
	}
	return style.FooterText
}
