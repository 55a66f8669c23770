package webhook

import (
	"encoding/json"

	"chatrelay/internal/types"
)

// --- Wire payload types (Discord-style embeds) ---

// Payload is the top-level structure POSTed to a destination endpoint.
type Payload struct {
	Embeds    []Embed `json:"embeds"`
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url,omitempty"`
}

// Embed is the structured message envelope: color, text, fields, footer.
type Embed struct {
	Color       int          `json:"color"`
	Description string       `json:"description"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// EmbedField is a single name/value pair within an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedFooter is the footer of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// Encode serializes an OutboundMessage to its wire form. The encoding is
// deterministic: the same message always produces byte-identical output,
// with field order preserved from the message.
func Encode(msg types.OutboundMessage) ([]byte, error) {
	embed := Embed{
		Color:       msg.Color,
		Description: msg.Body,
	}

	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, EmbedField{
			Name:  f.Name,
			Value: f.Value,
		})
	}

	if msg.FooterText != "" {
		embed.Footer = &EmbedFooter{Text: msg.FooterText}
	}

	return json.Marshal(Payload{
		Embeds:    []Embed{embed},
		Username:  msg.DisplayName,
		AvatarURL: msg.AvatarURL,
	})
}

// rateLimitBody is the structured rate-limit response contract: a numeric
// retry_after field in seconds, possibly fractional. Its absence means no
// retry is warranted for that response.
type rateLimitBody struct {
	RetryAfter *float64 `json:"retry_after"`
}
