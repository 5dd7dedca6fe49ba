package slack

import (
	slacklib "github.com/slack-go/slack"
)

// BuildNotificationBlocks builds Slack Block Kit blocks for a practitioner
// notification. The optional context line is rendered below the text.
func BuildNotificationBlocks(text, context string) []slacklib.Block {
	section := slacklib.NewSectionBlock(
		slacklib.NewTextBlockObject(slacklib.MarkdownType, text, false, false),
		nil,
		nil,
	)

	if context == "" {
		return []slacklib.Block{section}
	}

	footer := slacklib.NewContextBlock("",
		slacklib.NewTextBlockObject(slacklib.MarkdownType, context, false, false),
	)

	return []slacklib.Block{section, footer}
}
