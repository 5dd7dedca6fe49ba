package slack_test

import (
	"testing"

	slacklib "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crvsslack "github.com/gosuda/crvs/internal/messenger/slack"
)

func TestBuildNotificationBlocks(t *testing.T) {
	t.Parallel()

	t.Run("with context returns section and context block", func(t *testing.T) {
		t.Parallel()

		blocks := crvsslack.BuildNotificationBlocks("Correction approved for B1A2B3C", "Registry office")

		require.Len(t, blocks, 2)

		section, ok := blocks[0].(*slacklib.SectionBlock)
		require.True(t, ok, "first block should be a SectionBlock")
		assert.Equal(t, slacklib.MBTSection, section.Type)
		require.NotNil(t, section.Text)
		assert.Equal(t, slacklib.MarkdownType, section.Text.Type)
		assert.Contains(t, section.Text.Text, "B1A2B3C")

		footer, ok := blocks[1].(*slacklib.ContextBlock)
		require.True(t, ok, "second block should be a ContextBlock")
		assert.Equal(t, slacklib.MBTContext, footer.Type)
		require.Len(t, footer.ContextElements.Elements, 1)
	})

	t.Run("without context returns text only", func(t *testing.T) {
		t.Parallel()

		blocks := crvsslack.BuildNotificationBlocks("hello", "")

		require.Len(t, blocks, 1)
		section, ok := blocks[0].(*slacklib.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "hello", section.Text.Text)
	})
}
