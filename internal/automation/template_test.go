package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderSubject(t *testing.T) {
	got := Render(defaultModMailSubject, TemplateValues{NumComments: 150})
	assert.Equal(t, "Post Notification - 150 comments", got)
}

func TestRenderBodySubstitutesEveryToken(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	vals := TemplateValues{
		NumComments:      42,
		PostPermalink:    "https://www.reddit.com/r/test/comments/p1/",
		CommentPermalink: "https://www.reddit.com/r/test/comments/p1/_/c1/",
		PostCreatedAt:    now.Add(-3 * time.Hour),
		Now:              now,
	}
	tmpl := "{number_of_comments} | {submission_permalink} | {comment_permalink} | {submission_age}"

	got := Render(tmpl, vals)

	assert.Equal(t, "42 | https://www.reddit.com/r/test/comments/p1/ | https://www.reddit.com/r/test/comments/p1/_/c1/ | 3 hours ago", got)
	assert.NotContains(t, got, "{")
}

func TestRenderDefaultBody(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	got := Render(defaultModMailBody, TemplateValues{
		PostPermalink:    "P",
		CommentPermalink: "C",
		PostCreatedAt:    now.Add(-2 * 24 * time.Hour),
		Now:              now,
	})
	assert.Equal(t, "FYA: P\n\nPosted: 2 days ago\n\n[Trigger Comment.](C)", got)
}

func TestRenderLeavesUnknownTokens(t *testing.T) {
	assert.Equal(t, "hello {name}", Render("hello {name}", TemplateValues{}))
}

func TestRelativeAgeBeyondAWeek(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "1 week ago", RelativeAge(now.Add(-10*24*time.Hour), now))
	assert.Equal(t, "2 weeks ago", RelativeAge(now.Add(-20*24*time.Hour), now))
	assert.Equal(t, "FYA: P\n\nPosted: 1 week ago\n\n[Trigger Comment.](C)", Render(defaultModMailBody, TemplateValues{
		PostPermalink:    "P",
		CommentPermalink: "C",
		PostCreatedAt:    now.Add(-10 * 24 * time.Hour),
		Now:              now,
	}))
}
