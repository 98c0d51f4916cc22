package domain

import "time"

// CommentSubmit is the trigger payload delivered for every new comment.
// All four top-level fields must be present for the event to be processable.
type CommentSubmit struct {
	Comment   *EventComment   `json:"comment,omitempty"`
	Post      *EventPost      `json:"post,omitempty"`
	Subreddit *EventSubreddit `json:"subreddit,omitempty"`
	Author    *EventAuthor    `json:"author,omitempty"`
}

type EventComment struct {
	ID         string `json:"id"`
	AuthorName string `json:"author_name,omitempty"`
	AuthorID   string `json:"author_id,omitempty"`
	Permalink  string `json:"permalink,omitempty"`
}

type EventPost struct {
	ID          string     `json:"id"`
	NumComments int        `json:"num_comments"`
	LinkFlair   *LinkFlair `json:"link_flair,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Permalink   string     `json:"permalink,omitempty"`
}

// LinkFlair is the post's current flair as seen at event time.
type LinkFlair struct {
	Text       string `json:"text"`
	TemplateID string `json:"template_id,omitempty"`
}

type EventSubreddit struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type EventAuthor struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// CurrentFlairText returns the post's flair text, or "" when none is set.
func (e *CommentSubmit) CurrentFlairText() string {
	if e == nil || e.Post == nil || e.Post.LinkFlair == nil {
		return ""
	}
	return e.Post.LinkFlair.Text
}

// Comment is the live comment object fetched from the content service.
type Comment struct {
	ID         string
	AuthorName string
	AuthorID   string
	Permalink  string
	Stickied   bool
}

// Post is the live post object fetched from the content service.
type Post struct {
	ID          string
	Permalink   string
	NumComments int
	CreatedAt   time.Time
	Locked      bool
}

// Well-known accounts and limits.
const (
	AutoModeratorName = "AutoModerator"

	// FlagTTL is how long an "already actioned" marker lives.
	FlagTTL = 7 * 24 * time.Hour

	// LowestSupportedThreshold bounds the comment threshold from below.
	LowestSupportedThreshold = 1
)
