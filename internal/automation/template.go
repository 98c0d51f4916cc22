package automation

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Template tokens recognised in modmail subject and body.
const (
	TokenNumberOfComments    = "{number_of_comments}"
	TokenSubmissionPermalink = "{submission_permalink}"
	TokenCommentPermalink    = "{comment_permalink}"
	TokenSubmissionAge       = "{submission_age}"
)

// TemplateValues feeds modmail rendering.
type TemplateValues struct {
	NumComments      int
	PostPermalink    string
	CommentPermalink string
	PostCreatedAt    time.Time
	Now              time.Time
}

// RelativeAge renders how long ago created was, seen from now.
func RelativeAge(created, now time.Time) string {
	return humanize.RelTime(created, now, "ago", "from now")
}

// Render substitutes every known token in tmpl. Unknown braces are left as-is.
func Render(tmpl string, v TemplateValues) string {
	r := strings.NewReplacer(
		TokenNumberOfComments, strconv.Itoa(v.NumComments),
		TokenSubmissionPermalink, v.PostPermalink,
		TokenCommentPermalink, v.CommentPermalink,
		TokenSubmissionAge, RelativeAge(v.PostCreatedAt, v.Now),
	)
	return r.Replace(tmpl)
}
