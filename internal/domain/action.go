package domain

import "time"

// ActionRecord describes one applied action bundle, for the audit log.
type ActionRecord struct {
	Automation   string    `json:"automation"`
	PostID       string    `json:"post_id"`
	CommentID    string    `json:"comment_id"`
	Subreddit    string    `json:"subreddit"`
	NumComments  int       `json:"num_comments"`
	FlairSet     bool      `json:"flair_set"`
	CommentAdded bool      `json:"comment_added"`
	PostLocked   bool      `json:"post_locked"`
	ModmailSent  bool      `json:"modmail_sent"`
	ActionedAt   time.Time `json:"actioned_at"`
}

