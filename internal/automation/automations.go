package automation

import (
	"example.com/commentcap/internal/domain"
	"example.com/commentcap/internal/idempotency"
)

// Policy holds the knobs on which the automations differ.
type Policy struct {
	// ExcludeAppAccount skips comments written by the automation's own account.
	ExcludeAppAccount bool
	// IgnoreOwnFlair adds the configured flair text to the ignore list, so a post
	// already carrying it is never reflaired. Off for every registered automation.
	IgnoreOwnFlair bool
}

// Automation describes one comment-triggered automation.
type Automation struct {
	Name      string
	Namespace string
	KeyPrefix string
	Settings  domain.SettingNames
	Schema    Schema
	Policy    Policy
}

var commentCapNames = domain.SettingNames{
	Enabled:                "enableCommentCap",
	Threshold:              "commentCapThreshold",
	FlairText:              "ccFlairText",
	FlairTemplateID:        "ccFlairTemplateId",
	OverwriteExistingFlair: "overwriteExistingPostFlair",
	FlairTextToIgnore:      "overwriteFlairTextToIgnore",
	CommentToAdd:           "ccCommentToAdd",
	LockPost:               "ccLockPost",
	NotifyInModMail:        "ccNotifyInModMail",
	ModMailSubject:         "ccModMailSubject",
	ModMailBody:            "ccModMailBody",
	EnhancedLogging:        "enhancedLogging",
}

var postSizeNames = domain.SettingNames{
	Enabled:                "enablePostSizeRestricter",
	Threshold:              "postSizeThreshold",
	FlairText:              "postSizeFlairText",
	FlairTemplateID:        "postSizeFlairTemplateId",
	OverwriteExistingFlair: "overwriteExistingFlair",
	FlairTextToIgnore:      "overwriteFlairTextToIgnore",
	CommentToAdd:           "postSizeCommentToAdd",
	LockPost:               "postSizelockPost",
	NotifyInModMail:        "postSizenotifyInModMail",
	ModMailSubject:         "postSizemodmailBody",
	ModMailBody:            "postSizeModMailBody",
	EnhancedLogging:        "enhancedLogging",
}

// CommentCap locks, flairs and reports a post once its comment count crosses a threshold.
var CommentCap = Automation{
	Name:      "Comment Cap",
	Namespace: "commentcap",
	KeyPrefix: idempotency.DefaultKeyPrefix,
	Settings:  commentCapNames,
	Schema: buildSchema(commentCapNames, schemaLabels{
		group:     "Comment Cap",
		help:      "Lock a post once a comment threshold is reached, with option to set a flair, leave a comment, and send modmail.",
		enable:    "Enable Comment Cap",
		flairText: "(Optional) Post flair text to apply if different to template ID text",
		comment:   "Comment to sticky on post when triggered",
		lock:      "Lock post when triggered",
		logging:   "Enhanced Logging (for developers)",
	}),
	Policy: Policy{ExcludeAppAccount: true},
}

// PostSizeRestricter updates a post once a comment threshold is reached.
var PostSizeRestricter = Automation{
	Name:      "Post Size Restricter",
	Namespace: "postsize",
	KeyPrefix: idempotency.DefaultKeyPrefix,
	Settings:  postSizeNames,
	Schema: buildSchema(postSizeNames, schemaLabels{
		group:     "Post size restricter",
		help:      "Update a post once a comment threshold is reached",
		enable:    "Enable post size restricter functionality",
		flairText: "Post flair to assign",
		comment:   "Comment to sticky on post when restricting",
		lock:      "Lock post on restriction",
		logging:   "Enhanced Logs",
	}),
	Policy: Policy{ExcludeAppAccount: true},
}

// All lists the registered automations.
func All() []Automation {
	return []Automation{CommentCap, PostSizeRestricter}
}

// ByNamespace finds a registered automation.
func ByNamespace(ns string) (Automation, bool) {
	for _, a := range All() {
		if a.Namespace == ns {
			return a, true
		}
	}
	return Automation{}, false
}
