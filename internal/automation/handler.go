package automation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"example.com/commentcap/internal/domain"
	"example.com/commentcap/internal/idempotency"
)

// SettingsProvider loads a namespace's stored settings.
type SettingsProvider interface {
	GetAll(ctx context.Context, namespace string) (map[string]any, error)
}

// FlairRequest asks for a post flair change. Empty Text or TemplateID are left
// unspecified to the flair service rather than cleared.
type FlairRequest struct {
	PostID        string
	SubredditName string
	Text          string
	TemplateID    string
}

// ContentService is the forum platform API used by the action bundle.
type ContentService interface {
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	SetPostFlair(ctx context.Context, req FlairRequest) error
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)
	SubmitComment(ctx context.Context, postID, text string) (*domain.Comment, error)
	Distinguish(ctx context.Context, commentID string, sticky bool) error
	LockComment(ctx context.Context, commentID string) error
	LockPost(ctx context.Context, postID string) error
	SendModmail(ctx context.Context, subreddit, subject, body string) error
}

// Recorder receives applied bundles. Record must not block.
type Recorder interface {
	Record(rec domain.ActionRecord) bool
}

// Deps are the collaborators a Handler is built from.
type Deps struct {
	Settings     SettingsProvider
	Content      ContentService
	Flags        idempotency.Store
	Recorder     Recorder // optional
	AppAccountID string
	Now          func() time.Time
	Logger       *slog.Logger
}

// Handler runs one automation for comment-submit events.
type Handler struct {
	auto     Automation
	settings SettingsProvider
	content  ContentService
	flags    idempotency.Store
	recorder Recorder
	appID    string
	now      func() time.Time
	log      *slog.Logger
}

func NewHandler(a Automation, d Deps) *Handler {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		auto:     a,
		settings: d.Settings,
		content:  d.Content,
		flags:    d.Flags,
		recorder: d.Recorder,
		appID:    d.AppAccountID,
		now:      d.Now,
		log:      d.Logger.With("automation", a.Namespace),
	}
}

func (h *Handler) Name() string { return h.auto.Name }

// HandleCommentSubmit evaluates the guard chain for ev and applies the action
// bundle when it passes. The returned error is only ever a collaborator failure.
func (h *Handler) HandleCommentSubmit(ctx context.Context, ev *domain.CommentSubmit) (Decision, error) {
	in := GuardInput{Event: ev, AppAccountID: h.appID, Policy: h.auto.Policy}

	if d := CheckPayload(in); !d.Passed() {
		h.logAbort(in.Settings, d)
		return d, nil
	}

	raw, err := h.settings.GetAll(ctx, h.auto.Namespace)
	if err != nil {
		return Decision{}, fmt.Errorf("load settings: %w", err)
	}
	in.Settings = domain.ParseSettings(raw, h.auto.Settings)

	if d := CheckSettings(in); !d.Passed() {
		h.logAbort(in.Settings, d)
		return d, nil
	}

	key := idempotency.FlagKey(h.auto.KeyPrefix, ev.Post.ID)
	_, flagged, err := h.flags.Get(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("read flag %s: %w", key, err)
	}
	in.AlreadyActioned = flagged

	d := Evaluate(in)
	if !d.Passed() {
		h.logAbort(in.Settings, d)
		return d, nil
	}

	h.log.Info("processing",
		"subreddit", ev.Subreddit.Name, "post", ev.Post.ID, "comment", ev.Comment.ID,
		"comments", ev.Post.NumComments, "threshold", in.Settings.Threshold)

	rec, err := h.apply(ctx, ev, in.Settings)
	if err != nil {
		return d, err
	}

	if err := h.flags.Set(ctx, key, idempotency.FlagValue, idempotency.ExpireAt(h.now())); err != nil {
		return d, fmt.Errorf("write flag %s: %w", key, err)
	}
	if h.recorder != nil && !h.recorder.Record(rec) {
		h.log.Warn("audit queue full, record dropped", "post", ev.Post.ID)
	}
	h.log.Info("finished", "post", ev.Post.ID)
	return d, nil
}

func (h *Handler) logAbort(s domain.AutomationSettings, d Decision) {
	switch d.Kind {
	case BotAuthor:
		// bots comment constantly; stay quiet
	case Malformed:
		h.log.Info("abort", "kind", d.Kind, "reason", d.Reason)
	case Misconfigured:
		h.log.Warn("abort", "kind", d.Kind, "reason", d.Reason)
	case ProtectedFlair:
		h.log.Info("skipped", "kind", d.Kind, "reason", d.Reason)
	default:
		h.trace(s, "skipped", "kind", d.Kind, "reason", d.Reason)
	}
}

// trace logs at info when the automation has enhanced logging switched on.
func (h *Handler) trace(s domain.AutomationSettings, msg string, args ...any) {
	if s.EnhancedLogging {
		h.log.Info(msg, args...)
		return
	}
	h.log.Debug(msg, args...)
}
