package automation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/commentcap/internal/domain"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	settings *MockSettings
	content  *MockContent
	flags    *MockFlags
	recorder *MockRecorder
	handler  *Handler
}

func newFixture(t *testing.T, a Automation) *fixture {
	t.Helper()
	f := &fixture{
		settings: new(MockSettings),
		content:  new(MockContent),
		flags:    new(MockFlags),
		recorder: new(MockRecorder),
	}
	f.handler = NewHandler(a, Deps{
		Settings:     f.settings,
		Content:      f.content,
		Flags:        f.flags,
		Recorder:     f.recorder,
		AppAccountID: "t2_app",
		Now:          func() time.Time { return fixedNow },
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func (f *fixture) assertAll(t *testing.T) {
	f.settings.AssertExpectations(t)
	f.content.AssertExpectations(t)
	f.flags.AssertExpectations(t)
	f.recorder.AssertExpectations(t)
}

func (f *fixture) assertNoMutation(t *testing.T) {
	f.content.AssertNotCalled(t, "SetPostFlair", mock.Anything, mock.Anything)
	f.content.AssertNotCalled(t, "SubmitComment", mock.Anything, mock.Anything, mock.Anything)
	f.content.AssertNotCalled(t, "LockPost", mock.Anything, mock.Anything)
	f.content.AssertNotCalled(t, "SendModmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.flags.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func commentCapSettings(overrides map[string]any) map[string]any {
	raw := map[string]any{
		"enableCommentCap":    true,
		"commentCapThreshold": float64(150),
		"ccFlairText":         "Mega Thread",
		"ccCommentToAdd":      "Locked.",
	}
	for k, v := range overrides {
		raw[k] = v
	}
	return raw
}

const flagKey = "alreadyflaired~t3_p1"

func TestHandleMalformedEventHasNoSideEffects(t *testing.T) {
	ev := newEvent(500, "")
	ev.Subreddit = nil
	f := newFixture(t, CommentCap)

	d, err := f.handler.HandleCommentSubmit(context.Background(), ev)

	require.NoError(t, err)
	assert.Equal(t, Malformed, d.Kind)
	f.settings.AssertNotCalled(t, "GetAll", mock.Anything, mock.Anything)
	f.flags.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	f.assertNoMutation(t)
}

func TestHandleBotCommentIsSkippedSilently(t *testing.T) {
	ev := newEvent(500, "")
	ev.Comment.AuthorName = "AutoModerator"
	f := newFixture(t, CommentCap)

	d, err := f.handler.HandleCommentSubmit(context.Background(), ev)

	require.NoError(t, err)
	assert.Equal(t, BotAuthor, d.Kind)
	f.settings.AssertNotCalled(t, "GetAll", mock.Anything, mock.Anything)
}

func TestHandleDisabled(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").
		Return(commentCapSettings(map[string]any{"enableCommentCap": false}), nil)

	d, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(10_000, ""))

	require.NoError(t, err)
	assert.Equal(t, Disabled, d.Kind)
	f.flags.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	f.assertNoMutation(t)
	f.assertAll(t)
}

func TestHandleAlreadyFlaggedDoesNotRewriteFlag(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").Return(commentCapSettings(nil), nil)
	f.flags.On("Get", mock.Anything, flagKey).Return("true", true, nil)

	d, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(300, ""))

	require.NoError(t, err)
	assert.Equal(t, AlreadyActioned, d.Kind)
	f.assertNoMutation(t)
	f.assertAll(t)
}

func TestHandleBelowThreshold(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").Return(commentCapSettings(nil), nil)
	f.flags.On("Get", mock.Anything, flagKey).Return("", false, nil)

	d, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(149, ""))

	require.NoError(t, err)
	assert.Equal(t, NotYetEligible, d.Kind)
	f.assertNoMutation(t)
	f.assertAll(t)
}

func TestHandleCommentCapEndToEnd(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").Return(commentCapSettings(nil), nil)
	f.flags.On("Get", mock.Anything, flagKey).Return("", false, nil)
	f.content.On("SetPostFlair", mock.Anything, FlairRequest{PostID: "t3_p1", SubredditName: "test", Text: "Mega Thread"}).Return(nil).Once()
	f.content.On("ListComments", mock.Anything, "t3_p1").Return([]domain.Comment{{ID: "t1_x"}}, nil)
	f.content.On("SubmitComment", mock.Anything, "t3_p1", "Locked.").Return(&domain.Comment{ID: "t1_new"}, nil).Once()
	f.content.On("Distinguish", mock.Anything, "t1_new", true).Return(nil).Once()
	f.content.On("LockComment", mock.Anything, "t1_new").Return(nil).Once()
	f.flags.On("Set", mock.Anything, flagKey, "true", fixedNow.Add(7*24*time.Hour)).Return(nil).Once()
	f.recorder.On("Record", mock.MatchedBy(func(r domain.ActionRecord) bool {
		return r.Automation == "commentcap" && r.FlairSet && r.CommentAdded && !r.PostLocked && !r.ModmailSent
	})).Return(true)

	d, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(150, ""))

	require.NoError(t, err)
	assert.True(t, d.Passed())
	f.content.AssertNotCalled(t, "LockPost", mock.Anything, mock.Anything)
	f.content.AssertNotCalled(t, "SendModmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestHandleExistingStickySkipsComment(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").
		Return(commentCapSettings(map[string]any{"ccFlairText": ""}), nil)
	f.flags.On("Get", mock.Anything, flagKey).Return("", false, nil)
	f.content.On("ListComments", mock.Anything, "t3_p1").Return([]domain.Comment{{ID: "t1_sticky", Stickied: true}}, nil)
	f.flags.On("Set", mock.Anything, flagKey, "true", mock.Anything).Return(nil)
	f.recorder.On("Record", mock.Anything).Return(true)

	_, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(150, "Discussion"))

	require.NoError(t, err)
	f.content.AssertNotCalled(t, "SubmitComment", mock.Anything, mock.Anything, mock.Anything)
	f.content.AssertNotCalled(t, "SetPostFlair", mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestHandleIgnoredFlairWithOverwriteEnabled(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").Return(commentCapSettings(map[string]any{
		"overwriteExistingPostFlair": true,
		"overwriteFlairTextToIgnore": "Announcement, MOD POST",
	}), nil)
	f.flags.On("Get", mock.Anything, flagKey).Return("", false, nil)

	d, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(400, "mod post"))

	require.NoError(t, err)
	assert.Equal(t, ProtectedFlair, d.Kind)
	f.assertNoMutation(t)
}

func TestHandleOverwriteEnabledReplacesFlair(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").Return(commentCapSettings(map[string]any{
		"overwriteExistingPostFlair": true,
		"ccCommentToAdd":             "",
	}), nil)
	f.flags.On("Get", mock.Anything, flagKey).Return("", false, nil)
	f.content.On("SetPostFlair", mock.Anything, mock.MatchedBy(func(r FlairRequest) bool {
		return r.Text == "Mega Thread" && r.TemplateID == ""
	})).Return(nil).Once()
	f.flags.On("Set", mock.Anything, flagKey, "true", mock.Anything).Return(nil)
	f.recorder.On("Record", mock.Anything).Return(true)

	_, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(400, "Discussion"))

	require.NoError(t, err)
	f.content.AssertNotCalled(t, "ListComments", mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestHandleLockAndModmail(t *testing.T) {
	f := newFixture(t, PostSizeRestricter)
	f.settings.On("GetAll", mock.Anything, "postsize").Return(map[string]any{
		"enablePostSizeRestricter": true,
		"postSizeThreshold":        float64(100),
		"postSizelockPost":         true,
		"postSizenotifyInModMail":  true,
		"postSizemodmailBody":      "Post Notification - {number_of_comments} comments",
		"postSizeModMailBody":      "FYA: {submission_permalink} ({submission_age}) via {comment_permalink}",
	}, nil)
	f.flags.On("Get", mock.Anything, flagKey).Return("", false, nil)
	f.content.On("LockPost", mock.Anything, "t3_p1").Return(nil).Once()
	f.content.On("GetPost", mock.Anything, "t3_p1").Return(&domain.Post{
		ID: "t3_p1", Permalink: "https://www.reddit.com/r/test/comments/p1/", CreatedAt: fixedNow.Add(-5 * time.Hour),
	}, nil)
	f.content.On("GetComment", mock.Anything, "t1_c1").Return(&domain.Comment{
		ID: "t1_c1", Permalink: "https://www.reddit.com/r/test/comments/p1/_/c1/",
	}, nil)
	f.content.On("SendModmail", mock.Anything, "test",
		"Post Notification - 150 comments",
		"FYA: https://www.reddit.com/r/test/comments/p1/ (5 hours ago) via https://www.reddit.com/r/test/comments/p1/_/c1/",
	).Return(nil).Once()
	f.flags.On("Set", mock.Anything, flagKey, "true", mock.Anything).Return(nil)
	f.recorder.On("Record", mock.MatchedBy(func(r domain.ActionRecord) bool {
		return r.PostLocked && r.ModmailSent && !r.FlairSet && !r.CommentAdded
	})).Return(true)

	d, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(150, "Discussion"))

	require.NoError(t, err)
	assert.True(t, d.Passed())
	f.assertAll(t)
}

func TestHandlePartialFailureLeavesFlagUnset(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").
		Return(commentCapSettings(map[string]any{"ccLockPost": true}), nil)
	f.flags.On("Get", mock.Anything, flagKey).Return("", false, nil)
	f.content.On("SetPostFlair", mock.Anything, mock.Anything).Return(nil)
	f.content.On("ListComments", mock.Anything, "t3_p1").Return(nil, nil)
	f.content.On("SubmitComment", mock.Anything, "t3_p1", "Locked.").Return(nil, errors.New("503 from upstream"))
	f.content.On("LockPost", mock.Anything, "t3_p1").Return(nil).Once()

	_, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(150, ""))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503 from upstream")
	f.flags.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.recorder.AssertNotCalled(t, "Record", mock.Anything)
	f.assertAll(t)
}

func TestHandleSettingsFailurePropagates(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").Return(nil, errors.New("db down"))

	_, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(150, ""))

	require.Error(t, err)
	f.assertNoMutation(t)
}

// Two deliveries racing past the flag read both apply the bundle; only the
// sticky comment is deduplicated.
func TestHandleRedeliveryRace(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").Return(commentCapSettings(nil), nil)
	f.flags.On("Get", mock.Anything, flagKey).Return("", false, nil)
	f.content.On("SetPostFlair", mock.Anything, mock.Anything).Return(nil).Twice()
	f.content.On("ListComments", mock.Anything, "t3_p1").Return(nil, nil).Once()
	f.content.On("ListComments", mock.Anything, "t3_p1").Return([]domain.Comment{{ID: "t1_new", Stickied: true}}, nil).Once()
	f.content.On("SubmitComment", mock.Anything, "t3_p1", "Locked.").Return(&domain.Comment{ID: "t1_new"}, nil).Once()
	f.content.On("Distinguish", mock.Anything, "t1_new", true).Return(nil).Once()
	f.content.On("LockComment", mock.Anything, "t1_new").Return(nil).Once()
	f.flags.On("Set", mock.Anything, flagKey, "true", mock.Anything).Return(nil).Twice()
	f.recorder.On("Record", mock.Anything).Return(true).Twice()

	ev := newEvent(151, "")
	_, err := f.handler.HandleCommentSubmit(context.Background(), ev)
	require.NoError(t, err)
	_, err = f.handler.HandleCommentSubmit(context.Background(), ev)
	require.NoError(t, err)

	f.content.AssertNumberOfCalls(t, "SetPostFlair", 2)
	f.content.AssertNumberOfCalls(t, "SubmitComment", 1)
	f.assertAll(t)
}

func TestHandleDistinguishFailureStillLocksComment(t *testing.T) {
	f := newFixture(t, CommentCap)
	f.settings.On("GetAll", mock.Anything, "commentcap").
		Return(commentCapSettings(map[string]any{"ccFlairText": ""}), nil)
	f.flags.On("Get", mock.Anything, flagKey).Return("", false, nil)
	f.content.On("ListComments", mock.Anything, "t3_p1").Return(nil, nil)
	f.content.On("SubmitComment", mock.Anything, "t3_p1", "Locked.").Return(&domain.Comment{ID: "t1_new"}, nil).Once()
	f.content.On("Distinguish", mock.Anything, "t1_new", true).Return(errors.New("403")).Once()

	var lockCtxErr error
	f.content.On("LockComment", mock.Anything, "t1_new").Return(nil).Once().
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			select {
			case <-ctx.Done():
				lockCtxErr = ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		})

	_, err := f.handler.HandleCommentSubmit(context.Background(), newEvent(150, ""))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.NoError(t, lockCtxErr, "lock must not see a cancelled context when distinguish fails")
	f.flags.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertAll(t)
}
