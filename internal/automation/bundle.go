package automation

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"example.com/commentcap/internal/domain"
)

// apply runs the action bundle. Every step is attempted even if an earlier one
// failed; any failure is returned and the caller must not write the flag.
func (h *Handler) apply(ctx context.Context, ev *domain.CommentSubmit, s domain.AutomationSettings) (domain.ActionRecord, error) {
	rec := domain.ActionRecord{
		Automation:  h.auto.Namespace,
		PostID:      ev.Post.ID,
		CommentID:   ev.Comment.ID,
		Subreddit:   ev.Subreddit.Name,
		NumComments: ev.Post.NumComments,
		ActionedAt:  h.now(),
	}
	var errs []error

	if s.WantsFlairChange() {
		err := h.content.SetPostFlair(ctx, FlairRequest{
			PostID:        ev.Post.ID,
			SubredditName: ev.Subreddit.Name,
			Text:          s.FlairText,
			TemplateID:    s.FlairTemplateID,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("set flair: %w", err))
		} else {
			rec.FlairSet = true
			h.log.Info("flair set", "post", ev.Post.ID, "text", s.FlairText, "template", s.FlairTemplateID)
		}
	} else {
		h.trace(s, "no flair text or template configured")
	}

	if s.CommentToAdd != "" {
		added, err := h.addStickyComment(ctx, ev.Post.ID, s.CommentToAdd)
		if err != nil {
			errs = append(errs, fmt.Errorf("sticky comment: %w", err))
		}
		rec.CommentAdded = added
	}

	if s.LockPost {
		if err := h.content.LockPost(ctx, ev.Post.ID); err != nil {
			errs = append(errs, fmt.Errorf("lock post: %w", err))
		} else {
			rec.PostLocked = true
			h.log.Info("post locked", "post", ev.Post.ID)
		}
	}

	if s.NotifyInModMail {
		if err := h.sendModmail(ctx, ev, s); err != nil {
			errs = append(errs, fmt.Errorf("modmail: %w", err))
		} else {
			rec.ModmailSent = true
		}
	}

	return rec, errors.Join(errs...)
}

// addStickyComment posts text as a distinguished, stickied, locked comment unless
// the post already has a stickied comment.
func (h *Handler) addStickyComment(ctx context.Context, postID, text string) (bool, error) {
	existing, err := h.content.ListComments(ctx, postID)
	if err != nil {
		return false, fmt.Errorf("list comments: %w", err)
	}
	for _, c := range existing {
		if c.Stickied {
			h.log.Info("not adding comment due to existing sticky", "post", postID, "sticky", c.ID)
			return false, nil
		}
	}

	c, err := h.content.SubmitComment(ctx, postID, text)
	if err != nil {
		return false, fmt.Errorf("submit: %w", err)
	}

	// both calls run to completion; a failure in one must not cancel the other
	var g errgroup.Group
	g.Go(func() error { return h.content.Distinguish(ctx, c.ID, true) })
	g.Go(func() error { return h.content.LockComment(ctx, c.ID) })
	if err := g.Wait(); err != nil {
		return true, fmt.Errorf("distinguish/lock %s: %w", c.ID, err)
	}
	h.log.Info("comment added", "post", postID, "comment", c.ID)
	return true, nil
}

func (h *Handler) sendModmail(ctx context.Context, ev *domain.CommentSubmit, s domain.AutomationSettings) error {
	post, err := h.content.GetPost(ctx, ev.Post.ID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	comment, err := h.content.GetComment(ctx, ev.Comment.ID)
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}

	vals := TemplateValues{
		NumComments:      ev.Post.NumComments,
		PostPermalink:    post.Permalink,
		CommentPermalink: comment.Permalink,
		PostCreatedAt:    post.CreatedAt,
		Now:              h.now(),
	}
	subject := Render(s.ModMailSubject, vals)
	body := Render(s.ModMailBody, vals)

	if err := h.content.SendModmail(ctx, ev.Subreddit.Name, subject, body); err != nil {
		return err
	}
	h.log.Info("modmail sent", "subreddit", ev.Subreddit.Name, "subject", subject)
	return nil
}
