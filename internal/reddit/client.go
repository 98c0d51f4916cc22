package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"example.com/commentcap/internal/automation"
	"example.com/commentcap/internal/domain"
)

const (
	DefaultBaseURL = "https://oauth.reddit.com"
	DefaultWebURL  = "https://www.reddit.com"
)

// ErrNotFound is returned when a thing lookup yields nothing.
var ErrNotFound = errors.New("reddit: not found")

// StatusError is a non-2xx API response.
type StatusError struct {
	Method, Path string
	Code         int
	Body         string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reddit: %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the forum platform's OAuth API on behalf of the app account.
type Client struct {
	BaseURL    string
	WebURL     string
	Token      string
	UserAgent  string
	HTTPClient *http.Client
}

func NewClient(token, userAgent string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		WebURL:     DefaultWebURL,
		Token:      token,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

var _ automation.ContentService = (*Client)(nil)

func (c *Client) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	data, err := c.info(ctx, withPrefix(id, PrefixComment))
	if err != nil {
		return nil, err
	}
	var cd commentData
	if err := json.Unmarshal(data, &cd); err != nil {
		return nil, fmt.Errorf("decode comment: %w", err)
	}
	cm := c.toComment(cd)
	return &cm, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	data, err := c.info(ctx, withPrefix(id, PrefixPost))
	if err != nil {
		return nil, err
	}
	var pd postData
	if err := json.Unmarshal(data, &pd); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	sec, frac := math.Modf(pd.CreatedUTC)
	return &domain.Post{
		ID:          pd.Name,
		Permalink:   c.absolute(pd.Permalink),
		NumComments: pd.NumComments,
		CreatedAt:   time.Unix(int64(sec), int64(frac*1e9)).UTC(),
		Locked:      pd.Locked,
	}, nil
}

func (c *Client) SetPostFlair(ctx context.Context, req automation.FlairRequest) error {
	form := url.Values{"api_type": {"json"}, "link": {withPrefix(req.PostID, PrefixPost)}}
	if req.Text != "" {
		form.Set("text", req.Text)
	}
	if req.TemplateID != "" {
		form.Set("flair_template_id", req.TemplateID)
	}
	return c.postForm(ctx, "/r/"+url.PathEscape(req.SubredditName)+"/api/selectflair", form, nil)
}

func (c *Client) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	article := strings.TrimPrefix(postID, PrefixPost)
	var listings []listing
	if err := c.get(ctx, "/comments/"+url.PathEscape(article), url.Values{"limit": {"500"}, "depth": {"1"}}, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}
	out := make([]domain.Comment, 0, len(listings[1].Data.Children))
	for _, ch := range listings[1].Data.Children {
		if ch.Kind != "t1" {
			continue
		}
		var cd commentData
		if err := json.Unmarshal(ch.Data, &cd); err != nil {
			return nil, fmt.Errorf("decode comment: %w", err)
		}
		out = append(out, c.toComment(cd))
	}
	return out, nil
}

func (c *Client) SubmitComment(ctx context.Context, postID, text string) (*domain.Comment, error) {
	form := url.Values{"api_type": {"json"}, "thing_id": {withPrefix(postID, PrefixPost)}, "text": {text}}
	var resp apiResponse
	if err := c.postForm(ctx, "/api/comment", form, &resp); err != nil {
		return nil, err
	}
	if len(resp.JSON.Data.Things) == 0 {
		return nil, fmt.Errorf("submit comment: empty response")
	}
	var cd commentData
	if err := json.Unmarshal(resp.JSON.Data.Things[0].Data, &cd); err != nil {
		return nil, fmt.Errorf("decode comment: %w", err)
	}
	cm := c.toComment(cd)
	return &cm, nil
}

func (c *Client) Distinguish(ctx context.Context, commentID string, sticky bool) error {
	form := url.Values{"api_type": {"json"}, "id": {withPrefix(commentID, PrefixComment)}, "how": {"yes"}}
	if sticky {
		form.Set("sticky", "true")
	}
	return c.postForm(ctx, "/api/distinguish", form, nil)
}

func (c *Client) LockComment(ctx context.Context, commentID string) error {
	return c.postForm(ctx, "/api/lock", url.Values{"id": {withPrefix(commentID, PrefixComment)}}, nil)
}

func (c *Client) LockPost(ctx context.Context, postID string) error {
	return c.postForm(ctx, "/api/lock", url.Values{"id": {withPrefix(postID, PrefixPost)}}, nil)
}

func (c *Client) SendModmail(ctx context.Context, subreddit, subject, body string) error {
	form := url.Values{
		"api_type": {"json"},
		"to":       {"/r/" + subreddit},
		"subject":  {subject},
		"text":     {body},
	}
	return c.postForm(ctx, "/api/compose", form, nil)
}

// --- plumbing ---

func (c *Client) info(ctx context.Context, fullname string) (json.RawMessage, error) {
	var l listing
	if err := c.get(ctx, "/api/info", url.Values{"id": {fullname}}, &l); err != nil {
		return nil, err
	}
	if len(l.Data.Children) == 0 {
		return nil, fmt.Errorf("%s: %w", fullname, ErrNotFound)
	}
	return l.Data.Children[0].Data, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if out == nil {
		var resp apiResponse
		out = &resp
	}
	if err := c.do(req, path, out); err != nil {
		return err
	}
	if r, ok := out.(*apiResponse); ok && len(r.JSON.Errors) > 0 {
		return fmt.Errorf("reddit: %s: %v", path, r.JSON.Errors)
	}
	return nil
}

func (c *Client) do(req *http.Request, path string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return &StatusError{Method: req.Method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) toComment(cd commentData) domain.Comment {
	return domain.Comment{
		ID:         cd.Name,
		AuthorName: cd.Author,
		AuthorID:   cd.AuthorFullname,
		Permalink:  c.absolute(cd.Permalink),
		Stickied:   cd.Stickied,
	}
}

func (c *Client) absolute(permalink string) string {
	if permalink == "" || strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return strings.TrimSuffix(c.WebURL, "/") + permalink
}

func withPrefix(id, prefix string) string {
	if strings.HasPrefix(id, prefix) {
		return id
	}
	return prefix + id
}
