package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldError represents a single field's validation error.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// ValidateCommentSubmit reports which required parts of the trigger payload are missing.
// An event with any error is malformed and must not cause side effects.
func ValidateCommentSubmit(ev *CommentSubmit) []FieldError {
	if ev == nil {
		return []FieldError{{"event", "required"}}
	}
	var errs []FieldError

	if ev.Comment == nil {
		errs = append(errs, FieldError{"comment", "required"})
	} else if ev.Comment.ID == "" {
		errs = append(errs, FieldError{"comment.id", "required"})
	}

	if ev.Post == nil {
		errs = append(errs, FieldError{"post", "required"})
	} else if ev.Post.ID == "" {
		errs = append(errs, FieldError{"post.id", "required"})
	}

	if ev.Author == nil {
		errs = append(errs, FieldError{"author", "required"})
	}

	if ev.Subreddit == nil {
		errs = append(errs, FieldError{"subreddit", "required"})
	} else if ev.Subreddit.Name == "" {
		errs = append(errs, FieldError{"subreddit.name", "required"})
	}

	return errs
}

// ValidateThreshold enforces the configuration-time rule for comment thresholds.
// value is the raw stored setting (JSON number, int or numeric string).
func ValidateThreshold(field string, value any) *FieldError {
	n, ok := AsInt(value)
	if !ok || n < LowestSupportedThreshold {
		return &FieldError{field, fmt.Sprintf("You must specify a number of comments greater than or equal to %d", LowestSupportedThreshold)}
	}
	return nil
}

// AsInt converts a loosely typed setting value into a whole number.
// Fractional numbers are rejected.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	case interface{ Int64() (int64, error) }: // json.Number
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
