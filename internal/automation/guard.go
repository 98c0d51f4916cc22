package automation

import (
	"fmt"
	"strings"

	"example.com/commentcap/internal/domain"
)

// Kind classifies why the guard chain stopped.
type Kind int

const (
	Pass Kind = iota
	Malformed
	BotAuthor
	Disabled
	AlreadyActioned
	Misconfigured
	NotYetEligible
	ProtectedFlair
)

func (k Kind) String() string {
	switch k {
	case Pass:
		return "pass"
	case Malformed:
		return "malformed"
	case BotAuthor:
		return "bot_author"
	case Disabled:
		return "disabled"
	case AlreadyActioned:
		return "already_actioned"
	case Misconfigured:
		return "misconfigured"
	case NotYetEligible:
		return "not_yet_eligible"
	case ProtectedFlair:
		return "protected_flair"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Decision is the guard chain's verdict. Reason is for logs only.
type Decision struct {
	Kind   Kind
	Reason string
}

func (d Decision) Passed() bool { return d.Kind == Pass }

var passed = Decision{Kind: Pass}

// GuardInput is everything the guard chain looks at.
type GuardInput struct {
	Event           *domain.CommentSubmit
	Settings        domain.AutomationSettings
	AlreadyActioned bool
	// AppAccountID is the automation's own service account.
	AppAccountID string
	Policy       Policy
}

// stage marks which inputs a guard depends on, so callers can stop before
// fetching inputs that later guards need.
type stage int

const (
	stagePayload stage = iota
	stageSettings
	stageFlag
)

type guard struct {
	stage stage
	check func(in GuardInput) Decision
}

// Order is significant: the ignore list runs before the overwrite policy.
var chain = []guard{
	{stagePayload, checkComplete},
	{stagePayload, checkBotAuthor},
	{stageSettings, checkEnabled},
	{stageFlag, checkAlreadyActioned},
	{stageFlag, checkThresholdConfigured},
	{stageFlag, checkThresholdReached},
	{stageFlag, checkIgnoredFlair},
	{stageFlag, checkOverwrite},
}

// Evaluate runs the full guard chain and returns the first failing decision.
func Evaluate(in GuardInput) Decision {
	return evaluateThrough(in, stageFlag)
}

// CheckPayload runs only the guards that need nothing but the event.
func CheckPayload(in GuardInput) Decision {
	return evaluateThrough(in, stagePayload)
}

// CheckSettings runs the guards up to, but excluding, the idempotency lookup.
func CheckSettings(in GuardInput) Decision {
	return evaluateThrough(in, stageSettings)
}

func evaluateThrough(in GuardInput, last stage) Decision {
	for _, g := range chain {
		if g.stage > last {
			break
		}
		if d := g.check(in); !d.Passed() {
			return d
		}
	}
	return passed
}

func checkComplete(in GuardInput) Decision {
	errs := domain.ValidateCommentSubmit(in.Event)
	if len(errs) == 0 {
		return passed
	}
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fe.Error())
	}
	return Decision{Malformed, "event is not in the required state: " + strings.Join(fields, "; ")}
}

func checkBotAuthor(in GuardInput) Decision {
	c := in.Event.Comment
	if c.AuthorName == domain.AutoModeratorName {
		return Decision{BotAuthor, "comment by " + domain.AutoModeratorName}
	}
	if in.Policy.ExcludeAppAccount && in.AppAccountID != "" && c.AuthorID == in.AppAccountID {
		return Decision{BotAuthor, "comment by app account"}
	}
	return passed
}

func checkEnabled(in GuardInput) Decision {
	if !in.Settings.Enabled {
		return Decision{Disabled, "function not enabled"}
	}
	return passed
}

func checkAlreadyActioned(in GuardInput) Decision {
	if in.AlreadyActioned {
		return Decision{AlreadyActioned, "already flaired"}
	}
	return passed
}

func checkThresholdConfigured(in GuardInput) Decision {
	if in.Settings.Threshold < domain.LowestSupportedThreshold {
		return Decision{Misconfigured, fmt.Sprintf("comment threshold may not be defined (%d)", in.Settings.Threshold)}
	}
	return passed
}

func checkThresholdReached(in GuardInput) Decision {
	n, t := in.Event.Post.NumComments, in.Settings.Threshold
	if n < t {
		return Decision{NotYetEligible, fmt.Sprintf("not enough comments (%d/%d)", n, t)}
	}
	return passed
}

func checkIgnoredFlair(in GuardInput) Decision {
	if !in.Settings.WantsFlairChange() {
		return passed
	}
	ignore := in.Settings.FlairTextToIgnore
	if in.Policy.IgnoreOwnFlair {
		ignore = ignore.With(in.Settings.FlairText)
	}
	if current := in.Event.CurrentFlairText(); ignore.Contains(current) {
		return Decision{ProtectedFlair, fmt.Sprintf("ignore flair %q", current)}
	}
	return passed
}

func checkOverwrite(in GuardInput) Decision {
	if in.Settings.OverwriteExistingFlair || !in.Settings.WantsFlairChange() {
		return passed
	}
	if current := in.Event.CurrentFlairText(); current != "" {
		return Decision{ProtectedFlair, fmt.Sprintf("post flair already set to %q", current)}
	}
	return passed
}
