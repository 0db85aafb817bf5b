// Package event models the trigger events a pipeline run responds to: a
// push to a branch, a push of a tag, or a pull request. The release gate
// predicate (is the triggering ref a tag reference) lives here so it is
// computed in exactly one place.
package event

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conveyor-ci/conveyor/internal/model"
)

// Ref prefixes distinguishing branch and tag references.
const (
	BranchRefPrefix = "refs/heads/"
	TagRefPrefix    = "refs/tags/"
)

// Supported event names.
const (
	Push        = "push"
	PullRequest = "pull_request"
)

// Event is the trigger for a single pipeline run. It is immutable for the
// duration of the run.
type Event struct {
	// Name is the event kind: "push" or "pull_request".
	Name string `yaml:"event"`

	// Ref is the triggering git reference, e.g. "refs/heads/master" or
	// "refs/tags/v1.2.3".
	Ref string `yaml:"ref"`

	// Base is the target branch of a pull request; empty for pushes.
	Base string `yaml:"base,omitempty"`
}

// LoadFile reads an event payload from a YAML file.
func LoadFile(path string) (Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Event{}, fmt.Errorf("failed to read event file %s: %w", path, err)
	}
	var ev Event
	if err := yaml.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to parse event file %s: %w", path, err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, fmt.Errorf("invalid event file %s: %w", path, err)
	}
	return ev, nil
}

// Validate checks the event is well formed.
func (e Event) Validate() error {
	switch e.Name {
	case Push, PullRequest:
	default:
		return fmt.Errorf("unknown event %q: must be %q or %q", e.Name, Push, PullRequest)
	}
	if e.Ref == "" {
		return fmt.Errorf("event %q has an empty ref", e.Name)
	}
	if e.Name == PullRequest && e.Base == "" {
		return fmt.Errorf("pull_request event has no base branch")
	}
	return nil
}

// IsTag is the release gate predicate: true iff the triggering reference
// begins with the tag-reference prefix.
func (e Event) IsTag() bool {
	return strings.HasPrefix(e.Ref, TagRefPrefix)
}

// Branch returns the branch name for a branch ref, or "" for tags and
// non-branch refs.
func (e Event) Branch() string {
	if strings.HasPrefix(e.Ref, BranchRefPrefix) {
		return strings.TrimPrefix(e.Ref, BranchRefPrefix)
	}
	return ""
}

// Tag returns the tag name for a tag ref, or "".
func (e Event) Tag() string {
	if e.IsTag() {
		return strings.TrimPrefix(e.Ref, TagRefPrefix)
	}
	return ""
}

// Matches reports whether this event matches the pipeline's trigger surface.
func (e Event) Matches(t *model.Triggers) bool {
	if t == nil {
		return false
	}
	switch e.Name {
	case Push:
		if t.Push == nil {
			return false
		}
		if e.IsTag() {
			return t.Push.Tags
		}
		return containsString(t.Push.Branches, e.Branch())
	case PullRequest:
		if t.PullRequest == nil {
			return false
		}
		return containsString(t.PullRequest.Branches, e.Base)
	}
	return false
}

func containsString(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
