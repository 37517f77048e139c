package store

import (
	"fmt"
	"strings"
	"time"
)

// Well-known roles. Role is stored as an open string; these are the values
// the API and CLI treat specially.
const (
	RoleValidator = "validator"
	RoleViewer    = "viewer"
	RoleAdmin     = "admin"
)

// Classification is the label a validator applies to a command.
type Classification string

const (
	// Dynamic marks a command whose arguments are computed at runtime.
	Dynamic Classification = "dynamic"
	// Static marks a command whose arguments are literal.
	Static Classification = "static"
)

// Label returns the capitalized form used in history rows.
func (c Classification) Label() string {
	switch c {
	case Dynamic:
		return "Dynamic"
	case Static:
		return "Static"
	default:
		return string(c)
	}
}

// Valid reports whether c is a known classification.
func (c Classification) Valid() bool {
	return c == Dynamic || c == Static
}

// ActionFilter selects which classifications a history query returns.
type ActionFilter string

const (
	ActionAll     ActionFilter = "All"
	ActionDynamic ActionFilter = "Dynamic"
	ActionStatic  ActionFilter = "Static"
)

// ParseActionFilter parses a filter case-insensitively. An empty string
// means ActionAll.
func ParseActionFilter(s string) (ActionFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ActionAll, nil
	case "dynamic":
		return ActionDynamic, nil
	case "static":
		return ActionStatic, nil
	default:
		return "", invalidInput("unknown action type %q", s)
	}
}

// Includes reports whether the filter selects classification c.
func (f ActionFilter) Includes(c Classification) bool {
	switch f {
	case ActionAll, "":
		return true
	case ActionDynamic:
		return c == Dynamic
	case ActionStatic:
		return c == Static
	default:
		return false
	}
}

// User is a registered account.
type User struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	PasswordHash       string     `json:"-"`
	LastProcessedCmdID int64      `json:"last_processed_cmd_id"`
	LastSeen           *time.Time `json:"last_seen,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// HasRole compares the user's role case-insensitively.
func (u *User) HasRole(role string) bool {
	return strings.EqualFold(u.Role, role)
}

// NewUser carries signup input.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     string
}

func (n *NewUser) normalize() error {
	n.Name = strings.TrimSpace(n.Name)
	n.Email = strings.TrimSpace(n.Email)
	n.Role = strings.ToLower(strings.TrimSpace(n.Role))
	if n.Role == "" {
		n.Role = RoleValidator
	}

	switch {
	case n.Name == "":
		return invalidInput("name is required")
	case n.Email == "":
		return invalidInput("email is required")
	case n.Password == "":
		return invalidInput("password is required")
	}
	return nil
}

// CorpusRow is one argument of a command joined with its optional context.
type CorpusRow struct {
	ArgumentID      int64  `json:"argument_id"`
	CommandID       int64  `json:"command_id"`
	FullCommandLine string `json:"full_command_line"`
	// ContextLines is unescaped; empty when the argument has no context.
	ContextLines string `json:"context_lines"`
}

// CorpusCommand is a command with its arguments, as imported from a corpus file.
type CorpusCommand struct {
	ID        int64            `json:"id" yaml:"id"`
	Arguments []CorpusArgument `json:"arguments" yaml:"arguments"`
}

// CorpusArgument is one invocation of a command. Context holds the escaped
// blob exactly as the corpus stores it.
type CorpusArgument struct {
	ID              int64  `json:"id" yaml:"id"`
	FullCommandLine string `json:"full_command_line" yaml:"full_command_line"`
	Context         string `json:"context_lines,omitempty" yaml:"context_lines,omitempty"`
}

// HistoryFilter narrows a history query. Nil fields are not applied.
type HistoryFilter struct {
	Start     *time.Time
	End       *time.Time
	CommandID *int64
	Action    ActionFilter
}

// Validate rejects filters that can never match.
func (f *HistoryFilter) Validate() error {
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return invalidInput("end %s is before start %s", f.End.Format(time.RFC3339), f.Start.Format(time.RFC3339))
	}
	switch f.Action {
	case "", ActionAll, ActionDynamic, ActionStatic:
		return nil
	default:
		return invalidInput("unknown action type %q", f.Action)
	}
}

// HistoryEntry is one recorded classification.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	CommandID     int64     `json:"command_id"`
	CommandText   string    `json:"command_text"`
	Action        string    `json:"action"`
	ProcessedTime time.Time `json:"processed_time"`
}

// ValidatorStats summarizes one validator's progress.
type ValidatorStats struct {
	Dynamic   int64 `json:"dynamic"`
	Static    int64 `json:"static"`
	Processed int64 `json:"processed"`
	Remaining int64 `json:"remaining"`
	Total     int64 `json:"total"`
}

func newValidatorStats(dynamic, static, total int64) *ValidatorStats {
	processed := dynamic + static
	return &ValidatorStats{
		Dynamic:   dynamic,
		Static:    static,
		Processed: processed,
		Remaining: max(0, total-processed),
		Total:     total,
	}
}

// RoleCounts reports how many validators and viewers are registered.
type RoleCounts struct {
	ValidatorCount int      `json:"validator_count"`
	ViewerCount    int      `json:"viewer_count"`
	ValidatorNames []string `json:"validator_names"`
	ViewerNames    []string `json:"viewer_names"`
}

// ValidatorRef identifies a validator in admin listings.
type ValidatorRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ActiveValidator is a validator with the time of their last classification.
type ActiveValidator struct {
	Name     string     `json:"name"`
	LastSeen *time.Time `json:"last_seen"`
}

// String implements fmt.Stringer for log output.
func (s ValidatorStats) String() string {
	return fmt.Sprintf("dynamic=%d static=%d processed=%d remaining=%d total=%d",
		s.Dynamic, s.Static, s.Processed, s.Remaining, s.Total)
}
