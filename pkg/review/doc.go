// Package review holds the navigation state of the classification
// dashboard: which command is shown, which of its arguments is selected,
// and what happens when the validator marks it.
//
// The corpus is grouped by command id. The position is an index into that
// list and is persisted as the user's last_processed_cmd_id after every
// classification, so a new session resumes where the previous one stopped.
package review
