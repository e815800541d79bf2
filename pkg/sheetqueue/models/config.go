package models

import "sort"

// QueueConfig holds the queue's settings.
type QueueConfig struct {
	// BlacklistedUsers is the set of user ids that may not submit.
	// Order is irrelevant; duplicates are dropped on save.
	BlacklistedUsers []string `json:"blacklistedUsers" yaml:"blacklistedUsers"`
	// SubmissionMaxQuantity caps the number of stored suggestions per user.
	// Nil means unlimited.
	SubmissionMaxQuantity *int `json:"submissionMaxQuantity" yaml:"submissionMaxQuantity"`
}

// DefaultQueueConfig returns the config used before anything was saved:
// an empty blacklist and no submission limit.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{BlacklistedUsers: []string{}}
}

// IsBlacklisted reports whether userID is on the blacklist.
func (c QueueConfig) IsBlacklisted(userID string) bool {
	for _, id := range c.BlacklistedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Blacklist returns the blacklist as a set.
func (c QueueConfig) Blacklist() map[string]struct{} {
	set := make(map[string]struct{}, len(c.BlacklistedUsers))
	for _, id := range c.BlacklistedUsers {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// SetBlacklist replaces the blacklist with the members of set in sorted order.
func (c *QueueConfig) SetBlacklist(set map[string]struct{}) {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	c.BlacklistedUsers = ids
}

// Limit returns the submission cap and whether one is set.
func (c QueueConfig) Limit() (int, bool) {
	if c.SubmissionMaxQuantity == nil {
		return 0, false
	}
	return *c.SubmissionMaxQuantity, true
}
