package api

import "time"

type Group struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Members       []string  `json:"members"`
	TotalExpenses string    `json:"total_expenses"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateGroupRequest creates a group owned by the caller. Members are
// invited by email; unknown emails get a user created for them.
type CreateGroupRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	MemberEmails []string `json:"member_emails,omitempty"`
}

type GroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type JoinGroupRequest struct {
	GroupID string `json:"group_id"`
}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}
