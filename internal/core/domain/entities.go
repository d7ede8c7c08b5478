package domain

import "strings"

// Role names seeded into the roles table
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// CardStatus represents the lifecycle state of a card
type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
)

// ParseCardStatus parses a status filter value (case-insensitive)
func ParseCardStatus(s string) (CardStatus, error) {
	switch CardStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case CardStatusActive:
		return CardStatusActive, nil
	case CardStatusBlocked:
		return CardStatusBlocked, nil
	}
	return "", InvalidParameter("invalid card status: " + s)
}

// BlockRequestStatus represents the state of a block request
type BlockRequestStatus string

const (
	BlockRequestPending  BlockRequestStatus = "PENDING"
	BlockRequestApproved BlockRequestStatus = "APPROVED"
	BlockRequestRejected BlockRequestStatus = "REJECTED"
)

// ParseBlockRequestStatus parses a status filter value (case-insensitive)
func ParseBlockRequestStatus(s string) (BlockRequestStatus, error) {
	switch BlockRequestStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case BlockRequestPending:
		return BlockRequestPending, nil
	case BlockRequestApproved:
		return BlockRequestApproved, nil
	case BlockRequestRejected:
		return BlockRequestRejected, nil
	}
	return "", InvalidParameter("invalid block request status: " + s)
}

// Decision is an admin verdict on a block request
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision accepts "approve" or "reject" in any case
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionReject:
		return DecisionReject, nil
	}
	return "", ErrInvalidDecision
}
