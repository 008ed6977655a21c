package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTableName(t *testing.T) {
	user := User{}
	assert.Equal(t, "users", user.TableName(), "Table name should be 'users'")
}

func TestUserRoleValues(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		isStudent  bool
		isBusiness bool
	}{
		{"student role", RoleStudent, true, false},
		{"business role", RoleBusiness, false, true},
		{"unknown role", "admin", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{Email: "test@example.com", Role: tt.role}
			assert.Equal(t, tt.isStudent, user.IsStudent())
			assert.Equal(t, tt.isBusiness, user.IsBusiness())
		})
	}
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "issues", Listing{}.TableName())
	assert.Equal(t, "issue_interests", Interest{}.TableName())
	assert.Equal(t, "messages", Message{}.TableName())
	assert.Equal(t, "notifications", Notification{}.TableName())
}

func TestInterestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to string
		allowed  bool
	}{
		{InterestPending, InterestApproved, true},
		{InterestPending, InterestRejected, true},
		{InterestPending, InterestPending, false},
		{InterestApproved, InterestRejected, false},
		{InterestRejected, InterestApproved, false},
		{InterestApproved, InterestPending, false},
		{InterestPending, "withdrawn", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.allowed, Interest{Status: tt.from}.CanTransitionTo(tt.to))
		})
	}
}
