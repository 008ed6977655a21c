package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationLifecycleUnlocksMessaging(t *testing.T) {
	h := newAPIHarness(t)
	m := h.market
	chat := conversationPath(m.Listing.ID, m.Business.ID, "messages")

	resp := h.do(m.Outsider, http.MethodPost, chat, map[string]string{"content": "hi"})
	require.Equal(t, http.StatusForbidden, resp.Status)

	resp = h.do(m.Outsider, http.MethodPost, fmt.Sprintf("/api/v1/listings/%d/interests", m.Listing.ID), map[string]string{"message": "Pick me"})
	require.Equal(t, http.StatusCreated, resp.Status)
	var interest models.Interest
	resp.decode(t, &interest)
	assert.Equal(t, models.InterestPending, interest.Status)

	resp = h.do(m.Outsider, http.MethodPost, chat, map[string]string{"content": "hi"})
	require.Equal(t, http.StatusForbidden, resp.Status, "pending is not enough")

	resp = h.do(m.Business, http.MethodGet, fmt.Sprintf("/api/v1/listings/%d/interests", m.Listing.ID), nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var pending []models.Interest
	resp.decode(t, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, interest.ID, pending[0].ID)

	resp = h.do(m.Business, http.MethodPatch, fmt.Sprintf("/api/v1/interests/%d", interest.ID), map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, resp.Status)

	resp = h.do(m.Outsider, http.MethodPost, chat, map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusCreated, resp.Status)

	types := map[string]int{}
	for _, n := range h.notificationsOf(m.Business) {
		types[n.Type]++
	}
	assert.Equal(t, 1, types[models.NotificationNewInterest])
	assert.Equal(t, 1, types[models.NotificationNewMessage])

	outsiderTypes := map[string]int{}
	for _, n := range h.notificationsOf(m.Outsider) {
		outsiderTypes[n.Type]++
	}
	assert.Equal(t, 1, outsiderTypes[models.NotificationInterestApproved])
}

func TestInterestRoutesRequireRole(t *testing.T) {
	h := newAPIHarness(t)
	m := h.market

	resp := h.do(m.Business, http.MethodPost, fmt.Sprintf("/api/v1/listings/%d/interests", m.Listing.ID), map[string]string{})
	assert.Equal(t, http.StatusForbidden, resp.Status)
	assert.Equal(t, "INSUFFICIENT_ROLE", resp.Error.Code)

	resp = h.do(m.Student, http.MethodPatch, "/api/v1/interests/1", map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, resp.Status)
	assert.Equal(t, "INSUFFICIENT_ROLE", resp.Error.Code)

	resp = h.do(m.Student, http.MethodPost, fmt.Sprintf("/api/v1/listings/%d/close", m.Listing.ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)
}

func TestDecideValidation(t *testing.T) {
	h := newAPIHarness(t)
	m := h.market

	resp := h.do(m.Business, http.MethodPatch, "/api/v1/interests/1", map[string]string{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	resp = h.do(m.Business, http.MethodPatch, "/api/v1/interests/999", map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "INTEREST_NOT_FOUND", resp.Error.Code)
}

func TestCloseListingRevokesPendingApplications(t *testing.T) {
	h := newAPIHarness(t)
	m := h.market

	resp := h.do(m.Outsider, http.MethodPost, fmt.Sprintf("/api/v1/listings/%d/interests", m.Listing.ID), map[string]string{})
	require.Equal(t, http.StatusCreated, resp.Status)

	resp = h.do(m.Business, http.MethodPost, fmt.Sprintf("/api/v1/listings/%d/close", m.Listing.ID), nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var closed struct {
		Status   string            `json:"status"`
		Rejected []models.Interest `json:"rejected"`
	}
	resp.decode(t, &closed)
	assert.Equal(t, models.ListingClosed, closed.Status)
	require.Len(t, closed.Rejected, 1)
	assert.Equal(t, m.Outsider.ID, closed.Rejected[0].StudentID)

	var rejectedNotes int
	for _, n := range h.notificationsOf(m.Outsider) {
		if n.Type == models.NotificationInterestRejected {
			rejectedNotes++
		}
	}
	assert.Equal(t, 1, rejectedNotes)

	resp = h.do(m.Outsider, http.MethodPost, fmt.Sprintf("/api/v1/listings/%d/interests", m.Listing.ID), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "LISTING_CLOSED", resp.Error.Code)
}
