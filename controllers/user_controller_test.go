package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		auth0ID        string
		email          string
		userName       string
		role           string
		expectedStatus int
		expectedCode   string
		expectedRole   string
	}{
		{
			name:           "Create student user successfully",
			auth0ID:        "auth0|student1",
			email:          "student1@example.com",
			userName:       "Student One",
			role:           models.RoleStudent,
			expectedStatus: http.StatusCreated,
			expectedRole:   models.RoleStudent,
		},
		{
			name:           "Create business user successfully",
			auth0ID:        "auth0|biz1",
			email:          "biz1@example.com",
			userName:       "Biz One",
			role:           models.RoleBusiness,
			expectedStatus: http.StatusCreated,
			expectedRole:   models.RoleBusiness,
		},
		{
			name:           "Default role is student",
			auth0ID:        "auth0|norole",
			email:          "norole@example.com",
			userName:       "No Role",
			expectedStatus: http.StatusCreated,
			expectedRole:   models.RoleStudent,
		},
		{
			name:           "Fail with unknown role",
			auth0ID:        "auth0|admin",
			email:          "admin@example.com",
			userName:       "Admin",
			role:           "admin",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_ROLE",
		},
		{
			name:           "Fail with missing email",
			auth0ID:        "auth0|noemail",
			userName:       "No Email",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "MISSING_EMAIL",
		},
		{
			name:           "Fail with missing name",
			auth0ID:        "auth0|noname",
			email:          "noname@example.com",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "MISSING_NAME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAPIHarness(t)
			token := "token-" + tt.auth0ID
			h.auth0[token] = &services.Auth0UserInfo{Sub: tt.auth0ID, Email: tt.email, Name: tt.userName}

			resp := h.serve(h.routerFor(tt.auth0ID, tt.role, token), newRequest(http.MethodPost, "/api/v1/users"))
			require.Equal(t, tt.expectedStatus, resp.Status)

			if tt.expectedStatus != http.StatusCreated {
				assert.False(t, resp.Success)
				assert.Equal(t, tt.expectedCode, resp.Error.Code)
				return
			}
			var user models.User
			resp.decode(t, &user)
			assert.Equal(t, tt.auth0ID, user.Auth0ID)
			assert.Equal(t, tt.email, user.Email)
			assert.Equal(t, tt.expectedRole, user.Role)
		})
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	h := newAPIHarness(t)
	sam := h.market.Student
	h.auth0["token-dup"] = &services.Auth0UserInfo{Sub: sam.Auth0ID, Email: "fresh@example.com", Name: "Sam Again"}

	resp := h.serve(h.routerFor(sam.Auth0ID, models.RoleStudent, "token-dup"), newRequest(http.MethodPost, "/api/v1/users"))
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "USER_EXISTS", resp.Error.Code)
}

func TestCreateUser_Auth0Failure(t *testing.T) {
	h := newAPIHarness(t)

	resp := h.serve(h.routerFor("auth0|ghost", "", "unknown-token"), newRequest(http.MethodPost, "/api/v1/users"))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "AUTH0_ERROR", resp.Error.Code)
}

func TestGetMyProfile(t *testing.T) {
	h := newAPIHarness(t)

	resp := h.do(h.market.Business, http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var user models.User
	resp.decode(t, &user)
	assert.Equal(t, h.market.Business.ID, user.ID)
	assert.Equal(t, models.RoleBusiness, user.Role)
}

func TestUpdateMyProfile(t *testing.T) {
	h := newAPIHarness(t)
	sam := h.market.Student

	resp := h.do(sam, http.MethodPut, "/api/v1/users/me", map[string]string{"name": "Samantha"})
	require.Equal(t, http.StatusOK, resp.Status)
	var user models.User
	resp.decode(t, &user)
	assert.Equal(t, "Samantha", user.Name)
	assert.Equal(t, sam.Email, user.Email)

	resp = h.do(sam, http.MethodPut, "/api/v1/users/me", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	resp = h.do(sam, http.MethodPut, "/api/v1/users/me", map[string]string{"email": h.market.Business.Email})
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "EMAIL_EXISTS", resp.Error.Code)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me", nil)
	resp = h.serve(h.routerFor("auth0|nobody", "", "t"), req)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}
