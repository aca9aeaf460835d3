package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaller(t *testing.T) {
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	branchID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	var got identity.Caller
	var present bool
	router := gin.New()
	router.Use(Caller())
	router.GET("/test", func(c *gin.Context) {
		got, present = identity.CallerFrom(c.Request.Context())
		c.String(http.StatusOK, "ok")
	})

	serve := func(headers map[string]string) *httptest.ResponseRecorder {
		got, present = identity.Caller{}, false
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("branch user", func(t *testing.T) {
		w := serve(map[string]string{HeaderUserID: userID.String(), HeaderBranchID: branchID.String()})
		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, present)
		assert.Equal(t, userID, got.UserID)
		require.NotNil(t, got.BranchID)
		assert.Equal(t, branchID, *got.BranchID)
		assert.False(t, got.SeesAllBranches())
	})

	t.Run("headquarters admin", func(t *testing.T) {
		w := serve(map[string]string{HeaderUserID: userID.String(), HeaderHeadquarters: "true", HeaderAdmin: "1"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, got.IsHeadquarters)
		assert.True(t, got.IsAdmin)
		assert.Nil(t, got.BranchID)
	})

	t.Run("missing user is unauthorized", func(t *testing.T) {
		w := serve(map[string]string{HeaderBranchID: branchID.String()})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
		assert.False(t, present)
	})

	t.Run("malformed branch", func(t *testing.T) {
		w := serve(map[string]string{HeaderUserID: userID.String(), HeaderBranchID: "branch-7"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_BRANCH_ID")
	})

	t.Run("malformed flag", func(t *testing.T) {
		w := serve(map[string]string{HeaderUserID: userID.String(), HeaderAdmin: "maybe"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
