package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resale-console/internal/models"
)

func TestAccounts_CreateListRedacts(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/accounts", map[string]any{
		"id":            "acc1",
		"cookies":       "unb=1; _m_h5_tk=x",
		"nickname":      "小店",
		"proxyType":     "http",
		"proxyHost":     "127.0.0.1",
		"proxyPort":     8888,
		"proxyPassword": "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Account](t, w)
	assert.Empty(t, created.Cookies)
	assert.True(t, created.Enabled)
	assert.Equal(t, "acc1", created.Status.AccountID)

	w = a.do(t, http.MethodGet, "/api/accounts", nil)
	list := decode[[]models.Account](t, w)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Cookies)
	assert.Empty(t, list[0].ProxyPassword)
	assert.Equal(t, "小店", list[0].Nickname)

	w = a.do(t, http.MethodGet, "/api/accounts/acc1", nil)
	full := decode[models.Account](t, w)
	assert.Equal(t, "unb=1; _m_h5_tk=x", full.Cookies)
	require.NotNil(t, full.ProxyType)
	assert.Equal(t, "http", *full.ProxyType)

	w = a.do(t, http.MethodPost, "/api/accounts", map[string]any{"id": "acc1", "cookies": "x"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAccounts_GeneratesID(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodPost, "/api/accounts", map[string]any{"cookies": "x"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, decode[models.Account](t, w).ID, 36)
}

func TestAccounts_Validation(t *testing.T) {
	a := newTestAPI(t)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/accounts", map[string]any{"id": "a"}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/accounts", map[string]any{
		"cookies": "x", "proxyType": "socks5",
	}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/accounts", map[string]any{
		"cookies": "x", "proxyType": "http", "proxyPort": 70000,
	}).Code)
}

func TestAccounts_UpdateClearsProxy(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/api/accounts", map[string]any{
		"id": "acc1", "cookies": "x", "proxyType": "https", "proxyHost": "p", "proxyPort": 443,
	})

	w := a.do(t, http.MethodPut, "/api/accounts/acc1", map[string]any{"proxyType": "", "remark": "direct"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/accounts/acc1", nil)
	acc := decode[models.Account](t, w)
	assert.Nil(t, acc.ProxyType)
	assert.Empty(t, acc.ProxyHost)
	assert.Zero(t, acc.ProxyPort)
	assert.Equal(t, "direct", acc.Remark)
	assert.Equal(t, "x", acc.Cookies)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPut, "/api/accounts/missing", map[string]any{}).Code)
}

func TestAccounts_ToggleAndDelete(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/api/accounts", map[string]any{"id": "acc1", "cookies": "x"})

	w := a.do(t, http.MethodPost, "/api/accounts/acc1/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["enabled"])

	w = a.do(t, http.MethodPost, "/api/accounts/acc1/toggle", map[string]any{"enabled": false})
	assert.Equal(t, false, decode[map[string]any](t, w)["enabled"])

	w = a.do(t, http.MethodPost, "/api/accounts/acc1/toggle", nil)
	assert.Equal(t, true, decode[map[string]any](t, w)["enabled"])

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/api/accounts/nope/toggle", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/api/accounts/acc1", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/accounts/acc1", nil).Code)
}
