package server

import (
	"net/http"
	"testing"

	"mix/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockFlow(t *testing.T) {
	s, app, db := newTestServer(t)
	alice := createProfiledUser(t, db, "alice@example.com", "Alice")
	bob := createProfiledUser(t, db, "bob@example.com", "Bob")
	match := createMatch(t, db, alice, bob)
	aliceToken := tokenFor(t, s, alice)
	bobToken := tokenFor(t, s, bob)

	// Blocking dissolves the existing match for both sides.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/blocks/"+itoaUint(bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/matches/"+itoaUint(match.ID), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The blocked user no longer appears in discovery for either party.
	resp, feed := doJSON(t, app, http.MethodGet, "/api/discovery", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, feed["candidates"])

	resp, feed = doJSON(t, app, http.MethodGet, "/api/discovery", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, feed["candidates"])

	// Block list shows the entry.
	resp, body := doJSON(t, app, http.MethodGet, "/api/blocks", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["blocks"].([]interface{}), 1)

	// Unblock does not resurrect the match.
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/blocks/"+itoaUint(bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/matches/"+itoaUint(match.ID), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Self-block is rejected.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/blocks/"+itoaUint(alice.ID), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMatchAuthorization(t *testing.T) {
	s, app, db := newTestServer(t)
	alice := createProfiledUser(t, db, "alice@example.com", "Alice")
	bob := createProfiledUser(t, db, "bob@example.com", "Bob")
	outsider := createUser(t, db, "eve@example.com", models.RoleMember)
	match := createMatch(t, db, alice, bob)

	resp, body := doJSON(t, app, http.MethodGet, "/api/matches/"+itoaUint(match.ID), tokenFor(t, s, alice), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, float64(match.ID), body["id"], 0.1)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/matches/"+itoaUint(match.ID), tokenFor(t, s, outsider), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
