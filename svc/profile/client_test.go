package profile_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftarena/authcore/pkg/requestid"
	"github.com/ftarena/authcore/svc/profile"
)

func TestNew(t *testing.T) {
	t.Parallel()
	_, err := profile.New(profile.Config{})
	assert.ErrorIs(t, err, profile.ErrMissingBaseURL)
}

func TestClient_CreateProfile(t *testing.T) {
	t.Parallel()

	t.Run("posts profile", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/profiles", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "req-7", r.Header.Get(requestid.Header))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, userID.String(), body["userId"])
			assert.Equal(t, "a@example.com", body["email"])
			assert.Equal(t, "alice", body["username"])
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		client, err := profile.New(profile.Config{BaseURL: srv.URL + "/"})
		require.NoError(t, err)

		ctx := requestid.WithContext(context.Background(), "req-7")
		assert.NoError(t, client.CreateProfile(ctx, userID, "a@example.com", "alice"))
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer srv.Close()

		client, err := profile.New(profile.Config{BaseURL: srv.URL})
		require.NoError(t, err)
		err = client.CreateProfile(context.Background(), uuid.New(), "a@example.com", "alice")
		assert.ErrorIs(t, err, profile.ErrUnexpectedStatus)
	})

	t.Run("times out", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		client, err := profile.New(profile.Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
		require.NoError(t, err)
		err = client.CreateProfile(context.Background(), uuid.New(), "a@example.com", "alice")
		assert.Error(t, err)
	})
}
