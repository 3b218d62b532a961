package stats_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wrapped/internal/services"
	"wrapped/internal/stats"
)

func TestClientFetchImportsPlaysFirst(t *testing.T) {
	var mu sync.Mutex
	var order []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		order = append(order, r.URL.Path)
		mu.Unlock()
		if got := r.URL.Query().Get("excludeBGA"); got != "true" {
			t.Errorf("expected excludeBGA=true, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/plays/alice":
			_, _ = w.Write([]byte(`{"imported": 12}`))
		case "/api/analytics/alice/stats":
			_, _ = w.Write([]byte(`{"totalPlays": 12, "uniqueGames": 4}`))
		case "/api/analytics/alice/most-played":
			_, _ = w.Write([]byte(`{"mostPlayed":[{"gameId":1,"gameName":"Azul","playCount":5}],"topMechanics":[{"mechanic":"Tile Placement","count":5}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := stats.NewClient(server.URL+"/api/", 5*time.Second, nil)
	payload, err := client.Fetch(context.Background(), "alice", true)
	require.NoError(t, err)
	require.Equal(t, 12, payload.Stats.TotalPlays)
	require.Equal(t, "Azul", payload.MostPlayed.MostPlayed[0].GameName)
	require.Equal(t, "Tile Placement", payload.MostPlayed.TopMechanics[0].Label)

	require.Len(t, order, 3)
	require.Equal(t, "/api/plays/alice", order[0])
}

func TestClientFetchSurfacesBackendErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/plays/") {
			http.Error(w, "no such user", http.StatusNotFound)
			return
		}
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer server.Close()

	client := stats.NewClient(server.URL, time.Second, nil)
	_, err := client.Fetch(context.Background(), "ghost", false)
	require.ErrorIs(t, err, services.ErrNotFound)
	require.Contains(t, err.Error(), "no such user")
}

func TestClientFetchRequiresUser(t *testing.T) {
	client := stats.NewClient("http://127.0.0.1:0", time.Second, nil)
	_, err := client.Fetch(context.Background(), "  ", false)
	require.ErrorIs(t, err, services.ErrValidation)
}
