package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"wrapped/internal/stats"
)

// SampleStats returns a small statistics set that builds three cards:
// stats, most-played and mechanics. No game has a thumbnail, so nothing is
// fetched over the network.
func SampleStats() *stats.Statistics {
	return &stats.Statistics{
		Stats: stats.Summary{TotalPlays: 321, UniqueGames: 40, BoardGamerAge: 6, MostCommonYear: 2019},
		MostPlayed: stats.Rankings{
			MostPlayed: []stats.Game{
				{GameID: 1, GameName: "Wingspan", PlayCount: 17},
				{GameID: 2, GameName: "Azul", PlayCount: 12},
			},
			TopMechanics: []stats.Tally{{Label: "Drafting", Count: 30}},
		},
	}
}

// WriteStats encodes s as JSON at path, creating parent directories.
func WriteStats(t testing.TB, path string, s *stats.Statistics) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal stats: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
