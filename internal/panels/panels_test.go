package panels_test

import (
	"errors"
	"strings"
	"testing"

	"wrapped/internal/fonts"
	"wrapped/internal/panels"
	"wrapped/internal/scene"
	"wrapped/internal/services"
	"wrapped/internal/stats"
)

func sampleStats() *stats.Statistics {
	return &stats.Statistics{
		Stats: stats.Summary{TotalPlays: 1234, UniqueGames: 48, BoardGamerAge: 9, MostCommonYear: 2016},
		MostPlayed: stats.Rankings{
			MostPlayed: []stats.Game{
				{GameID: 1, GameName: "Gloomhaven", PlayCount: 31, Thumbnail: "https://example.test/1.png"},
				{GameID: 2, GameName: "Wingspan", PlayCount: 17},
				{GameID: 3, GameName: "Azul", PlayCount: 12},
				{GameID: 4, GameName: "Cascadia", PlayCount: 11},
				{GameID: 5, GameName: "Root", PlayCount: 9},
				{GameID: 6, GameName: "Ark Nova", PlayCount: 8},
			},
			TopMechanics:  []stats.Tally{{Label: "Hand Management", Count: 40}},
			TopCategories: []stats.Tally{{Label: "Fantasy", Count: 22}},
		},
	}
}

func TestBuildOrdersCardsAndSkipsEmptyLists(t *testing.T) {
	reg, err := panels.Build(sampleStats())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	got := strings.Join(reg.IDs(), ",")
	if got != "stats,most-played,mechanics,categories" {
		t.Fatalf("unexpected panel order %q", got)
	}
	desc, idx, ok := reg.Lookup("most-played")
	if !ok || idx != 1 {
		t.Fatalf("Lookup(most-played) = %d %v", idx, ok)
	}
	if games := desc.Data.([]stats.Game); len(games) != 5 {
		t.Fatalf("expected most played limited to 5, got %d", len(games))
	}
	if desc.Title != "Most Played Games" {
		t.Fatalf("unexpected title %q", desc.Title)
	}
}

func TestBuildAlwaysIncludesStats(t *testing.T) {
	reg, err := panels.Build(&stats.Statistics{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected only the stats card, got %v", reg.IDs())
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	render := panels.RenderFunc(func(panels.Env, any) *scene.Node { return scene.Box("x", 0, 0, 1, 1, scene.Fill{}) })
	_, err := panels.NewRegistry(
		panels.Descriptor{ID: "a", Renderer: render},
		panels.Descriptor{ID: "a", Renderer: render},
	)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := panels.NewRegistry(); err == nil {
		t.Fatal("expected error for empty registry")
	}
}

func TestRenderersProduceFreshTrees(t *testing.T) {
	reg, err := panels.Build(sampleStats())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	env := panels.Env{Subject: "alice", Period: "2025", Text: fonts.NewBook("", nil)}

	for _, desc := range reg.All() {
		first := desc.Render(env)
		second := desc.Render(env)
		if first == nil || first == second {
			t.Fatalf("%s: expected a fresh non-nil tree per render", desc.ID)
		}
		w, h := scene.Measure(first)
		if w != 400 || h < 711 {
			t.Fatalf("%s: unexpected natural size %dx%d", desc.ID, w, h)
		}
		if len(scene.Animations(first)) == 0 {
			t.Fatalf("%s: expected staggered entry animations", desc.ID)
		}
	}
}

func TestMostPlayedUsesFallbackTiles(t *testing.T) {
	reg, err := panels.Build(sampleStats())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	desc, _, _ := reg.Lookup("most-played")
	root := desc.Render(panels.Env{Subject: "alice", Period: "2025"})
	images := scene.Images(root)
	if len(images) != 5 {
		t.Fatalf("expected 5 thumbnails, got %d", len(images))
	}
	if images[0].State() != scene.ImagePending {
		t.Fatalf("expected remote thumbnail pending, got %s", images[0].State())
	}
	if images[1].State() != scene.ImageErrored || images[1].FallbackLabel != "BGG" {
		t.Fatalf("expected missing thumbnail to use the BGG tile, got %s %q", images[1].State(), images[1].FallbackLabel)
	}
}

func TestStatsCardFormatsNumbers(t *testing.T) {
	reg, err := panels.Build(sampleStats())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	desc, _, _ := reg.Lookup("stats")
	root := desc.Render(panels.Env{Subject: "alice", Period: "2025"})

	var texts []string
	scene.Walk(root, func(n *scene.Node) bool {
		if n.Kind == scene.KindText {
			texts = append(texts, n.Text)
		}
		return true
	})
	joined := strings.Join(texts, "|")
	for _, want := range []string{"1,234", "Total Plays", "@alice", "Playing games from 2016", "2025 BG Wrapped"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q among %q", want, joined)
		}
	}
}
