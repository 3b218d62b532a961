package panels

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"wrapped/internal/scene"
	"wrapped/internal/stats"
)

const (
	mostPlayedLimit = 5
	tallyLimit      = 8
	thumbSize       = 60.0
	rowHeight       = 76.0
	tagHeight       = 44.0
	fallbackTile    = "#667eea"
	fallbackLabel   = "BGG"
)

var (
	gradientPurple = scene.Fill{From: "#667eea", To: "#764ba2"}
	gradientBlue   = scene.Fill{From: "#4facfe", To: "#00a3d9"}
	gradientGreen  = scene.Fill{From: "#11998e", To: "#38ef7d"}
	gradientPink   = scene.Fill{From: "#f093fb", To: "#f5576c"}
	gradientOrange = scene.Fill{From: "#fa709a", To: "#fee140"}
	gradientTeal   = scene.Fill{From: "#30cfd0", To: "#330867"}
	gradientRed    = scene.Fill{From: "#ff512f", To: "#dd2476"}

)

// tallyCard describes one of the top-N label/count cards.
type tallyCard struct {
	id    string
	title string
	fill  scene.Fill
	items func(stats.Rankings) []stats.Tally
}

var tallyCards = []tallyCard{
	{id: "mechanics", title: "favorite mechanics", fill: gradientGreen, items: func(r stats.Rankings) []stats.Tally { return r.TopMechanics }},
	{id: "categories", title: "top categories", fill: gradientPink, items: func(r stats.Rankings) []stats.Tally { return r.TopCategories }},
	{id: "publishers", title: "top publishers", fill: gradientOrange, items: func(r stats.Rankings) []stats.Tally { return r.TopPublishers }},
	{id: "designers", title: "top designers", fill: gradientTeal, items: func(r stats.Rankings) []stats.Tally { return r.TopDesigners }},
	{id: "artists", title: "top artists", fill: gradientRed, items: func(r stats.Rankings) []stats.Tally { return r.TopArtists }},
}

// Build creates the session's card sequence. The stats card is always
// present; list cards are included only when they have entries.
func Build(s *stats.Statistics) (*Registry, error) {
	if s == nil {
		s = &stats.Statistics{}
	}
	descriptors := []Descriptor{{
		ID:       "stats",
		Title:    title("your year in games"),
		Data:     s.Stats,
		Renderer: RenderFunc(renderStats),
	}}
	if games := s.MostPlayed.MostPlayed; len(games) > 0 {
		descriptors = append(descriptors, Descriptor{
			ID:       "most-played",
			Title:    title("most played games"),
			Data:     limitGames(games, mostPlayedLimit),
			Renderer: RenderFunc(renderMostPlayed),
		})
	}
	for _, card := range tallyCards {
		items := card.items(s.MostPlayed)
		if len(items) == 0 {
			continue
		}
		descriptors = append(descriptors, Descriptor{
			ID:       card.id,
			Title:    title(card.title),
			Data:     limitTallies(items, tallyLimit),
			Renderer: tallyRenderer(card),
		})
	}
	return NewRegistry(descriptors...)
}

// title and number formatting build a fresh Caser/Printer per call; neither
// is safe for concurrent use.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

func count(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

func limitGames(games []stats.Game, n int) []stats.Game {
	if len(games) > n {
		games = games[:n]
	}
	return append([]stats.Game(nil), games...)
}

func limitTallies(items []stats.Tally, n int) []stats.Tally {
	if len(items) > n {
		items = items[:n]
	}
	return append([]stats.Tally(nil), items...)
}

func renderStats(env Env, data any) *scene.Node {
	summary, _ := data.(stats.Summary)
	col := newCard(env, "stats", gradientPurple)
	col.header(title("your year in games"))

	order := 0
	statItem := func(value, label, sublabel string) {
		item := scene.Box(col.nextID("stat"), 0, 0, col.innerWidth(), 0, scene.Fill{From: "#ffffff26"})
		item.Radius = 16
		y := 12.0
		for _, line := range []struct {
			text  string
			ref   scene.FontRef
			color string
		}{
			{value, sized(fontBold, 44), "#ffffff"},
			{label, sized(fontRegular, 16), "#ffffffd9"},
			{sublabel, sized(fontRegular, 13), "#ffffffa6"},
		} {
			if line.text == "" {
				continue
			}
			node := textNode(env, col.nextID("stat-text"), line.text, line.ref, line.color, scene.AlignCenter, col.innerWidth()-24)
			node.X, node.Y = 12, y
			item.Add(node)
			y += node.Height + 4
		}
		item.Height = y + 8
		col.animate(item, order)
		order++
		col.block(item)
	}

	statItem(count(summary.TotalPlays), "Total Plays", "")
	statItem(count(summary.UniqueGames), "Unique Games", "")
	if summary.BoardGamerAge > 0 {
		sub := ""
		if summary.MostCommonYear > 0 {
			sub = "Playing games from " + strconv.Itoa(summary.MostCommonYear)
		}
		statItem(strconv.Itoa(summary.BoardGamerAge), "Your Board Gamer Age", sub)
	}
	return col.finish()
}

func renderMostPlayed(env Env, data any) *scene.Node {
	games, _ := data.([]stats.Game)
	col := newCard(env, "most-played", gradientBlue)
	col.header(title("most played games"))

	for i, game := range games {
		row := scene.Box(col.nextID("game"), 0, 0, col.innerWidth(), rowHeight, scene.Fill{From: "#ffffff26"})
		row.Radius = 14

		rank := textNode(env, col.nextID("rank"), "#"+strconv.Itoa(i+1), sized(fontBold, 18), "#ffffff", scene.AlignCenter, 36)
		rank.X, rank.Y = 6, (rowHeight-rank.Height)/2

		thumb := &scene.Node{
			ID:     col.nextID("thumb"),
			Kind:   scene.KindImage,
			X:      46,
			Y:      (rowHeight - thumbSize) / 2,
			Width:  thumbSize,
			Height: thumbSize,
			Radius: 10,
			Image:  scene.NewImageSource(game.Thumbnail, fallbackLabel, fallbackTile),
		}

		textX := thumb.X + thumbSize + 12
		textW := col.innerWidth() - textX - 10
		name := textNode(env, col.nextID("name"), game.GameName, sized(fontBold, 16), "#ffffff", scene.AlignLeft, textW)
		plays := textNode(env, col.nextID("plays"), count(game.PlayCount)+" plays", sized(fontRegular, 13), "#ffffffcc", scene.AlignLeft, textW)
		blockH := name.Height + 4 + plays.Height
		name.X, name.Y = textX, (rowHeight-blockH)/2
		plays.X, plays.Y = textX, name.Y+name.Height+4

		row.Add(rank, thumb, name, plays)
		col.animate(row, i)
		col.block(row)
	}
	return col.finish()
}

func tallyRenderer(card tallyCard) Renderer {
	return RenderFunc(func(env Env, data any) *scene.Node {
		items, _ := data.([]stats.Tally)
		col := newCard(env, card.id, card.fill)
		col.header(title(card.title))

		for i, item := range items {
			tag := scene.Box(col.nextID("tag"), 0, 0, col.innerWidth(), tagHeight, scene.Fill{From: "#ffffff2e"})
			tag.Radius = tagHeight / 2

			countNode := textNode(env, col.nextID("count"), count(item.Count), sized(fontBold, 15), "#ffffff", scene.AlignRight, 60)
			countNode.X, countNode.Y = col.innerWidth()-16-countNode.Width, (tagHeight-countNode.Height)/2
			label := textNode(env, col.nextID("label"), item.Label, sized(fontRegular, 15), "#ffffff", scene.AlignLeft, col.innerWidth()-32-countNode.Width-8)
			label.X, label.Y = 16, (tagHeight-label.Height)/2

			tag.Add(label, countNode)
			col.animate(tag, i)
			col.block(tag)
		}
		return col.finish()
	})
}
