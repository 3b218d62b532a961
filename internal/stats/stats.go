package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"wrapped/internal/services"
)

// Statistics is the finished, already-aggregated payload the export engine
// renders. It mirrors the backend's {stats, mostPlayed} response pair.
type Statistics struct {
	Stats      Summary  `json:"stats"`
	MostPlayed Rankings `json:"mostPlayed"`
}

// Summary holds the headline numbers for the period.
type Summary struct {
	TotalPlays     int `json:"totalPlays"`
	UniqueGames    int `json:"uniqueGames"`
	BoardGamerAge  int `json:"boardGamerAge,omitempty"`
	MostCommonYear int `json:"mostCommonYear,omitempty"`
}

// Rankings groups the ordered top-N lists.
type Rankings struct {
	MostPlayed    []Game  `json:"mostPlayed"`
	TopMechanics  []Tally `json:"topMechanics"`
	TopCategories []Tally `json:"topCategories"`
	TopPublishers []Tally `json:"topPublishers"`
	TopDesigners  []Tally `json:"topDesigners"`
	TopArtists    []Tally `json:"topArtists"`
}

// Game is one most-played entry.
type Game struct {
	GameID    int    `json:"gameId"`
	GameName  string `json:"gameName"`
	PlayCount int    `json:"playCount"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Tally is a label with a count. The backend names the label field after the
// list it belongs to (mechanic, category, publisher, ...).
type Tally struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

var (
	tallyLabelKeys = []string{"label", "name", "mechanic", "category", "publisher", "designer", "artist"}
	tallyCountKeys = []string{"count", "playCount", "plays"}
)

// UnmarshalJSON accepts any of the backend's per-list label keys.
func (t *Tally) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Tally{}
	for _, key := range tallyLabelKeys {
		if value, ok := raw[key]; ok {
			if err := json.Unmarshal(value, &t.Label); err != nil {
				return fmt.Errorf("tally %s: %w", key, err)
			}
			break
		}
	}
	for _, key := range tallyCountKeys {
		if value, ok := raw[key]; ok {
			count, err := flexibleInt(value)
			if err != nil {
				return fmt.Errorf("tally %s: %w", key, err)
			}
			t.Count = count
			break
		}
	}
	t.Label = strings.TrimSpace(t.Label)
	return nil
}

// flexibleInt decodes numbers that some backend versions send as strings.
func flexibleInt(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil {
			return int(v), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int(f), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

// Decode reads and validates a statistics payload.
func Decode(r io.Reader) (*Statistics, error) {
	var out Statistics
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&out); err != nil {
		return nil, services.Wrap(services.ErrValidation, "stats", "decode", "invalid statistics payload", err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadFile reads a statistics payload from disk.
func LoadFile(path string) (*Statistics, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "stats", "open", path, err)
	}
	defer file.Close()
	return Decode(file)
}

// Validate rejects payloads with negative counts or unnamed entries.
func (s *Statistics) Validate() error {
	if s == nil {
		return services.Wrap(services.ErrValidation, "stats", "validate", "statistics payload is nil", nil)
	}
	if s.Stats.TotalPlays < 0 || s.Stats.UniqueGames < 0 {
		return services.Wrap(services.ErrValidation, "stats", "validate", "play totals must be >= 0", nil)
	}
	for i, game := range s.MostPlayed.MostPlayed {
		if strings.TrimSpace(game.GameName) == "" {
			return services.Wrap(services.ErrValidation, "stats", "validate", fmt.Sprintf("mostPlayed[%d] has no gameName", i), nil)
		}
		if game.PlayCount < 0 {
			return services.Wrap(services.ErrValidation, "stats", "validate", fmt.Sprintf("mostPlayed[%d] has negative playCount", i), nil)
		}
	}
	for name, list := range s.MostPlayed.tallies() {
		for i, item := range list {
			if item.Label == "" {
				return services.Wrap(services.ErrValidation, "stats", "validate", fmt.Sprintf("%s[%d] has no label", name, i), nil)
			}
			if item.Count < 0 {
				return services.Wrap(services.ErrValidation, "stats", "validate", fmt.Sprintf("%s[%d] has negative count", name, i), nil)
			}
		}
	}
	return nil
}

func (r Rankings) tallies() map[string][]Tally {
	return map[string][]Tally{
		"topMechanics":  r.TopMechanics,
		"topCategories": r.TopCategories,
		"topPublishers": r.TopPublishers,
		"topDesigners":  r.TopDesigners,
		"topArtists":    r.TopArtists,
	}
}
