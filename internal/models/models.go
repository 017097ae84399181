// package models defines the data model for the track labeling service
package models

import "strings"

// Track is the catalog record for one track, as written by the populator
// and served to the labeling interfaces.
type Track struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Artists          []Artist `json:"artists"`
	AlbumID          string   `json:"album_id,omitempty"`
	URI              string   `json:"uri,omitempty"`
	AvailableMarkets []string `json:"available_markets"`
}

// Artist identifies one contributing artist on a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AvailableIn reports whether the track can be played in the given market.
func (t Track) AvailableIn(market string) bool {
	for _, m := range t.AvailableMarkets {
		if m == market {
			return true
		}
	}
	return false
}

// ArtistNames returns the track's artists joined for display.
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// AudioFeatures holds the eleven numeric audio descriptors Spotify computes
// per track. Key and TimeSignature are integral in the API but widen to
// float64 in dataset rows.
type AudioFeatures struct {
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Key              int     `json:"key"`
	Liveness         float64 `json:"liveness"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    int     `json:"time_signature"`
	Valence          float64 `json:"valence"`
}

// FeatureColumns is the canonical column order for dataset rows.
var FeatureColumns = []string{
	"acousticness",
	"danceability",
	"energy",
	"instrumentalness",
	"key",
	"liveness",
	"loudness",
	"speechiness",
	"tempo",
	"time_signature",
	"valence",
}

// Row returns the descriptor values in [FeatureColumns] order.
func (f AudioFeatures) Row() []float64 {
	return []float64{
		f.Acousticness,
		f.Danceability,
		f.Energy,
		f.Instrumentalness,
		float64(f.Key),
		f.Liveness,
		f.Loudness,
		f.Speechiness,
		f.Tempo,
		float64(f.TimeSignature),
		f.Valence,
	}
}
