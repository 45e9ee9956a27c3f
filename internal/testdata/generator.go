// Package testdata generates synthetic feed payloads for tests and local
// runs against a static file server.
package testdata

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/jask/kgview/internal/weighing"
)

var (
	fractions = []string{"Rest", "Glas", "Papier", "Plastic", "Textiel"}
	districts = map[string][]string{
		"Centrum": {"Burgwallen-Oude Zijde", "Grachtengordel-West", "Jordaan"},
		"Noord":   {"Volewijck", "Tuindorp Oostzaan"},
		"Oost":    {"Dapperbuurt", "Oostelijk Havengebied"},
	}
	streets = []string{"Damrak", "Prinsengracht", "Dapperstraat", "Van Woustraat", "Buiksloterweg"}
	plates  = []string{"12-BXL-4", "88-VGT-2", "70-KRP-9"}
)

// Weighings returns n deterministic weighing rows spread over the week
// starting at start.
func Weighings(seed int64, n int, start time.Time) []map[string]any {
	r := rand.New(rand.NewSource(seed))
	names := make([]string, 0, len(districts))
	for d := range districts {
		names = append(names, d)
	}
	sort.Strings(names)

	day := start.UTC().Truncate(24 * time.Hour)
	rows := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		district := names[r.Intn(len(names))]
		hoods := districts[district]
		date := day.AddDate(0, 0, r.Intn(7))
		tod := time.Duration(r.Intn(24*60)) * time.Minute
		first := 1000 + r.Intn(4000)
		net := 20 + r.Intn(600)
		rows = append(rows, map[string]any{
			"systeem_id":    "KG1",
			"volgnummer":    i + 1,
			"kenteken":      plates[r.Intn(len(plates))],
			"datum_str":     date.Format("2006-01-02"),
			"datum_ms":      date.UnixMilli(),
			"tijd_str":      fmt.Sprintf("%02d:%02d:00", int(tod.Hours()), int(tod.Minutes())%60),
			"tijd_ms":       tod.Milliseconds(),
			"weekdag_ma1":   int(date.Weekday()),
			"fractie":       fractions[r.Intn(len(fractions))],
			"eerste_weging": first,
			"tweede_weging": first - net,
			"netto_gewicht": net,
			"lon":           4.85 + r.Float64()*0.1,
			"lat":           52.33 + r.Float64()*0.08,
			"adres":         fmt.Sprintf("%s %d", streets[r.Intn(len(streets))], 1+r.Intn(200)),
			"wijk":          hoods[r.Intn(len(hoods))],
			"stadsdeel":     district,
		})
	}
	return rows
}

// Records decodes rows the way the feed does.
func Records(rows []map[string]any) ([]weighing.Record, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	var out []weighing.Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Payload builds a weighings document. A non-empty lastDelta marks it as a
// delta on that token.
func Payload(rows []map[string]any, lastChange, lastDelta string) json.RawMessage {
	doc := map[string]any{"data": rows, "last_change": lastChange}
	if lastDelta != "" {
		doc["last_delta"] = lastDelta
	}
	raw, _ := json.Marshal(doc)
	return raw
}
