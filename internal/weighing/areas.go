package weighing

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Area is a district (stadsdeel) or neighborhood (wijk) outline.
type Area struct {
	Code        string       `json:"code"`
	Name        string       `json:"naam"`
	ContainedIn string       `json:"ligt_in,omitempty"`
	Geometry    [][2]float64 `json:"geometrie"`
}

// Areas is the decoded area definitions payload.
type Areas struct {
	Districts     []Area `json:"stadsdelen"`
	Neighborhoods []Area `json:"wijken"`
}

// wireArea carries the outline as two parallel coordinate columns.
type wireArea struct {
	Code        string    `json:"code"`
	Name        string    `json:"naam"`
	ContainedIn string    `json:"ligt_in"`
	Lon         []float64 `json:"lon"`
	Lat         []float64 `json:"lat"`
}

type wireAreas struct {
	Districts     []wireArea `json:"stadsdelen"`
	Neighborhoods []wireArea `json:"wijken"`
}

// DecodeAreas decodes the area payload, zips the coordinate columns into a
// geometry and sorts both lists by code.
func DecodeAreas(data []byte) (Areas, error) {
	var w wireAreas
	if err := json.Unmarshal(data, &w); err != nil {
		return Areas{}, fmt.Errorf("decode areas: %w", err)
	}
	out := Areas{
		Districts:     make([]Area, 0, len(w.Districts)),
		Neighborhoods: make([]Area, 0, len(w.Neighborhoods)),
	}
	for _, a := range w.Districts {
		out.Districts = append(out.Districts, a.normalize())
	}
	for _, a := range w.Neighborhoods {
		out.Neighborhoods = append(out.Neighborhoods, a.normalize())
	}
	sortByCode(out.Districts)
	sortByCode(out.Neighborhoods)
	return out, nil
}

func (a wireArea) normalize() Area {
	n := min(len(a.Lon), len(a.Lat))
	geom := make([][2]float64, n)
	for i := 0; i < n; i++ {
		geom[i] = [2]float64{a.Lon[i], a.Lat[i]}
	}
	return Area{Code: a.Code, Name: a.Name, ContainedIn: a.ContainedIn, Geometry: geom}
}

func sortByCode(areas []Area) {
	sort.SliceStable(areas, func(i, j int) bool { return areas[i].Code < areas[j].Code })
}

// Container is a waste container location shown on the map.
type Container struct {
	Code     string   `json:"code"`
	Address  string   `json:"adres"`
	Cluster  string   `json:"cluster"`
	Fraction string   `json:"fractie"`
	Pressing bool     `json:"persend"`
	Type     string   `json:"type"`
	Volume   float64  `json:"volume"`
	Lon      *float64 `json:"lon"`
	Lat      *float64 `json:"lat"`
}

// DecodeContainers decodes the container inventory payload ({"data": [...]}).
func DecodeContainers(data []byte) ([]Container, error) {
	var payload struct {
		Data []Container `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode containers: %w", err)
	}
	return payload.Data, nil
}
