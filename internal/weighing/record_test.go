package weighing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDerivedFields(t *testing.T) {
	r := New(map[string]any{
		FieldSystemID:   json.Number("12"),
		FieldSequenceNo: json.Number("345"),
		FieldTimeMs:     json.Number("5400000"),
		FieldDateMs:     json.Number("0"),
	})
	require.Equal(t, "12:345", r.ID)
	require.Equal(t, int64(1), r.HourOfDay)
	require.Equal(t, int64(0), r.WeekBucket)

	v, ok := r.Field(FieldHourOfDay)
	require.True(t, ok)
	require.Equal(t, int64(1), v)
}

func TestWeekBucketRollsOverFiveWeeks(t *testing.T) {
	require.Equal(t, int64(0), WeekBucket(0))
	require.Equal(t, int64(0), WeekBucket(2*24*3_600_000))
	require.Equal(t, int64(1), WeekBucket(3*24*3_600_000))
	require.Equal(t, int64(1), WeekBucket(3*24*3_600_000+5*weekMs))
	require.GreaterOrEqual(t, WeekBucket(-10*weekMs), int64(0))
}

func TestUnmarshalKeepsRawFields(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"systeem_id": 7, "volgnummer": 1, "weekdag_ma1": 3,
		"fractie": "Rest", "lon": 4.9, "lat": 52.37, "buurt": null, "containers": ["A1", "A2"]}`), &r)
	require.NoError(t, err)
	require.Equal(t, "7:1", r.ID)
	require.Equal(t, "Rest", r.Fraction())

	day, ok := r.Text(FieldWeekday)
	require.True(t, ok)
	require.Equal(t, "3", day)

	_, ok = r.Field(FieldQuarter)
	require.False(t, ok, "null fields are absent")
	_, ok = r.Field("onbekend")
	require.False(t, ok)

	lon, lat, ok := r.Position()
	require.True(t, ok)
	require.InDelta(t, 4.9, lon, 1e-9)
	require.InDelta(t, 52.37, lat, 1e-9)

	require.Equal(t, "A1, A2", r.Format("containers"))
}

func TestMarshalIncludesDerived(t *testing.T) {
	r := New(map[string]any{FieldSystemID: "a", FieldSequenceNo: "b"})
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, "a:b", out[FieldID])
	require.Contains(t, out, FieldWeekBucket)
}

func TestCanonical(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{json.Number("1"), "1"},
		{json.Number("1.0"), "1"},
		{json.Number("2.5"), "2.5"},
		{float64(3), "3"},
		{"Glas", "Glas"},
		{true, "true"},
	}
	for _, c := range cases {
		got, ok := Canonical(c.in)
		require.True(t, ok)
		require.Equal(t, c.want, got)
	}
	_, ok := Canonical(nil)
	require.False(t, ok)
}

func TestDecodeAreas(t *testing.T) {
	areas, err := DecodeAreas([]byte(`{
		"stadsdelen": [{"code": "T", "naam": "Zuidoost", "lon": [1, 2], "lat": [3, 4]},
		               {"code": "A", "naam": "Centrum", "lon": [5], "lat": [6]}],
		"wijken": [{"code": "AB", "naam": "Grachtengordel", "ligt_in": "Centrum", "lon": [1, 2, 3], "lat": [1, 2]}]
	}`))
	require.NoError(t, err)
	require.Len(t, areas.Districts, 2)
	require.Equal(t, "A", areas.Districts[0].Code)
	require.Equal(t, [][2]float64{{1, 3}, {2, 4}}, areas.Districts[1].Geometry)
	require.Equal(t, "Centrum", areas.Neighborhoods[0].ContainedIn)
	require.Len(t, areas.Neighborhoods[0].Geometry, 2)
}

func TestDecodeContainers(t *testing.T) {
	cs, err := DecodeContainers([]byte(`{"data": [{"code": "C1", "adres": "Dam 1", "persend": true, "volume": 5, "lon": 4.8, "lat": 52.3}]}`))
	require.NoError(t, err)
	require.Len(t, cs, 1)
	require.True(t, cs[0].Pressing)
	require.NotNil(t, cs[0].Lon)

	_, err = DecodeContainers([]byte(`{`))
	require.Error(t, err)
}
