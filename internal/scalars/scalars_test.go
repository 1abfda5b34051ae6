package scalars

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJSONSerialize(t *testing.T) {
	scalar := JSON()

	assert.Equal(t, `{"a":1}`, scalar.Serialize([]byte(`{"a":1}`)))
	assert.Equal(t, `{"a":1}`, scalar.Serialize(json.RawMessage(`{"a":1}`)))
	assert.Equal(t, `{"a":1}`, scalar.Serialize(`{"a":1}`))
	assert.Nil(t, scalar.Serialize(nil))
	assert.Equal(t, `{"k":"v"}`, scalar.Serialize(map[string]string{"k": "v"}))
}

func TestDateTimeSerialize(t *testing.T) {
	scalar := DateTime()
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	assert.Equal(t, "2025-06-01T12:30:00Z", scalar.Serialize(ts))
	assert.Equal(t, "2025-06-01T12:30:00Z", scalar.Serialize(&ts))
	assert.Nil(t, scalar.Serialize((*time.Time)(nil)))
	assert.Nil(t, scalar.Serialize("not a time"))
}

func TestDateTimeParseValue(t *testing.T) {
	scalar := DateTime()

	parsed := scalar.ParseValue("2025-06-01T12:30:00Z")
	ts, ok := parsed.(time.Time)
	assert.True(t, ok)
	assert.Equal(t, 2025, ts.Year())

	assert.NotNil(t, scalar.ParseValue("2025-06-01"))
	assert.Nil(t, scalar.ParseValue("yesterday"))
	assert.Nil(t, scalar.ParseValue(42))
}

func TestUploadPassesValueThrough(t *testing.T) {
	scalar := Upload()
	assert.Equal(t, "__upload:0", scalar.ParseValue("__upload:0"))
	assert.Nil(t, scalar.Serialize("anything"))
}

func TestCoerceID(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int64
		ok   bool
	}{
		{7, 7, true},
		{int64(7), 7, true},
		{float64(7), 7, true},
		{"7", 7, true},
		{7.5, 0, false},
		{"seven", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := CoerceID(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %v", tc.in)
		}
	}
}
