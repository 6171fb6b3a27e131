package dto

import (
	"encoding/json"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fearless-dhbw/img-classification/internal/model"
)

func TestNewClassificationResponses(t *testing.T) {
	dict := map[string]int{"a": 0, "b": 1}
	results := []model.Result{{Label: "b", Index: 1, Probabilities: []float64{0.1, 0.9}, Region: image.Rect(1, 2, 11, 22)}}

	out := NewClassificationResponses(results, dict)

	require.Len(t, out, 1)
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"class":"b","class_probability":[0.1,0.9],"class_dictionary":{"a":0,"b":1},"region":{"x":1,"y":2,"width":10,"height":20}}]`, string(data))
}

func TestNewClassificationResponses_EmptyIsArray(t *testing.T) {
	data, err := json.Marshal(NewClassificationResponses(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestHistoryItem_MarshalJSON(t *testing.T) {
	ts := time.Date(2024, 7, 9, 8, 5, 3, 0, time.UTC)
	data, err := json.Marshal(HistoryItem{ID: 3, Class: "x", Date: ts, TimeOfDay: ts})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "09-07-2024", m["date"])
	assert.Equal(t, "08:05:03", m["timeOfDay"])
	assert.Equal(t, "x", m["class"])
}
