package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestTask_IsHighlighted(t *testing.T) {
	tests := []struct {
		name string
		cost *float64
		want bool
	}{
		{name: "null cost", cost: nil, want: false},
		{name: "below threshold", cost: ptr(999.99), want: false},
		{name: "exactly threshold", cost: ptr(1000.00), want: true},
		{name: "above threshold", cost: ptr(1500), want: true},
		{name: "zero", cost: ptr(0), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Task{Cost: tt.cost}.IsHighlighted())
		})
	}
}

func TestTask_MarshalJSON(t *testing.T) {
	task := Task{
		ID:          7,
		Name:        "Pagar aluguel",
		Cost:        ptr(1200.5),
		DueDate:     NewDate(time.Date(2024, time.March, 9, 15, 4, 5, 0, time.UTC)),
		Rank:        3,
		Highlighted: true,
	}

	b, err := json.Marshal(task)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &got))

	assert.Equal(t, float64(7), got["id"])
	assert.Equal(t, "Pagar aluguel", got["nome"])
	assert.Equal(t, 1200.5, got["custo"])
	assert.Equal(t, "2024-03-09", got["data_limite"])
	assert.Equal(t, float64(3), got["ordem"])
	assert.Equal(t, true, got["destaque"])
}

func TestTask_MarshalJSON_Nulls(t *testing.T) {
	b, err := json.Marshal(Task{ID: 1, Name: "x", Rank: 1})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &got))

	assert.Contains(t, got, "custo")
	assert.Nil(t, got["custo"])
	assert.Contains(t, got, "data_limite")
	assert.Nil(t, got["data_limite"])
	assert.Equal(t, false, got["destaque"])
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-12-31"`), &d))
	assert.Equal(t, "2025-12-31", d.String())

	assert.Error(t, json.Unmarshal([]byte(`"31/12/2025"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`42`), &d))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.February, d.Month())
	assert.Equal(t, 29, d.Day())

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)
}

func TestDirection_Valid(t *testing.T) {
	assert.True(t, DirectionUp.Valid())
	assert.True(t, DirectionDown.Valid())
	assert.False(t, Direction("up").Valid())
	assert.False(t, Direction("").Valid())
}
