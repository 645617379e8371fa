package model

import (
	"encoding/json"
	"strings"
	"time"
)

// HighlightThreshold задает стоимость, начиная с которой задача подсвечивается
const HighlightThreshold = 1000.00

const DateLayout = "2006-01-02"

type Task struct {
	ID          int64    `json:"id"`
	Name        string   `json:"nome"`
	Cost        *float64 `json:"custo"`
	DueDate     *Date    `json:"data_limite"`
	Rank        int      `json:"ordem"`
	Highlighted bool     `json:"destaque"`
}

// IsHighlighted - производный флаг, в БД не хранится
func (t Task) IsHighlighted() bool {
	return t.Cost != nil && *t.Cost >= HighlightThreshold
}

// TaskInput - тело запроса на создание/редактирование в том виде, в каком оно пришло
type TaskInput struct {
	Name    string   `json:"nome"`
	Cost    *float64 `json:"custo"`
	DueDate *string  `json:"data_limite"`
}

// TaskFields - проверенные поля, которые уходят в репозиторий
type TaskFields struct {
	Name    string
	Cost    *float64
	DueDate *time.Time
}

type Stats struct {
	TotalTasks  int     `json:"total_tarefas"`
	Highlighted int     `json:"destacadas"`
	TotalCost   float64 `json:"custo_total"`
	MaxRank     int     `json:"ordem_maxima"`
	RankGaps    int     `json:"lacunas"`
}

// Date - календарная дата без времени, в JSON пишется как YYYY-MM-DD
type Date struct {
	time.Time
}

func NewDate(t time.Time) *Date {
	y, m, d := t.Date()
	return &Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (*Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

type Direction string

const (
	DirectionUp   Direction = "subir"
	DirectionDown Direction = "descer"
)

func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}
