package model

// CategoryClass is a maintenance concern grouping one or more wiki categories
// with the marker templates whose presence defines membership intent.
type CategoryClass struct {
	Name       string   `mapstructure:"name" yaml:"name"`
	Categories []string `mapstructure:"categories" yaml:"categories"`
	Markers    []string `mapstructure:"markers" yaml:"markers"`
}

// Direction is the membership transition observed for a page.
type Direction string

// Direction constants.
const (
	DirectionAdded   Direction = "added"
	DirectionRemoved Direction = "removed"
)

// Action names the kind of attributed cause. The values are the ones stored in
// the cleanlog table and understood by the ticker templates.
type Action string

// Action constants.
const (
	// ActionMarked means a marker was inserted.
	ActionMarked Action = "merket"
	// ActionFixed means a marker was removed.
	ActionFixed Action = "fikset"
)

// ActionFor maps a membership direction onto the cause action it implies.
func ActionFor(d Direction) Action {
	if d == DirectionRemoved {
		return ActionFixed
	}
	return ActionMarked
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == ActionMarked || a == ActionFixed
}
