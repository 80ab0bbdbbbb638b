package types

import "time"

// Input event kinds recorded in a macro.
const (
	EventPress   = "press"
	EventRelease = "release"
	EventAxis    = "axis"
	EventDelay   = "delay"
)

// InputEvent is one step of a macro. DelayMs is the pause before the event
// fires. Control names the button or axis and is empty for delay steps.
type InputEvent struct {
	Kind    string  `json:"kind" validate:"required,oneof=press release axis delay"`
	Control string  `json:"control,omitempty" validate:"required_unless=Kind delay,max=64"`
	Value   float64 `json:"value,omitempty" validate:"gte=-1,lte=1"`
	DelayMs int64   `json:"delay_ms,omitempty" validate:"gte=0"`
}

// Macro is a reusable, independently identified input sequence. Macros are
// not owned by profiles.
type Macro struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name" validate:"required,max=128"`
	Description string       `json:"description" validate:"max=1024"`
	Events      []InputEvent `json:"events" validate:"dive"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Duration returns the sum of every event delay in the macro.
func (m *Macro) Duration() time.Duration {
	var total int64
	for _, ev := range m.Events {
		total += ev.DelayMs
	}
	return time.Duration(total) * time.Millisecond
}
