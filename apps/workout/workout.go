// Package workout estimates workout duration from exercise count, sets,
// speed and breaks, with manual minute adjustments on top.
package workout

import (
	"fmt"
	"math"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/scope"
	"github.com/kbukum/statekit/validation"
)

type Workout struct {
	Name         string `json:"name" yaml:"name"`
	NumExercises int    `json:"numExercises" yaml:"num_exercises"`
}

var Workouts = []Workout{
	{Name: "Full-body workout", NumExercises: 9},
	{Name: "Arms + Legs", NumExercises: 6},
	{Name: "Arms only", NumExercises: 3},
	{Name: "Legs only", NumExercises: 4},
	{Name: "Core only", NumExercises: 5},
}

// Inputs are the calculator settings. Speed is seconds per exercise and
// Break is minutes between sets.
type Inputs struct {
	Number int `json:"number" validate:"min=1"`
	Sets   int `json:"sets" validate:"min=1,max=5"`
	Speed  int `json:"speed" validate:"min=30,max=180"`
	Break  int `json:"break" validate:"min=1,max=10"`
}

// DefaultInputs starts with the first workout, 3 sets, 90 s per exercise
// and 5 minute breaks.
func DefaultInputs() Inputs {
	return Inputs{Number: Workouts[0].NumExercises, Sets: 3, Speed: 90, Break: 5}
}

// Duration is the estimate in minutes.
func (in Inputs) Duration() float64 {
	return float64(in.Number*in.Sets*in.Speed)/60 + float64((in.Sets-1)*in.Break)
}

// Calculator recomputes the duration whenever the inputs change. Inc and
// Dec adjust the current duration until the next input change.
type Calculator struct {
	inputs   *scope.Provider[Inputs]
	duration *scope.Provider[float64]
	sound    *scope.Provider[bool]
	stop     func()
}

func NewCalculator(in Inputs, log *logger.Logger) (*Calculator, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	c := &Calculator{
		inputs:   scope.NewProvider("workout.inputs", in, scope.WithLogger[Inputs](log)),
		duration: scope.NewProvider("workout.duration", in.Duration(), scope.WithLogger[float64](log)),
		sound:    scope.NewProvider("workout.sound", true, scope.WithLogger[bool](log)),
	}
	c.stop = c.inputs.Subscribe(func(in Inputs) { c.duration.Set(in.Duration()) })
	return c, nil
}

// SetInputs replaces the settings and resets the duration to their
// estimate.
func (c *Calculator) SetInputs(in Inputs) error {
	if err := validation.Validate(in); err != nil {
		return err
	}
	c.inputs.Set(in)
	return nil
}

func (c *Calculator) Inputs() Inputs { return c.inputs.Get() }

func (c *Calculator) Duration() float64 { return c.duration.Get() }

// Inc adds a minute.
func (c *Calculator) Inc() {
	c.duration.Update(func(d float64) float64 { return d + 1 })
}

// Dec removes a minute, dropping to zero instead of going below one.
func (c *Calculator) Dec() {
	c.duration.Update(func(d float64) float64 {
		if d > 1 {
			return d - 1
		}
		return 0
	})
}

// ToggleSound flips whether duration changes click.
func (c *Calculator) ToggleSound() {
	c.sound.Update(func(on bool) bool { return !on })
}

func (c *Calculator) SoundEnabled() bool { return c.sound.Get() }

// OnClick calls fn after each duration change while sound is enabled.
func (c *Calculator) OnClick(fn func()) (remove func()) {
	return c.duration.Subscribe(func(float64) {
		if c.sound.Get() {
			fn()
		}
	})
}

// Display formats the duration as mm:ss.
func (c *Calculator) Display() string { return FormatDuration(c.Duration()) }

// Close detaches the duration from the inputs.
func (c *Calculator) Close() { c.stop() }

// FormatDuration renders minutes as zero-padded mm:ss.
func FormatDuration(minutes float64) string {
	mins := math.Floor(minutes)
	secs := int(math.Round((minutes - mins) * 60))
	if secs == 60 {
		mins, secs = mins+1, 0
	}
	return fmt.Sprintf("%02d:%02d", int(mins), secs)
}
