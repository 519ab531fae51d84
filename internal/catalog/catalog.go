package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/2beens/fittrack/internal/schedule"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var ErrUnknownDay = errors.New("unknown day")

// Exercise is one entry of a day's checklist. Index is the position within
// the day and is the key completion flags are stored under; Slug is the key
// weights are stored under.
type Exercise struct {
	Index int    `yaml:"-" json:"index"`
	Slug  string `yaml:"-" json:"slug"`
	Title string `yaml:"title" json:"title"`
	Sets  int    `yaml:"sets,omitempty" json:"sets,omitempty"`
	Reps  string `yaml:"reps,omitempty" json:"reps,omitempty"`
	Notes string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

type Day struct {
	Name      string     `json:"name"`
	Rest      bool       `json:"rest"`
	Exercises []Exercise `json:"exercises"`
}

type Catalog struct {
	exercises map[string][]Exercise
	restDays  map[string]bool
}

// Load reads the catalog YAML file. A missing file yields an empty catalog.
func Load(path string, restDays []string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warnf("exercise catalog [%s] not found, using empty catalog", path)
			return New(nil, restDays)
		}
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warnf("close catalog file: %s", err)
		}
	}()

	return Parse(f, restDays)
}

// Parse reads a catalog in the form:
//
//	Wednesday:
//	  - title: Squat
//	    sets: 4
//	    reps: "8"
func Parse(r io.Reader, restDays []string) (*Catalog, error) {
	raw := map[string][]Exercise{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(raw, restDays)
}

func New(exercises map[string][]Exercise, restDays []string) (*Catalog, error) {
	c := &Catalog{
		exercises: make(map[string][]Exercise, len(exercises)),
		restDays:  make(map[string]bool, len(restDays)),
	}

	for _, day := range restDays {
		if !schedule.IsDay(day) {
			return nil, fmt.Errorf("rest day: %w: %q", ErrUnknownDay, day)
		}
		c.restDays[day] = true
	}

	for day, list := range exercises {
		if !schedule.IsDay(day) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDay, day)
		}
		dayExercises := make([]Exercise, 0, len(list))
		for i, ex := range list {
			if ex.Title == "" {
				return nil, fmt.Errorf("%s exercise %d: missing title", day, i)
			}
			ex.Index = i
			ex.Slug = schedule.Slugify(ex.Title)
			dayExercises = append(dayExercises, ex)
		}
		c.exercises[day] = dayExercises
	}

	return c, nil
}

func (c *Catalog) Exercises(day string) []Exercise {
	return c.exercises[day]
}

func (c *Catalog) IsRest(day string) bool {
	return c.restDays[day]
}

// Days returns all seven days in display order, empty days included.
func (c *Catalog) Days() []Day {
	days := make([]Day, 0, len(schedule.Days))
	for _, name := range schedule.Days {
		exercises := c.exercises[name]
		if exercises == nil {
			exercises = []Exercise{}
		}
		days = append(days, Day{
			Name:      name,
			Rest:      c.restDays[name],
			Exercises: exercises,
		})
	}
	return days
}
