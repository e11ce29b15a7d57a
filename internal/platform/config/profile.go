package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is a YAML quiz profile. Zero fields leave the environment
// settings untouched.
type Profile struct {
	Title         string   `yaml:"title"`
	Source        string   `yaml:"source"`
	QuestionCount int      `yaml:"question_count"`
	Duration      Duration `yaml:"duration"`
	StrictCount   *bool    `yaml:"strict_count"`
}

// Duration decodes YAML strings such as "45m" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// LoadProfile reads a quiz profile. Unknown keys are rejected.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read quiz profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a single YAML quiz profile document.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Profile{}, nil
		}
		return Profile{}, fmt.Errorf("parse quiz profile: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Profile{}, fmt.Errorf("parse quiz profile: multiple YAML documents are not supported")
		}
		return Profile{}, fmt.Errorf("parse quiz profile: %w", err)
	}
	return p, nil
}

// Apply overrides the quiz settings with the profile's non-zero fields.
func (p Profile) Apply(q *QuizConfig) {
	if p.Title != "" {
		q.Title = p.Title
	}
	if p.Source != "" {
		q.Source = p.Source
	}
	if p.QuestionCount != 0 {
		q.QuestionCount = p.QuestionCount
	}
	if p.Duration != 0 {
		q.Duration = time.Duration(p.Duration)
	}
	if p.StrictCount != nil {
		q.StrictCount = *p.StrictCount
	}
}
