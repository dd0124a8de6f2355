// Package templates loads interview templates from a directory of YAML
// files. A template fixes the role and the core question set; the
// engine wraps those with the ice-breaker and closing prompt.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/voxhire/gateway/internal/interview"
)

// Template is one configured interview: a role plus its core questions.
type Template struct {
	ID           string   `mapstructure:"id"`
	Role         string   `mapstructure:"role"`
	Icebreaker   string   `mapstructure:"icebreaker"`
	Closing      string   `mapstructure:"closing"`
	Questions    []string `mapstructure:"questions"`
	MaxFollowUps *int     `mapstructure:"max-followups"`
}

// StartData builds the engine's session seed for this template.
func (t *Template) StartData(c interview.Candidate) interview.StartData {
	return interview.StartData{
		Candidate:    c,
		Role:         t.Role,
		Questions:    t.Questions,
		Icebreaker:   t.Icebreaker,
		Closing:      t.Closing,
		MaxFollowUps: t.MaxFollowUps,
	}
}

// Registry holds the loaded templates keyed by id.
type Registry struct {
	templates map[string]*Template
}

// LoadDir reads every .yaml/.yml file under dir as one template. A
// template without an explicit id takes its filename.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	reg := &Registry{templates: make(map[string]*Template)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		tpl, err := loadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if tpl.ID == "" {
			tpl.ID = strings.TrimSuffix(entry.Name(), ext)
		}
		if _, ok := reg.templates[tpl.ID]; ok {
			return nil, fmt.Errorf("duplicate template id %q", tpl.ID)
		}
		reg.templates[tpl.ID] = tpl
	}

	return reg, nil
}

func loadFile(path string) (*Template, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}

	var tpl Template
	if err := v.Unmarshal(&tpl); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}

	if len(tpl.Questions) == 0 {
		return nil, fmt.Errorf("template %s has no questions", path)
	}
	if strings.TrimSpace(tpl.Role) == "" {
		return nil, fmt.Errorf("template %s has no role", path)
	}

	return &tpl, nil
}

// Get returns the template for id.
func (r *Registry) Get(id string) (*Template, bool) {
	tpl, ok := r.templates[id]
	return tpl, ok
}

// List returns all templates ordered by id.
func (r *Registry) List() []*Template {
	out := make([]*Template, 0, len(r.templates))
	for _, tpl := range r.templates {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of loaded templates.
func (r *Registry) Len() int {
	return len(r.templates)
}
