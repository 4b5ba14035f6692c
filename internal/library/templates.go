package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// OverlayTemplate is a reusable overlay preset: an image plus its default
// placement.
type OverlayTemplate struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	ImagePath    string    `json:"image_path"`
	XPercent     float64   `json:"x_percent"`
	YPercent     float64   `json:"y_percent"`
	ScalePercent float64   `json:"scale_percent"`
	Opacity      float64   `json:"opacity"`
	AddedAt      time.Time `json:"added_at"`
	Favorite     bool      `json:"favorite,omitempty"`
}

// TemplateStore persists overlay templates as a JSON index next to the
// media library.
type TemplateStore struct {
	path      string
	templates []OverlayTemplate
}

// OpenTemplates loads (or initializes) the store at dir/templates.json.
func OpenTemplates(dir string) (*TemplateStore, error) {
	s := &TemplateStore{path: filepath.Join(dir, "templates.json")}
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var doc struct {
		Templates []OverlayTemplate `json:"templates"`
	}
	if err := json.Unmarshal(raw, &doc); err == nil {
		s.templates = doc.Templates
	}
	return s, nil
}

func (s *TemplateStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	doc := struct {
		Templates []OverlayTemplate `json:"templates"`
	}{Templates: s.templates}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Add stores a template and returns it with its assigned id.
func (s *TemplateStore) Add(t OverlayTemplate) (OverlayTemplate, error) {
	if t.ImagePath == "" {
		return OverlayTemplate{}, fmt.Errorf("template needs an image path")
	}
	t.ID = uuid.NewString()[:12]
	t.AddedAt = time.Now().UTC()
	if t.Opacity <= 0 || t.Opacity > 1 {
		t.Opacity = 1
	}
	if t.ScalePercent <= 0 {
		t.ScalePercent = 25
	}
	s.templates = append(s.templates, t)
	return t, s.save()
}

// Remove deletes a template by id.
func (s *TemplateStore) Remove(id string) error {
	for i, t := range s.templates {
		if t.ID == id {
			s.templates = append(s.templates[:i], s.templates[i+1:]...)
			return s.save()
		}
	}
	return fmt.Errorf("template %s not found", id)
}

// List returns templates, optionally filtered by category ("" = all).
func (s *TemplateStore) List(category string) []OverlayTemplate {
	var out []OverlayTemplate
	for _, t := range s.templates {
		if category == "" || t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// MarkFavorite toggles a template's favorite flag.
func (s *TemplateStore) MarkFavorite(id string, favorite bool) error {
	for i := range s.templates {
		if s.templates[i].ID == id {
			s.templates[i].Favorite = favorite
			return s.save()
		}
	}
	return fmt.Errorf("template %s not found", id)
}
