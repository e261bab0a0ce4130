// Package app provides application lifecycle management and events.
package app

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"seg-annotator/internal/config"
	"seg-annotator/internal/dataset"
	"seg-annotator/internal/editor"
	"seg-annotator/internal/interaction"
)

// EventType identifies different application events.
type EventType int

const (
	// EventImageChanged carries the new 0-based image index.
	EventImageChanged EventType = iota
	// EventModified carries the new modified flag.
	EventModified
	// EventSaved carries the store path.
	EventSaved
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Session holds the open dataset and the editor working on it. It
// implements interaction.Editor by delegating to the editor and emitting
// events for changes the window reflects.
type Session struct {
	*editor.Editor

	Config  *config.Config
	Dataset *dataset.Explorer

	mu        sync.RWMutex
	modified  bool
	listeners map[EventType][]EventListener
	log       *logrus.Entry
}

var _ interaction.Editor = (*Session)(nil)

// Categories converts the configured categories for the editor.
func Categories(cfg *config.Config) []interaction.Category {
	colors := cfg.CategoryColors()
	out := make([]interaction.Category, len(cfg.Categories))
	for i, c := range cfg.Categories {
		out[i] = interaction.Category{Name: c.Name, Color: colors[i]}
	}
	return out
}

// Open opens cfg.DatasetDir and positions an editor on its first image.
// transparency overrides the configured overlay alpha when non-negative.
func Open(cfg *config.Config, seg editor.Segmenter, transparency float64, log *logrus.Entry) (*Session, error) {
	ds, err := dataset.Open(cfg.DatasetDir, cfg.CategoryNames(), log)
	if err != nil {
		return nil, err
	}
	alpha := cfg.Transparency
	if transparency >= 0 {
		alpha = transparency
	}
	ed, err := editor.New(ds, seg, editor.Options{
		Categories:       Categories(cfg),
		BrushRadius:      cfg.BrushRadius,
		Transparency:     alpha,
		TransparencyStep: cfg.TransparencyStep,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open editor: %w", err)
	}
	return NewSession(cfg, ds, ed, log), nil
}

// NewSession wraps an existing editor.
func NewSession(cfg *config.Config, ds *dataset.Explorer, ed *editor.Editor, log *logrus.Entry) *Session {
	return &Session{
		Editor:    ed,
		Config:    cfg,
		Dataset:   ds,
		listeners: make(map[EventType][]EventListener),
		log:       log.WithField("component", "session"),
	}
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Modified reports whether there are unsaved annotation changes.
func (s *Session) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// SetModified marks the session as modified and emits an event on change.
func (s *Session) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.modified != modified
	s.modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// navigate runs a navigation call and emits EventImageChanged when the
// image actually changed.
func (s *Session) navigate(call func() error) error {
	before := s.Editor.ImageID()
	if err := call(); err != nil {
		return err
	}
	if after := s.Editor.ImageID(); after != before {
		s.Emit(EventImageChanged, after)
	}
	return nil
}

// NextImage implements interaction.Editor.
func (s *Session) NextImage() error { return s.navigate(s.Editor.NextImage) }

// PrevImage implements interaction.Editor.
func (s *Session) PrevImage() error { return s.navigate(s.Editor.PrevImage) }

// JumpToImage implements interaction.Editor.
func (s *Session) JumpToImage(n int) error {
	return s.navigate(func() error { return s.Editor.JumpToImage(n) })
}

// SaveAnnotation implements interaction.Editor.
func (s *Session) SaveAnnotation() error {
	before := len(s.Dataset.Annotations(s.Editor.ImageID()))
	if err := s.Editor.SaveAnnotation(); err != nil {
		return err
	}
	if len(s.Dataset.Annotations(s.Editor.ImageID())) != before {
		s.SetModified(true)
	}
	return nil
}

// DeleteAnnotations implements interaction.Editor.
func (s *Session) DeleteAnnotations() error {
	if err := s.Editor.DeleteAnnotations(); err != nil {
		return err
	}
	s.SetModified(true)
	return nil
}

// SelectStatus implements interaction.Editor.
func (s *Session) SelectStatus(name string) error {
	if err := s.Editor.SelectStatus(name); err != nil {
		return err
	}
	s.SetModified(true)
	return nil
}

// Save implements interaction.Editor.
func (s *Session) Save() error {
	if err := s.Editor.Save(); err != nil {
		return err
	}
	s.log.WithField("path", s.Dataset.StorePath()).Debug("Session saved")
	s.SetModified(false)
	s.Emit(EventSaved, s.Dataset.StorePath())
	return nil
}
