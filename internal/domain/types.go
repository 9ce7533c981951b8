/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the slide document model. The canvas engine never reads
// these types directly; the editor and the element store translate them into
// geometry rectangles.

import (
	"errors"
	"fmt"

	"goslides/internal/geometry"
)

// ElementType is the kind of a slide element.
type ElementType string

const (
	TypeText  ElementType = "text"
	TypeImage ElementType = "image"
	TypeVideo ElementType = "video"
)

// Media reports whether t keeps its aspect ratio when resized.
func (t ElementType) Media() bool { return t == TypeImage || t == TypeVideo }

func (t ElementType) Valid() bool { return t == TypeText || t.Media() }

// Presentation is an ordered list of slides.
type Presentation struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

// Slide holds positioned elements in canvas-local units.
type Slide struct {
	ID         string    `json:"id"`
	Index      int       `json:"index"`
	Background string    `json:"background,omitempty"`
	Elements   []Element `json:"elements"`
}

// Element is one positioned item. Height is informational for text elements;
// their rendered height follows the content.
type Element struct {
	ID      string      `json:"id"`
	Type    ElementType `json:"type"`
	Left    float64     `json:"left"`
	Top     float64     `json:"top"`
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Z       int         `json:"z,omitempty"`
	Opacity int         `json:"opacity"`

	// text
	Content       string  `json:"content,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty"`
	FontFamily    string  `json:"fontFamily,omitempty"`
	FontWeight    string  `json:"fontWeight,omitempty"`
	Color         string  `json:"color,omitempty"`
	LineHeight    float64 `json:"lineHeight,omitempty"`
	LetterSpacing float64 `json:"letterSpacing,omitempty"`

	// image, video
	Src          string  `json:"src,omitempty"`
	FileName     string  `json:"fileName,omitempty"`
	BorderStyle  string  `json:"borderStyle,omitempty"`
	BorderWidth  float64 `json:"borderWidth,omitempty"`
	BorderRadius float64 `json:"borderRadius,omitempty"`
	BorderColor  string  `json:"borderColor,omitempty"`
	AutoPlay     bool    `json:"autoPlay,omitempty"`
	Loop         bool    `json:"loop,omitempty"`
	PlaybackRate float64 `json:"playbackRate,omitempty"`
}

// Rect returns the element bounds in canvas-local units.
func (e Element) Rect() geometry.Rect {
	return geometry.Rect{Left: e.Left, Top: e.Top, Width: e.Width, Height: e.Height}
}

// Bounds implements geometry.Bounded; ok is false for corrupted geometry.
func (e Element) Bounds() (geometry.Rect, bool) {
	r := e.Rect()
	return r, r.Valid()
}

// SetRect stores r as the element bounds.
func (e *Element) SetRect(r geometry.Rect) {
	e.Left, e.Top, e.Width, e.Height = r.Left, r.Top, r.Width, r.Height
}

// DuplicateOffset is how far a duplicated element is shifted right and down.
const DuplicateOffset = 40

// Duplicate returns a copy of e with the given id, shifted by DuplicateOffset.
func (e Element) Duplicate(id string) Element {
	d := e
	d.ID = id
	d.Left += DuplicateOffset
	d.Top += DuplicateOffset
	return d
}

var (
	ErrMissingID   = errors.New("element id is required")
	ErrBadType     = errors.New("unknown element type")
	ErrBadGeometry = errors.New("element geometry must be finite and non-negative")
)

// Validate checks the fields the canvas engine depends on.
func (e Element) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrBadType, e.Type)
	}
	if !e.Rect().Valid() {
		return fmt.Errorf("element %s: %w", e.ID, ErrBadGeometry)
	}
	return nil
}

// NewTextElement returns a text element at the default insert position.
// Typography is inherited from like when it is non-nil.
func NewTextElement(id string, like *Element) Element {
	e := Element{
		ID:      id,
		Type:    TypeText,
		Left:    100,
		Top:     100,
		Width:   200,
		Height:  30,
		Opacity: 100,
		Content: "Text",
	}
	if like != nil && like.Type == TypeText {
		e.FontSize = like.FontSize
		e.FontFamily = like.FontFamily
		e.FontWeight = like.FontWeight
		e.Color = like.Color
		e.LineHeight = like.LineHeight
		e.LetterSpacing = like.LetterSpacing
		return e
	}
	e.FontSize = 30
	e.FontFamily = "Inter"
	e.FontWeight = "normal"
	e.Color = "#000000"
	e.LineHeight = 1
	return e
}

// NewMediaElement returns an image or video element for an uploaded file.
func NewMediaElement(id string, t ElementType, src, fileName string, width, height float64) Element {
	e := Element{
		ID:          id,
		Type:        t,
		Left:        200,
		Top:         75,
		Width:       300,
		Height:      300,
		Opacity:     100,
		Src:         src,
		FileName:    fileName,
		BorderStyle: "none",
		BorderColor: "#000000",
	}
	if width > 0 && height > 0 {
		e.Height = e.Width * height / width
	}
	if t == TypeVideo {
		e.PlaybackRate = 1
	}
	return e
}

// Element returns the element with id.
func (s *Slide) Element(id string) (*Element, bool) {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			return &s.Elements[i], true
		}
	}
	return nil, false
}

// LastText returns the most recently added text element, if any.
func (s *Slide) LastText() *Element {
	for i := len(s.Elements) - 1; i >= 0; i-- {
		if s.Elements[i].Type == TypeText {
			return &s.Elements[i]
		}
	}
	return nil
}

// Others returns every element except the one with id, in slide order.
func (s *Slide) Others(id string) []Element {
	out := make([]Element, 0, len(s.Elements))
	for _, e := range s.Elements {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

// Remove deletes the element with id and reports whether it existed.
func (s *Slide) Remove(id string) bool {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			s.Elements = append(s.Elements[:i], s.Elements[i+1:]...)
			return true
		}
	}
	return false
}
