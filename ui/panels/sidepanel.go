// Package panels provides the side panels of the main window.
package panels

import (
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"seg-annotator/internal/interaction"
)

const swatchSize = 16

// CategoryPanel is a radio list of the annotation categories, each row
// showing the category's overlay colour.
type CategoryPanel struct {
	categories []interaction.Category
	list       *widget.List
	selected   int
	onSelect   func(name string)
}

// NewCategoryPanel creates the category list. onSelect is called when the
// user picks a category.
func NewCategoryPanel(categories []interaction.Category, onSelect func(name string)) *CategoryPanel {
	cp := &CategoryPanel{
		categories: categories,
		selected:   -1,
		onSelect:   onSelect,
	}

	cp.list = widget.NewList(
		func() int {
			return len(cp.categories)
		},
		func() fyne.CanvasObject {
			swatch := fynecanvas.NewRectangle(color.Transparent)
			swatch.SetMinSize(fyne.NewSize(swatchSize, swatchSize))
			return container.NewHBox(widget.NewIcon(theme.RadioButtonIcon()), swatch, widget.NewLabel("Category"))
		},
		cp.updateRow,
	)

	cp.list.OnSelected = func(id widget.ListItemID) {
		if id >= len(cp.categories) || id == cp.selected {
			return
		}
		cp.selected = id
		cp.list.Refresh()
		if cp.onSelect != nil {
			cp.onSelect(cp.categories[id].Name)
		}
		// The list keeps keyboard focus after a click; hand it back to the
		// window so shortcuts keep working.
		if app := fyne.CurrentApp(); app != nil {
			if c := app.Driver().CanvasForObject(cp.list); c != nil {
				c.Unfocus()
			}
		}
	}

	return cp
}

func (cp *CategoryPanel) updateRow(id widget.ListItemID, obj fyne.CanvasObject) {
	if id >= len(cp.categories) {
		return
	}
	cat := cp.categories[id]
	row := obj.(*fyne.Container)
	row.Objects[0].(*widget.Icon).SetResource(radioIcon(id == cp.selected))
	swatch := row.Objects[1].(*fynecanvas.Rectangle)
	swatch.FillColor = cat.Color
	swatch.Refresh()
	row.Objects[2].(*widget.Label).SetText(cat.Name)
}

func radioIcon(checked bool) fyne.Resource {
	if checked {
		return theme.RadioButtonCheckedIcon()
	}
	return theme.RadioButtonIcon()
}

// Select highlights the named category and reports whether it exists.
func (cp *CategoryPanel) Select(name string) bool {
	for i, c := range cp.categories {
		if c.Name == name {
			cp.list.Select(i)
			return true
		}
	}
	return false
}

// Selected returns the selected category name, or "".
func (cp *CategoryPanel) Selected() string {
	if cp.selected < 0 {
		return ""
	}
	return cp.categories[cp.selected].Name
}

// Container returns the panel container.
func (cp *CategoryPanel) Container() fyne.CanvasObject {
	return cp.list
}

// ReviewPanel offers the review statuses as radio buttons.
type ReviewPanel struct {
	radio    *widget.RadioGroup
	onSelect func(status string)
	syncing  bool
}

// NewReviewPanel creates the review status selector.
func NewReviewPanel(onSelect func(status string)) *ReviewPanel {
	rp := &ReviewPanel{onSelect: onSelect}
	rp.radio = widget.NewRadioGroup(interaction.ReviewStatuses, func(selected string) {
		if rp.syncing || selected == "" || rp.onSelect == nil {
			return
		}
		rp.onSelect(selected)
	})
	rp.radio.Required = true
	return rp
}

// SetStatus shows status without reporting it as a user choice.
func (rp *ReviewPanel) SetStatus(status string) {
	if rp.radio.Selected == status {
		return
	}
	rp.syncing = true
	rp.radio.SetSelected(status)
	rp.syncing = false
}

// Status returns the shown status.
func (rp *ReviewPanel) Status() string {
	return rp.radio.Selected
}

// Container returns the panel container.
func (rp *ReviewPanel) Container() fyne.CanvasObject {
	return rp.radio
}

// SidePanel stacks the category list above the review selector.
type SidePanel struct {
	Categories *CategoryPanel
	Review     *ReviewPanel
	container  fyne.CanvasObject
}

// NewSidePanel creates the side panel.
func NewSidePanel(categories []interaction.Category, onCategory, onReview func(string)) *SidePanel {
	sp := &SidePanel{
		Categories: NewCategoryPanel(categories, onCategory),
		Review:     NewReviewPanel(onReview),
	}
	sp.container = container.NewBorder(
		widget.NewLabelWithStyle("Category", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewCard("Review status", "", sp.Review.Container()),
		nil, nil,
		sp.Categories.Container(),
	)
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}
