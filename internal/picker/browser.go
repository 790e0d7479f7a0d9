package picker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stackpick/stackpick/pkg/stackai"
)

// State is the lifecycle state of the current folder view.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// SortMode selects the ordering of the visible listing.
type SortMode string

const (
	SortByName SortMode = "name"
	SortByDate SortMode = "date"
)

// Crumb is one breadcrumb segment from the connection root to the current
// folder.
type Crumb struct {
	ResourceID string
	Name       string
}

// Browser holds the session-local browsing state for one connection: the
// breadcrumb path, the multi-select set, sort and filter preferences, and the
// decorated listing for the current folder. It owns no remote state and is
// not safe for concurrent use; drive it from a single event loop.
type Browser struct {
	connectionID string
	path         []Crumb
	selection    map[string]struct{}
	sortBy       SortMode
	filter       string

	state     State
	resources []stackai.Resource
	err       error

	// generation invalidates in-flight folder loads: a load completed for an
	// older generation is discarded so a stale response never overwrites the
	// current folder.
	generation uint64
}

func NewBrowser(connectionID string) *Browser {
	return &Browser{
		connectionID: connectionID,
		selection:    make(map[string]struct{}),
		sortBy:       SortByName,
		state:        StateIdle,
	}
}

func (b *Browser) ConnectionID() string { return b.connectionID }
func (b *Browser) State() State         { return b.state }
func (b *Browser) Err() error           { return b.err }
func (b *Browser) SortBy() SortMode     { return b.sortBy }
func (b *Browser) Filter() string       { return b.filter }
func (b *Browser) Generation() uint64   { return b.generation }

// Path returns a copy of the breadcrumb stack; empty at the connection root.
func (b *Browser) Path() []Crumb {
	path := make([]Crumb, len(b.path))
	copy(path, b.path)
	return path
}

// CurrentFolderID returns the resource ID of the current folder, or the
// empty string at the root.
func (b *Browser) CurrentFolderID() string {
	if len(b.path) == 0 {
		return ""
	}
	return b.path[len(b.path)-1].ResourceID
}

// NavigateInto descends into a directory, clearing the selection and
// re-entering the loading state for the new folder.
func (b *Browser) NavigateInto(res stackai.Resource) error {
	if !res.IsDirectory() {
		return fmt.Errorf("cannot navigate into %q: not a directory", res.InodePath.Path)
	}

	b.path = append(b.path, Crumb{ResourceID: res.ResourceID, Name: res.Name()})
	b.clearSelection()
	b.invalidate()
	return nil
}

// NavigateBack pops one breadcrumb segment; a no-op at the root apart from
// clearing the selection.
func (b *Browser) NavigateBack() {
	b.clearSelection()
	if len(b.path) == 0 {
		return
	}
	b.path = b.path[:len(b.path)-1]
	b.invalidate()
}

// NavigateToBreadcrumb truncates the path stack to the given depth; depth 0
// is the connection root.
func (b *Browser) NavigateToBreadcrumb(depth int) {
	if depth < 0 || depth > len(b.path) {
		return
	}
	b.clearSelection()
	if depth == len(b.path) {
		return
	}
	b.path = b.path[:depth]
	b.invalidate()
}

// NavigateToRoot returns to the connection root.
func (b *Browser) NavigateToRoot() {
	b.NavigateToBreadcrumb(0)
}

// Reload re-enters the loading state for the current folder, invalidating
// any in-flight load.
func (b *Browser) Reload() {
	b.invalidate()
}

// CompleteLoad installs the result of a folder load. Results for a
// superseded generation are discarded and the method reports false.
func (b *Browser) CompleteLoad(generation uint64, resources []stackai.Resource, err error) bool {
	if generation != b.generation {
		return false
	}

	if err != nil {
		b.state = StateErrored
		b.err = err
		return true
	}

	b.state = StateLoaded
	b.err = nil
	b.resources = resources
	return true
}

// Resources returns the undecorated current listing (no filter or sort).
func (b *Browser) Resources() []stackai.Resource {
	return b.resources
}

// ToggleSelect flips a resource in or out of the selection set. Directories
// may be selected; the remote service indexes them recursively.
func (b *Browser) ToggleSelect(resourceID string) {
	if _, ok := b.selection[resourceID]; ok {
		delete(b.selection, resourceID)
		return
	}
	b.selection[resourceID] = struct{}{}
}

// IsSelected reports whether the resource is in the selection set.
func (b *Browser) IsSelected(resourceID string) bool {
	_, ok := b.selection[resourceID]
	return ok
}

// SelectionCount returns the size of the selection set.
func (b *Browser) SelectionCount() int {
	return len(b.selection)
}

// Selected returns the resources of the current listing that are in the
// selection set, in listing order.
func (b *Browser) Selected() []stackai.Resource {
	var selected []stackai.Resource
	for _, r := range b.resources {
		if _, ok := b.selection[r.ResourceID]; ok {
			selected = append(selected, r)
		}
	}
	return selected
}

// ClearSelection empties the selection set; called when a mutation completes.
func (b *Browser) ClearSelection() {
	b.clearSelection()
}

func (b *Browser) SetSort(mode SortMode) {
	b.sortBy = mode
}

func (b *Browser) SetFilter(text string) {
	b.filter = text
}

// ApplyUpdates merges updated resource records into the current listing by
// resource ID, leaving everything else untouched. Used for optimistic status
// changes after index and delete mutations.
func (b *Browser) ApplyUpdates(updates []stackai.Resource) {
	byID := make(map[string]stackai.Resource, len(updates))
	for _, u := range updates {
		byID[u.ResourceID] = u
	}
	for i, r := range b.resources {
		if u, ok := byID[r.ResourceID]; ok {
			b.resources[i] = u
		}
	}
}

// Visible returns the current listing with the filter applied first, then
// the sort. Name ordering is a case-insensitive path compare with
// directories grouped before files; date ordering is descending modified
// time with no type grouping.
func (b *Browser) Visible() []stackai.Resource {
	visible := make([]stackai.Resource, 0, len(b.resources))
	needle := strings.ToLower(b.filter)
	for _, r := range b.resources {
		if needle == "" || strings.Contains(strings.ToLower(r.InodePath.Path), needle) {
			visible = append(visible, r)
		}
	}

	switch b.sortBy {
	case SortByDate:
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].ModifiedAt.After(visible[j].ModifiedAt)
		})
	default:
		sort.SliceStable(visible, func(i, j int) bool {
			if visible[i].IsDirectory() != visible[j].IsDirectory() {
				return visible[i].IsDirectory()
			}
			pi := strings.ToLower(visible[i].InodePath.Path)
			pj := strings.ToLower(visible[j].InodePath.Path)
			if pi != pj {
				return pi < pj
			}
			return visible[i].InodePath.Path < visible[j].InodePath.Path
		})
	}

	return visible
}

func (b *Browser) clearSelection() {
	b.selection = make(map[string]struct{})
}

func (b *Browser) invalidate() {
	b.generation++
	b.state = StateLoading
	b.err = nil
}
