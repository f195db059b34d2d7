package spaces

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"solum-sync-service/internal/model"
)

var ErrNotFound = errors.New("not found")

// Registry is the in-memory container for spaces and conference rooms. All
// methods are safe for concurrent use; returned entities are deep copies.
type Registry struct {
	mu     sync.RWMutex
	spaces map[string]*model.Space
	rooms  map[string]*model.ConferenceRoom
}

func NewRegistry() *Registry {
	return &Registry{
		spaces: make(map[string]*model.Space),
		rooms:  make(map[string]*model.ConferenceRoom),
	}
}

func (r *Registry) AddSpace(sp *model.Space) error {
	if sp.ID == "" {
		return fmt.Errorf("space id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.spaces[sp.ID]; ok {
		return fmt.Errorf("space %q already exists", sp.ID)
	}
	if _, ok := r.rooms[sp.ID]; ok {
		return fmt.Errorf("space %q already exists as a conference room", sp.ID)
	}
	r.spaces[sp.ID] = sp.Clone()
	return nil
}

func (r *Registry) GetSpace(id string) (*model.Space, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sp, ok := r.spaces[id]
	if !ok {
		return nil, fmt.Errorf("space %q: %w", id, ErrNotFound)
	}
	return sp.Clone(), nil
}

func (r *Registry) UpdateSpace(sp *model.Space) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.spaces[sp.ID]; !ok {
		return fmt.Errorf("space %q: %w", sp.ID, ErrNotFound)
	}
	r.spaces[sp.ID] = sp.Clone()
	return nil
}

func (r *Registry) DeleteSpace(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.spaces[id]; !ok {
		return fmt.Errorf("space %q: %w", id, ErrNotFound)
	}
	delete(r.spaces, id)
	return nil
}

// ListSpaces returns all spaces sorted by id.
func (r *Registry) ListSpaces() []*model.Space {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Space, 0, len(r.spaces))
	for _, sp := range r.spaces {
		out = append(out, sp.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReplaceAll swaps in a freshly downloaded entity set.
func (r *Registry) ReplaceAll(spaces []*model.Space, rooms []*model.ConferenceRoom) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.spaces = make(map[string]*model.Space, len(spaces))
	for _, sp := range spaces {
		r.spaces[sp.ID] = sp.Clone()
	}
	r.rooms = make(map[string]*model.ConferenceRoom, len(rooms))
	for _, room := range rooms {
		r.rooms[room.ID] = room.Clone()
	}
}

// MarkSynced stamps every space with a sync status after an upload.
func (r *Registry) MarkSynced(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sp := range r.spaces {
		sp.SyncStatus = status
	}
}

func (r *Registry) AddRoom(room *model.ConferenceRoom) error {
	if err := room.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; ok {
		return fmt.Errorf("conference room %q already exists", room.ID)
	}
	r.rooms[room.ID] = room.Clone()
	return nil
}

func (r *Registry) GetRoom(id string) (*model.ConferenceRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, fmt.Errorf("conference room %q: %w", id, ErrNotFound)
	}
	return room.Clone(), nil
}

func (r *Registry) UpdateRoom(room *model.ConferenceRoom) error {
	if err := room.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; !ok {
		return fmt.Errorf("conference room %q: %w", room.ID, ErrNotFound)
	}
	r.rooms[room.ID] = room.Clone()
	return nil
}

func (r *Registry) DeleteRoom(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; !ok {
		return fmt.Errorf("conference room %q: %w", id, ErrNotFound)
	}
	delete(r.rooms, id)
	return nil
}

func (r *Registry) ListRooms() []*model.ConferenceRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.ConferenceRoom, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ToggleMeeting flips a room's meeting flag. Turning a meeting off clears
// the meeting name, start/end times and participants; turning it on touches
// nothing else.
func (r *Registry) ToggleMeeting(id string) (*model.ConferenceRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, fmt.Errorf("conference room %q: %w", id, ErrNotFound)
	}

	if room.HasMeeting {
		room.HasMeeting = false
		room.MeetingName = ""
		room.StartTime = ""
		room.EndTime = ""
		room.Participants = []string{}
	} else {
		room.HasMeeting = true
	}

	return room.Clone(), nil
}
