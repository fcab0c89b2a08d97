package history

import (
	"slices"

	"github.com/google/uuid"

	"github.com/vectorflow/vectorflow/internal/scene"
)

// Entry is the serializable form of a command, appended to the edit log.
type Entry struct {
	ID      string                  `json:"id"`
	Name    string                  `json:"name"`
	Changes []scene.TransformChange `json:"changes,omitempty"`
	IDs     []string                `json:"ids,omitempty"`
}

type base struct {
	id   string
	name string
}

func newBase(name string) base {
	return base{id: uuid.NewString(), name: name}
}

func (b base) ID() string   { return b.id }
func (b base) Name() string { return b.name }

// TransformCommand applies before/after transform snapshots from one
// completed transform session.
type TransformCommand struct {
	base
	scene   *scene.Scene
	changes []scene.TransformChange
}

// NewTransformCommand drops unchanged entries. It returns nil when nothing
// changed so callers can skip the push.
func NewTransformCommand(sc *scene.Scene, name string, changes []scene.TransformChange) *TransformCommand {
	changes = slices.DeleteFunc(slices.Clone(changes), scene.TransformChange.Unchanged)
	if len(changes) == 0 {
		return nil
	}
	return &TransformCommand{base: newBase(name), scene: sc, changes: changes}
}

func (c *TransformCommand) Do() {
	for _, ch := range c.changes {
		if s, ok := c.scene.Shape(ch.ID); ok {
			s.SetTransform(ch.After)
		}
	}
	c.scene.SetModified(true)
}

func (c *TransformCommand) Undo() {
	for _, ch := range c.changes {
		if s, ok := c.scene.Shape(ch.ID); ok {
			s.SetTransform(ch.Before)
		}
	}
	c.scene.SetModified(true)
}

func (c *TransformCommand) Changes() []scene.TransformChange { return c.changes }

func (c *TransformCommand) Entry() Entry {
	return Entry{ID: c.id, Name: c.name, Changes: c.changes}
}

// AddCommand inserts a new shape.
type AddCommand struct {
	base
	scene   *scene.Scene
	shape   *scene.Shape
	removed *scene.Removed
}

func NewAddCommand(sc *scene.Scene, s *scene.Shape) *AddCommand {
	return &AddCommand{base: newBase("Add " + s.Kind().String()), scene: sc, shape: s}
}

func (c *AddCommand) Do() {
	if c.removed != nil {
		c.scene.Restore(*c.removed)
		c.removed = nil
		return
	}
	c.scene.Add(c.shape)
}

func (c *AddCommand) Undo() {
	if r, ok := c.scene.Remove(c.shape.ID()); ok {
		c.removed = &r
	}
}

func (c *AddCommand) Entry() Entry {
	return Entry{ID: c.id, Name: c.name, IDs: []string{c.shape.ID()}}
}

// RemoveCommand deletes shapes, restoring them in place on undo.
type RemoveCommand struct {
	base
	scene   *scene.Scene
	ids     []string
	removed []scene.Removed
}

func NewRemoveCommand(sc *scene.Scene, ids []string) *RemoveCommand {
	return &RemoveCommand{base: newBase("Delete"), scene: sc, ids: slices.Clone(ids)}
}

func (c *RemoveCommand) Do() {
	c.removed = c.removed[:0]
	for _, id := range c.ids {
		if r, ok := c.scene.Remove(id); ok {
			c.removed = append(c.removed, r)
		}
	}
}

func (c *RemoveCommand) Undo() {
	for i := len(c.removed) - 1; i >= 0; i-- {
		c.scene.Restore(c.removed[i])
	}
	c.removed = nil
}

func (c *RemoveCommand) Entry() Entry {
	return Entry{ID: c.id, Name: c.name, IDs: c.ids}
}

// GroupCommand turns shapes into a persistent group with a stable ID.
type GroupCommand struct {
	base
	scene   *scene.Scene
	groupID string
	ids     []string
}

func NewGroupCommand(sc *scene.Scene, groupID string, ids []string) *GroupCommand {
	return &GroupCommand{base: newBase("Group"), scene: sc, groupID: groupID, ids: slices.Clone(ids)}
}

func (c *GroupCommand) GroupID() string { return c.groupID }

func (c *GroupCommand) Do() {
	c.scene.GroupWithID(c.groupID, c.ids)
}

func (c *GroupCommand) Undo() {
	c.scene.Ungroup(c.groupID)
}

func (c *GroupCommand) Entry() Entry {
	return Entry{ID: c.id, Name: c.name, IDs: append([]string{c.groupID}, c.ids...)}
}

// UngroupCommand dissolves a group, baking its placement into the members.
type UngroupCommand struct {
	base
	scene   *scene.Scene
	groupID string
	record  *scene.UngroupRecord
}

func NewUngroupCommand(sc *scene.Scene, groupID string) *UngroupCommand {
	return &UngroupCommand{base: newBase("Ungroup"), scene: sc, groupID: groupID}
}

func (c *UngroupCommand) Do() {
	if rec, ok := c.scene.Ungroup(c.groupID); ok {
		c.record = &rec
	}
}

func (c *UngroupCommand) Undo() {
	if c.record != nil {
		c.scene.Regroup(*c.record)
		c.record = nil
	}
}

func (c *UngroupCommand) Entry() Entry {
	e := Entry{ID: c.id, Name: c.name, IDs: []string{c.groupID}}
	if c.record != nil {
		e.Changes = c.record.Changes()
	}
	return e
}
