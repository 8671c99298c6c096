// Package domain defines the core entities of the Recipebook server.
package domain

import "time"

// Owned provides the fields shared by every entity that belongs to exactly one user.
// OwnerID is set at creation and never changes.
type Owned struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (o *Owned) InitTimestamps() {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp to the current time.
func (o *Owned) Touch() {
	o.UpdatedAt = time.Now()
}

// NamedEntity is an owned entity whose only payload is a name.
// Tags and ingredients share this shape.
type NamedEntity struct {
	Owned
	Name string `json:"name"`
}

// Base returns the embedded NamedEntity. Generic code over tags and
// ingredients reaches the shared fields through this method.
func (e *NamedEntity) Base() *NamedEntity {
	return e
}
