package budget

import (
	"fmt"
	"regexp"
	"strconv"
)

// Entity identifies which part of the lead form owns an attachment slot.
type Entity string

const (
	EntityLogo    Entity = "logo"
	EntityModel   Entity = "model"
	EntityProject Entity = "project"
	EntityClient  Entity = "client"
)

// SlotsPer returns how many image positions one row of the entity has.
func SlotsPer(e Entity) int {
	switch e {
	case EntityLogo, EntityClient:
		return 1
	case EntityModel, EntityProject:
		return 4
	}
	return 0
}

// ParseEntity converts a path or form value into an Entity.
func ParseEntity(s string) (Entity, error) {
	switch e := Entity(s); e {
	case EntityLogo, EntityModel, EntityProject, EntityClient:
		return e, nil
	}
	return "", fmt.Errorf("unknown entity %q", s)
}

// SlotKey addresses one attachment slot.
type SlotKey struct {
	Entity   Entity `json:"entity"`
	Row      int    `json:"row"`
	Position int    `json:"position"`
}

// Validate checks the key against the slot layout. The logo is a single row.
func (k SlotKey) Validate() error {
	n := SlotsPer(k.Entity)
	if n == 0 {
		return fmt.Errorf("unknown entity %q", k.Entity)
	}
	if k.Row < 0 || (k.Entity == EntityLogo && k.Row != 0) {
		return fmt.Errorf("invalid row %d for %s", k.Row, k.Entity)
	}
	if k.Position < 0 || k.Position >= n {
		return fmt.Errorf("invalid slot %d for %s (has %d)", k.Position, k.Entity, n)
	}
	return nil
}

// FieldName renders the multipart field name used by the browser client.
func (k SlotKey) FieldName() string {
	switch k.Entity {
	case EntityLogo:
		return "logo"
	case EntityModel:
		return fmt.Sprintf("models[%d].images[%d]", k.Row, k.Position)
	case EntityProject:
		return fmt.Sprintf("projects[%d].images[%d]", k.Row, k.Position)
	case EntityClient:
		return fmt.Sprintf("clients[%d].logo", k.Row)
	}
	return ""
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%d/%d", k.Entity, k.Row, k.Position)
}

var (
	rowImageField = regexp.MustCompile(`^(models|projects)\[(\d+)\]\.images\[(\d+)\]$`)
	clientField   = regexp.MustCompile(`^clients\[(\d+)\]\.logo$`)
)

// ParseFieldName is the inverse of FieldName.
func ParseFieldName(name string) (SlotKey, error) {
	if name == "logo" {
		return SlotKey{Entity: EntityLogo}, nil
	}
	if m := rowImageField.FindStringSubmatch(name); m != nil {
		row, _ := strconv.Atoi(m[2])
		pos, _ := strconv.Atoi(m[3])
		entity := EntityModel
		if m[1] == "projects" {
			entity = EntityProject
		}
		key := SlotKey{Entity: entity, Row: row, Position: pos}
		return key, key.Validate()
	}
	if m := clientField.FindStringSubmatch(name); m != nil {
		row, _ := strconv.Atoi(m[1])
		return SlotKey{Entity: EntityClient, Row: row}, nil
	}
	return SlotKey{}, fmt.Errorf("not an attachment field: %q", name)
}

// Slot is one attachment location and the size of whatever it currently holds.
type Slot struct {
	Key     SlotKey
	Present bool
	Size    int64
}
