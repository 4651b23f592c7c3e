package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringSet is stored as a JSON array column. It is never nil after a
// round trip; Scan normalises NULL to an empty set.
type StringSet []string

func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		s = StringSet{}
	}
	return json.Marshal(s)
}

func (s *StringSet) Scan(value any) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSet", value)
	}
	if len(data) == 0 {
		*s = StringSet{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return err
	}
	if *s == nil {
		*s = StringSet{}
	}
	return nil
}

func (s StringSet) Contains(tag string) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Add returns the set with tag appended if not already present.
func (s StringSet) Add(tag string) StringSet {
	if s.Contains(tag) {
		return s
	}
	return append(s, tag)
}

// FieldChange captures a single before/after pair inside an audit record.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

type ChangeSet map[string]FieldChange

func (c ChangeSet) Value() (driver.Value, error) {
	if c == nil {
		c = ChangeSet{}
	}
	return json.Marshal(c)
}

func (c *ChangeSet) Scan(value any) error {
	if value == nil {
		*c = ChangeSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ChangeSet", value)
	}
	if len(data) == 0 {
		*c = ChangeSet{}
		return nil
	}
	return json.Unmarshal(data, c)
}

// EntryAudit is one element of a TimeEntry's embedded audit log.
type EntryAudit struct {
	EditedBy   int32     `json:"editedBy"`
	EditedAt   time.Time `json:"editedAt"`
	EditReason string    `json:"editReason"`
	Changes    ChangeSet `json:"changes"`
	ForceEdit  bool      `json:"forceEdit"`
}

// AuditTrail is the append-only list of EntryAudit stored as a JSON column.
type AuditTrail []EntryAudit

func (a AuditTrail) Value() (driver.Value, error) {
	if a == nil {
		a = AuditTrail{}
	}
	return json.Marshal(a)
}

func (a *AuditTrail) Scan(value any) error {
	if value == nil {
		*a = AuditTrail{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AuditTrail", value)
	}
	if len(data) == 0 {
		*a = AuditTrail{}
		return nil
	}
	return json.Unmarshal(data, a)
}
