package odoo

import (
	"encoding/json"
	"fmt"
)

// Cond builds one domain condition triple.
func Cond(field, op string, value any) []any {
	return []any{field, op, value}
}

// Polish-notation domain operators.
const (
	OpAnd = "&"
	OpOr  = "|"
)

// Relation is Odoo's many2one wire form: [id, display name], or false
// when the field is unset.
type Relation struct {
	ID   int64
	Name string
}

func (r *Relation) UnmarshalJSON(data []byte) error {
	if string(data) == "false" || string(data) == "null" {
		*r = Relation{}
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("relation: %w", err)
	}
	if len(arr) > 0 {
		if err := json.Unmarshal(arr[0], &r.ID); err != nil {
			return fmt.Errorf("relation id: %w", err)
		}
	}
	if len(arr) > 1 {
		if err := json.Unmarshal(arr[1], &r.Name); err != nil {
			return fmt.Errorf("relation name: %w", err)
		}
	}
	return nil
}

func (r Relation) MarshalJSON() ([]byte, error) {
	if r.Zero() {
		return []byte("false"), nil
	}
	return json.Marshal([]any{r.ID, r.Name})
}

func (r Relation) Zero() bool {
	return r.ID == 0 && r.Name == ""
}

// Amount tolerates Odoo's habit of sending false for null numerics.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "false", "null":
		*a = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

func (a Amount) Float() float64 {
	return float64(a)
}

// Text tolerates false for unset char fields.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "false", "null":
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = Text(s)
	return nil
}
