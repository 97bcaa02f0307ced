package models

import (
	"encoding/json"
	"strings"
)

// The backend serializes its entities with nested "equipment" and "benutzer"
// objects while some endpoints return flat DTOs. The decoders below accept
// both and fill the flat fields.

type ref struct {
	Equipment *Equipment `json:"equipment"`
	User      *User      `json:"benutzer"`
}

func (r ref) fillEquipment(id *int, name, inv *string) {
	if r.Equipment == nil {
		return
	}
	if *id == 0 {
		*id = r.Equipment.ID
	}
	if *name == "" {
		*name = r.Equipment.Name
	}
	if inv != nil && *inv == "" {
		*inv = r.Equipment.InventoryNumber
	}
}

func (r ref) fillUser(id *int, username *string) {
	if r.User == nil {
		return
	}
	if *id == 0 {
		*id = r.User.ID
	}
	if username != nil && *username == "" {
		*username = r.User.Username
	}
}

func (l *Loan) UnmarshalJSON(data []byte) error {
	type plain Loan
	var aux struct {
		plain
		ref
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*l = Loan(aux.plain)
	aux.fillEquipment(&l.EquipmentID, &l.EquipmentName, &l.InventoryNumber)
	aux.fillUser(&l.UserID, &l.Username)
	return nil
}

func (r *Reservation) UnmarshalJSON(data []byte) error {
	type plain Reservation
	var aux struct {
		plain
		ref
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = Reservation(aux.plain)
	aux.fillEquipment(&r.EquipmentID, &r.EquipmentName, nil)
	aux.fillUser(&r.UserID, &r.Username)
	return nil
}

// performer is either a plain name or a user object.
type performer string

func (p *performer) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = performer(name)
		return nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*p = performer(u.FullName())
	return nil
}

func (m *MaintenanceRecord) UnmarshalJSON(data []byte) error {
	type plain MaintenanceRecord
	var aux struct {
		plain
		Equipment   *Equipment `json:"equipment"`
		PerformedBy performer  `json:"performedBy"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*m = MaintenanceRecord(aux.plain)
	m.PerformedBy = string(aux.PerformedBy)
	ref{Equipment: aux.Equipment}.fillEquipment(&m.EquipmentID, &m.EquipmentName, nil)
	return nil
}
