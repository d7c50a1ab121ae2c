package models

import (
	"encoding/json"
	"strings"
)

const NotAvailable = "N/D"

// Details is the holder data attached to a request.
type Details struct {
	Nombre string `json:"nombre"`
	Cedula string `json:"cedula"`
}

// ParseDetails decodes a stored details payload. It accepts a JSON object,
// a JSON string that itself contains an object, or anything else, which
// yields empty details.
func ParseDetails(raw []byte) Details {
	var d Details
	if err := json.Unmarshal(raw, &d); err == nil {
		return d
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &d); err == nil {
			return d
		}
	}
	return Details{}
}

// OrNA returns the holder fields with blanks replaced by "N/D".
func (d Details) OrNA() (nombre, cedula string) {
	nombre, cedula = strings.TrimSpace(d.Nombre), strings.TrimSpace(d.Cedula)
	if nombre == "" {
		nombre = NotAvailable
	}
	if cedula == "" {
		cedula = NotAvailable
	}
	return nombre, cedula
}
