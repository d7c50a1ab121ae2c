package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docutrack/internal/common"
)

// Status is the persisted request status. The database stores only the
// three values below; the UI vocabulary is wider and is folded into them
// by ParseStatus.
type Status string

const (
	StatusPending  Status = "Pendiente"
	StatusRejected Status = "Rechazado"
	StatusIssued   Status = "Emitido"
)

// UI labels accepted by ParseStatus in addition to the persisted values.
const (
	LabelInReview           = "En revisión"
	LabelCorrectionRequired = "Corrección solicitada"
)

var labelToStatus = map[string]Status{
	string(StatusPending):   StatusPending,
	LabelInReview:           StatusPending,
	LabelCorrectionRequired: StatusPending,
	string(StatusRejected):  StatusRejected,
	string(StatusIssued):    StatusIssued,
}

var statusToLabel = map[Status]string{
	StatusPending:  LabelInReview,
	StatusRejected: string(StatusRejected),
	StatusIssued:   string(StatusIssued),
}

// ParseStatus maps a label received from a client onto the persisted
// vocabulary. "Corrección solicitada" collapses into Pendiente.
func ParseStatus(label string) (Status, error) {
	s, ok := labelToStatus[strings.TrimSpace(label)]
	if !ok {
		return "", fmt.Errorf("%w: estado inválido %q", common.ErrorValidation, label)
	}
	return s, nil
}

// Label returns the display label for s. Pendiente always renders as
// "En revisión".
func (s Status) Label() string {
	if l, ok := statusToLabel[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusToLabel[s]
	return ok
}
