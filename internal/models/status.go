package models

// Status is the per (student, date) attendance mark.
type Status string

const (
	StatusPresent Status = "P"
	StatusAbsent  Status = "A"
	StatusLate    Status = "L"
	StatusCOD     Status = "COD"
	StatusCIA     Status = "CIA"
	StatusHoliday Status = "HOL"
	StatusUnset   Status = "-"
	StatusEmpty   Status = ""
)

// Statuses lists the full domain in display order.
var Statuses = []Status{
	StatusPresent, StatusAbsent, StatusLate, StatusCOD, StatusCIA, StatusHoliday, StatusUnset, StatusEmpty,
}

var statusLabels = map[Status]string{
	StatusPresent: "Present",
	StatusAbsent:  "Absent",
	StatusLate:    "Late",
	StatusCOD:     "Cancelled on the day",
	StatusCIA:     "Cancelled in advance",
	StatusHoliday: "Holiday",
	StatusUnset:   "Not taken",
	StatusEmpty:   "Not taken",
}

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Real reports whether the mark carries recorded data.
func (s Status) Real() bool {
	return s.Valid() && s != StatusUnset && s != StatusEmpty
}

// Held reports whether the mark means the session took place (paid).
func (s Status) Held() bool {
	switch s {
	case StatusPresent, StatusCOD, StatusCIA:
		return true
	default:
		return false
	}
}

func (s Status) Label() string {
	return statusLabels[s]
}
