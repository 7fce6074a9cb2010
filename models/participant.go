package models

// Participant is one row of the participant CSV.
// The JSON names match the CSV header so API clients see the same keys.
type Participant struct {
	UID   string `json:"UID"`  // hardware tag UID, uppercase hex; unique key
	Name  string `json:"Nama"` // display name as entered at registration
	Photo string `json:"Foto"` // path relative to the data directory, e.g. foto_peserta/Siti_1723559012.jpg
}

// CSVHeader is the header row of the participant file.
var CSVHeader = []string{"UID", "Nama", "Foto"}

// Record returns the participant as a CSV row in header order.
func (p Participant) Record() []string {
	return []string{p.UID, p.Name, p.Photo}
}

// ParticipantFromRecord builds a participant from a CSV row. Missing
// trailing columns are left empty and extra columns are ignored.
func ParticipantFromRecord(record []string) Participant {
	var p Participant
	if len(record) > 0 {
		p.UID = record[0]
	}
	if len(record) > 1 {
		p.Name = record[1]
	}
	if len(record) > 2 {
		p.Photo = record[2]
	}
	return p
}
