package rules

// Layout names the table columns the cleaning stages read.
type Layout struct {
	Variable     string
	Value        string
	Unit         string
	Encounter    string
	EpisodeStart string
}

// DefaultLayout returns the column names of the standard long-format export.
func DefaultLayout() Layout {
	return Layout{
		Variable:     "Variable Name",
		Value:        "Value",
		Unit:         "Unit",
		Encounter:    "patient_id_encounter",
		EpisodeStart: "Episode Start Timestamp",
	}
}
