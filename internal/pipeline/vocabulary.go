package pipeline

// StageInfo describes one stage for pickers and board columns.
type StageInfo struct {
	Value    Stage    `json:"value"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
	Position int      `json:"position"`
	Terminal bool     `json:"terminal"`
}

// FieldInfo is one sub-status field and its vocabulary.
type FieldInfo struct {
	Field   SubStatusField `json:"field"`
	Allowed []string       `json:"allowed"`
}

// Vocabulary is every enumeration a client needs to build the stage and
// sub-status controls.
type Vocabulary struct {
	Stages         []StageInfo `json:"stages"`
	InitialStages  []Stage     `json:"initialStages"`
	ProgressStages []Stage     `json:"progressStages"`
	SubStatuses    []FieldInfo `json:"subStatuses"`
	Interests      []string    `json:"interests"`
	ItemTypes      []string    `json:"itemTypes"`
	ItemStatuses   []string    `json:"itemStatuses"`
}

// Describe returns the vocabulary in display order. The invoice sub-status
// comes last.
func Describe() Vocabulary {
	v := Vocabulary{
		InitialStages:  []Stage{StageOpenMatch, StageProceeding},
		ProgressStages: ProgressStages(),
		Interests:      append([]string(nil), interests...),
		ItemTypes:      append([]string(nil), itemTypes...),
		ItemStatuses:   append([]string(nil), itemStatuses...),
	}
	for _, s := range Stages() {
		v.Stages = append(v.Stages, StageInfo{
			Value:    s,
			Label:    s.Label(),
			Category: s.Category(),
			Position: s.Index(),
			Terminal: s.IsTerminal(),
		})
	}
	for _, f := range append(ApplicationSubStatusFields(), FieldInvoiceStatus) {
		v.SubStatuses = append(v.SubStatuses, FieldInfo{Field: f, Allowed: f.Allowed()})
	}
	return v
}
