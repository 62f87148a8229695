package pipeline

// Sub-status vocabularies. Each field is independent of the others and of the
// stage; none is derived from or constrains another.
type (
	PreparationStatus string
	DraftingStatus    string
	AttachmentStatus  string
	ReviewStatus      string
	LodgmentStatus    string
	OutcomeStatus     string
	AcquittalStatus   string
	InvoiceStatus     string
)

const (
	PreparationPending  PreparationStatus = "pending"
	PreparationComplete PreparationStatus = "complete"

	DraftingPending  DraftingStatus = "pending"
	DraftingWIP      DraftingStatus = "wip"
	DraftingLoaded   DraftingStatus = "loaded"
	DraftingComplete DraftingStatus = "complete"

	AttachmentPending AttachmentStatus = "pending"
	AttachmentLoaded  AttachmentStatus = "loaded"

	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"

	LodgmentPending LodgmentStatus = "pending"
	LodgmentLodged  LodgmentStatus = "lodged"

	OutcomePending        OutcomeStatus = "pending"
	OutcomeLodged         OutcomeStatus = "lodged"
	OutcomePendingOutcome OutcomeStatus = "pending outcome"

	AcquittalPending        AcquittalStatus = "pending"
	AcquittalPendingOutcome AcquittalStatus = "pending outcome"

	InvoicePending  InvoiceStatus = "pending"
	InvoiceInvoiced InvoiceStatus = "invoiced"
	InvoicePaid     InvoiceStatus = "paid"
)

// SubStatusField names a sub-status on the wire.
type SubStatusField string

const (
	FieldPreparationStatus SubStatusField = "preparationStatus"
	FieldDraftingStatus    SubStatusField = "draftingStatus"
	FieldAttachmentStatus  SubStatusField = "attachmentStatus"
	FieldReviewStatus      SubStatusField = "reviewStatus"
	FieldLodgmentStatus    SubStatusField = "lodgmentStatus"
	FieldOutcomeStatus     SubStatusField = "outcomeStatus"
	FieldAcquittalStatus   SubStatusField = "acquittalStatus"
	FieldInvoiceStatus     SubStatusField = "invoiceStatus"
)

type fieldSpec struct {
	column  string
	allowed []string
}

var subStatusVocabularies = map[SubStatusField]fieldSpec{
	FieldPreparationStatus: {"preparation_status", []string{"pending", "complete"}},
	FieldDraftingStatus:    {"drafting_status", []string{"pending", "wip", "loaded", "complete"}},
	FieldAttachmentStatus:  {"attachment_status", []string{"pending", "loaded"}},
	FieldReviewStatus:      {"review_status", []string{"pending", "approved"}},
	FieldLodgmentStatus:    {"lodgment_status", []string{"pending", "lodged"}},
	FieldOutcomeStatus:     {"outcome_status", []string{"pending", "lodged", "pending outcome"}},
	FieldAcquittalStatus:   {"acquittal_status", []string{"pending", "pending outcome"}},
	FieldInvoiceStatus:     {"invoice_status", []string{"pending", "invoiced", "paid"}},
}

// applicationFields are the seven sub-statuses stored on the application row,
// in display order.
var applicationFields = []SubStatusField{
	FieldPreparationStatus,
	FieldDraftingStatus,
	FieldAttachmentStatus,
	FieldReviewStatus,
	FieldLodgmentStatus,
	FieldOutcomeStatus,
	FieldAcquittalStatus,
}

// ApplicationSubStatusFields returns the seven application sub-status fields.
func ApplicationSubStatusFields() []SubStatusField {
	out := make([]SubStatusField, len(applicationFields))
	copy(out, applicationFields)
	return out
}

// ParseSubStatusField resolves a wire field name, including invoiceStatus.
func ParseSubStatusField(name string) (SubStatusField, error) {
	f := SubStatusField(name)
	if _, ok := subStatusVocabularies[f]; !ok {
		return "", &ValidationError{Field: name, Err: ErrUnknownField}
	}
	return f, nil
}

// Allowed returns the vocabulary of f.
func (f SubStatusField) Allowed() []string {
	vocab := subStatusVocabularies[f]
	out := make([]string, len(vocab.allowed))
	copy(out, vocab.allowed)
	return out
}

// Column is the storage column of f.
func (f SubStatusField) Column() string {
	return subStatusVocabularies[f].column
}

// OnInvoice reports whether f is stored on the invoice rather than the application.
func (f SubStatusField) OnInvoice() bool {
	return f == FieldInvoiceStatus
}

// Validate checks value against the vocabulary of f.
func (f SubStatusField) Validate(value string) error {
	vocab, ok := subStatusVocabularies[f]
	if !ok {
		return &ValidationError{Field: string(f), Err: ErrUnknownField}
	}
	for _, a := range vocab.allowed {
		if a == value {
			return nil
		}
	}
	return invalid(string(f), value, f.Allowed(), ErrInvalidSubStatusValue)
}

// ParseInvoiceStatus validates an invoice sub-status.
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	if err := FieldInvoiceStatus.Validate(raw); err != nil {
		return "", err
	}
	return InvoiceStatus(raw), nil
}

// SubStatuses is the set of application sub-status flags.
type SubStatuses struct {
	PreparationStatus PreparationStatus `json:"preparationStatus" gorm:"size:32;not null;default:pending"`
	DraftingStatus    DraftingStatus    `json:"draftingStatus" gorm:"size:32;not null;default:pending"`
	AttachmentStatus  AttachmentStatus  `json:"attachmentStatus" gorm:"size:32;not null;default:pending"`
	ReviewStatus      ReviewStatus      `json:"reviewStatus" gorm:"size:32;not null;default:pending"`
	LodgmentStatus    LodgmentStatus    `json:"lodgmentStatus" gorm:"size:32;not null;default:pending"`
	OutcomeStatus     OutcomeStatus     `json:"outcomeStatus" gorm:"size:32;not null;default:pending"`
	AcquittalStatus   AcquittalStatus   `json:"acquittalStatus" gorm:"size:32;not null;default:pending"`
}

// DefaultSubStatuses returns every flag at pending.
func DefaultSubStatuses() SubStatuses {
	return SubStatuses{
		PreparationStatus: PreparationPending,
		DraftingStatus:    DraftingPending,
		AttachmentStatus:  AttachmentPending,
		ReviewStatus:      ReviewPending,
		LodgmentStatus:    LodgmentPending,
		OutcomeStatus:     OutcomePending,
		AcquittalStatus:   AcquittalPending,
	}
}

// Get returns the value of an application sub-status field.
func (s SubStatuses) Get(f SubStatusField) string {
	switch f {
	case FieldPreparationStatus:
		return string(s.PreparationStatus)
	case FieldDraftingStatus:
		return string(s.DraftingStatus)
	case FieldAttachmentStatus:
		return string(s.AttachmentStatus)
	case FieldReviewStatus:
		return string(s.ReviewStatus)
	case FieldLodgmentStatus:
		return string(s.LodgmentStatus)
	case FieldOutcomeStatus:
		return string(s.OutcomeStatus)
	case FieldAcquittalStatus:
		return string(s.AcquittalStatus)
	}
	return ""
}

// Set validates value and assigns it to field f. Only f changes. The invoice
// sub-status is not part of this set and is rejected as unknown.
func (s *SubStatuses) Set(f SubStatusField, value string) error {
	if f.OnInvoice() {
		return &ValidationError{Field: string(f), Err: ErrUnknownField}
	}
	if err := f.Validate(value); err != nil {
		return err
	}
	switch f {
	case FieldPreparationStatus:
		s.PreparationStatus = PreparationStatus(value)
	case FieldDraftingStatus:
		s.DraftingStatus = DraftingStatus(value)
	case FieldAttachmentStatus:
		s.AttachmentStatus = AttachmentStatus(value)
	case FieldReviewStatus:
		s.ReviewStatus = ReviewStatus(value)
	case FieldLodgmentStatus:
		s.LodgmentStatus = LodgmentStatus(value)
	case FieldOutcomeStatus:
		s.OutcomeStatus = OutcomeStatus(value)
	case FieldAcquittalStatus:
		s.AcquittalStatus = AcquittalStatus(value)
	}
	return nil
}

// Map renders the set keyed by wire field name.
func (s SubStatuses) Map() map[string]string {
	m := make(map[string]string, len(applicationFields))
	for _, f := range applicationFields {
		m[string(f)] = s.Get(f)
	}
	return m
}
