// patch.go
//
// Grant pipeline and club portal data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of grants-portal.
// grants-portal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// grants-portal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with grants-portal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package pipeline

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/localnerve/grants-portal/internal/types"
)

// FieldVersion carries the optional optimistic concurrency token.
const FieldVersion = "version"

// State is the mutable pipeline position of an application.
type State struct {
	Stage               Stage
	Interest            *Interest
	InterestSubmittedAt *time.Time
	SubStatuses         SubStatuses
}

// ApplicationPatch is a fully validated multi-field update. It is only built
// when every present field passed validation, so applying it never fails on
// input.
type ApplicationPatch struct {
	Stage         *Stage
	Interest      *InterestChange
	SubStatuses   map[SubStatusField]string
	InvoiceStatus *InvoiceStatus
	Version       *uint64
}

type fieldValidator func(p *ApplicationPatch, raw json.RawMessage) *ValidationError

func validatorFor(name string) (fieldValidator, bool) {
	switch name {
	case FieldApplicationStatus:
		return validateStage, true
	case FieldInterestStatus:
		return validateInterest, true
	case FieldVersion:
		return validateVersion, true
	}
	f, err := ParseSubStatusField(name)
	if err != nil {
		return nil, false
	}
	if f.OnInvoice() {
		return validateInvoiceStatus, true
	}
	return subStatusValidator(f), true
}

// BuildPatch validates every field of a decoded request body. All failures are
// collected; if there is any, no patch is returned.
func BuildPatch(fields map[string]json.RawMessage) (*ApplicationPatch, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	p := &ApplicationPatch{}
	var errs ValidationErrors
	for _, name := range names {
		validate, ok := validatorFor(name)
		if !ok {
			errs = append(errs, &ValidationError{Field: name, Err: ErrUnknownField})
			continue
		}
		if verr := validate(p, fields[name]); verr != nil {
			errs = append(errs, verr)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if p.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	return p, nil
}

// StagePatch builds a patch that only sets the stage.
func StagePatch(raw string) (*ApplicationPatch, error) {
	s, err := ParseStage(raw)
	if err != nil {
		return nil, err
	}
	return &ApplicationPatch{Stage: &s}, nil
}

// InterestPatch builds a patch that only records interest. A nil raw clears it.
func InterestPatch(raw *string) (*ApplicationPatch, error) {
	i, err := ParseInterest(raw)
	if err != nil {
		return nil, err
	}
	return &ApplicationPatch{Interest: &InterestChange{Value: i}}, nil
}

// SubStatusPatch builds a patch that only sets one sub-status.
func SubStatusPatch(field, value string) (*ApplicationPatch, error) {
	f, err := ParseSubStatusField(field)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(value); err != nil {
		return nil, err
	}
	if f.OnInvoice() {
		s := InvoiceStatus(value)
		return &ApplicationPatch{InvoiceStatus: &s}, nil
	}
	return &ApplicationPatch{SubStatuses: map[SubStatusField]string{f: value}}, nil
}

// IsEmpty reports whether the patch changes nothing. A bare version is empty.
func (p *ApplicationPatch) IsEmpty() bool {
	return p.Stage == nil && p.Interest == nil && len(p.SubStatuses) == 0 && p.InvoiceStatus == nil
}

// Fields lists the wire names the patch touches, sorted.
func (p *ApplicationPatch) Fields() []string {
	var out []string
	if p.Stage != nil {
		out = append(out, FieldApplicationStatus)
	}
	if p.Interest != nil {
		out = append(out, FieldInterestStatus)
	}
	for f := range p.SubStatuses {
		out = append(out, string(f))
	}
	if p.InvoiceStatus != nil {
		out = append(out, string(FieldInvoiceStatus))
	}
	sort.Strings(out)
	return out
}

// Apply returns st with every change in the patch applied. The only failure
// is a stage change out of a terminal stage.
func (p *ApplicationPatch) Apply(st State, now time.Time) (State, error) {
	if p.Stage != nil {
		if err := CheckTransition(st.Stage, *p.Stage); err != nil {
			return st, err
		}
		st.Stage = *p.Stage
	}
	if p.Interest != nil {
		st.Interest = p.Interest.Value
		st.InterestSubmittedAt = p.Interest.SubmittedAt(now)
	}
	for f, v := range p.SubStatuses {
		if err := st.SubStatuses.Set(f, v); err != nil {
			return st, err
		}
	}
	return st, nil
}

// Columns maps the application row columns the patch writes to their new
// values in st. Untouched fields are absent.
func (p *ApplicationPatch) Columns(st State) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Stage != nil {
		cols["application_status"] = string(st.Stage)
	}
	if p.Interest != nil {
		if st.Interest != nil {
			cols["interest_status"] = string(*st.Interest)
		} else {
			cols["interest_status"] = nil
		}
		if st.InterestSubmittedAt != nil {
			cols["interest_submitted_at"] = *st.InterestSubmittedAt
		} else {
			cols["interest_submitted_at"] = nil
		}
	}
	for f := range p.SubStatuses {
		cols[f.Column()] = st.SubStatuses.Get(f)
	}
	return cols
}

func validateStage(p *ApplicationPatch, raw json.RawMessage) *ValidationError {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return invalid(FieldApplicationStatus, string(raw), StageNames(), ErrInvalidStage)
	}
	stage, err := ParseStage(s)
	if err != nil {
		return err.(*ValidationError)
	}
	p.Stage = &stage
	return nil
}

func validateInterest(p *ApplicationPatch, raw json.RawMessage) *ValidationError {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return invalid(FieldInterestStatus, string(raw), append(interests, "null"), ErrInvalidInterest)
	}
	i, err := ParseInterest(s)
	if err != nil {
		return err.(*ValidationError)
	}
	p.Interest = &InterestChange{Value: i}
	return nil
}

func validateVersion(p *ApplicationPatch, raw json.RawMessage) *ValidationError {
	var v types.FlexUint64
	if err := json.Unmarshal(raw, &v); err != nil {
		return &ValidationError{Field: FieldVersion, Value: string(raw), Err: err}
	}
	n := v.Uint64()
	p.Version = &n
	return nil
}

func validateInvoiceStatus(p *ApplicationPatch, raw json.RawMessage) *ValidationError {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return invalid(string(FieldInvoiceStatus), string(raw), FieldInvoiceStatus.Allowed(), ErrInvalidSubStatusValue)
	}
	status, err := ParseInvoiceStatus(s)
	if err != nil {
		return err.(*ValidationError)
	}
	p.InvoiceStatus = &status
	return nil
}

func subStatusValidator(f SubStatusField) fieldValidator {
	return func(p *ApplicationPatch, raw json.RawMessage) *ValidationError {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return invalid(string(f), string(raw), f.Allowed(), ErrInvalidSubStatusValue)
		}
		if err := f.Validate(s); err != nil {
			return err.(*ValidationError)
		}
		if p.SubStatuses == nil {
			p.SubStatuses = make(map[SubStatusField]string)
		}
		p.SubStatuses[f] = s
		return nil
	}
}
