// stage.go
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

// Package pipeline holds the grant application state model: the stage
// enumeration, the independent sub-status flags, club interest, the pending
// item vocabularies, and the validated multi-field patch that moves an
// application between states.
package pipeline

import (
	"fmt"
	"strings"
)

// Stage is the primary position of a grant application.
type Stage string

const (
	StageOpenMatch   Stage = "open_match"
	StageProceeding  Stage = "proceeding"
	StagePreparation Stage = "preparation"
	StageDrafting    Stage = "drafting"
	StageAttachments Stage = "attachments"
	StageReview      Stage = "review"
	StageLodgment    Stage = "lodgment"
	StageOutcome     Stage = "outcome"
	StageAcquittal   Stage = "acquittal"
	StageWon         Stage = "won"
	StageLost        Stage = "lost"
	StageDNL         Stage = "dnl"
)

// Category groups stages for filtering and counting.
type Category string

const (
	CategoryPrePipeline Category = "pre_pipeline"
	CategoryPipeline    Category = "pipeline"
	CategoryTerminal    Category = "terminal"
)

// FieldApplicationStatus is the wire name of the stage field.
const FieldApplicationStatus = "applicationStatus"

var stages = []Stage{
	StageOpenMatch,
	StageProceeding,
	StagePreparation,
	StageDrafting,
	StageAttachments,
	StageReview,
	StageLodgment,
	StageOutcome,
	StageAcquittal,
	StageWon,
	StageLost,
	StageDNL,
}

var stageLabels = map[Stage]string{
	StageOpenMatch:   "Open Match",
	StageProceeding:  "Proceeding",
	StagePreparation: "Preparation",
	StageDrafting:    "Drafting",
	StageAttachments: "Attachments",
	StageReview:      "Review",
	StageLodgment:    "Lodgment",
	StageOutcome:     "Outcome",
	StageAcquittal:   "Acquittal",
	StageWon:         "Won",
	StageLost:        "Lost",
	StageDNL:         "Did Not Lodge",
}

// Stages returns all twelve stages in canonical pipeline order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// ActiveStages returns the non-terminal stages in pipeline order.
func ActiveStages() []Stage {
	out := make([]Stage, 0, len(stages))
	for _, s := range stages {
		if !s.IsTerminal() {
			out = append(out, s)
		}
	}
	return out
}

// StageNames returns the wire values of all stages.
func StageNames() []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = string(s)
	}
	return names
}

// ParseStage validates raw against the stage enumeration.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", invalid(FieldApplicationStatus, raw, StageNames(), ErrInvalidStage)
	}
	return s, nil
}

// Valid reports whether s is one of the twelve stages.
func (s Stage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

func (s Stage) Category() Category {
	switch s {
	case StageOpenMatch:
		return CategoryPrePipeline
	case StageWon, StageLost, StageDNL:
		return CategoryTerminal
	}
	return CategoryPipeline
}

// IsTerminal reports whether s is won, lost or dnl.
func (s Stage) IsTerminal() bool {
	return s.Category() == CategoryTerminal
}

// IsOutcome reports whether s is a decided outcome (won or lost).
func (s Stage) IsOutcome() bool {
	return s == StageWon || s == StageLost
}

// Label is the display name of the stage.
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

// Index is the position of s in the canonical order, or -1.
func (s Stage) Index() int {
	for i, v := range stages {
		if v == s {
			return i
		}
	}
	return -1
}

// CheckTransition enforces the only transition rule: a terminal stage is final.
// Any other move, including jumps and moving backwards, is allowed. Re-setting
// the current stage is always accepted.
func CheckTransition(from, to Stage) error {
	if !to.Valid() {
		return invalid(FieldApplicationStatus, string(to), StageNames(), ErrInvalidStage)
	}
	if from == to {
		return nil
	}
	if from.IsTerminal() {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrTerminalStage, from, to)
	}
	return nil
}

// InitialStage picks the starting stage for a new application. Matched grants
// start at open_match; staff-initiated pursuit starts at proceeding.
func InitialStage(raw string) (Stage, error) {
	switch Stage(raw) {
	case "", StageOpenMatch:
		return StageOpenMatch, nil
	case StageProceeding:
		return StageProceeding, nil
	}
	return "", invalid(FieldApplicationStatus, raw, []string{string(StageOpenMatch), string(StageProceeding)}, ErrInvalidStage)
}
