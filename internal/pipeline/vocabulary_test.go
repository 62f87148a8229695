package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	v := Describe()

	require.Len(t, v.Stages, 12)
	assert.Equal(t, StageInfo{Value: StageOpenMatch, Label: "Open Match", Category: CategoryPrePipeline, Position: 0}, v.Stages[0])
	last := v.Stages[11]
	assert.Equal(t, StageDNL, last.Value)
	assert.True(t, last.Terminal)
	assert.Equal(t, 11, last.Position)

	assert.Equal(t, []Stage{StageOpenMatch, StageProceeding}, v.InitialStages)
	assert.Equal(t, StagePreparation, v.ProgressStages[0])
	assert.Equal(t, StageAcquittal, v.ProgressStages[6])

	require.Len(t, v.SubStatuses, 8)
	assert.Equal(t, FieldPreparationStatus, v.SubStatuses[0].Field)
	assert.Equal(t, FieldInvoiceStatus, v.SubStatuses[7].Field)
	assert.Equal(t, []string{"pending", "invoiced", "paid"}, v.SubStatuses[7].Allowed)
	assert.Equal(t, []string{"file", "text", "confirmation"}, v.ItemTypes)
}

func TestDescribeReturnsCopies(t *testing.T) {
	v := Describe()
	v.SubStatuses[1].Allowed[0] = "mutated"
	v.ItemTypes[0] = "mutated"

	again := Describe()
	assert.Equal(t, "pending", again.SubStatuses[1].Allowed[0])
	assert.Equal(t, "file", again.ItemTypes[0])
}
