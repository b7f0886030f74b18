package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insys-icom/medusa/internal/run"
)

func mkRun(suite string, index int, stage string) *run.Run {
	return &run.Run{ID: run.ID{SuitePath: suite, Index: index}, Stage: stage}
}

func TestStagesOf_SortsDistinctStagesByteLexicographically(t *testing.T) {
	runs := []*run.Run{
		mkRun("a.robot", 0, "10"),
		mkRun("b.robot", 0, "2"),
		mkRun("c.robot", 0, "2"),
		mkRun("d.robot", 0, "acceptance"),
	}
	assert.Equal(t, []string{"10", "2", "acceptance"}, StagesOf(runs))
}

func TestGroupByStage_PreservesQueueOrderWithinStage(t *testing.T) {
	first := mkRun("a.robot", 0, "0")
	second := mkRun("b.robot", 0, "0")
	third := mkRun("c.robot", 0, "1")

	groups := GroupByStage([]*run.Run{first, second, third})
	assert.Equal(t, []*run.Run{first, second}, groups["0"])
	assert.Equal(t, []*run.Run{third}, groups["1"])
}
