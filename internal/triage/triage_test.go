package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskplanner/internal/model"
)

func task(id string, parent string, status model.TaskStatus) model.Task {
	t := model.Task{ID: id, Title: "Task " + id, Status: status}
	if parent != "" {
		p := parent
		t.ParentID = &p
	}
	return t
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

// fixture: "big" has 4 subtasks (1 done), "almost" has 4 subtasks (3 done),
// "solo" is a childless task.
func fixture() []model.Task {
	return []model.Task{
		task("big", "", model.StatusPending),
		task("big-1", "big", model.StatusCompleted),
		task("big-2", "big", model.StatusPending),
		task("big-3", "big", model.StatusPending),
		task("big-4", "big", model.StatusPending),
		task("almost", "", model.StatusPending),
		task("almost-1", "almost", model.StatusCompleted),
		task("almost-2", "almost", model.StatusCompleted),
		task("almost-3", "almost", model.StatusCompleted),
		task("almost-4", "almost", model.StatusPending),
		task("solo", "", model.StatusPending),
	}
}

func TestShortWindowKeepsNearlyDoneParents(t *testing.T) {
	res := Recommend(Criteria{Minutes: 5, Energy: EnergyMedium}, fixture(), nil)
	require.False(t, res.Fallback())
	// big (ratio .25) is excluded, almost (.75) is kept
	assert.Equal(t, []string{"big-2", "big-3", "big-4"}, ids(res.Tasks))

	res = Recommend(Criteria{Minutes: 5, Energy: EnergyMedium, Blocker: BlockerTooManyChoices}, fixture(), nil)
	assert.Equal(t, []string{"almost", "solo", "big-2"}, ids(res.Tasks))
}

func TestShortWindowLowEnergyExcludesUnfinishedParents(t *testing.T) {
	tasks := []model.Task{
		task("p", "", model.StatusPending),
		task("p-1", "p", model.StatusCompleted),
		task("p-2", "p", model.StatusPending),
		task("p-3", "p", model.StatusPending),
	}
	res := Recommend(Criteria{Minutes: 5, Energy: EnergyLow}, tasks, nil)
	assert.NotContains(t, ids(res.Tasks), "p")
	assert.Equal(t, []string{"p-2", "p-3"}, ids(res.Tasks))
}

func TestMidWindowDropsParentsWithManySubtasks(t *testing.T) {
	tasks := []model.Task{
		task("big", "", model.StatusPending),
		task("b1", "big", model.StatusPending),
		task("b2", "big", model.StatusPending),
		task("b3", "big", model.StatusPending),
		task("b4", "big", model.StatusPending),
		task("small", "", model.StatusPending),
		task("s1", "small", model.StatusPending),
	}
	res := Recommend(Criteria{Minutes: 20, Energy: EnergyHigh}, tasks, nil)
	assert.Equal(t, []string{"small"}, ids(res.Tasks))
}

func TestHighEnergyFallsBackToPending(t *testing.T) {
	tasks := []model.Task{
		task("a", "", model.StatusPending),
		task("b", "", model.StatusPending),
		task("c", "", model.StatusCompleted),
	}
	res := Recommend(Criteria{Minutes: 60, Energy: EnergyHigh}, tasks, nil)
	assert.Equal(t, []string{"a", "b"}, ids(res.Tasks))
}

func TestQuickWinReappliesSmallFilter(t *testing.T) {
	tasks := []model.Task{
		task("p", "", model.StatusPending),
		task("p-1", "p", model.StatusPending),
	}
	res := Recommend(Criteria{Minutes: 60, Energy: EnergyMedium, Blocker: BlockerQuickWin}, tasks, nil)
	assert.Equal(t, []string{"p-1"}, ids(res.Tasks))

	// high energy narrowed the set to the parent; the quick-win filter still runs
	res = Recommend(Criteria{Minutes: 60, Energy: EnergyHigh, Blocker: BlockerQuickWin}, tasks, nil)
	assert.True(t, res.Fallback())
}

func TestDecisionFatigueTruncates(t *testing.T) {
	var tasks []model.Task
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		tasks = append(tasks, task(id, "", model.StatusPending))
	}
	res := Recommend(Criteria{Minutes: 60, Energy: EnergyMedium, Blocker: BlockerDecisionFatigue}, tasks, nil)
	assert.Equal(t, []string{"a", "b", "c"}, ids(res.Tasks))
}

func TestFallbackWhenNothingMatches(t *testing.T) {
	tasks := []model.Task{task("done", "", model.StatusCompleted)}

	res := Recommend(Criteria{Minutes: 30, Energy: EnergyLow}, tasks, []string{"Stretch", "Drink water"})
	require.True(t, res.Fallback())
	assert.Empty(t, res.Tasks)
	require.Len(t, res.Placeholders, 2)
	assert.Equal(t, []string{"Stretch", "Drink water"}, res.Titles())
	assert.NotEmpty(t, res.Placeholders[0].ID)
	assert.NotEqual(t, res.Placeholders[0].ID, res.Placeholders[1].ID)

	again := Recommend(Criteria{Minutes: 30, Energy: EnergyLow}, tasks, []string{"Stretch"})
	assert.NotEqual(t, res.Placeholders[0].ID, again.Placeholders[0].ID)

	res = Recommend(Criteria{Minutes: 30}, nil, nil)
	assert.Len(t, res.Placeholders, len(DefaultFallbacks))
}

func TestNeverMoreThanThree(t *testing.T) {
	var tasks []model.Task
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		tasks = append(tasks, task(id, "", model.StatusPending))
	}
	for _, minutes := range []int{5, 20, 90} {
		for _, energy := range []Energy{EnergyLow, EnergyMedium, EnergyHigh} {
			res := Recommend(Criteria{Minutes: minutes, Energy: energy}, tasks, []string{"1", "2", "3", "4"})
			assert.LessOrEqual(t, len(res.Titles()), 3)
		}
	}
	res := Recommend(Criteria{Minutes: 5}, nil, []string{"1", "2", "3", "4"})
	assert.Len(t, res.Placeholders, 3)
}

func TestParseHelpers(t *testing.T) {
	e, ok := ParseEnergy(" High ")
	assert.True(t, ok)
	assert.Equal(t, EnergyHigh, e)
	_, ok = ParseEnergy("sleepy")
	assert.False(t, ok)

	assert.Equal(t, BlockerQuickWin, ParseBlocker("quick-win"))
	assert.Equal(t, BlockerDecisionFatigue, ParseBlocker("Decision Fatigue"))
	assert.Equal(t, BlockerTooManyChoices, ParseBlocker("too_many_choices"))
	assert.Equal(t, BlockerNone, ParseBlocker(""))
}
