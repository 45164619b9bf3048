package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/community-roots/internal/model"
)

func fixture() []model.Park {
	return []model.Park{
		{
			ID:   "p1",
			Name: "Riverside",
			Tasks: []model.Task{
				{ID: "t1", Title: "Weed beds", Status: model.StatusOpen, Volunteers: []string{"Ann", "Bo"}, Urgency: model.UrgencyHigh},
				{ID: "t2", Title: "Paint benches", Status: model.StatusCompleted, Volunteers: []string{}, Urgency: model.UrgencyLow},
			},
		},
		{
			ID:    "p2",
			Name:  "Hilltop",
			Tasks: []model.Task{{ID: "t1", Title: "Rake", Status: model.StatusOpen, Volunteers: []string{}}},
		},
	}
}

func TestToggleVolunteerIsItsOwnInverse(t *testing.T) {
	in := fixture()
	want := fixture()

	once := ToggleVolunteer(in, "p1", "t1", "You")
	task, ok := FindTask(once, "p1", "t1")
	require.True(t, ok)
	assert.Equal(t, []string{"Ann", "Bo", "You"}, task.Volunteers)

	twice := ToggleVolunteer(once, "p1", "t1", "You")
	if diff := cmp.Diff(want, twice); diff != "" {
		t.Errorf("toggle twice mismatch (-want +got):\n%s", diff)
	}

	// The input was never touched.
	if diff := cmp.Diff(want, in); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestToggleVolunteerRemovesExisting(t *testing.T) {
	out := ToggleVolunteer(fixture(), "p1", "t1", "Ann")
	task, _ := FindTask(out, "p1", "t1")
	assert.Equal(t, []string{"Bo"}, task.Volunteers)
}

func TestToggleVolunteerNoSharedBackingArray(t *testing.T) {
	base := fixture()
	base[0].Tasks[0].Volunteers = make([]string, 1, 8)
	base[0].Tasks[0].Volunteers[0] = "Ann"

	a := ToggleVolunteer(base, "p1", "t1", "Cy")
	b := ToggleVolunteer(base, "p1", "t1", "Di")

	ta, _ := FindTask(a, "p1", "t1")
	tb, _ := FindTask(b, "p1", "t1")
	assert.Equal(t, []string{"Ann", "Cy"}, ta.Volunteers)
	assert.Equal(t, []string{"Ann", "Di"}, tb.Volunteers)
}

func TestToggleVolunteerMissing(t *testing.T) {
	in := fixture()
	assert.Equal(t, fixture(), ToggleVolunteer(in, "nope", "t1", "You"))
	assert.Equal(t, fixture(), ToggleVolunteer(in, "p1", "nope", "You"))
}

func TestUpdateTaskSharesUnaffectedBranches(t *testing.T) {
	in := fixture()
	out := ToggleVolunteer(in, "p1", "t1", "You")

	require.Len(t, out, 2)
	// p2 keeps the same task backing array.
	assert.Same(t, &in[1].Tasks[0], &out[1].Tasks[0])
	// p1 gets a fresh task array holding an equal copy of the untouched task.
	assert.NotSame(t, &in[0].Tasks[0], &out[0].Tasks[0])
	assert.Equal(t, in[0].Tasks[1], out[0].Tasks[1])
}

func TestCompleteTask(t *testing.T) {
	in := fixture()

	out, title, completed := CompleteTask(in, "p1", "t1")
	require.True(t, completed)
	assert.Equal(t, "Weed beds", title)
	task, _ := FindTask(out, "p1", "t1")
	assert.Equal(t, model.StatusCompleted, task.Status)

	orig, _ := FindTask(in, "p1", "t1")
	assert.Equal(t, model.StatusOpen, orig.Status)

	again, title, completed := CompleteTask(out, "p1", "t1")
	assert.False(t, completed)
	assert.Empty(t, title)
	assert.Equal(t, out, again)

	_, _, completed = CompleteTask(in, "p1", "t2")
	assert.False(t, completed, "already completed")

	_, _, completed = CompleteTask(in, "p9", "t1")
	assert.False(t, completed, "missing park")
}

func TestCompleteTaskFromInProgress(t *testing.T) {
	in := fixture()
	in[1].Tasks[0].Status = model.StatusInProgress

	out, _, completed := CompleteTask(in, "p2", "t1")
	require.True(t, completed)
	task, _ := FindTask(out, "p2", "t1")
	assert.Equal(t, model.StatusCompleted, task.Status)
}

func TestDeleteTask(t *testing.T) {
	in := fixture()

	out := DeleteTask(in, "p1", "t1")
	p, _ := FindPark(out, "p1")
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, "t2", p.Tasks[0].ID)

	// Same task ID in another park is unaffected.
	_, ok := FindTask(out, "p2", "t1")
	assert.True(t, ok)

	// Input untouched.
	assert.Len(t, in[0].Tasks, 2)
}

func TestDeleteTaskMissingIsNoop(t *testing.T) {
	if diff := cmp.Diff(fixture(), DeleteTask(fixture(), "p1", "ghost")); diff != "" {
		t.Errorf("delete of missing task changed parks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(fixture(), DeleteTask(fixture(), "ghost", "t1")); diff != "" {
		t.Errorf("delete in missing park changed parks (-want +got):\n%s", diff)
	}
}

func TestAppendTasks(t *testing.T) {
	in := fixture()
	add := []model.Task{
		{ID: "g1", Title: "New A", Status: model.StatusOpen},
		{ID: "t1", Title: "Duplicate id", Status: model.StatusOpen},
		{ID: "g2", Title: "New B", Status: model.StatusOpen},
	}

	out := AppendTasks(in, "p2", add)
	p, _ := FindPark(out, "p2")

	var ids []string
	for _, task := range p.Tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"t1", "g1", "g2"}, ids)
	assert.Len(t, in[1].Tasks, 1)

	assert.Equal(t, in, AppendTasks(in, "p2", nil))
	assert.Equal(t, in, AppendTasks(in, "missing", add))
}

func TestReplaceAll(t *testing.T) {
	next := []model.Park{{ID: "found-1-0", Name: "New", Tasks: []model.Task{}}}
	out := ReplaceAll(next)
	assert.Equal(t, next, out)

	out[0].Name = "changed"
	assert.Equal(t, "New", next[0].Name)

	assert.Equal(t, []model.Park{}, ReplaceAll(nil))
}
