package store

import (
	"slices"

	"github.com/nhle/community-roots/internal/model"
)

// The functions in this file never modify their arguments. Each returns a
// new top-level slice in which only the addressed park (and within it the
// addressed task) is replaced; every other Park and Task is shared with the
// input. A lookup miss returns the input unchanged.

// FindPark returns the park with the given ID.
func FindPark(parks []model.Park, parkID string) (model.Park, bool) {
	if i := parkIndex(parks, parkID); i >= 0 {
		return parks[i], true
	}
	return model.Park{}, false
}

// FindTask returns a task by its composite key.
func FindTask(parks []model.Park, parkID, taskID string) (model.Task, bool) {
	p, ok := FindPark(parks, parkID)
	if !ok {
		return model.Task{}, false
	}
	return p.FindTask(taskID)
}

// UpdatePark replaces the addressed park with fn's result. fn reports
// whether it changed anything; when it did not, the input is returned.
func UpdatePark(parks []model.Park, parkID string, fn func(model.Park) (model.Park, bool)) ([]model.Park, bool) {
	i := parkIndex(parks, parkID)
	if i < 0 {
		return parks, false
	}
	updated, changed := fn(parks[i])
	if !changed {
		return parks, false
	}
	out := slices.Clone(parks)
	out[i] = updated
	return out, true
}

// UpdateTask replaces the task addressed by (parkID, taskID) with fn's
// result. It is the one traversal shared by every per-task operation.
func UpdateTask(parks []model.Park, parkID, taskID string, fn func(model.Task) (model.Task, bool)) ([]model.Park, bool) {
	return UpdatePark(parks, parkID, func(p model.Park) (model.Park, bool) {
		j := taskIndex(p.Tasks, taskID)
		if j < 0 {
			return p, false
		}
		updated, changed := fn(p.Tasks[j])
		if !changed {
			return p, false
		}
		p.Tasks = slices.Clone(p.Tasks)
		p.Tasks[j] = updated
		return p, true
	})
}

// ToggleVolunteer adds name to the task's volunteers if absent and removes
// it if present.
func ToggleVolunteer(parks []model.Park, parkID, taskID, name string) []model.Park {
	out, _ := UpdateTask(parks, parkID, taskID, func(t model.Task) (model.Task, bool) {
		if i := slices.Index(t.Volunteers, name); i >= 0 {
			t.Volunteers = slices.Delete(slices.Clone(t.Volunteers), i, i+1)
		} else {
			// Full-capacity clone so append never writes into a shared array.
			t.Volunteers = append(slices.Clip(slices.Clone(t.Volunteers)), name)
		}
		return t, true
	})
	return out
}

// CompleteTask marks the task COMPLETED and returns its title. completed is
// false, and parks is returned unchanged, when the task is missing or was
// already completed; callers award points only when completed is true.
func CompleteTask(parks []model.Park, parkID, taskID string) (out []model.Park, title string, completed bool) {
	out, completed = UpdateTask(parks, parkID, taskID, func(t model.Task) (model.Task, bool) {
		if t.IsCompleted() {
			return t, false
		}
		t.Status = model.StatusCompleted
		title = t.Title
		return t, true
	})
	return out, title, completed
}

// DeleteTask removes the task from its park. Deleting a missing task is a
// no-op.
func DeleteTask(parks []model.Park, parkID, taskID string) []model.Park {
	out, _ := UpdatePark(parks, parkID, func(p model.Park) (model.Park, bool) {
		j := taskIndex(p.Tasks, taskID)
		if j < 0 {
			return p, false
		}
		p.Tasks = slices.Delete(slices.Clone(p.Tasks), j, j+1)
		return p, true
	})
	return out
}

// AppendTasks appends tasks, in order, to the end of the park's list.
// Tasks whose ID already exists in the park are skipped.
func AppendTasks(parks []model.Park, parkID string, tasks []model.Task) []model.Park {
	out, _ := UpdatePark(parks, parkID, func(p model.Park) (model.Park, bool) {
		next := slices.Clip(slices.Clone(p.Tasks))
		for _, t := range tasks {
			if taskIndex(next, t.ID) >= 0 {
				continue
			}
			next = append(next, t)
		}
		if len(next) == len(p.Tasks) {
			return p, false
		}
		p.Tasks = next
		return p, true
	})
	return out
}

// ReplaceAll returns a copy of next as the new park collection.
func ReplaceAll(next []model.Park) []model.Park {
	if next == nil {
		return []model.Park{}
	}
	return slices.Clone(next)
}

func parkIndex(parks []model.Park, id string) int {
	return slices.IndexFunc(parks, func(p model.Park) bool { return p.ID == id })
}

func taskIndex(tasks []model.Task, id string) int {
	return slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == id })
}
