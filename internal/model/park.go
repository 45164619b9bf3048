package model

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Park is a managed green space with a task backlog.
type Park struct {
	// ID is unique within the park collection.
	ID string `json:"id" yaml:"id" db:"id"`

	Name        string `json:"name" yaml:"name" db:"name"`
	Location    string `json:"location" yaml:"location" db:"location"`
	Description string `json:"description" yaml:"description" db:"description"`

	// Tasks is kept in insertion order.
	Tasks []Task `json:"tasks" yaml:"tasks" db:"-"`

	// MapURL is an optional external map link.
	MapURL string `json:"map_url,omitempty" yaml:"map_url,omitempty" db:"map_url"`

	// Lat and Lng are nil when the coordinate is unknown.
	Lat *float64 `json:"lat,omitempty" yaml:"lat,omitempty" db:"lat"`
	Lng *float64 `json:"lng,omitempty" yaml:"lng,omitempty" db:"lng"`
}

// Coordinates returns the park position when both components are known.
func (p Park) Coordinates() (Coordinates, bool) {
	if p.Lat == nil || p.Lng == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *p.Lat, Lng: *p.Lng}, true
}

// FindTask returns the task with the given ID.
func (p Park) FindTask(taskID string) (Task, bool) {
	for _, t := range p.Tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return Task{}, false
}

// OpenTasks returns the tasks that are not completed, in order.
func (p Park) OpenTasks() []Task {
	var open []Task
	for _, t := range p.Tasks {
		if !t.IsCompleted() {
			open = append(open, t)
		}
	}
	return open
}

// CompletedTasks returns the completed tasks, in order.
func (p Park) CompletedTasks() []Task {
	var done []Task
	for _, t := range p.Tasks {
		if t.IsCompleted() {
			done = append(done, t)
		}
	}
	return done
}
