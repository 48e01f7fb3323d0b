package orderstatus

type Status struct {
	Name  string
	label string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	return s.label
}

// Finished reports whether the kitchen is done with the order.
func (s Status) Finished() bool {
	return s.Name == Statuses.Done.Name
}

type Enum struct {
	Created Status
	Pending Status
	Done    Status
}

var Statuses = Enum{
	Created: Status{Name: "created", label: "Created"},
	Pending: Status{Name: "pending", label: "Preparing"},
	Done:    Status{Name: "done", label: "Done"},
}

var All = []Status{
	Statuses.Created,
	Statuses.Pending,
	Statuses.Done,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// LabelFor returns the display label for a raw status name, falling back to
// the name itself for statuses the feed may add later.
func LabelFor(name string) string {
	if s := ByName(name); s != nil {
		return s.Label()
	}
	return name
}
