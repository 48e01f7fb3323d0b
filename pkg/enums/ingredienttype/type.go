package ingredienttype

type Type struct {
	Name  string
	label string
}

func (t Type) Code() string {
	return t.Name
}

// Label is the catalog tab caption for the type.
func (t Type) Label() string {
	return t.label
}

type Enum struct {
	Bun   Type
	Sauce Type
	Main  Type
}

var Types = Enum{
	Bun:   Type{Name: "bun", label: "Buns"},
	Sauce: Type{Name: "sauce", label: "Sauces"},
	Main:  Type{Name: "main", label: "Fillings"},
}

// All lists the types in catalog display order.
var All = []Type{
	Types.Bun,
	Types.Sauce,
	Types.Main,
}

// ByName returns the type for a given name, or nil if not found
func ByName(name string) *Type {
	for _, t := range All {
		if t.Name == name {
			return &t
		}
	}
	return nil
}
