package products

// Form field names shared by the create form and the edit modal.
const (
	FieldName        = "name"
	FieldPrice       = "price"
	FieldDescription = "description"
)

// Fields lists the editable draft fields in display order.
var Fields = []string{FieldName, FieldPrice, FieldDescription}

// Draft holds form values exactly as typed.
type Draft struct {
	Name        string `validate:"required"`
	Price       string `validate:"required"`
	Description string
}

// Set updates the named field. It reports false for unknown fields.
func (d *Draft) Set(field, value string) bool {
	switch field {
	case FieldName:
		d.Name = value
	case FieldPrice:
		d.Price = value
	case FieldDescription:
		d.Description = value
	default:
		return false
	}
	return true
}

// IsEmpty reports whether every field is blank.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// DraftFromProduct seeds a draft with the editable fields of p.
func DraftFromProduct(p Product) Draft {
	return Draft{
		Name:        p.Name,
		Price:       p.Price.String(),
		Description: p.Description,
	}
}
