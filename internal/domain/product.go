package domain

// Product represents a product in the catalog
type Product struct {
	ID          string
	Name        string
	Category    string // category id
	Price       float64
	Description string
	Active      bool
}

// NewProduct builds an active product. An empty id is filled in on creation.
func NewProduct(id, name, category string, price float64, description string) Product {
	return Product{
		ID:          id,
		Name:        name,
		Category:    category,
		Price:       price,
		Description: description,
		Active:      true,
	}
}

// ProductChanges is a partial update of a product. Nil fields are left untouched.
type ProductChanges struct {
	Name        *string
	Category    *string
	Price       *float64
	Description *string
	Active      *bool
}

// IsEmpty reports whether no field is set.
func (c ProductChanges) IsEmpty() bool {
	return c.Name == nil && c.Category == nil && c.Price == nil && c.Description == nil && c.Active == nil
}

// Apply returns p with every supplied change applied.
func (c ProductChanges) Apply(p Product) Product {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Category != nil {
		p.Category = *c.Category
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Active != nil {
		p.Active = *c.Active
	}
	return p
}

// Category represents a product category
type Category struct {
	ID   string
	Name string
}
