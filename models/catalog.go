package models

// Specialty is one lesson type a professor teaches, with its per-class price.
// Field names follow the catalog documents the admin panel writes.
type Specialty struct {
	TypeDance     string  `json:"typeDance" bson:"typeDance"`
	PricePerClass float64 `json:"pricePerClass" bson:"pricePerClass"`
}

// Professor is the read-only catalog view of an instructor. The booking flow
// needs the name (agenda key), the specialties (pricing) and the PIX key.
type Professor struct {
	ID          string      `json:"_id,omitempty" bson:"_id,omitempty"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Email       string      `json:"email,omitempty" bson:"email,omitempty"`
	Specialties []Specialty `json:"specialties" bson:"specialties"`
	Picture     string      `json:"picture,omitempty" bson:"picture,omitempty"`
	Pix         string      `json:"pix,omitempty" bson:"pix,omitempty"`
}

// SpecialtyPrice returns the price for a named specialty, if the professor
// teaches it.
func (p Professor) SpecialtyPrice(typeDance string) (float64, bool) {
	for _, s := range p.Specialties {
		if s.TypeDance == typeDance {
			return s.PricePerClass, true
		}
	}
	return 0, false
}

// Product is a purchasable catalog item unrelated to the agenda.
type Product struct {
	ID          string   `json:"_id,omitempty" bson:"_id,omitempty"`
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64  `json:"price" bson:"price"`
	Images      []string `json:"images,omitempty" bson:"images,omitempty"`
}

// PackageProfessor ties a professor and a class quantity into a package.
type PackageProfessor struct {
	Name             string `json:"name" bson:"name"`
	QuantityClassess int    `json:"quantityClassess" bson:"quantityClassess"`
	Image            string `json:"image,omitempty" bson:"image,omitempty"`
}

// Package is a multi-class bundle spanning one or more professors.
type Package struct {
	ID          string             `json:"_id,omitempty" bson:"_id,omitempty"`
	PackageName string             `json:"packageName" bson:"packageName"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64            `json:"price" bson:"price"`
	Professors  []PackageProfessor `json:"professors,omitempty" bson:"professors,omitempty"`
}
