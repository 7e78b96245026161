package pets

import (
	"strings"

	"taxi-pet/internal/schema"
)

const Collection = "pets"

// AnimalType es la categoría de la mascota.
// @Enum dog, cat, fish, parrot, lizard, rabbit, hamster, turtle, bird, other
type AnimalType string

const (
	AnimalDog     AnimalType = "dog"
	AnimalCat     AnimalType = "cat"
	AnimalFish    AnimalType = "fish"
	AnimalParrot  AnimalType = "parrot"
	AnimalLizard  AnimalType = "lizard"
	AnimalRabbit  AnimalType = "rabbit"
	AnimalHamster AnimalType = "hamster"
	AnimalTurtle  AnimalType = "turtle"
	AnimalBird    AnimalType = "bird"
	AnimalOther   AnimalType = "other"
)

var AnimalTypes = []AnimalType{
	AnimalDog, AnimalCat, AnimalFish, AnimalParrot, AnimalLizard,
	AnimalRabbit, AnimalHamster, AnimalTurtle, AnimalBird, AnimalOther,
}

// Size define el tamaño.
// @Enum small, medium, large
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

var Sizes = []Size{SizeSmall, SizeMedium, SizeLarge}

// Pet representa el perfil de una mascota de un usuario.
type Pet struct {
	ID     string
	UserID string

	Name               string
	Photo              string // nombre guardado; la URL la arma el cliente
	Phone              string
	RegistrationNumber string
	Age                *float64

	AnimalType AnimalType
	Size       Size

	Created string
	Updated string
}

func FromRecord(rec schema.Record) Pet {
	p := Pet{
		ID:                 rec.ID(),
		UserID:             rec.String("userId"),
		Name:               rec.String("name"),
		Photo:              rec.String("photo"),
		Phone:              rec.String("phone"),
		RegistrationNumber: rec.String("registration_number"),
		AnimalType:         AnimalType(rec.String("animal_type")),
		Size:               Size(rec.String("size")),
		Created:            rec.String("created"),
		Updated:            rec.String("updated"),
	}
	if age, ok := rec.Float("age"); ok {
		p.Age = &age
	}
	return p
}

// Record arma el input de create/update (sin id ni timestamps).
func (p Pet) Record() schema.Record {
	rec := schema.Record{
		"userId":              p.UserID,
		"name":                p.Name,
		"phone":               p.Phone,
		"registration_number": p.RegistrationNumber,
		"animal_type":         string(p.AnimalType),
		"size":                string(p.Size),
	}
	if p.Age != nil {
		rec["age"] = *p.Age
	}
	return rec
}

func ValidAnimalType(s string) bool {
	for _, t := range AnimalTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

func ValidSize(s string) bool {
	for _, v := range Sizes {
		if string(v) == s {
			return true
		}
	}
	return false
}

func joinAnimalTypes() string {
	out := make([]string, len(AnimalTypes))
	for i, t := range AnimalTypes {
		out[i] = string(t)
	}
	return strings.Join(out, ", ")
}
