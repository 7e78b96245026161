package migrations

import "taxi-pet/internal/schema"

func createdPets() schema.Migration {
	return createCollection("1771803698_002_created_pets", PetsSchema)
}

// PetsSchema: toda operación exige userId = caller, incluido el alta.
func PetsSchema() *schema.Collection {
	owner := schema.FieldIsCaller("userId")
	return &schema.Collection{
		ID:   PetsID,
		Name: PetsCollection,
		Type: schema.TypeBase,
		Fields: []schema.Field{
			schema.IDField(),
			text("userId", true),
			text("name", true),
			schema.ImageField("photo"),
			text("phone", false),
			text("registration_number", false),
			number("age", false),
			text("animal_type", true),
			text("size", true),
			schema.CreatedField(),
			schema.UpdatedField(),
		},
		Rules: schema.Rules{
			List:   owner,
			View:   owner,
			Create: owner,
			Update: owner,
			Delete: owner,
		},
	}
}
