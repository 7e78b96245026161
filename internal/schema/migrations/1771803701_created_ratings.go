package migrations

import "taxi-pet/internal/schema"

func createdRatings() schema.Migration {
	return createCollection("1771803701_002_created_ratings", RatingsSchema)
}

// RatingsSchema: sólo quien califica crea/edita/borra; ambas partes pueden leer.
func RatingsSchema() *schema.Collection {
	rater := schema.FieldIsCaller("ratedBy")
	party := schema.AnyOf(rater, schema.FieldIsCaller("ratedUser"))
	return &schema.Collection{
		ID:   RatingsID,
		Name: RatingsCollection,
		Type: schema.TypeBase,
		Fields: []schema.Field{
			schema.IDField(),
			text("rideId", true),
			text("ratedBy", true),
			text("ratedUser", true),
			{Name: "rating", Type: schema.FieldNumber, Required: true, Min: schema.Bound(0), Max: schema.Bound(5)},
			text("comment", false),
			schema.CreatedField(),
			schema.UpdatedField(),
		},
		Rules: schema.Rules{
			List:   party,
			View:   party,
			Create: rater,
			Update: rater,
			Delete: rater,
		},
	}
}
