package migrations

import "taxi-pet/internal/schema"

func createdSearchHistory() schema.Migration {
	return createCollection("1771803702_003_created_search_history", SearchHistorySchema)
}

func SearchHistorySchema() *schema.Collection {
	owner := schema.FieldIsCaller("userId")
	return &schema.Collection{
		ID:   HistoryID,
		Name: HistoryCollection,
		Type: schema.TypeBase,
		Fields: []schema.Field{
			schema.IDField(),
			text("userId", true),
			text("address", true),
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
