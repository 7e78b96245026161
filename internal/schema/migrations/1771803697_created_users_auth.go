package migrations

import "taxi-pet/internal/schema"

func createdUsersAuth() schema.Migration {
	return createCollection("1771803697_001_created_users_auth", UsersSchema)
}

// UsersSchema es la colección auth: la identidad sólo se ve y modifica a sí misma;
// el alta (signup) es pública.
func UsersSchema() *schema.Collection {
	return &schema.Collection{
		ID:   UsersID,
		Name: UsersCollection,
		Type: schema.TypeAuth,
		Fields: []schema.Field{
			schema.IDField(),
			{Name: "email", Type: schema.FieldEmail, Required: true, Unique: true},
			{Name: "password", Type: schema.FieldPassword, Required: true, Hidden: true},
			// tokenKey va en cada token; rotarlo invalida todas las sesiones del usuario.
			{Name: "tokenKey", Type: schema.FieldText, Hidden: true},
			{Name: "verified", Type: schema.FieldBool},
			text("name", true),
			text("surname", true),
			text("phone", true),
			text("cpf", true),
			text("address", true),
			schema.ImageField("avatar"),
			number("rating", false),
			number("cachpet_balance", false),
			schema.CreatedField(),
			schema.UpdatedField(),
		},
		Rules: schema.Rules{
			List:   schema.IsSelf(),
			View:   schema.IsSelf(),
			Create: schema.Public(),
			Update: schema.IsSelf(),
			Delete: schema.IsSelf(),
		},
	}
}
