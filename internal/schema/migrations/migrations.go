// Package migrations declara las colecciones de Taxi Pet, en el orden en que se aplican.
package migrations

import "taxi-pet/internal/schema"

// Nombres e ids estables de las colecciones.
const (
	UsersCollection   = "users"
	UsersID           = "_pb_users_auth_"
	PetsCollection    = "pets"
	PetsID            = "pbc_7085220261"
	RatingsCollection = "ratings"
	RatingsID         = "pbc_4090855698"
	HistoryCollection = "search_history"
	HistoryID         = "pbc_3318750412"
)

// All devuelve todas las migraciones; el Migrator las ordena por nombre.
func All() []schema.Migration {
	return []schema.Migration{
		initialAppSettings(),
		createdUsersAuth(),
		createdPets(),
		createdRatings(),
		createdSearchHistory(),
	}
}

// createCollection arma el par Up/Down simétrico: Up guarda, Down borra lo mismo.
func createCollection(name string, build func() *schema.Collection) schema.Migration {
	return schema.Migration{
		Name: name,
		Up: func(app schema.App) error {
			return app.Save(build())
		},
		Down: func(app schema.App) error {
			c, err := app.FindCollection(build().ID)
			if err != nil {
				return err
			}
			return app.Delete(c)
		},
	}
}

func text(name string, required bool) schema.Field {
	return schema.Field{Name: name, Type: schema.FieldText, Required: required}
}

func number(name string, required bool) schema.Field {
	return schema.Field{Name: name, Type: schema.FieldNumber, Required: required}
}
