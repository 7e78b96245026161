package migrations

import "taxi-pet/internal/schema"

func initialAppSettings() schema.Migration {
	return schema.Migration{
		Name: "1759383931_initial_app_settings",
		Up: func(app schema.App) error {
			s := app.Settings()
			s.AppName = "Taxi Pet"
			s.AppURL = "http://localhost:8080"
			s.HideControls = true

			s.LogsMaxDays = 7
			s.LogsMinLevel = 8
			s.LogIP = true

			s.TrustedProxyHeaders = []string{
				"X-Real-IP",
				"X-Forwarded-For",
				"CF-Connecting-IP",
			}
			return app.SaveSettings(s)
		},
		Down: func(app schema.App) error {
			return app.SaveSettings(schema.Settings{})
		},
	}
}
