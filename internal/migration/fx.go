package migration

import (
	activitydomain "github.com/billfold/billfold/internal/activity/domain"
	authdomain "github.com/billfold/billfold/internal/auth/domain"
	brandingdomain "github.com/billfold/billfold/internal/branding/domain"
	clientdomain "github.com/billfold/billfold/internal/client/domain"
	"github.com/billfold/billfold/internal/config"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// SQLite and MySQL installs lean on the model tags.
			return conn.AutoMigrate(
				&authdomain.User{},
				&authdomain.Session{},
				&clientdomain.Client{},
				&invoicedomain.Invoice{},
				&invoicedomain.LineItem{},
				&activitydomain.Event{},
				&brandingdomain.Branding{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
