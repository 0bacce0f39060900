package db

import (
	"fmt"

	"github.com/minzf581/IPProxy-sub000/pkg/config"
)

func GetDBDSN(config *config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		config.User,
		config.Password,
		config.Host,
		config.Port,
		config.DBName,
		config.SSLMode,
	)
}
