package storage

import (
	"fmt"
	"strings"

	"taskboard/internal/manager"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Open создает бэкенд по имени драйвера из конфига.
// Оба варианта живут только в памяти процесса.
func Open(driver string) (manager.Storage, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return manager.NewMemoryStorage(), nil
	case DriverSQLite:
		return NewSQLiteStorage(":memory:")
	}
	return nil, fmt.Errorf("неизвестный драйвер хранилища: %q", driver)
}
