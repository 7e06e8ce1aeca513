package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	product interfaces.ProductStorage
	chat    interfaces.ChatStorage
	kv      interfaces.KeyValueStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		product: NewProductStorage(db, logger),
		chat:    NewChatStorage(db, logger),
		kv:      NewKVStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ProductStorage returns the product storage interface
func (m *Manager) ProductStorage() interfaces.ProductStorage {
	return m.product
}

// ChatStorage returns the chat storage interface
func (m *Manager) ChatStorage() interfaces.ChatStorage {
	return m.chat
}

// KeyValueStorage returns the key/value storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection
func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing Badger storage manager")
	return m.db.Close()
}
