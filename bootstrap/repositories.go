package bootstrap

import (
	"regis_chat_backend/platform/database"
	"regis_chat_backend/repository"
)

// Repositories stay nil without a database so services can skip auditing.
type Repositories struct {
	ChatLogRepository           repository.ChatLogRepository
	GeneratedDocumentRepository repository.GeneratedDocumentRepository
}

func NewRepositories(db *database.DB) *Repositories {
	if db == nil {
		return &Repositories{}
	}
	gormDB := db.GetDatabase()
	return &Repositories{
		ChatLogRepository:           repository.NewChatLogRepository(gormDB),
		GeneratedDocumentRepository: repository.NewGeneratedDocumentRepository(gormDB),
	}
}
