package persistence

import (
	"errors"

	"github.com/pos/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate is the row lock taken by the *ForUpdate finders.
// SQLite ignores it; PostgreSQL renders SELECT ... FOR UPDATE.
var lockForUpdate = clause.Locking{Strength: "UPDATE"}

// translateNotFound maps gorm.ErrRecordNotFound to a NOT_FOUND domain error
// naming the resource; other errors pass through.
func translateNotFound(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource, id)
	}
	return err
}
