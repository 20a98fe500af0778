package seed

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/auth/password"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@quizhive.dev"
	defaultAdminPassword = "admin"
	defaultAdminName     = "QuizHive Admin"
)

// EnsureSuperuser seeds the default superuser for startup bootstrap. The
// password comes from ADMIN_PASSWORD when set.
func EnsureSuperuser(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user userdomain.User
		err := tx.WithContext(ctx).
			Where("LOWER(email) = ?", strings.ToLower(defaultAdminEmail)).
			First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		plain := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))
		if plain == "" {
			plain = defaultAdminPassword
		}
		hashed, err := password.Hash(plain)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user = userdomain.User{
			ID:           node.Generate(),
			Email:        strings.ToLower(defaultAdminEmail),
			PasswordHash: hashed,
			FirstName:    defaultAdminName,
			Links:        datatypes.JSON("[]"),
			IsSuperuser:  true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}
