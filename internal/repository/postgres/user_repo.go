package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(id string) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Upsert создаёт пользователя или обновляет его профиль по ID.
// Вызывается на каждом логине, когда провайдер присылает свежие claims.
// Обновляются только профильные поля — счётчики наград не трогаем,
// иначе повторный логин обнулил бы рейтинг.
func (r *UserRepo) Upsert(user *entity.User) (*entity.User, error) {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"email":             user.Email,
			"first_name":        user.FirstName,
			"last_name":         user.LastName,
			"profile_image_url": user.ProfileImageURL,
			"updated_at":        time.Now(),
		}),
	}).Create(user).Error
	if err != nil {
		return nil, err
	}

	// Перечитываем строку, чтобы вернуть актуальные счётчики и таймстемпы
	return r.GetByID(user.ID)
}

// Update обновляет информацию о пользователе
func (r *UserRepo) Update(user *entity.User) error {
	return r.db.Save(user).Error
}

// GetTopPlayers возвращает пользователей для рейтинга.
// Сортируем по total_robux_earned DESC, затем events_won DESC,
// и ID для стабильного порядка при равенстве.
func (r *UserRepo) GetTopPlayers(limit int) ([]entity.User, error) {
	var users []entity.User
	err := r.db.
		Order("total_robux_earned DESC, events_won DESC, id ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}
