package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spinpoint/ttleague-backend/models"
	"github.com/spinpoint/ttleague-backend/repositories"
	"github.com/spinpoint/ttleague-backend/storage"
)

// --- Общие хелперы ---

// inTransaction выполняет fn внутри транзакции с корректным откатом
// при ошибке или панике.
func inTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}

// mapRepositoryError переводит sentinel-ошибки репозиториев в сервисные,
// чтобы хендлеры маппили только один слой.
func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrCompetitionNotFound):
		return ErrCompetitionNotFound
	case errors.Is(err, repositories.ErrGroupNotFound):
		return ErrGroupNotFound
	case errors.Is(err, repositories.ErrMatchNotFound), errors.Is(err, repositories.ErrKnockoutMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrPlayerNicknameConflict):
		return ErrPlayerNicknameConflict
	case errors.Is(err, repositories.ErrCompetitionNameConflict):
		return ErrCompetitionConflict
	case errors.Is(err, repositories.ErrCompetitionPlayerConflict):
		return ErrPlayerAlreadyJoined
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrUserEmailConflict
	default:
		return err
	}
}

// --- Хелперы для заполнения публичных URL аватаров ---

func populatePlayerImageURL(player *models.Player, uploader storage.FileUploader) {
	if player != nil && player.ImageKey != nil && *player.ImageKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*player.ImageKey)
		if url != "" {
			player.ImageURL = &url
		}
	}
}

func populatePlayerListImageURLs(players []*models.Player, uploader storage.FileUploader) {
	if uploader == nil {
		return
	}
	for _, p := range players {
		populatePlayerImageURL(p, uploader)
	}
}

// GetExtensionFromContentType возвращает расширение файла для известных
// image/* content-type'ов.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
