package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
)

type userDAO DB

func (s *userDAO) Insert(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, api_token, crm_provider, crm_connected, crm_access_token, crm_refresh_token, crm_instance_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.APIToken, u.CRM.Provider, boolToInt(u.CRM.Connected),
		u.CRM.AccessToken, u.CRM.RefreshToken, u.CRM.InstanceURL, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *userDAO) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.get(ctx, `WHERE id = ?`, id)
}

func (s *userDAO) GetByAPIToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}
	return s.get(ctx, `WHERE api_token = ?`, token)
}

func (s *userDAO) get(ctx context.Context, where string, arg any) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, api_token, crm_provider, crm_connected, crm_access_token, crm_refresh_token, crm_instance_url, created_at, updated_at
		FROM users `+where, arg)

	var u model.User
	var connected int
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.APIToken, &u.CRM.Provider, &connected,
		&u.CRM.AccessToken, &u.CRM.RefreshToken, &u.CRM.InstanceURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	u.CRM.Connected = connected != 0
	return &u, nil
}

func (s *userDAO) SaveCRMCredential(ctx context.Context, userID string, cred model.CRMCredential) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET crm_provider = ?, crm_connected = ?, crm_access_token = ?, crm_refresh_token = ?, crm_instance_url = ?, updated_at = ?
		WHERE id = ?`,
		cred.Provider, boolToInt(cred.Connected), cred.AccessToken, cred.RefreshToken,
		cred.InstanceURL, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("save crm credential: %w", err)
	}
	return requireRowAffected(res)
}

func (s *userDAO) ClearCRMCredential(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET crm_provider = '', crm_connected = 0, crm_access_token = '', crm_refresh_token = '', crm_instance_url = '', updated_at = ?
		WHERE id = ?`, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("clear crm credential: %w", err)
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
