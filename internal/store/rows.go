package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
)

// ErrRowNotFound is returned when a row does not exist or belongs to another user.
var ErrRowNotFound = &apperr.Error{Kind: apperr.KindNotFound, Op: "get row", Msg: "row not found"}

// RowStore persists generation results. Reads are scoped to the owner.
type RowStore struct {
	d *DB
}

func NewRowStore(d *DB) *RowStore {
	return &RowStore{d: d}
}

// SaveResult stores a generation result under executionID for userID.
func (s *RowStore) SaveResult(ctx context.Context, userID, executionID string, content model.RowContent) (*model.OgpRow, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode row content: %w", err)
	}
	row := &model.OgpRow{
		ID:               executionID,
		ExecutionID:      executionID,
		UserID:           userID,
		EncryptedContent: string(payload),
		CreatedAt:        time.Now().UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
		row.ExecutionID = row.ID
	}
	if err := s.CreateRow(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// CreateRow inserts row as is.
func (s *RowStore) CreateRow(ctx context.Context, row *model.OgpRow) error {
	if row == nil || row.ID == "" || row.UserID == "" {
		return errors.New("create row: id and user id are required")
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	_, err := s.d.db.ExecContext(ctx, s.d.rebind(fmt.Sprintf(
		`INSERT INTO %s (id, execution_id, user_id, encrypted_content, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.d.quotedRows())),
		row.ID, row.ExecutionID, row.UserID, row.EncryptedContent, row.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}

// GetRow returns the row with the given id (or execution id) when userID owns it.
func (s *RowStore) GetRow(ctx context.Context, userID, id string) (*model.OgpRow, error) {
	var (
		row     model.OgpRow
		created int64
	)
	err := s.d.db.QueryRowContext(ctx, s.d.rebind(fmt.Sprintf(
		`SELECT id, execution_id, user_id, encrypted_content, created_at FROM %s
		 WHERE (id = ? OR execution_id = ?) AND user_id = ?`, s.d.quotedRows())),
		id, id, userID).Scan(&row.ID, &row.ExecutionID, &row.UserID, &row.EncryptedContent, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row: %w", err)
	}
	row.CreatedAt = time.UnixMilli(created).UTC()
	return &row, nil
}

// DecodeRow unpacks the stored content of row.
func DecodeRow(row *model.OgpRow) (model.RowContent, error) {
	var c model.RowContent
	if err := json.Unmarshal([]byte(row.EncryptedContent), &c); err != nil {
		return c, fmt.Errorf("decode row content: %w", err)
	}
	return c, nil
}
