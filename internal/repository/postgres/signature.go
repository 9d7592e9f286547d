package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"
)

type signatureRepository struct {
	q Querier
}

func NewSignatureRepository(q Querier) repository.SignatureRepository {
	return &signatureRepository{q: q}
}

const userSignatureColumns = `id, user_id, image_cipher, image_iv, render_url, is_active, valid_from, valid_until, created_on, updated_on`

func (r *signatureRepository) CreateUserSignature(ctx context.Context, s *domain.UserSignature) error {
	query := `INSERT INTO user_signatures (user_id, image_cipher, image_iv, render_url, is_active, valid_from, valid_until, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now()
	s.CreatedOn = now
	s.UpdatedOn = now
	return r.q.QueryRowContext(ctx, query, s.UserID, s.ImageCipher, s.ImageIV, s.RenderURL,
		s.IsActive, s.ValidFrom, s.ValidUntil, now, now).Scan(&s.ID)
}

func (r *signatureRepository) GetActiveUserSignature(ctx context.Context, userID int64) (*domain.UserSignature, error) {
	query := `SELECT ` + userSignatureColumns + ` FROM user_signatures WHERE user_id = $1 AND is_active`
	return r.scanUserSignature(r.q.QueryRowContext(ctx, query, userID))
}

func (r *signatureRepository) GetUserSignature(ctx context.Context, id int64) (*domain.UserSignature, error) {
	query := `SELECT ` + userSignatureColumns + ` FROM user_signatures WHERE id = $1`
	return r.scanUserSignature(r.q.QueryRowContext(ctx, query, id))
}

func (r *signatureRepository) scanUserSignature(row *sql.Row) (*domain.UserSignature, error) {
	s := &domain.UserSignature{}
	err := row.Scan(&s.ID, &s.UserID, &s.ImageCipher, &s.ImageIV, &s.RenderURL, &s.IsActive,
		&s.ValidFrom, &s.ValidUntil, &s.CreatedOn, &s.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("signature not found")
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *signatureRepository) UpdateUserSignature(ctx context.Context, s *domain.UserSignature) error {
	query := `UPDATE user_signatures SET image_cipher=$1, image_iv=$2, render_url=$3, is_active=$4,
	            valid_from=$5, valid_until=$6, updated_on=$7 WHERE id=$8`
	s.UpdatedOn = time.Now()
	_, err := r.q.ExecContext(ctx, query, s.ImageCipher, s.ImageIV, s.RenderURL, s.IsActive,
		s.ValidFrom, s.ValidUntil, s.UpdatedOn, s.ID)
	return err
}

func (r *signatureRepository) CountValidReferences(ctx context.Context, signatureID int64) (int32, error) {
	var count int32
	query := `SELECT count(*) FROM contract_signatures WHERE signature_id = $1 AND is_valid`
	err := r.q.QueryRowContext(ctx, query, signatureID).Scan(&count)
	return count, err
}

func (r *signatureRepository) CreateContractSignature(ctx context.Context, cs *domain.ContractSignature) error {
	query := `INSERT INTO contract_signatures (contract_id, signer_id, signature_id, signed_at, is_valid, position_x, position_y, verification_note)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return r.q.QueryRowContext(ctx, query, cs.ContractID, cs.SignerID, cs.SignatureID, cs.SignedAt,
		cs.IsValid, cs.PositionX, cs.PositionY, cs.VerificationNote).Scan(&cs.ID)
}

func (r *signatureRepository) GetContractSignature(ctx context.Context, contractID, signerID int64) (*domain.ContractSignature, error) {
	query := `SELECT id, contract_id, signer_id, signature_id, signed_at, is_valid, position_x, position_y, verification_note
	          FROM contract_signatures WHERE contract_id = $1 AND signer_id = $2`
	cs := &domain.ContractSignature{}
	err := r.q.QueryRowContext(ctx, query, contractID, signerID).Scan(&cs.ID, &cs.ContractID, &cs.SignerID,
		&cs.SignatureID, &cs.SignedAt, &cs.IsValid, &cs.PositionX, &cs.PositionY, &cs.VerificationNote)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("contract signature not found")
	}
	if err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *signatureRepository) UpdateContractSignaturePosition(ctx context.Context, id int64, x, y float64) error {
	query := `UPDATE contract_signatures SET position_x=$1, position_y=$2 WHERE id=$3`
	_, err := r.q.ExecContext(ctx, query, x, y, id)
	return err
}

func (r *signatureRepository) ListByContract(ctx context.Context, contractID int64) ([]domain.ContractSignature, error) {
	query := `SELECT id, contract_id, signer_id, signature_id, signed_at, is_valid, position_x, position_y, verification_note
	          FROM contract_signatures WHERE contract_id = $1 ORDER BY signed_at`
	rows, err := r.q.QueryContext(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sigs []domain.ContractSignature
	for rows.Next() {
		var cs domain.ContractSignature
		if err := rows.Scan(&cs.ID, &cs.ContractID, &cs.SignerID, &cs.SignatureID, &cs.SignedAt,
			&cs.IsValid, &cs.PositionX, &cs.PositionY, &cs.VerificationNote); err != nil {
			return nil, err
		}
		sigs = append(sigs, cs)
	}
	return sigs, rows.Err()
}

func (r *signatureRepository) CountValidByContract(ctx context.Context, contractID int64) (int32, error) {
	var count int32
	query := `SELECT count(*) FROM contract_signatures WHERE contract_id = $1 AND is_valid`
	err := r.q.QueryRowContext(ctx, query, contractID).Scan(&count)
	return count, err
}
