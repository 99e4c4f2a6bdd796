// Package store persists memberships and admin accounts in PostgreSQL and
// mirrors memberships into the optional search index.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Schema is applied at startup through database.PostgresClient.EnsureSchema.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS memberships (
		id                UUID PRIMARY KEY,
		created_at        TIMESTAMPTZ NOT NULL,
		first_name        TEXT NOT NULL,
		middle_name       TEXT NOT NULL DEFAULT '',
		last_name         TEXT NOT NULL,
		nickname          TEXT NOT NULL,
		email             TEXT NOT NULL,
		phone             TEXT NOT NULL,
		birth_date        DATE,
		address1          TEXT NOT NULL,
		address2          TEXT NOT NULL DEFAULT '',
		city              TEXT NOT NULL,
		state             TEXT NOT NULL,
		zip_code          TEXT NOT NULL,
		referral_source   TEXT NOT NULL,
		referrer_name     TEXT NOT NULL DEFAULT '',
		is_dbn_member     TEXT NOT NULL,
		birth_city_state  TEXT NOT NULL,
		membership_status TEXT NOT NULL,
		membership_level  TEXT NOT NULL,
		shirt_size        TEXT NOT NULL,
		jacket_size       TEXT NOT NULL,
		coupon_code       TEXT NOT NULL DEFAULT '',
		terms_accepted    BOOLEAN NOT NULL,
		total_price       NUMERIC(10,2) NOT NULL,
		payment_intent_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS memberships_created_at_idx ON memberships (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS admin_users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
}

const membershipColumns = `id, created_at, first_name, middle_name, last_name, nickname, email, phone,
	COALESCE(to_char(birth_date, 'YYYY-MM-DD'), ''), address1, address2, city, state, zip_code,
	referral_source, referrer_name, is_dbn_member, birth_city_state, membership_status,
	membership_level, shirt_size, jacket_size, coupon_code, terms_accepted, total_price, payment_intent_id`

// PostgresStore implements models.MembershipRepository and
// models.AdminUserRepository.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log, now: time.Now}
}

var (
	_ models.MembershipRepository = (*PostgresStore)(nil)
	_ models.AdminUserRepository  = (*PostgresStore)(nil)
)

// InsertMembership assigns the id and creation time and stores the row.
func (s *PostgresStore) InsertMembership(ctx context.Context, m *models.Membership) (*models.Membership, error) {
	row := *m
	row.ID = uuid.New().String()
	row.CreatedAt = s.now().UTC()

	var birth interface{}
	if row.BirthDate != "" {
		birth = row.BirthDate
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (
			id, created_at, first_name, middle_name, last_name, nickname, email, phone,
			birth_date, address1, address2, city, state, zip_code, referral_source,
			referrer_name, is_dbn_member, birth_city_state, membership_status,
			membership_level, shirt_size, jacket_size, coupon_code, terms_accepted,
			total_price, payment_intent_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		row.ID, row.CreatedAt, row.FirstName, row.MiddleName, row.LastName, row.Nickname,
		row.Email, row.Phone, birth, row.Address1, row.Address2, row.City, row.State,
		row.ZipCode, row.ReferralSource, row.ReferrerName, row.IsDbnMember,
		row.BirthCityState, row.MembershipStatus, row.MembershipLevel, row.ShirtSize,
		row.JacketSize, row.CouponCode, row.TermsAccepted, row.TotalPrice, row.PaymentIntentID,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("membership stored", map[string]interface{}{
		"membershipId":    row.ID,
		"paymentIntentId": row.PaymentIntentID,
	})
	return &row, nil
}

// ListMemberships returns every row, newest first.
func (s *PostgresStore) ListMemberships(ctx context.Context) ([]*models.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list memberships", err)
	}
	defer rows.Close()
	return scanMemberships(rows)
}

func scanMemberships(rows *sql.Rows) ([]*models.Membership, error) {
	out := []*models.Membership{}
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(
			&m.ID, &m.CreatedAt, &m.FirstName, &m.MiddleName, &m.LastName, &m.Nickname,
			&m.Email, &m.Phone, &m.BirthDate, &m.Address1, &m.Address2, &m.City, &m.State,
			&m.ZipCode, &m.ReferralSource, &m.ReferrerName, &m.IsDbnMember, &m.BirthCityState,
			&m.MembershipStatus, &m.MembershipLevel, &m.ShirtSize, &m.JacketSize,
			&m.CouponCode, &m.TermsAccepted, &m.TotalPrice, &m.PaymentIntentID,
		); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan membership", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("iterate memberships", err)
	}
	return out, nil
}

// CreateAdminUser stores a new admin account. Emails are stored lower case.
func (s *PostgresStore) CreateAdminUser(ctx context.Context, email, passwordHash string) (*models.AdminUser, error) {
	u := &models.AdminUser{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, errors.NewValidationError(map[string]string{"email": "An admin with this email already exists"})
		}
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	return u, nil
}

// FindAdminByEmail returns RESOURCE_NOT_FOUND when no account matches.
func (s *PostgresStore) FindAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM admin_users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("admin_users", email)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("find admin", err)
	}
	return &u, nil
}
