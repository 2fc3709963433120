// Package devstore is a SQLite backed member directory for development
// kiosks and the development server.
package devstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/model"
)

// DefaultPublicBase is where label QR codes point.
const DefaultPublicBase = "HTTP://API.MAKERSPACE.SE/L/"

// Mock member seeded into new stores.
const (
	MockMemberNumber = 9999
	MockTag          = "123456789"
	MockPin          = "1234"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
	// PublicBase prefixes label ids to form their public URL.
	PublicBase string
	// PinCost is the bcrypt cost for new PIN hashes.
	PinCost int
}

// DefaultPath returns ~/.memberbooth/devstore.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".memberbooth", "devstore.db"), nil
}

// Open opens or creates the store at path and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, PublicBase: DefaultPublicBase, PinCost: bcrypt.DefaultCost}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Seed adds the mock member unless it already exists.
func (s *Store) Seed(ctx context.Context) error {
	_, err := s.MemberByNumber(ctx, MockMemberNumber)
	if err == nil {
		return nil
	}
	if !errors.Is(err, directory.ErrNoMatchingIdentity) {
		return err
	}
	return s.AddMember(ctx, MockMember(), MockTag, MockPin)
}

// MockMember returns the member used in development.
func MockMember() model.Member {
	date := func(s string) *time.Time {
		d, _ := time.ParseInLocation("2006-01-02", s, time.Local)
		t := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.Local)
		return &t
	}
	return model.Member{
		FirstName:          "Firstname",
		LastName:           "Lastname",
		Number:             MockMemberNumber,
		Membership:         model.EndDate{Active: true, End: date("2025-12-31")},
		LabAccess:          model.EndDate{Active: true, End: date("2023-06-30")},
		SpecialLabAccess:   model.EndDate{Active: false},
		EffectiveLabAccess: model.EndDate{Active: true, End: date("2023-06-30")},
	}
}

// AddMember inserts or replaces a member with an optional key tag and PIN.
func (s *Store) AddMember(ctx context.Context, m model.Member, tag, pin string) error {
	data, err := json.Marshal(m.Data().MembershipData)
	if err != nil {
		return err
	}

	var pinHash sql.NullString
	if pin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.PinCost)
		if err != nil {
			return fmt.Errorf("hash pin: %w", err)
		}
		pinHash = sql.NullString{String: string(hash), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO members (member_number, firstname, lastname, membership_data, pin_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(member_number) DO UPDATE SET
			firstname = excluded.firstname,
			lastname = excluded.lastname,
			membership_data = excluded.membership_data,
			pin_hash = excluded.pin_hash`,
		m.Number, m.FirstName, m.LastName, string(data), pinHash)
	if err != nil {
		return fmt.Errorf("insert member %d: %w", m.Number, err)
	}

	if tag != "" {
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO keys (tagid, member_number) VALUES (?, ?)`, tag, m.Number)
		if err != nil {
			return fmt.Errorf("insert key %s: %w", tag, err)
		}
	}
	return tx.Commit()
}

// Check always succeeds; the store needs no token.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// MemberByTag looks up the owner of a key tag.
func (s *Store) MemberByTag(ctx context.Context, tag string) (model.Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT m.member_number, m.firstname, m.lastname, m.membership_data
		FROM keys k JOIN members m ON m.member_number = k.member_number
		WHERE k.tagid = ?`, tag)
	m, _, err := scanMember(row)
	return m, err
}

// MemberByNumber looks up a member by number.
func (s *Store) MemberByNumber(ctx context.Context, number int) (model.Member, error) {
	m, _, err := s.memberRow(ctx, number)
	return m, err
}

// MemberByNumberAndPIN checks the member's PIN against its hash.
func (s *Store) MemberByNumberAndPIN(ctx context.Context, number int, pin string) (model.Member, error) {
	m, hash, err := s.memberRow(ctx, number)
	if err != nil {
		return model.Member{}, err
	}
	if !hash.Valid || bcrypt.CompareHashAndPassword([]byte(hash.String), []byte(pin)) != nil {
		return model.Member{}, directory.ErrIncorrectPin
	}
	return m, nil
}

func (s *Store) memberRow(ctx context.Context, number int) (model.Member, sql.NullString, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT member_number, firstname, lastname, membership_data, pin_hash
		FROM members WHERE member_number = ?`, number)
	return scanMemberWithPin(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (model.Member, sql.NullString, error) {
	var (
		d    model.MemberData
		n    int
		data string
	)
	if err := row.Scan(&n, &d.FirstName, &d.LastName, &data); err != nil {
		return model.Member{}, sql.NullString{}, notFound(err)
	}
	return toMember(d, n, data, sql.NullString{})
}

func scanMemberWithPin(row scanner) (model.Member, sql.NullString, error) {
	var (
		d    model.MemberData
		n    int
		data string
		hash sql.NullString
	)
	if err := row.Scan(&n, &d.FirstName, &d.LastName, &data, &hash); err != nil {
		return model.Member{}, sql.NullString{}, notFound(err)
	}
	return toMember(d, n, data, hash)
}

func toMember(d model.MemberData, n int, data string, hash sql.NullString) (model.Member, sql.NullString, error) {
	d.MemberNumber = &n
	d.MembershipData = &model.MembershipData{}
	if err := json.Unmarshal([]byte(data), d.MembershipData); err != nil {
		return model.Member{}, hash, fmt.Errorf("%w: %v", model.ErrBackendParse, err)
	}
	m, err := d.Member()
	return m, hash, err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return directory.ErrNoMatchingIdentity
	}
	return err
}

// UploadLabel stores l and returns it with its public URL.
func (s *Store) UploadLabel(ctx context.Context, l model.Label) (model.UploadedLabel, error) {
	body, err := model.MarshalLabel(l)
	if err != nil {
		return model.UploadedLabel{}, err
	}
	b := l.Base()
	url := s.PublicBase + strconv.FormatUint(b.ID, 10)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO labels (id, member_number, kind, public_url, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		int64(b.ID), b.MemberNumber, string(l.Kind()), url, string(body), b.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return model.UploadedLabel{}, fmt.Errorf("insert label %d: %w", b.ID, err)
	}
	return model.UploadedLabel{PublicURL: url, Label: l}, nil
}

// Label returns a stored label by id.
func (s *Store) Label(ctx context.Context, id uint64) (model.UploadedLabel, error) {
	var url, body string
	err := s.db.QueryRowContext(ctx,
		`SELECT public_url, body FROM labels WHERE id = ?`, int64(id)).Scan(&url, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UploadedLabel{}, fmt.Errorf("label %d: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return model.UploadedLabel{}, err
	}
	l, err := model.UnmarshalLabel([]byte(body))
	if err != nil {
		return model.UploadedLabel{}, err
	}
	return model.UploadedLabel{PublicURL: url, Label: l}, nil
}

// LabelsFor lists the ids of a member's labels, newest first.
func (s *Store) LabelsFor(ctx context.Context, number int) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM labels WHERE member_number = ? ORDER BY created_at DESC, id`, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, uint64(id))
	}
	return ids, rows.Err()
}

// NewToken creates and stores a random API token.
func (s *Store) NewToken(ctx context.Context) (string, error) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.AddToken(ctx, token); err != nil {
		return "", err
	}
	return token, nil
}

// AddToken stores an API token.
func (s *Store) AddToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tokens (token, created_at) VALUES (?, ?)`,
		token, time.Now().Format(time.RFC3339))
	return err
}

// ValidToken reports whether token was issued by this store.
func (s *Store) ValidToken(ctx context.Context, token string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens WHERE token = ?`, token).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
