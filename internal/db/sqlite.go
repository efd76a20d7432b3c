package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/RichardoC/dentalchat/internal/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS leads (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    insurance_provider TEXT NOT NULL DEFAULT '',
    fields TEXT NOT NULL DEFAULT '{}',
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS leads_kind_created ON leads(kind, created_at);

CREATE TABLE IF NOT EXISTS contact_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL,
    contact_preference TEXT NOT NULL DEFAULT '',
    appointment_type TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

func (db *Database) Close() error {
	return db.db.Close()
}

func (db *Database) Ping() error {
	return db.db.Ping()
}

func (db *Database) SaveLead(lead *models.Lead) error {
	fields, err := json.Marshal(lead.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode lead fields: %w", err)
	}

	_, err = db.db.Exec(`
        INSERT INTO leads (id, kind, name, email, phone, insurance_provider, fields, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID.String(), string(lead.Kind), lead.Name, lead.Email,
		lead.Phone, lead.InsuranceProvider, string(fields), lead.CreatedAt.UTC())
	return err
}

// ListLeads returns the most recent leads first. An empty kind matches all.
func (db *Database) ListLeads(kind models.LeadKind, limit int) ([]models.Lead, error) {
	query := `
        SELECT id, kind, name, email, phone, insurance_provider, fields, created_at
        FROM leads`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]models.Lead, 0)
	for rows.Next() {
		var (
			lead   models.Lead
			id     string
			kind   string
			fields string
		)
		if err := rows.Scan(&id, &kind, &lead.Name, &lead.Email, &lead.Phone, &lead.InsuranceProvider, &fields, &lead.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		if lead.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid lead id %q: %w", id, err)
		}
		lead.Kind = models.LeadKind(kind)
		if err := json.Unmarshal([]byte(fields), &lead.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode lead fields: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (db *Database) SaveContactMessage(msg *models.ContactMessage) error {
	query := `
        INSERT INTO contact_messages (first_name, last_name, email, phone, message, contact_preference, appointment_type, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
        RETURNING id, created_at`

	return db.db.QueryRow(query, msg.FirstName, msg.LastName, msg.Email, msg.Phone,
		msg.Message, msg.ContactPreference, msg.AppointmentType).Scan(&msg.ID, &msg.CreatedAt)
}

func (db *Database) GetContactMessages(limit int) ([]models.ContactMessage, error) {
	rows, err := db.db.Query(`
        SELECT id, first_name, last_name, email, phone, message, contact_preference, appointment_type, created_at
        FROM contact_messages
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ContactMessage, 0)
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.Message,
			&m.ContactPreference, &m.AppointmentType, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
