package storage

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/example/ride-marketplace/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) SaveRide(r *models.Ride) error {
	_, err := p.db.Exec(`INSERT INTO rides(id, owner_id, origin, destination, max_riders, riders, driver_id, status, is_driver_created, paid, created_at, updated_at) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		r.ID, r.OwnerID, r.Origin, r.Destination, r.MaxRiders, pq.Array(r.Riders), r.DriverID, string(r.Status), r.IsDriverCreated, pq.Array(r.Paid), r.CreatedAt, r.UpdatedAt)
	return err
}

func (p *PostgresStore) UpdateRide(r *models.Ride) error {
	_, err := p.db.Exec(`UPDATE rides SET riders=$1, driver_id=$2, status=$3, paid=$4, updated_at=$5 WHERE id=$6`,
		pq.Array(r.Riders), r.DriverID, string(r.Status), pq.Array(r.Paid), time.Now(), r.ID)
	return err
}

func (p *PostgresStore) SaveAccount(a *models.Account) error {
	_, err := p.db.Exec(`INSERT INTO accounts(owner_id, balance) VALUES($1,$2) ON CONFLICT (owner_id) DO UPDATE SET balance = EXCLUDED.balance`,
		a.OwnerID, a.Balance)
	return err
}
