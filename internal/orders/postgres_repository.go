package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/BITS4/babyshop/internal/domain"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO orders (id, user_id, email, name, address, phone, items, total, client_time, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.Email,
		order.Name,
		order.Address,
		order.Phone,
		itemsJSON,
		order.Total,
		order.ClientTime)

	if insertErr != nil {
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

const selectColumns = `id, user_id, email, name, address, phone, items, total, client_time, created_at`

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + selectColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *Repository) ListByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT ` + selectColumns + ` FROM orders
	          WHERE user_id = $1 ORDER BY created_at DESC NULLS LAST`
	return r.list(ctx, query, userID)
}

func (r *Repository) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	query := `SELECT ` + selectColumns + ` FROM orders
	          WHERE lower(email) = lower($1) ORDER BY created_at DESC NULLS LAST`
	return r.list(ctx, query, email)
}

func (r *Repository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + selectColumns + ` FROM orders ORDER BY created_at DESC NULLS LAST`
	return r.list(ctx, query)
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON []byte
	var createdAt sql.NullTime

	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Email,
		&order.Name,
		&order.Address,
		&order.Phone,
		&itemsJSON,
		&order.Total,
		&order.ClientTime,
		&createdAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if createdAt.Valid {
		order.CreatedAt = createdAt.Time
	}

	return &order, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
