package authRepository

import (
	"PoseCoach/internal/entity"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type Repository interface {
	NewClient(tx bool) (Client, error)
}

// Client exposes the user queries bound either to the pool or to a single
// transaction. Commit and Rollback are no-ops outside a transaction.
type Client struct {
	Users interface {
		CreateUser(ctx context.Context, user entity.User) error
		GetByID(ctx context.Context, id string) (entity.User, error)
		GetByEmail(ctx context.Context, email string) (entity.User, error)
	}

	Commit   func() error
	Rollback func() error
}

type repository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{db: db, log: log}
}

func (r *repository) NewClient(tx bool) (Client, error) {
	noop := func() error { return nil }

	if !tx {
		return Client{
			Users:    &userRepository{q: r.db, log: r.log},
			Commit:   noop,
			Rollback: noop,
		}, nil
	}

	txx, err := r.db.Beginx()
	if err != nil {
		return Client{}, err
	}

	return Client{
		Users:    &userRepository{q: txx, log: r.log},
		Commit:   txx.Commit,
		Rollback: txx.Rollback,
	}, nil
}

type userRepository struct {
	q interface {
		sqlx.ExtContext
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	}
	log *logrus.Logger
}
