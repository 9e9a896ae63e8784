package postgres

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users *UserStore
}

// NewRepositories wires all repositories backed by the provided executor, normally a *pgxpool.Pool.
func NewRepositories(exec pgExecutor) *Repositories {
	return &Repositories{
		Users: NewUserStore(exec),
	}
}
