package factory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	campus "github.com/lychee-technology/campus"
	"github.com/lychee-technology/campus/internal"
)

// Pool is the subset of *pgxpool.Pool the mutation service needs.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// RequiredTables lists every table the mutations read or write.
var RequiredTables = []string{
	"organization",
	"school",
	"user",
	"role",
	"permission",
	"role_permission",
	"age_range",
	"grade",
	"category",
	"subcategory",
	campus.CategorySubcategoryTable,
	"academic_term",
	"class",
	"organization_membership",
	campus.OrganizationMembershipRoleTable,
	"school_membership",
	campus.SchoolMembershipRoleTable,
}

type options struct {
	registerer prometheus.Registerer
}

// Option customizes NewMutationServiceWithConfig.
type Option func(*options)

// WithRegisterer registers the mutation metrics with reg instead of the default registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// NewMutationServiceWithConfig creates a MutationService backed by pool.
// This is the primary way for external projects to create one.
//
// Usage:
//
//	import (
//	    campus "github.com/lychee-technology/campus"
//	    "github.com/lychee-technology/campus/factory"
//	)
//
//	config := campus.DefaultConfig()
//	svc, err := factory.NewMutationServiceWithConfig(config, pool)
//	if err != nil {
//	    // handle error
//	}
//	auth := factory.NewAuthorizer(pool, userID, false)
//	nodes, err := svc.DeleteAgeRanges(ctx, auth, inputs)
func NewMutationServiceWithConfig(config *campus.Config, pool Pool, opts ...Option) (campus.MutationService, error) {
	if config == nil {
		config = campus.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}

	if err := verifyTables(context.Background(), pool); err != nil {
		return nil, err
	}

	var metrics *internal.MutationMetrics
	if config.Metrics.Enabled {
		var err error
		metrics, err = internal.NewMutationMetrics(o.registerer, config.Metrics.Namespace)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	var store campus.Store = internal.NewPostgresStore(pool)
	if r := config.Resilience; r.BreakerEnabled {
		breaker := internal.NewCircuitBreaker(r.BreakerThreshold, r.BreakerWindow, r.BreakerOpenDuration)
		store = internal.NewGuardedStore(store, breaker, metrics, "postgres")
	}

	engine := internal.NewEngine(store, config.Limits, metrics)
	zap.S().Infow("mutation service ready",
		"metrics", config.Metrics.Enabled, "breaker", config.Resilience.BreakerEnabled,
		"maxInputs", config.Limits.MutationMaxInputArraySize)
	return internal.NewMutationService(engine, config), nil
}

// NewAuthorizer resolves the permissions of userID from the role tables on first use.
// Super administrators pass every check.
func NewAuthorizer(pool Pool, userID uuid.UUID, isAdmin bool) campus.Authorizer {
	return internal.NewUserPermissions(pool, userID, isAdmin)
}

func verifyTables(ctx context.Context, pool Pool) error {
	rows, err := pool.Query(ctx, `SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'`)
	if err != nil {
		return fmt.Errorf("failed to verify database connection: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	var missing []string
	for _, t := range RequiredTables {
		if !slices.Contains(tables, t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tables are missing in the database: %v", missing)
	}
	zap.S().Debugw("database tables verified", "count", len(tables))
	return nil
}
