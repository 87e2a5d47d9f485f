package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/sitehaven/sitehaven/pkg/auth"
	"github.com/sitehaven/sitehaven/pkg/provision"
	"github.com/sitehaven/sitehaven/pkg/resources"
	"github.com/sitehaven/sitehaven/pkg/tenants"
)

func main() {
	postgresURL := flag.String("postgres-url", os.Getenv("SITEHAVEN_POSTGRES_URL"), "PostgreSQL connection URL")
	tenantName := flag.String("tenant-name", "", "Display name for the new tenant")
	domain := flag.String("domain", "", "Subdomain for the new tenant")
	theme := flag.String("theme", "", "Initial theme (defaults to \"default\")")
	adminEmail := flag.String("admin-email", "", "Email for the tenant's admin user")
	adminPassword := flag.String("admin-password", "", "Password for the tenant's admin user")
	adminName := flag.String("admin-name", "", "Full name for the tenant's admin user")
	makeSuperAdmin := flag.String("make-super-admin", "", "Promote an existing user (by email) to super admin and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *postgresURL == "" {
		logger.Fatal("postgres URL is required (set -postgres-url or SITEHAVEN_POSTGRES_URL)")
	}

	db, err := sql.Open("postgres", *postgresURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.WithError(err).Fatal("database is unreachable")
	}

	userStore := auth.NewPostgresUserStore(db)

	if *makeSuperAdmin != "" {
		if err := userStore.PromoteSuperAdmin(ctx, *makeSuperAdmin); err != nil {
			logger.WithError(err).Fatal("failed to promote user")
		}
		logger.WithField("email", *makeSuperAdmin).Info("user promoted to super admin")
		return
	}

	if err := tenants.RunMigrations(ctx, db); err != nil {
		logger.WithError(err).Fatal("migrations failed")
	}
	logger.Debug("migrations applied")

	tenantService := tenants.NewPostgresService(db)
	store := resources.NewPostgresStore(db)
	provisioner := provision.NewProvisioner(tenantService, store, userStore, resources.DefaultRegistry())

	result, err := provisioner.Provision(ctx, &provision.Request{
		TenantName:    *tenantName,
		Domain:        *domain,
		Theme:         *theme,
		AdminEmail:    *adminEmail,
		AdminPassword: *adminPassword,
		AdminFullName: *adminName,
	})
	if err != nil {
		logger.WithError(err).Fatal("provisioning failed")
	}

	logger.WithFields(logrus.Fields{
		"tenant_id": result.Tenant.ID,
		"domain":    result.Tenant.Domain,
		"admin":     result.AdminUser.Email,
		"seeded":    result.SeededSlugs,
	}).Info("tenant provisioned")
}
