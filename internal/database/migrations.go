package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// landlord_id is the original single-owner column. It is kept as a
	// read-only fallback source; nothing after property creation writes it.
	`CREATE TABLE IF NOT EXISTS properties (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		address VARCHAR(500),
		landlord_id UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS property_grants (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		property_id UUID NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(50) NOT NULL DEFAULT 'viewer',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		permissions JSONB NOT NULL DEFAULT '{}',
		invited_by UUID REFERENCES users(id) ON DELETE SET NULL,
		invited_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		accepted_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(property_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS property_invitations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		property_id UUID NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		email VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'viewer',
		permissions JSONB NOT NULL DEFAULT '{}',
		token VARCHAR(64) NOT NULL UNIQUE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		invited_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		accepted_by UUID REFERENCES users(id) ON DELETE SET NULL,
		accepted_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS units (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		property_id UUID NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		label VARCHAR(100) NOT NULL,
		bedrooms INTEGER NOT NULL DEFAULT 0,
		rent_cents BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS tenants (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		property_id UUID NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		unit_id UUID REFERENCES units(id) ON DELETE SET NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_property_grants_property_id ON property_grants(property_id)`,
	`CREATE INDEX IF NOT EXISTS idx_property_grants_user_id ON property_grants(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_property_invitations_property_status ON property_invitations(property_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_property_invitations_expires_at ON property_invitations(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_landlord_id ON properties(landlord_id)`,
	`CREATE INDEX IF NOT EXISTS idx_units_property_id ON units(property_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tenants_property_id ON tenants(property_id)`,

	// Migration: backfill an active owner grant for every property that only
	// has the legacy landlord column. Same derivation the reconciler applies
	// at runtime; running it here keeps old databases consistent up front.
	`INSERT INTO property_grants (property_id, user_id, role, status, accepted_at)
	SELECT p.id, p.landlord_id, 'owner', 'active', NOW()
	FROM properties p
	WHERE p.landlord_id IS NOT NULL
	AND NOT EXISTS (
		SELECT 1 FROM property_grants g
		WHERE g.property_id = p.id AND g.role = 'owner' AND g.status = 'active'
	)
	ON CONFLICT (property_id, user_id) DO NOTHING`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
